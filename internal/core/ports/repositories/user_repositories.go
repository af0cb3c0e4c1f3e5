package repositories

import (
	"context"

	"github.com/kobisoft/mutabakat_app/internal/core/domain"
)

// UserRepository persists actors.
type UserRepository interface {
	SaveUser(ctx context.Context, user domain.User) error
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
}
