package services

import (
	"context"

	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	"github.com/kobisoft/mutabakat_app/internal/dto"
)

// UserSvcFacade manages actors.
type UserSvcFacade interface {
	CreateUser(ctx context.Context, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}
