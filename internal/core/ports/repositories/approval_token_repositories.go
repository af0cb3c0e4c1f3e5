package repositories

import (
	"context"
	"time"

	"github.com/kobisoft/mutabakat_app/internal/core/domain"
)

// TokenTransition describes the document change a token consumption must
// execute atomically with marking the token consumed.
type TokenTransition struct {
	Action             domain.TransitionAction // approve or reject
	Reason             *string
	StatementRequested bool
	Meta               domain.ApprovalMeta
}

// ApprovalTokenRepository persists single-use approval tokens.
type ApprovalTokenRepository interface {
	// SaveToken stores a freshly issued token.
	SaveToken(ctx context.Context, token domain.ApprovalToken) error

	// FindToken retrieves a token by value, consumed or not.
	FindToken(ctx context.Context, tokenValue string) (*domain.ApprovalToken, error)

	// RecordConsents adds consent flags to an unconsumed token.
	RecordConsents(ctx context.Context, tokenValue string, flags []string) error

	// ConsumeWithTransition marks the token consumed and applies the
	// document transition in one database transaction. Either both happen
	// or neither does. Returns apperrors.ErrTokenUsed when the token was
	// already consumed and apperrors.ErrInvalidTransition when the bound
	// document left the SENT state.
	ConsumeWithTransition(ctx context.Context, tokenValue string, transition TokenTransition) error

	// PurgeConsumedBefore removes consumed tokens older than the cutoff.
	PurgeConsumedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
