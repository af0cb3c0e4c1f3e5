package services

import (
	"context"

	"github.com/kobisoft/mutabakat_app/internal/dto"
)

// ApprovalSvcFacade is the public, token-addressed approval gateway. No
// authenticated session is involved; the token is the credential.
type ApprovalSvcFacade interface {
	// ResolveToken maps a token to its document's public summary. Fails
	// with ErrNotFound (unknown token), ErrTokenUsed (consumed) or
	// ErrInvalidTransition (document not awaiting approval).
	ResolveToken(ctx context.Context, tokenValue string) (*dto.PublicDocumentView, error)

	// RecordConsents stores consent acknowledgments against the token.
	RecordConsents(ctx context.Context, tokenValue string, flags []string) error

	// Act performs approve or reject through the token, consuming it
	// atomically with the transition. Returns ErrConsentRequired while any
	// required consent flag is missing.
	Act(ctx context.Context, tokenValue string, req dto.PublicActionRequest, remoteIP string) error
}
