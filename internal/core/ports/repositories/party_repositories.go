package repositories

import (
	"context"

	"github.com/kobisoft/mutabakat_app/internal/core/domain"
)

// PartyRepository persists counterparties keyed by tax number.
type PartyRepository interface {
	// ResolveOrCreateByTaxNumber returns the existing party for the tax
	// number or creates the candidate. Concurrent creators of the same tax
	// number must not produce duplicates: the first writer wins and later
	// writers receive the existing record (created == false).
	ResolveOrCreateByTaxNumber(ctx context.Context, candidate domain.Party) (*domain.Party, bool, error)

	// FindPartyByID retrieves a party by its identifier.
	FindPartyByID(ctx context.Context, partyID string) (*domain.Party, error)

	// FindPartyByTaxNumber retrieves a party by its tax number.
	FindPartyByTaxNumber(ctx context.Context, taxNumber string) (*domain.Party, error)
}
