package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kobisoft/mutabakat_app/internal/apperrors"
	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	portsrepo "github.com/kobisoft/mutabakat_app/internal/core/ports/repositories"
	"github.com/kobisoft/mutabakat_app/internal/models"
	"github.com/kobisoft/mutabakat_app/internal/utils/mapping"
)

const partyColumns = `party_id, tax_number, display_name, contact_email, contact_phone,
		created_at, created_by, last_updated_at, last_updated_by`

type PgxPartyRepository struct {
	BaseRepository
}

// newPgxPartyRepository creates a new repository for reconciliation parties.
func newPgxPartyRepository(pool *pgxpool.Pool) portsrepo.PartyRepository {
	return &PgxPartyRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.PartyRepository = (*PgxPartyRepository)(nil)

// ResolveOrCreateByTaxNumber inserts the candidate unless a party with the
// same tax number already exists, then returns the surviving row. The unique
// constraint on tax_number makes concurrent inserts first-writer-wins: the
// loser's insert matches zero rows and the winner's row is read back.
func (r *PgxPartyRepository) ResolveOrCreateByTaxNumber(ctx context.Context, candidate domain.Party) (*domain.Party, bool, error) {
	modelParty := mapping.ToModelParty(candidate)

	insert := `
		INSERT INTO parties (party_id, tax_number, display_name, contact_email, contact_phone,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tax_number) DO NOTHING;
	`
	tag, err := r.Pool.Exec(ctx, insert,
		modelParty.PartyID,
		modelParty.TaxNumber,
		modelParty.DisplayName,
		modelParty.ContactEmail,
		modelParty.ContactPhone,
		modelParty.CreatedAt,
		modelParty.CreatedBy,
		modelParty.LastUpdatedAt,
		modelParty.LastUpdatedBy,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert party with tax number %s: %w", modelParty.TaxNumber, err)
	}
	created := tag.RowsAffected() > 0

	party, err := r.FindPartyByTaxNumber(ctx, candidate.TaxNumber)
	if err != nil {
		return nil, false, err
	}
	return party, created, nil
}

// FindPartyByID retrieves a party by its UUID.
func (r *PgxPartyRepository) FindPartyByID(ctx context.Context, partyID string) (*domain.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE party_id = $1;`
	return r.findOne(ctx, query, partyID)
}

// FindPartyByTaxNumber retrieves a party by its tax number.
func (r *PgxPartyRepository) FindPartyByTaxNumber(ctx context.Context, taxNumber string) (*domain.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE tax_number = $1;`
	return r.findOne(ctx, query, taxNumber)
}

func (r *PgxPartyRepository) findOne(ctx context.Context, query string, arg any) (*domain.Party, error) {
	var m models.Party
	err := r.Pool.QueryRow(ctx, query, arg).Scan(
		&m.PartyID,
		&m.TaxNumber,
		&m.DisplayName,
		&m.ContactEmail,
		&m.ContactPhone,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find party: %w", err)
	}

	domainParty := mapping.ToDomainParty(m)
	return &domainParty, nil
}
