package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kobisoft/mutabakat_app/internal/apperrors"
	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	portsrepo "github.com/kobisoft/mutabakat_app/internal/core/ports/repositories"
	"github.com/kobisoft/mutabakat_app/internal/models"
	"github.com/kobisoft/mutabakat_app/internal/utils/mapping"
)

type PgxApprovalTokenRepository struct {
	BaseRepository
}

// newPgxApprovalTokenRepository creates a new repository for approval tokens.
func newPgxApprovalTokenRepository(pool *pgxpool.Pool) portsrepo.ApprovalTokenRepository {
	return &PgxApprovalTokenRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.ApprovalTokenRepository = (*PgxApprovalTokenRepository)(nil)

// SaveToken stores a freshly issued token.
func (r *PgxApprovalTokenRepository) SaveToken(ctx context.Context, token domain.ApprovalToken) error {
	modelToken := mapping.ToModelApprovalToken(token)

	query := `
		INSERT INTO approval_tokens (token, document_number, consumed, consumed_at, consents, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelToken.Token,
		modelToken.DocumentNumber,
		modelToken.Consumed,
		modelToken.ConsumedAt,
		modelToken.Consents,
		modelToken.IssuedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: token", apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save approval token for %s: %w", modelToken.DocumentNumber, err)
	}
	return nil
}

// FindToken retrieves a token by value, consumed or not.
func (r *PgxApprovalTokenRepository) FindToken(ctx context.Context, tokenValue string) (*domain.ApprovalToken, error) {
	query := `
		SELECT token, document_number, consumed, consumed_at, consents, issued_at
		FROM approval_tokens
		WHERE token = $1;
	`
	var m models.ApprovalToken
	err := r.Pool.QueryRow(ctx, query, tokenValue).Scan(
		&m.Token,
		&m.DocumentNumber,
		&m.Consumed,
		&m.ConsumedAt,
		&m.Consents,
		&m.IssuedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find approval token: %w", err)
	}

	domainToken := mapping.ToDomainApprovalToken(m)
	return &domainToken, nil
}

// RecordConsents merges consent flags into an unconsumed token.
func (r *PgxApprovalTokenRepository) RecordConsents(ctx context.Context, tokenValue string, flags []string) error {
	// array_agg(DISTINCT ...) keeps the stored set free of duplicates when
	// the same flag is acknowledged twice.
	query := `
		UPDATE approval_tokens
		SET consents = (
			SELECT array_agg(DISTINCT c) FROM unnest(consents || $2::text[]) AS c
		)
		WHERE token = $1 AND NOT consumed;
	`
	tag, err := r.Pool.Exec(ctx, query, tokenValue, flags)
	if err != nil {
		return fmt.Errorf("failed to record consents: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.resolveZeroRows(ctx, tokenValue)
	}
	return nil
}

// ConsumeWithTransition marks the token consumed and applies the document
// transition in one transaction. Either both happen or neither does.
func (r *PgxApprovalTokenRepository) ConsumeWithTransition(ctx context.Context, tokenValue string, transition portsrepo.TokenTransition) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	consume := `
		UPDATE approval_tokens
		SET consumed = TRUE, consumed_at = $2
		WHERE token = $1 AND NOT consumed
		RETURNING document_number;
	`
	var documentNumber string
	if err := tx.QueryRow(ctx, consume, tokenValue, transition.Meta.Timestamp).Scan(&documentNumber); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.resolveZeroRows(ctx, tokenValue)
		}
		return fmt.Errorf("failed to consume approval token: %w", err)
	}

	// The gateway acts on behalf of the receiver party, not a user; the
	// token value identifies the updater in the audit trail.
	updatedBy := "token:" + tokenValue
	check := func(ctx context.Context, exec dbExecutor, tag pgconn.CommandTag, docNumber string) error {
		if tag.RowsAffected() > 0 {
			return nil
		}
		return fmt.Errorf("%w: document %s already changed state", apperrors.ErrInvalidTransition, docNumber)
	}

	switch transition.Action {
	case domain.ActionApprove:
		err = markApproved(ctx, tx, check, documentNumber, transition.Meta.Timestamp, updatedBy, &transition.Meta)
	case domain.ActionReject:
		reason := ""
		if transition.Reason != nil {
			reason = *transition.Reason
		}
		err = markRejected(ctx, tx, check, documentNumber, transition.Meta.Timestamp, updatedBy, reason, transition.StatementRequested, &transition.Meta)
	default:
		return fmt.Errorf("%w: token transition %q", apperrors.ErrValidation, transition.Action)
	}
	if err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

func (r *PgxApprovalTokenRepository) resolveZeroRows(ctx context.Context, tokenValue string) error {
	var consumed bool
	err := r.Pool.QueryRow(ctx, `SELECT consumed FROM approval_tokens WHERE token = $1;`, tokenValue).Scan(&consumed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to check approval token: %w", err)
	}
	if consumed {
		return apperrors.ErrTokenUsed
	}
	return apperrors.ErrNotFound
}

// PurgeConsumedBefore removes consumed tokens older than the cutoff. The
// retention sweeper calls this on a schedule.
func (r *PgxApprovalTokenRepository) PurgeConsumedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM approval_tokens WHERE consumed AND consumed_at < $1;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge consumed approval tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
