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
	"github.com/kobisoft/mutabakat_app/internal/utils/pagination"
)

// dbExecutor is the subset of pgxpool.Pool and pgx.Tx the queries need, so
// the same statements run inside and outside a transaction.
type dbExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const documentColumns = `document_number, status, sender_party_id, receiver_party_id,
		period_start, period_end, total_debit, total_credit, description,
		rejection_reason, statement_requested, sent_at, resolved_at,
		approval_remote_ip, approval_consents, approval_at,
		created_at, created_by, last_updated_at, last_updated_by`

type PgxDocumentRepository struct {
	BaseRepository
}

// newPgxDocumentRepository creates a new repository for reconciliation documents.
func newPgxDocumentRepository(pool *pgxpool.Pool) portsrepo.DocumentRepository {
	return &PgxDocumentRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.DocumentRepository = (*PgxDocumentRepository)(nil)

// SaveDocument inserts a new document and its dealer lines in one transaction.
func (r *PgxDocumentRepository) SaveDocument(ctx context.Context, doc domain.Document) error {
	modelDoc := mapping.ToModelDocument(doc)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO documents (document_number, status, sender_party_id, receiver_party_id,
			period_start, period_end, total_debit, total_credit, description,
			rejection_reason, statement_requested, sent_at, resolved_at,
			approval_remote_ip, approval_consents, approval_at,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
	`
	_, err = tx.Exec(ctx, query,
		modelDoc.DocumentNumber,
		modelDoc.Status,
		modelDoc.SenderPartyID,
		modelDoc.ReceiverPartyID,
		modelDoc.PeriodStart,
		modelDoc.PeriodEnd,
		modelDoc.TotalDebit,
		modelDoc.TotalCredit,
		modelDoc.Description,
		modelDoc.RejectionReason,
		modelDoc.StatementRequested,
		modelDoc.SentAt,
		modelDoc.ResolvedAt,
		modelDoc.ApprovalRemoteIP,
		modelDoc.ApprovalConsents,
		modelDoc.ApprovalAt,
		modelDoc.CreatedAt,
		modelDoc.CreatedBy,
		modelDoc.LastUpdatedAt,
		modelDoc.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: document %s", apperrors.ErrDuplicate, modelDoc.DocumentNumber)
		}
		return fmt.Errorf("failed to save document %s: %w", modelDoc.DocumentNumber, err)
	}

	if err := insertDealerLines(ctx, tx, modelDoc.DocumentNumber, doc.DealerLines); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

func insertDealerLines(ctx context.Context, exec dbExecutor, documentNumber string, lines []domain.DealerLine) error {
	if len(lines) == 0 {
		return nil
	}
	query := `
		INSERT INTO dealer_lines (document_number, line_no, dealer_code, dealer_name, balance)
		VALUES ($1, $2, $3, $4, $5);
	`
	for _, line := range mapping.ToModelDealerLines(documentNumber, lines) {
		if _, err := exec.Exec(ctx, query, line.DocumentNumber, line.LineNo, line.DealerCode, line.DealerName, line.Balance); err != nil {
			return fmt.Errorf("failed to save dealer line %d of %s: %w", line.LineNo, documentNumber, err)
		}
	}
	return nil
}

// FindDocumentByNumber retrieves one document with its dealer lines.
func (r *PgxDocumentRepository) FindDocumentByNumber(ctx context.Context, documentNumber string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE document_number = $1;`

	modelDoc, err := scanDocumentRow(r.Pool.QueryRow(ctx, query, documentNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find document %s: %w", documentNumber, err)
	}

	lines, err := r.findDealerLines(ctx, documentNumber)
	if err != nil {
		return nil, err
	}

	domainDoc := mapping.ToDomainDocument(modelDoc)
	domainDoc.DealerLines = lines
	return &domainDoc, nil
}

func (r *PgxDocumentRepository) findDealerLines(ctx context.Context, documentNumber string) ([]domain.DealerLine, error) {
	query := `
		SELECT document_number, line_no, dealer_code, dealer_name, balance
		FROM dealer_lines
		WHERE document_number = $1
		ORDER BY line_no;
	`
	rows, err := r.Pool.Query(ctx, query, documentNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query dealer lines of %s: %w", documentNumber, err)
	}
	defer rows.Close()

	modelLines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.DealerLine, error) {
		var line models.DealerLine
		err := row.Scan(&line.DocumentNumber, &line.LineNo, &line.DealerCode, &line.DealerName, &line.Balance)
		return line, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan dealer lines of %s: %w", documentNumber, err)
	}
	if len(modelLines) == 0 {
		return nil, nil
	}
	return mapping.ToDomainDealerLines(modelLines), nil
}

// ListDocumentsByParty pages documents where the party is sender or receiver,
// newest first, with keyset pagination on (created_at, document_number).
func (r *PgxDocumentRepository) ListDocumentsByParty(ctx context.Context, partyID string, limit int, nextToken *string) ([]domain.Document, *string, error) {
	args := []any{partyID, limit + 1}
	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE (sender_party_id = $1 OR receiver_party_id = $1)`

	if nextToken != nil && *nextToken != "" {
		createdAt, docNumber, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (created_at, document_number) < ($3, $4)`
		args = append(args, createdAt, docNumber)
	}
	query += ` ORDER BY created_at DESC, document_number DESC LIMIT $2;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query documents for party %s: %w", partyID, err)
	}
	defer rows.Close()

	modelDocs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Document, error) {
		return scanDocumentRow(row)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan documents for party %s: %w", partyID, err)
	}

	var newNextToken *string
	if len(modelDocs) > limit {
		modelDocs = modelDocs[:limit]
		last := modelDocs[len(modelDocs)-1]
		token := pagination.EncodeToken(last.CreatedAt, last.DocumentNumber)
		newNextToken = &token
	}

	return mapping.ToDomainDocumentSlice(modelDocs), newNextToken, nil
}

func scanDocumentRow(row pgx.Row) (models.Document, error) {
	var m models.Document
	err := row.Scan(
		&m.DocumentNumber,
		&m.Status,
		&m.SenderPartyID,
		&m.ReceiverPartyID,
		&m.PeriodStart,
		&m.PeriodEnd,
		&m.TotalDebit,
		&m.TotalCredit,
		&m.Description,
		&m.RejectionReason,
		&m.StatementRequested,
		&m.SentAt,
		&m.ResolvedAt,
		&m.ApprovalRemoteIP,
		&m.ApprovalConsents,
		&m.ApprovalAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// MarkSent moves DRAFT -> SENT. The status predicate in the update is the
// compare-and-swap: a concurrent transition makes this match zero rows.
func (r *PgxDocumentRepository) MarkSent(ctx context.Context, documentNumber string, sentAt time.Time, updatedBy string) error {
	query := `
		UPDATE documents
		SET status = $2, sent_at = $3, last_updated_at = $3, last_updated_by = $4
		WHERE document_number = $1 AND status = $5;
	`
	tag, err := r.Pool.Exec(ctx, query, documentNumber, string(domain.StatusSent), sentAt, updatedBy, string(domain.StatusDraft))
	if err != nil {
		return fmt.Errorf("failed to mark document %s sent: %w", documentNumber, err)
	}
	return r.checkTransitionApplied(ctx, r.Pool, tag, documentNumber)
}

// MarkApproved moves SENT -> APPROVED.
func (r *PgxDocumentRepository) MarkApproved(ctx context.Context, documentNumber string, resolvedAt time.Time, updatedBy string, meta *domain.ApprovalMeta) error {
	return markApproved(ctx, r.Pool, r.checkFn(), documentNumber, resolvedAt, updatedBy, meta)
}

// MarkRejected moves SENT -> REJECTED recording the mandatory reason.
func (r *PgxDocumentRepository) MarkRejected(ctx context.Context, documentNumber string, resolvedAt time.Time, updatedBy string, reason string, statementRequested bool, meta *domain.ApprovalMeta) error {
	return markRejected(ctx, r.Pool, r.checkFn(), documentNumber, resolvedAt, updatedBy, reason, statementRequested, meta)
}

// transitionCheck resolves a zero-row transition update into ErrNotFound or
// ErrInvalidTransition.
type transitionCheck func(ctx context.Context, exec dbExecutor, tag pgconn.CommandTag, documentNumber string) error

func (r *PgxDocumentRepository) checkFn() transitionCheck {
	return func(ctx context.Context, exec dbExecutor, tag pgconn.CommandTag, documentNumber string) error {
		return r.checkTransitionApplied(ctx, exec, tag, documentNumber)
	}
}

func (r *PgxDocumentRepository) checkTransitionApplied(ctx context.Context, exec dbExecutor, tag pgconn.CommandTag, documentNumber string) error {
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := exec.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE document_number = $1);`, documentNumber).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check document %s: %w", documentNumber, err)
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("%w: document %s already changed state", apperrors.ErrInvalidTransition, documentNumber)
}

func approvalMetaColumns(meta *domain.ApprovalMeta) (remoteIP *string, consents []string, at *time.Time) {
	if meta == nil {
		return nil, nil, nil
	}
	return &meta.RemoteIP, meta.Consents, &meta.Timestamp
}

// markApproved and markRejected run against either the pool or an open
// transaction; the approval token repository reuses them when consuming a
// token.
func markApproved(ctx context.Context, exec dbExecutor, check transitionCheck, documentNumber string, resolvedAt time.Time, updatedBy string, meta *domain.ApprovalMeta) error {
	remoteIP, consents, at := approvalMetaColumns(meta)
	query := `
		UPDATE documents
		SET status = $2, resolved_at = $3, last_updated_at = $3, last_updated_by = $4,
			approval_remote_ip = $5, approval_consents = $6, approval_at = $7
		WHERE document_number = $1 AND status = $8;
	`
	tag, err := exec.Exec(ctx, query, documentNumber, string(domain.StatusApproved), resolvedAt, updatedBy, remoteIP, consents, at, string(domain.StatusSent))
	if err != nil {
		return fmt.Errorf("failed to mark document %s approved: %w", documentNumber, err)
	}
	return check(ctx, exec, tag, documentNumber)
}

func markRejected(ctx context.Context, exec dbExecutor, check transitionCheck, documentNumber string, resolvedAt time.Time, updatedBy string, reason string, statementRequested bool, meta *domain.ApprovalMeta) error {
	remoteIP, consents, at := approvalMetaColumns(meta)
	query := `
		UPDATE documents
		SET status = $2, resolved_at = $3, last_updated_at = $3, last_updated_by = $4,
			rejection_reason = $5, statement_requested = $6,
			approval_remote_ip = $7, approval_consents = $8, approval_at = $9
		WHERE document_number = $1 AND status = $10;
	`
	tag, err := exec.Exec(ctx, query, documentNumber, string(domain.StatusRejected), resolvedAt, updatedBy, reason, statementRequested, remoteIP, consents, at, string(domain.StatusSent))
	if err != nil {
		return fmt.Errorf("failed to mark document %s rejected: %w", documentNumber, err)
	}
	return check(ctx, exec, tag, documentNumber)
}

// ReplaceDealerLines swaps a DRAFT document's sub-ledger lines in one
// transaction. The touch update doubles as the DRAFT compare-and-swap and
// locks the row against a concurrent send.
func (r *PgxDocumentRepository) ReplaceDealerLines(ctx context.Context, documentNumber string, lines []domain.DealerLine, updatedBy string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	touch := `
		UPDATE documents
		SET last_updated_at = now(), last_updated_by = $2
		WHERE document_number = $1 AND status = $3;
	`
	tag, err := tx.Exec(ctx, touch, documentNumber, updatedBy, string(domain.StatusDraft))
	if err != nil {
		return fmt.Errorf("failed to lock document %s for dealer line replacement: %w", documentNumber, err)
	}
	if err := r.checkTransitionApplied(ctx, tx, tag, documentNumber); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM dealer_lines WHERE document_number = $1;`, documentNumber); err != nil {
		return fmt.Errorf("failed to clear dealer lines of %s: %w", documentNumber, err)
	}
	if err := insertDealerLines(ctx, tx, documentNumber, lines); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// DeleteDraft removes a document while still in DRAFT, dealer lines included.
func (r *PgxDocumentRepository) DeleteDraft(ctx context.Context, documentNumber string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM dealer_lines WHERE document_number = $1;`, documentNumber); err != nil {
		return fmt.Errorf("failed to delete dealer lines of %s: %w", documentNumber, err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM documents WHERE document_number = $1 AND status = $2;`, documentNumber, string(domain.StatusDraft))
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentNumber, err)
	}
	if err := r.checkTransitionApplied(ctx, tx, tag, documentNumber); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}
