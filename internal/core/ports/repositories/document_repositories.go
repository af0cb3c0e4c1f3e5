package repositories

import (
	"context"
	"time"

	"github.com/kobisoft/mutabakat_app/internal/core/domain"
)

// DocumentRepository persists reconciliation documents. All transition
// methods are compare-and-swap on the expected source state: when the
// document is no longer in that state they return
// apperrors.ErrInvalidTransition and change nothing.
type DocumentRepository interface {
	// SaveDocument inserts a new document (always in DRAFT).
	SaveDocument(ctx context.Context, doc domain.Document) error

	// FindDocumentByNumber retrieves one document with its dealer lines.
	FindDocumentByNumber(ctx context.Context, documentNumber string) (*domain.Document, error)

	// ListDocumentsByParty pages documents where the party is sender or
	// receiver, newest first, using keyset pagination tokens.
	ListDocumentsByParty(ctx context.Context, partyID string, limit int, nextToken *string) ([]domain.Document, *string, error)

	// MarkSent moves DRAFT -> SENT and stamps the send time.
	MarkSent(ctx context.Context, documentNumber string, sentAt time.Time, updatedBy string) error

	// MarkApproved moves SENT -> APPROVED.
	MarkApproved(ctx context.Context, documentNumber string, resolvedAt time.Time, updatedBy string, meta *domain.ApprovalMeta) error

	// MarkRejected moves SENT -> REJECTED recording the mandatory reason.
	MarkRejected(ctx context.Context, documentNumber string, resolvedAt time.Time, updatedBy string, reason string, statementRequested bool, meta *domain.ApprovalMeta) error

	// ReplaceDealerLines swaps a DRAFT document's sub-ledger lines in one
	// statement batch. Fails with ErrInvalidTransition when the document
	// has left DRAFT.
	ReplaceDealerLines(ctx context.Context, documentNumber string, lines []domain.DealerLine, updatedBy string) error

	// DeleteDraft removes a document while still in DRAFT.
	DeleteDraft(ctx context.Context, documentNumber string) error
}
