package services

import (
	"context"

	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	"github.com/kobisoft/mutabakat_app/internal/utils/eventstream"
)

// ImportSvcFacade runs the streaming bulk imports: decoded spreadsheet rows
// in, ordered progress events out.
type ImportSvcFacade interface {
	// Admit checks the upload against the configured row and byte ceilings
	// for the given import kind before any row is processed. Returns
	// apperrors.ErrAdmissionRejected when a ceiling is exceeded.
	Admit(kind domain.ImportKind, declaredBytes int64, rowCount int) error

	// Ingest processes reconciliation rows strictly in file order on behalf
	// of the actor, creating one draft document per accepted row, and
	// returns the event channel for the job. The channel yields one total
	// event, zero or more progress events, then exactly one complete or
	// error event, and is closed afterwards. Ingestion never blocks on a
	// slow consumer and is not canceled by consumer disconnect.
	Ingest(ctx context.Context, rows [][]string, actorUserID string) (<-chan eventstream.Event, error)

	// IngestDealerLines validates sub-ledger rows for one draft document
	// and, when every row is accepted and the balances sum to the document
	// balance, replaces the document's dealer lines in one step. The event
	// protocol is the same as Ingest's.
	IngestDealerLines(ctx context.Context, documentNumber string, rows [][]string, actorUserID string) (<-chan eventstream.Event, error)
}
