package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kobisoft/mutabakat_app/internal/apperrors"
	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	portsrepo "github.com/kobisoft/mutabakat_app/internal/core/ports/repositories"
	portssvc "github.com/kobisoft/mutabakat_app/internal/core/ports/services"
	"github.com/kobisoft/mutabakat_app/internal/middleware"
	"github.com/kobisoft/mutabakat_app/internal/platform/config"
	"github.com/kobisoft/mutabakat_app/internal/utils/eventstream"
)

// importService is the bulk import ingestor. Rows are processed strictly in
// file order; each job owns its event channel.
type importService struct {
	cfg          *config.Config
	documentRepo portsrepo.DocumentRepository
	partyRepo    portsrepo.PartyRepository
	userRepo     portsrepo.UserRepository
}

// NewImportService creates a new ImportService.
func NewImportService(cfg *config.Config, documentRepo portsrepo.DocumentRepository, partyRepo portsrepo.PartyRepository, userRepo portsrepo.UserRepository) portssvc.ImportSvcFacade {
	return &importService{
		cfg:          cfg,
		documentRepo: documentRepo,
		partyRepo:    partyRepo,
		userRepo:     userRepo,
	}
}

// Ensure importService implements the portssvc.ImportSvcFacade interface
var _ portssvc.ImportSvcFacade = (*importService)(nil)

// Admit enforces the upload ceilings before any row is touched. The whole job
// is rejected, never truncated.
func (s *importService) Admit(kind domain.ImportKind, declaredBytes int64, rowCount int) error {
	if declaredBytes > s.cfg.ImportMaxBytes {
		return fmt.Errorf("%w: file size %d exceeds the %d byte ceiling", apperrors.ErrAdmissionRejected, declaredBytes, s.cfg.ImportMaxBytes)
	}

	maxRows := s.cfg.ImportMaxRows
	if kind == domain.ImportDealerLines {
		maxRows = s.cfg.DealerImportMaxRows
	}
	if rowCount > maxRows {
		return fmt.Errorf("%w: %d rows exceeds the %d row ceiling", apperrors.ErrAdmissionRejected, rowCount, maxRows)
	}
	if rowCount == 0 {
		return fmt.Errorf("%w: file contains no data rows", apperrors.ErrAdmissionRejected)
	}
	return nil
}

// Ingest runs one reconciliation import job. The returned channel is buffered
// for the worst case (one event per row plus the total and terminal frames),
// so emission never blocks and a consumer that stops reading cannot stall the
// job. Committed rows stay committed on a mid-job failure.
func (s *importService) Ingest(ctx context.Context, rows [][]string, actorUserID string) (<-chan eventstream.Event, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	actor, err := s.userRepo.FindUserByID(ctx, actorUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown actor", apperrors.ErrForbidden)
		}
		return nil, fmt.Errorf("failed to load actor %s: %w", actorUserID, err)
	}
	if err := AuthorizeCreate(actor); err != nil {
		return nil, err
	}

	events := make(chan eventstream.Event, len(rows)+2)

	// The job must outlive the HTTP request that started it.
	jobCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(events)

		total := len(rows)
		events <- eventstream.Total(total)

		summary := domain.ImportSummary{Total: total}
		// First occurrence of a tax number within the job decides the
		// party name for every later row carrying the same number.
		partiesSeen := make(map[string]*domain.Party)

		for i, fields := range rows {
			index := i + 1

			record, rejection := ValidateRow(index, fields)
			if rejection != nil {
				summary.Rejected++
				summary.Rejections = append(summary.Rejections, *rejection)
				s.maybeProgress(events, index, total, &summary)
				continue
			}

			party, err := s.resolveParty(jobCtx, partiesSeen, *record, actorUserID)
			if err != nil {
				logger.Error("Import aborted: party resolution failed", slog.Int("row", index), slog.String("error", err.Error()))
				events <- eventstream.Error("storage", fmt.Sprintf("row %d: counterparty could not be stored", index))
				return
			}

			doc := buildImportDraft(*record, *actor.PartyID, party.PartyID, actorUserID, time.Now().UTC())
			if err := s.documentRepo.SaveDocument(jobCtx, doc); err != nil {
				logger.Error("Import aborted: document save failed", slog.Int("row", index), slog.String("error", err.Error()))
				events <- eventstream.Error("storage", fmt.Sprintf("row %d: document could not be stored", index))
				return
			}

			summary.Accepted++
			summary.Created = append(summary.Created, domain.RowSuccess{
				RowIndex:       index,
				DocumentNumber: doc.DocumentNumber,
				TaxNumber:      party.TaxNumber,
				PartyName:      party.DisplayName,
			})
			s.maybeProgress(events, index, total, &summary)
		}

		logger.Info("Import completed",
			slog.Int("total", summary.Total),
			slog.Int("accepted", summary.Accepted),
			slog.Int("rejected", summary.Rejected))
		events <- eventstream.Complete(summary)
	}()

	return events, nil
}

// IngestDealerLines runs one dealer line import against a draft document.
// Replacement is all-or-nothing: a single rejected row, or line balances that
// do not sum to the document balance, leaves the document untouched.
func (s *importService) IngestDealerLines(ctx context.Context, documentNumber string, rows [][]string, actorUserID string) (<-chan eventstream.Event, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	actor, err := s.userRepo.FindUserByID(ctx, actorUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown actor", apperrors.ErrForbidden)
		}
		return nil, fmt.Errorf("failed to load actor %s: %w", actorUserID, err)
	}

	doc, err := s.documentRepo.FindDocumentByNumber(ctx, documentNumber)
	if err != nil {
		return nil, err
	}
	// Dealer lines are part of the draft the sender is preparing, so the
	// send authorization rule applies.
	if err := AuthorizeTransition(actor, doc, domain.ActionSend); err != nil {
		return nil, err
	}
	if doc.Status != domain.StatusDraft {
		return nil, fmt.Errorf("%w: dealer lines can only be imported while the document is %s", apperrors.ErrInvalidTransition, domain.StatusDraft)
	}

	events := make(chan eventstream.Event, len(rows)+2)
	jobCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(events)

		total := len(rows)
		events <- eventstream.Total(total)

		summary := domain.ImportSummary{Total: total}
		lines := make([]domain.DealerLine, 0, total)
		sum := decimal.Zero

		for i, fields := range rows {
			index := i + 1

			record, rejection := ValidateDealerRow(index, fields)
			if rejection != nil {
				summary.Rejected++
				summary.Rejections = append(summary.Rejections, *rejection)
			} else {
				summary.Accepted++
				lines = append(lines, record.Line)
				sum = sum.Add(record.Line.Balance)
			}
			s.maybeProgress(events, index, total, &summary)
		}

		if summary.Rejected > 0 {
			logger.Warn("Dealer import finished with rejected rows; document unchanged",
				slog.String("document_number", documentNumber),
				slog.Int("rejected", summary.Rejected))
			events <- eventstream.Complete(summary)
			return
		}
		if !sum.Equal(doc.Balance()) {
			events <- eventstream.Error("validation", fmt.Sprintf(
				"dealer line balances sum to %s but the document balance is %s", sum, doc.Balance()))
			return
		}

		if err := s.documentRepo.ReplaceDealerLines(jobCtx, documentNumber, lines, actorUserID); err != nil {
			logger.Error("Dealer import aborted: replacement failed", slog.String("document_number", documentNumber), slog.String("error", err.Error()))
			kind := "storage"
			if errors.Is(err, apperrors.ErrInvalidTransition) {
				kind = "conflict"
			}
			events <- eventstream.Error(kind, "dealer lines could not be stored")
			return
		}

		logger.Info("Dealer import completed",
			slog.String("document_number", documentNumber),
			slog.Int("accepted", summary.Accepted))
		events <- eventstream.Complete(summary)
	}()

	return events, nil
}

// maybeProgress emits a progress event at the configured batch interval and
// always for the final row, so percent reaches 100 before the terminal event.
func (s *importService) maybeProgress(events chan<- eventstream.Event, index, total int, summary *domain.ImportSummary) {
	batch := s.cfg.ImportProgressBatch
	if batch <= 0 {
		batch = 1
	}
	if index%batch == 0 || index == total {
		events <- eventstream.Progress(index, total, summary.Accepted, summary.Rejected)
	}
}

// resolveParty returns the party for a row's tax number, creating it when
// unseen. Within one job the first row carrying a tax number decides the
// display name; across jobs the storage upsert is first-writer-wins.
func (s *importService) resolveParty(ctx context.Context, seen map[string]*domain.Party, record domain.ImportRecord, actorUserID string) (*domain.Party, error) {
	if party, ok := seen[record.TaxNumber]; ok {
		return party, nil
	}

	now := time.Now().UTC()
	party, _, err := s.partyRepo.ResolveOrCreateByTaxNumber(ctx, domain.Party{
		PartyID:      uuid.NewString(),
		TaxNumber:    record.TaxNumber,
		DisplayName:  record.DisplayName,
		ContactEmail: record.ContactEmail,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorUserID,
		},
	})
	if err != nil {
		return nil, err
	}

	seen[record.TaxNumber] = party
	return party, nil
}
