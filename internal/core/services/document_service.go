package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kobisoft/mutabakat_app/internal/apperrors"
	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	portsrepo "github.com/kobisoft/mutabakat_app/internal/core/ports/repositories"
	portssvc "github.com/kobisoft/mutabakat_app/internal/core/ports/services"
	"github.com/kobisoft/mutabakat_app/internal/dto"
	"github.com/kobisoft/mutabakat_app/internal/middleware"
	"github.com/kobisoft/mutabakat_app/internal/utils"
)

var (
	ErrPeriodOrder       = errors.New("period start must not be after period end")
	ErrSameParty         = errors.New("sender and receiver must be different parties")
	ErrNegativeAmount    = errors.New("debit and credit totals must be non-negative")
	ErrDealerLinesSum    = errors.New("dealer line balances must sum to the document balance")
	ErrReasonMissing     = errors.New("rejection reason is required")
	ErrActorPartyMissing = errors.New("actor is not bound to a party")
)

// documentService owns the reconciliation document lifecycle.
type documentService struct {
	documentRepo portsrepo.DocumentRepository
	partyRepo    portsrepo.PartyRepository
	tokenRepo    portsrepo.ApprovalTokenRepository
	userRepo     portsrepo.UserRepository
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(documentRepo portsrepo.DocumentRepository, partyRepo portsrepo.PartyRepository, tokenRepo portsrepo.ApprovalTokenRepository, userRepo portsrepo.UserRepository) portssvc.DocumentSvcFacade {
	return &documentService{
		documentRepo: documentRepo,
		partyRepo:    partyRepo,
		tokenRepo:    tokenRepo,
		userRepo:     userRepo,
	}
}

// Ensure documentService implements the portssvc.DocumentSvcFacade interface
var _ portssvc.DocumentSvcFacade = (*documentService)(nil)

func (s *documentService) actor(ctx context.Context, userID string) (*domain.User, error) {
	actor, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown actor", apperrors.ErrForbidden)
		}
		return nil, fmt.Errorf("failed to load actor %s: %w", userID, err)
	}
	return actor, nil
}

// validateDocumentShape checks the invariants every document must satisfy at
// creation: period ordering, non-negative totals and dealer lines summing to
// the balance.
func validateDocumentShape(doc *domain.Document) error {
	if doc.PeriodStart.After(doc.PeriodEnd) {
		return fmt.Errorf("%w: %s > %s", ErrPeriodOrder, doc.PeriodStart.Format("2006-01-02"), doc.PeriodEnd.Format("2006-01-02"))
	}
	if doc.TotalDebit.IsNegative() || doc.TotalCredit.IsNegative() {
		return ErrNegativeAmount
	}
	if doc.SenderPartyID == doc.ReceiverPartyID {
		return ErrSameParty
	}
	if !doc.DealerLinesBalanced() {
		return ErrDealerLinesSum
	}
	return nil
}

// CreateDocument creates a new reconciliation document in DRAFT after validation.
// Implements portssvc.DocumentSvcFacade
func (s *documentService) CreateDocument(ctx context.Context, req dto.CreateDocumentRequest, creatorUserID string) (*domain.Document, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	actor, err := s.actor(ctx, creatorUserID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeCreate(actor); err != nil {
		logger.Warn("Authorization failed for CreateDocument", slog.String("user_id", creatorUserID), slog.String("error", err.Error()))
		return nil, err
	}

	if !domain.ValidTaxNumber(req.ReceiverTaxNumber) {
		return nil, fmt.Errorf("%w: tax number must be 10 or 11 digits", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	receiver, created, err := s.partyRepo.ResolveOrCreateByTaxNumber(ctx, domain.Party{
		PartyID:     uuid.NewString(),
		TaxNumber:   req.ReceiverTaxNumber,
		DisplayName: req.ReceiverName,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	})
	if err != nil {
		logger.Error("Failed to resolve receiver party", slog.String("error", err.Error()), slog.String("tax_number", req.ReceiverTaxNumber))
		return nil, fmt.Errorf("failed to resolve receiver party: %w", err)
	}
	if created {
		logger.Info("Receiver party auto-created", slog.String("party_id", receiver.PartyID), slog.String("tax_number", receiver.TaxNumber))
	}

	lines := make([]domain.DealerLine, len(req.DealerLines))
	for i, l := range req.DealerLines {
		lines[i] = domain.DealerLine{DealerCode: l.DealerCode, DealerName: l.DealerName, Balance: l.Balance}
	}

	doc := domain.Document{
		DocumentNumber:  utils.NewDocumentNumber(now),
		Status:          domain.StatusDraft,
		SenderPartyID:   *actor.PartyID,
		ReceiverPartyID: receiver.PartyID,
		PeriodStart:     req.PeriodStart,
		PeriodEnd:       req.PeriodEnd,
		TotalDebit:      req.TotalDebit,
		TotalCredit:     req.TotalCredit,
		Description:     req.Description,
		DealerLines:     lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := validateDocumentShape(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	if err := s.documentRepo.SaveDocument(ctx, doc); err != nil {
		logger.Error("Failed to save document", slog.String("error", err.Error()), slog.String("document_number", doc.DocumentNumber))
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	logger.Info("Document created", slog.String("document_number", doc.DocumentNumber), slog.String("receiver_party_id", receiver.PartyID))
	return &doc, nil
}

// GetDocument retrieves a document the actor is related to. Existence is
// obscured from unrelated actors.
func (s *documentService) GetDocument(ctx context.Context, documentNumber string, requestingUserID string) (*domain.Document, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	actor, err := s.actor(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}

	doc, err := s.documentRepo.FindDocumentByNumber(ctx, documentNumber)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find document", slog.String("error", err.Error()), slog.String("document_number", documentNumber))
		}
		return nil, err
	}

	if !CanView(actor, doc) {
		logger.Warn("Actor unrelated to document requested it", slog.String("document_number", documentNumber))
		return nil, apperrors.ErrNotFound
	}

	return doc, nil
}

// ListDocuments pages documents where the actor's party is sender or receiver.
func (s *documentService) ListDocuments(ctx context.Context, requestingUserID string, params dto.ListDocumentsParams) (*dto.ListDocumentsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	actor, err := s.actor(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	if actor.PartyID == nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrForbidden, ErrActorPartyMissing)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	docs, nextToken, err := s.documentRepo.ListDocumentsByParty(ctx, *actor.PartyID, limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list documents", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to retrieve documents: %w", err)
	}

	return &dto.ListDocumentsResponse{
		Documents: dto.ToDocumentResponses(docs),
		NextToken: nextToken,
	}, nil
}

// SendDocument moves DRAFT -> SENT and issues the receiver's approval token.
func (s *documentService) SendDocument(ctx context.Context, documentNumber string, actorUserID string) (*domain.Document, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	actor, err := s.actor(ctx, actorUserID)
	if err != nil {
		return nil, err
	}

	doc, err := s.documentRepo.FindDocumentByNumber(ctx, documentNumber)
	if err != nil {
		return nil, err
	}

	if err := AuthorizeTransition(actor, doc, domain.ActionSend); err != nil {
		logger.Warn("Authorization failed for SendDocument", slog.String("document_number", documentNumber), slog.String("error", err.Error()))
		return nil, err
	}
	if !domain.CanTransition(doc.Status, domain.ActionSend) {
		return nil, fmt.Errorf("%w: cannot send from %s", apperrors.ErrInvalidTransition, doc.Status)
	}

	now := time.Now().UTC()
	// The repository re-checks DRAFT under the update; a concurrent send
	// loses here and reports ErrInvalidTransition.
	if err := s.documentRepo.MarkSent(ctx, documentNumber, now, actorUserID); err != nil {
		return nil, err
	}

	token := domain.ApprovalToken{
		Token:          uuid.NewString(),
		DocumentNumber: documentNumber,
		IssuedAt:       now,
	}
	if err := s.tokenRepo.SaveToken(ctx, token); err != nil {
		// The document is already SENT; the token can be reissued, so
		// surface the failure without unwinding the transition.
		logger.Error("Failed to issue approval token", slog.String("error", err.Error()), slog.String("document_number", documentNumber))
		return nil, fmt.Errorf("document sent but approval token issuance failed: %w", err)
	}

	doc.Status = domain.StatusSent
	doc.SentAt = &now
	doc.LastUpdatedAt = now
	doc.LastUpdatedBy = actorUserID

	logger.Info("Document sent", slog.String("document_number", documentNumber), slog.String("approval_token", token.Token))
	return doc, nil
}

// ApproveDocument moves SENT -> APPROVED on behalf of the receiver actor.
func (s *documentService) ApproveDocument(ctx context.Context, documentNumber string, actorUserID string) (*domain.Document, error) {
	return s.resolve(ctx, documentNumber, actorUserID, domain.ActionApprove, "", false)
}

// RejectDocument moves SENT -> REJECTED with a mandatory reason.
func (s *documentService) RejectDocument(ctx context.Context, documentNumber string, actorUserID string, reason string, requestStatement bool) (*domain.Document, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, ErrReasonMissing)
	}
	return s.resolve(ctx, documentNumber, actorUserID, domain.ActionReject, reason, requestStatement)
}

func (s *documentService) resolve(ctx context.Context, documentNumber string, actorUserID string, action domain.TransitionAction, reason string, requestStatement bool) (*domain.Document, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	actor, err := s.actor(ctx, actorUserID)
	if err != nil {
		return nil, err
	}

	doc, err := s.documentRepo.FindDocumentByNumber(ctx, documentNumber)
	if err != nil {
		return nil, err
	}

	if err := AuthorizeTransition(actor, doc, action); err != nil {
		logger.Warn("Authorization failed for document resolution", slog.String("document_number", documentNumber), slog.String("action", string(action)), slog.String("error", err.Error()))
		return nil, err
	}
	if !domain.CanTransition(doc.Status, action) {
		return nil, fmt.Errorf("%w: cannot %s from %s", apperrors.ErrInvalidTransition, action, doc.Status)
	}

	now := time.Now().UTC()
	switch action {
	case domain.ActionApprove:
		err = s.documentRepo.MarkApproved(ctx, documentNumber, now, actorUserID, nil)
		doc.Status = domain.StatusApproved
	case domain.ActionReject:
		err = s.documentRepo.MarkRejected(ctx, documentNumber, now, actorUserID, reason, requestStatement, nil)
		doc.Status = domain.StatusRejected
		doc.RejectionReason = &reason
		doc.StatementRequested = requestStatement
	}
	if err != nil {
		return nil, err
	}

	doc.ResolvedAt = &now
	doc.LastUpdatedAt = now
	doc.LastUpdatedBy = actorUserID

	logger.Info("Document resolved", slog.String("document_number", documentNumber), slog.String("action", string(action)))
	return doc, nil
}

// DeleteDocument removes a document that is still in DRAFT.
func (s *documentService) DeleteDocument(ctx context.Context, documentNumber string, actorUserID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	actor, err := s.actor(ctx, actorUserID)
	if err != nil {
		return err
	}

	doc, err := s.documentRepo.FindDocumentByNumber(ctx, documentNumber)
	if err != nil {
		return err
	}

	if err := AuthorizeTransition(actor, doc, domain.ActionDelete); err != nil {
		logger.Warn("Authorization failed for DeleteDocument", slog.String("document_number", documentNumber), slog.String("error", err.Error()))
		return err
	}
	if !domain.CanTransition(doc.Status, domain.ActionDelete) {
		return fmt.Errorf("%w: cannot delete from %s", apperrors.ErrInvalidTransition, doc.Status)
	}

	if err := s.documentRepo.DeleteDraft(ctx, documentNumber); err != nil {
		return err
	}

	logger.Info("Draft document deleted", slog.String("document_number", documentNumber))
	return nil
}

// buildImportDraft assembles a DRAFT document for one accepted import row.
// Shared with the bulk import ingestor.
func buildImportDraft(record domain.ImportRecord, senderPartyID, receiverPartyID, creatorUserID string, now time.Time) domain.Document {
	periodStart := record.PeriodStart
	periodEnd := record.PeriodEnd
	if periodStart.IsZero() {
		// Default to the month the import runs in.
		periodStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		periodEnd = periodStart.AddDate(0, 1, -1)
	}
	return domain.Document{
		DocumentNumber:  utils.NewDocumentNumber(now),
		Status:          domain.StatusDraft,
		SenderPartyID:   senderPartyID,
		ReceiverPartyID: receiverPartyID,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		TotalDebit:      record.TotalDebit,
		TotalCredit:     record.TotalCredit,
		Description:     record.Description,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
}
