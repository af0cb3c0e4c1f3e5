package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kobisoft/mutabakat_app/internal/apperrors"
	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	portsrepo "github.com/kobisoft/mutabakat_app/internal/core/ports/repositories"
	portssvc "github.com/kobisoft/mutabakat_app/internal/core/ports/services"
	"github.com/kobisoft/mutabakat_app/internal/dto"
	"github.com/kobisoft/mutabakat_app/internal/middleware"
)

// approvalService is the public approval gateway: the single-use token is the
// only credential an external counterparty holds.
type approvalService struct {
	tokenRepo    portsrepo.ApprovalTokenRepository
	documentRepo portsrepo.DocumentRepository
	partyRepo    portsrepo.PartyRepository
}

// NewApprovalService creates a new ApprovalService.
func NewApprovalService(tokenRepo portsrepo.ApprovalTokenRepository, documentRepo portsrepo.DocumentRepository, partyRepo portsrepo.PartyRepository) portssvc.ApprovalSvcFacade {
	return &approvalService{
		tokenRepo:    tokenRepo,
		documentRepo: documentRepo,
		partyRepo:    partyRepo,
	}
}

// Ensure approvalService implements the portssvc.ApprovalSvcFacade interface
var _ portssvc.ApprovalSvcFacade = (*approvalService)(nil)

// load fetches a token and its document and checks the token is still
// actionable: not consumed, document still awaiting a decision.
func (s *approvalService) load(ctx context.Context, tokenValue string) (*domain.ApprovalToken, *domain.Document, error) {
	token, err := s.tokenRepo.FindToken(ctx, tokenValue)
	if err != nil {
		return nil, nil, err
	}
	if token.Consumed {
		return nil, nil, fmt.Errorf("%w: approval link already used", apperrors.ErrTokenUsed)
	}

	doc, err := s.documentRepo.FindDocumentByNumber(ctx, token.DocumentNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load document for token: %w", err)
	}
	if doc.Status != domain.StatusSent {
		return nil, nil, fmt.Errorf("%w: document is %s, not awaiting approval", apperrors.ErrInvalidTransition, doc.Status)
	}
	return token, doc, nil
}

// ResolveToken returns the public summary the approval page displays.
func (s *approvalService) ResolveToken(ctx context.Context, tokenValue string) (*dto.PublicDocumentView, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	token, doc, err := s.load(ctx, tokenValue)
	if err != nil {
		return nil, err
	}

	sender, err := s.partyRepo.FindPartyByID(ctx, doc.SenderPartyID)
	if err != nil {
		logger.Error("Failed to load sender party for approval view", slog.String("error", err.Error()), slog.String("document_number", doc.DocumentNumber))
		return nil, fmt.Errorf("failed to load sender party: %w", err)
	}

	view := dto.ToPublicDocumentView(doc, sender, token)
	return &view, nil
}

// RecordConsents stores consent acknowledgments on the token. Unknown flag
// names are rejected so a client cannot satisfy the gate with typos.
func (s *approvalService) RecordConsents(ctx context.Context, tokenValue string, flags []string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	for _, flag := range flags {
		if !domain.KnownConsent(strings.TrimSpace(flag)) {
			return fmt.Errorf("%w: unknown consent flag %q", apperrors.ErrValidation, flag)
		}
	}

	if _, _, err := s.load(ctx, tokenValue); err != nil {
		return err
	}

	if err := s.tokenRepo.RecordConsents(ctx, tokenValue, flags); err != nil {
		logger.Error("Failed to record consents", slog.String("error", err.Error()))
		return fmt.Errorf("failed to record consents: %w", err)
	}
	return nil
}

// Act performs approve or reject through the token. The token is consumed and
// the document transitioned in one database transaction; there is no window
// where one happened without the other.
func (s *approvalService) Act(ctx context.Context, tokenValue string, req dto.PublicActionRequest, remoteIP string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	token, _, err := s.load(ctx, tokenValue)
	if err != nil {
		return err
	}

	if missing := token.MissingConsents(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrConsentRequired, strings.Join(missing, ", "))
	}

	var action domain.TransitionAction
	var reason *string
	switch req.Action {
	case "approve":
		action = domain.ActionApprove
	case "reject":
		if strings.TrimSpace(req.Reason) == "" {
			return fmt.Errorf("%w: %v", apperrors.ErrValidation, ErrReasonMissing)
		}
		action = domain.ActionReject
		reason = &req.Reason
	default:
		return fmt.Errorf("%w: unknown action %q", apperrors.ErrValidation, req.Action)
	}

	transition := portsrepo.TokenTransition{
		Action:             action,
		Reason:             reason,
		StatementRequested: req.RequestStatement,
		Meta: domain.ApprovalMeta{
			RemoteIP:  remoteIP,
			Consents:  token.Consents,
			Timestamp: time.Now().UTC(),
		},
	}

	if err := s.tokenRepo.ConsumeWithTransition(ctx, tokenValue, transition); err != nil {
		if errors.Is(err, apperrors.ErrTokenUsed) || errors.Is(err, apperrors.ErrInvalidTransition) {
			// Raced with another decision on the same document.
			return err
		}
		logger.Error("Failed to consume approval token", slog.String("error", err.Error()), slog.String("document_number", token.DocumentNumber))
		return fmt.Errorf("failed to apply approval decision: %w", err)
	}

	logger.Info("Public approval decision applied",
		slog.String("document_number", token.DocumentNumber),
		slog.String("action", string(action)),
		slog.String("remote_ip", remoteIP))
	return nil
}
