package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	portsrepo "github.com/kobisoft/mutabakat_app/internal/core/ports/repositories"
)

// --- Mock DocumentRepository ---
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) SaveDocument(ctx context.Context, doc domain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) FindDocumentByNumber(ctx context.Context, documentNumber string) (*domain.Document, error) {
	args := m.Called(ctx, documentNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListDocumentsByParty(ctx context.Context, partyID string, limit int, nextToken *string) ([]domain.Document, *string, error) {
	args := m.Called(ctx, partyID, limit, nextToken)
	var docs []domain.Document
	if args.Get(0) != nil {
		docs = args.Get(0).([]domain.Document)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return docs, token, args.Error(2)
}

func (m *MockDocumentRepository) MarkSent(ctx context.Context, documentNumber string, sentAt time.Time, updatedBy string) error {
	args := m.Called(ctx, documentNumber, sentAt, updatedBy)
	return args.Error(0)
}

func (m *MockDocumentRepository) MarkApproved(ctx context.Context, documentNumber string, resolvedAt time.Time, updatedBy string, meta *domain.ApprovalMeta) error {
	args := m.Called(ctx, documentNumber, resolvedAt, updatedBy, meta)
	return args.Error(0)
}

func (m *MockDocumentRepository) MarkRejected(ctx context.Context, documentNumber string, resolvedAt time.Time, updatedBy string, reason string, statementRequested bool, meta *domain.ApprovalMeta) error {
	args := m.Called(ctx, documentNumber, resolvedAt, updatedBy, reason, statementRequested, meta)
	return args.Error(0)
}

func (m *MockDocumentRepository) ReplaceDealerLines(ctx context.Context, documentNumber string, lines []domain.DealerLine, updatedBy string) error {
	args := m.Called(ctx, documentNumber, lines, updatedBy)
	return args.Error(0)
}

func (m *MockDocumentRepository) DeleteDraft(ctx context.Context, documentNumber string) error {
	args := m.Called(ctx, documentNumber)
	return args.Error(0)
}

// --- Mock PartyRepository ---
type MockPartyRepository struct {
	mock.Mock
}

func (m *MockPartyRepository) ResolveOrCreateByTaxNumber(ctx context.Context, candidate domain.Party) (*domain.Party, bool, error) {
	args := m.Called(ctx, candidate)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Party), args.Bool(1), args.Error(2)
}

func (m *MockPartyRepository) FindPartyByID(ctx context.Context, partyID string) (*domain.Party, error) {
	args := m.Called(ctx, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Party), args.Error(1)
}

func (m *MockPartyRepository) FindPartyByTaxNumber(ctx context.Context, taxNumber string) (*domain.Party, error) {
	args := m.Called(ctx, taxNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Party), args.Error(1)
}

// --- Mock ApprovalTokenRepository ---
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) SaveToken(ctx context.Context, token domain.ApprovalToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) FindToken(ctx context.Context, tokenValue string) (*domain.ApprovalToken, error) {
	args := m.Called(ctx, tokenValue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApprovalToken), args.Error(1)
}

func (m *MockTokenRepository) RecordConsents(ctx context.Context, tokenValue string, flags []string) error {
	args := m.Called(ctx, tokenValue, flags)
	return args.Error(0)
}

func (m *MockTokenRepository) ConsumeWithTransition(ctx context.Context, tokenValue string, transition portsrepo.TokenTransition) error {
	args := m.Called(ctx, tokenValue, transition)
	return args.Error(0)
}

func (m *MockTokenRepository) PurgeConsumedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
