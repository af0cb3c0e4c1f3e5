package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kobisoft/mutabakat_app/internal/apperrors"
	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	portssvc "github.com/kobisoft/mutabakat_app/internal/core/ports/services"
	"github.com/kobisoft/mutabakat_app/internal/core/services"
	"github.com/kobisoft/mutabakat_app/internal/dto"
)

// --- Test Suite ---
type DocumentServiceTestSuite struct {
	suite.Suite
	mockDocRepo   *MockDocumentRepository
	mockPartyRepo *MockPartyRepository
	mockTokenRepo *MockTokenRepository
	mockUserRepo  *MockUserRepository
	service       portssvc.DocumentSvcFacade

	senderPartyID   string
	receiverPartyID string
	accountant      *domain.User
	receiverUser    *domain.User
}

func (suite *DocumentServiceTestSuite) SetupTest() {
	suite.mockDocRepo = new(MockDocumentRepository)
	suite.mockPartyRepo = new(MockPartyRepository)
	suite.mockTokenRepo = new(MockTokenRepository)
	suite.mockUserRepo = new(MockUserRepository)
	suite.service = services.NewDocumentService(suite.mockDocRepo, suite.mockPartyRepo, suite.mockTokenRepo, suite.mockUserRepo)

	suite.senderPartyID = uuid.NewString()
	suite.receiverPartyID = uuid.NewString()
	suite.accountant = &domain.User{
		UserID:  uuid.NewString(),
		Role:    domain.RoleAccounting,
		PartyID: &suite.senderPartyID,
	}
	suite.receiverUser = &domain.User{
		UserID:  uuid.NewString(),
		Role:    domain.RoleCounterparty,
		PartyID: &suite.receiverPartyID,
	}
}

func (suite *DocumentServiceTestSuite) draftDocument() *domain.Document {
	return &domain.Document{
		DocumentNumber:  "MTB-20260115-ABCDEF12",
		Status:          domain.StatusDraft,
		SenderPartyID:   suite.senderPartyID,
		ReceiverPartyID: suite.receiverPartyID,
		PeriodStart:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:       time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		TotalDebit:      decimal.NewFromInt(100),
		TotalCredit:     decimal.NewFromInt(250),
	}
}

func (suite *DocumentServiceTestSuite) sentDocument() *domain.Document {
	doc := suite.draftDocument()
	doc.Status = domain.StatusSent
	now := time.Now().UTC()
	doc.SentAt = &now
	return doc
}

func (suite *DocumentServiceTestSuite) expectActor(user *domain.User) {
	suite.mockUserRepo.On("FindUserByID", mock.Anything, user.UserID).Return(user, nil).Once()
}

// --- CreateDocument ---

func (suite *DocumentServiceTestSuite) TestCreateDocument_Success() {
	ctx := context.Background()
	req := dto.CreateDocumentRequest{
		ReceiverTaxNumber: "1234567890",
		ReceiverName:      "Acme Trading",
		PeriodStart:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:         time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		TotalDebit:        decimal.NewFromInt(100),
		TotalCredit:       decimal.NewFromInt(250),
		Description:       "January balances",
	}

	receiver := &domain.Party{PartyID: suite.receiverPartyID, TaxNumber: req.ReceiverTaxNumber, DisplayName: req.ReceiverName}

	suite.expectActor(suite.accountant)
	suite.mockPartyRepo.On("ResolveOrCreateByTaxNumber", mock.Anything, mock.MatchedBy(func(p domain.Party) bool {
		return p.TaxNumber == req.ReceiverTaxNumber && p.DisplayName == req.ReceiverName
	})).Return(receiver, true, nil).Once()
	suite.mockDocRepo.On("SaveDocument", mock.Anything, mock.MatchedBy(func(d domain.Document) bool {
		return d.Status == domain.StatusDraft &&
			d.SenderPartyID == suite.senderPartyID &&
			d.ReceiverPartyID == suite.receiverPartyID &&
			strings.HasPrefix(d.DocumentNumber, "MTB-") &&
			d.CreatedBy == suite.accountant.UserID
	})).Return(nil).Once()

	doc, err := suite.service.CreateDocument(ctx, req, suite.accountant.UserID)

	suite.Require().NoError(err)
	suite.Require().NotNil(doc)
	suite.Equal(domain.StatusDraft, doc.Status)
	suite.True(doc.Balance().Equal(decimal.NewFromInt(150)))

	suite.mockDocRepo.AssertExpectations(suite.T())
	suite.mockPartyRepo.AssertExpectations(suite.T())
}

func (suite *DocumentServiceTestSuite) TestCreateDocument_CounterpartyRoleForbidden() {
	ctx := context.Background()
	suite.expectActor(suite.receiverUser)

	doc, err := suite.service.CreateDocument(ctx, dto.CreateDocumentRequest{ReceiverTaxNumber: "1234567890"}, suite.receiverUser.UserID)

	suite.Require().ErrorIs(err, apperrors.ErrForbidden)
	suite.Nil(doc)
	suite.mockDocRepo.AssertNotCalled(suite.T(), "SaveDocument", mock.Anything, mock.Anything)
}

func (suite *DocumentServiceTestSuite) TestCreateDocument_SelfReconciliationRejected() {
	ctx := context.Background()
	req := dto.CreateDocumentRequest{
		ReceiverTaxNumber: "1234567890",
		ReceiverName:      "Own Company",
		PeriodStart:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:         time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	// The resolved receiver turns out to be the sender's own party.
	self := &domain.Party{PartyID: suite.senderPartyID, TaxNumber: req.ReceiverTaxNumber}

	suite.expectActor(suite.accountant)
	suite.mockPartyRepo.On("ResolveOrCreateByTaxNumber", mock.Anything, mock.Anything).Return(self, false, nil).Once()

	doc, err := suite.service.CreateDocument(ctx, req, suite.accountant.UserID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(doc)
	suite.mockDocRepo.AssertNotCalled(suite.T(), "SaveDocument", mock.Anything, mock.Anything)
}

func (suite *DocumentServiceTestSuite) TestCreateDocument_InvertedPeriodRejected() {
	ctx := context.Background()
	req := dto.CreateDocumentRequest{
		ReceiverTaxNumber: "1234567890",
		ReceiverName:      "Acme Trading",
		PeriodStart:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	receiver := &domain.Party{PartyID: suite.receiverPartyID, TaxNumber: req.ReceiverTaxNumber}

	suite.expectActor(suite.accountant)
	suite.mockPartyRepo.On("ResolveOrCreateByTaxNumber", mock.Anything, mock.Anything).Return(receiver, false, nil).Once()

	_, err := suite.service.CreateDocument(ctx, req, suite.accountant.UserID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (suite *DocumentServiceTestSuite) TestCreateDocument_DealerLinesMustSumToBalance() {
	ctx := context.Background()
	req := dto.CreateDocumentRequest{
		ReceiverTaxNumber: "1234567890",
		ReceiverName:      "Acme Trading",
		PeriodStart:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:         time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		TotalDebit:        decimal.NewFromInt(100),
		TotalCredit:       decimal.NewFromInt(250),
		DealerLines: []dto.DealerLineRequest{
			{DealerCode: "D1", DealerName: "East", Balance: decimal.NewFromInt(100)},
			{DealerCode: "D2", DealerName: "West", Balance: decimal.NewFromInt(40)}, // sums to 140, balance is 150
		},
	}

	receiver := &domain.Party{PartyID: suite.receiverPartyID, TaxNumber: req.ReceiverTaxNumber}

	suite.expectActor(suite.accountant)
	suite.mockPartyRepo.On("ResolveOrCreateByTaxNumber", mock.Anything, mock.Anything).Return(receiver, false, nil).Once()

	_, err := suite.service.CreateDocument(ctx, req, suite.accountant.UserID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockDocRepo.AssertNotCalled(suite.T(), "SaveDocument", mock.Anything, mock.Anything)
}

// --- SendDocument ---

func (suite *DocumentServiceTestSuite) TestSendDocument_IssuesApprovalToken() {
	ctx := context.Background()
	doc := suite.draftDocument()

	suite.expectActor(suite.accountant)
	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()
	suite.mockDocRepo.On("MarkSent", mock.Anything, doc.DocumentNumber, mock.Anything, suite.accountant.UserID).Return(nil).Once()
	suite.mockTokenRepo.On("SaveToken", mock.Anything, mock.MatchedBy(func(t domain.ApprovalToken) bool {
		return t.DocumentNumber == doc.DocumentNumber && t.Token != "" && !t.Consumed
	})).Return(nil).Once()

	sent, err := suite.service.SendDocument(ctx, doc.DocumentNumber, suite.accountant.UserID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusSent, sent.Status)
	suite.Require().NotNil(sent.SentAt)

	suite.mockDocRepo.AssertExpectations(suite.T())
	suite.mockTokenRepo.AssertExpectations(suite.T())
}

func (suite *DocumentServiceTestSuite) TestSendDocument_ReceiverCannotSend() {
	ctx := context.Background()
	doc := suite.draftDocument()

	suite.expectActor(suite.receiverUser)
	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()

	_, err := suite.service.SendDocument(ctx, doc.DocumentNumber, suite.receiverUser.UserID)

	suite.Require().ErrorIs(err, apperrors.ErrForbidden)
	suite.mockDocRepo.AssertNotCalled(suite.T(), "MarkSent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DocumentServiceTestSuite) TestSendDocument_AlreadySent() {
	ctx := context.Background()
	doc := suite.sentDocument()

	suite.expectActor(suite.accountant)
	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()

	_, err := suite.service.SendDocument(ctx, doc.DocumentNumber, suite.accountant.UserID)

	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (suite *DocumentServiceTestSuite) TestSendDocument_LosesRaceOnCompareAndSwap() {
	ctx := context.Background()
	doc := suite.draftDocument()

	suite.expectActor(suite.accountant)
	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()
	// A concurrent send got there first; the update matches zero rows.
	suite.mockDocRepo.On("MarkSent", mock.Anything, doc.DocumentNumber, mock.Anything, suite.accountant.UserID).Return(apperrors.ErrInvalidTransition).Once()

	_, err := suite.service.SendDocument(ctx, doc.DocumentNumber, suite.accountant.UserID)

	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)
	suite.mockTokenRepo.AssertNotCalled(suite.T(), "SaveToken", mock.Anything, mock.Anything)
}

// --- Approve / Reject ---

func (suite *DocumentServiceTestSuite) TestApproveDocument_Success() {
	ctx := context.Background()
	doc := suite.sentDocument()

	suite.expectActor(suite.receiverUser)
	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()
	suite.mockDocRepo.On("MarkApproved", mock.Anything, doc.DocumentNumber, mock.Anything, suite.receiverUser.UserID, (*domain.ApprovalMeta)(nil)).Return(nil).Once()

	approved, err := suite.service.ApproveDocument(ctx, doc.DocumentNumber, suite.receiverUser.UserID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusApproved, approved.Status)
	suite.Require().NotNil(approved.ResolvedAt)
	suite.mockDocRepo.AssertExpectations(suite.T())
}

func (suite *DocumentServiceTestSuite) TestApproveDocument_SenderCannotApprove() {
	ctx := context.Background()
	doc := suite.sentDocument()

	suite.expectActor(suite.accountant)
	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()

	_, err := suite.service.ApproveDocument(ctx, doc.DocumentNumber, suite.accountant.UserID)

	suite.Require().ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *DocumentServiceTestSuite) TestApproveDocument_TwiceRejected() {
	ctx := context.Background()
	doc := suite.sentDocument()
	doc.Status = domain.StatusApproved

	suite.expectActor(suite.receiverUser)
	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()

	_, err := suite.service.ApproveDocument(ctx, doc.DocumentNumber, suite.receiverUser.UserID)

	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)
	suite.mockDocRepo.AssertNotCalled(suite.T(), "MarkApproved", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DocumentServiceTestSuite) TestRejectDocument_RequiresReason() {
	ctx := context.Background()

	_, err := suite.service.RejectDocument(ctx, "MTB-X", suite.receiverUser.UserID, "", false)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockDocRepo.AssertNotCalled(suite.T(), "FindDocumentByNumber", mock.Anything, mock.Anything)
}

func (suite *DocumentServiceTestSuite) TestRejectDocument_RecordsReasonAndStatementFlag() {
	ctx := context.Background()
	doc := suite.sentDocument()

	suite.expectActor(suite.receiverUser)
	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()
	suite.mockDocRepo.On("MarkRejected", mock.Anything, doc.DocumentNumber, mock.Anything, suite.receiverUser.UserID, "balances disagree", true, (*domain.ApprovalMeta)(nil)).Return(nil).Once()

	rejected, err := suite.service.RejectDocument(ctx, doc.DocumentNumber, suite.receiverUser.UserID, "balances disagree", true)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusRejected, rejected.Status)
	suite.Require().NotNil(rejected.RejectionReason)
	suite.Equal("balances disagree", *rejected.RejectionReason)
	suite.True(rejected.StatementRequested)
	suite.mockDocRepo.AssertExpectations(suite.T())
}

// --- Delete ---

func (suite *DocumentServiceTestSuite) TestDeleteDocument_DraftOnly() {
	ctx := context.Background()
	doc := suite.sentDocument()

	suite.expectActor(suite.accountant)
	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()

	err := suite.service.DeleteDocument(ctx, doc.DocumentNumber, suite.accountant.UserID)

	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)
	suite.mockDocRepo.AssertNotCalled(suite.T(), "DeleteDraft", mock.Anything, mock.Anything)
}

func (suite *DocumentServiceTestSuite) TestDeleteDocument_Success() {
	ctx := context.Background()
	doc := suite.draftDocument()

	suite.expectActor(suite.accountant)
	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()
	suite.mockDocRepo.On("DeleteDraft", mock.Anything, doc.DocumentNumber).Return(nil).Once()

	err := suite.service.DeleteDocument(ctx, doc.DocumentNumber, suite.accountant.UserID)

	suite.Require().NoError(err)
	suite.mockDocRepo.AssertExpectations(suite.T())
}

// --- Get / List ---

func (suite *DocumentServiceTestSuite) TestGetDocument_UnrelatedActorSeesNotFound() {
	ctx := context.Background()
	doc := suite.draftDocument()
	otherParty := uuid.NewString()
	outsider := &domain.User{UserID: uuid.NewString(), Role: domain.RoleAccounting, PartyID: &otherParty}

	suite.expectActor(outsider)
	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()

	got, err := suite.service.GetDocument(ctx, doc.DocumentNumber, outsider.UserID)

	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(got)
}

func (suite *DocumentServiceTestSuite) TestListDocuments_PassesPagination() {
	ctx := context.Background()
	next := "opaque-token"
	docs := []domain.Document{*suite.draftDocument()}

	suite.expectActor(suite.accountant)
	suite.mockDocRepo.On("ListDocumentsByParty", mock.Anything, suite.senderPartyID, 10, (*string)(nil)).Return(docs, &next, nil).Once()

	page, err := suite.service.ListDocuments(ctx, suite.accountant.UserID, dto.ListDocumentsParams{Limit: 10})

	suite.Require().NoError(err)
	suite.Len(page.Documents, 1)
	suite.Require().NotNil(page.NextToken)
	suite.Equal(next, *page.NextToken)
}

func TestDocumentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DocumentServiceTestSuite))
}
