package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kobisoft/mutabakat_app/internal/apperrors"
	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	portssvc "github.com/kobisoft/mutabakat_app/internal/core/ports/services"
	"github.com/kobisoft/mutabakat_app/internal/core/services"
	"github.com/kobisoft/mutabakat_app/internal/platform/config"
	"github.com/kobisoft/mutabakat_app/internal/utils/eventstream"
)

// --- Test Suite ---
type ImportServiceTestSuite struct {
	suite.Suite
	cfg           *config.Config
	mockDocRepo   *MockDocumentRepository
	mockPartyRepo *MockPartyRepository
	mockUserRepo  *MockUserRepository
	service       portssvc.ImportSvcFacade

	senderPartyID string
	accountant    *domain.User
}

func (suite *ImportServiceTestSuite) SetupTest() {
	suite.cfg = &config.Config{
		ImportMaxRows:       1000,
		DealerImportMaxRows: 5000,
		ImportMaxBytes:      5 * 1024 * 1024,
		ImportProgressBatch: 1,
	}
	suite.mockDocRepo = new(MockDocumentRepository)
	suite.mockPartyRepo = new(MockPartyRepository)
	suite.mockUserRepo = new(MockUserRepository)
	suite.service = services.NewImportService(suite.cfg, suite.mockDocRepo, suite.mockPartyRepo, suite.mockUserRepo)

	suite.senderPartyID = uuid.NewString()
	suite.accountant = &domain.User{
		UserID:  uuid.NewString(),
		Role:    domain.RoleAccounting,
		PartyID: &suite.senderPartyID,
	}
	suite.mockUserRepo.On("FindUserByID", mock.Anything, suite.accountant.UserID).Return(suite.accountant, nil).Maybe()
}

// drain collects every event until the channel closes.
func drain(events <-chan eventstream.Event) []eventstream.Event {
	var out []eventstream.Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

// --- Admission ---

func (suite *ImportServiceTestSuite) TestAdmit_Ceilings() {
	suite.NoError(suite.service.Admit(domain.ImportReconciliation, 1024, 1000))
	suite.ErrorIs(suite.service.Admit(domain.ImportReconciliation, 1024, 1001), apperrors.ErrAdmissionRejected)
	suite.ErrorIs(suite.service.Admit(domain.ImportReconciliation, 6*1024*1024, 10), apperrors.ErrAdmissionRejected)
	suite.ErrorIs(suite.service.Admit(domain.ImportReconciliation, 1024, 0), apperrors.ErrAdmissionRejected)

	// The dealer ceiling is higher.
	suite.NoError(suite.service.Admit(domain.ImportDealerLines, 1024, 5000))
	suite.ErrorIs(suite.service.Admit(domain.ImportDealerLines, 1024, 5001), apperrors.ErrAdmissionRejected)
}

// --- Reconciliation ingest ---

func (suite *ImportServiceTestSuite) TestIngest_PartialSuccess() {
	ctx := context.Background()
	rows := [][]string{
		{"1234567890", "Acme", "", "", "100", "250", ""},
		{"bad-tax", "Broken Row"},
		{"9876543210", "Globex", "", "", "0", "50", ""},
	}

	acme := &domain.Party{PartyID: uuid.NewString(), TaxNumber: "1234567890", DisplayName: "Acme"}
	globex := &domain.Party{PartyID: uuid.NewString(), TaxNumber: "9876543210", DisplayName: "Globex"}

	suite.mockPartyRepo.On("ResolveOrCreateByTaxNumber", mock.Anything, mock.MatchedBy(func(p domain.Party) bool {
		return p.TaxNumber == "1234567890"
	})).Return(acme, true, nil).Once()
	suite.mockPartyRepo.On("ResolveOrCreateByTaxNumber", mock.Anything, mock.MatchedBy(func(p domain.Party) bool {
		return p.TaxNumber == "9876543210"
	})).Return(globex, true, nil).Once()
	suite.mockDocRepo.On("SaveDocument", mock.Anything, mock.MatchedBy(func(d domain.Document) bool {
		return d.Status == domain.StatusDraft && d.SenderPartyID == suite.senderPartyID
	})).Return(nil).Twice()

	events, err := suite.service.Ingest(ctx, rows, suite.accountant.UserID)
	suite.Require().NoError(err)

	all := drain(events)
	suite.Require().GreaterOrEqual(len(all), 3)

	suite.Equal(eventstream.KindTotal, all[0].Kind)
	suite.Equal(eventstream.TotalPayload{Total: 3}, all[0].Data)

	last := all[len(all)-1]
	suite.Require().Equal(eventstream.KindComplete, last.Kind)
	summary := last.Data.(eventstream.CompletePayload).Summary
	suite.Equal(3, summary.Total)
	suite.Equal(2, summary.Accepted)
	suite.Equal(1, summary.Rejected)
	suite.Equal(summary.Total, summary.Accepted+summary.Rejected)
	suite.Require().Len(summary.Rejections, 1)
	suite.Equal(2, summary.Rejections[0].RowIndex)
	suite.Require().Len(summary.Created, 2)
	suite.Equal("Acme", summary.Created[0].PartyName)

	// Progress percent never decreases and ends at 100.
	prev := 0
	for _, ev := range all[1 : len(all)-1] {
		suite.Require().Equal(eventstream.KindProgress, ev.Kind)
		p := ev.Data.(eventstream.ProgressPayload)
		suite.GreaterOrEqual(p.Percent, prev)
		prev = p.Percent
	}
	suite.Equal(100, prev)

	suite.mockDocRepo.AssertExpectations(suite.T())
	suite.mockPartyRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestIngest_FirstRowWinsPartyName() {
	ctx := context.Background()
	rows := [][]string{
		{"1234567890", "Acme Trading", "", "", "10", "20", ""},
		{"1234567890", "Acme Renamed", "", "", "30", "40", ""},
	}

	acme := &domain.Party{PartyID: uuid.NewString(), TaxNumber: "1234567890", DisplayName: "Acme Trading"}

	// Only the first occurrence of the tax number hits the repository.
	suite.mockPartyRepo.On("ResolveOrCreateByTaxNumber", mock.Anything, mock.MatchedBy(func(p domain.Party) bool {
		return p.DisplayName == "Acme Trading"
	})).Return(acme, true, nil).Once()
	suite.mockDocRepo.On("SaveDocument", mock.Anything, mock.Anything).Return(nil).Twice()

	events, err := suite.service.Ingest(ctx, rows, suite.accountant.UserID)
	suite.Require().NoError(err)

	all := drain(events)
	summary := all[len(all)-1].Data.(eventstream.CompletePayload).Summary
	suite.Equal(2, summary.Accepted)
	suite.Equal("Acme Trading", summary.Created[1].PartyName)

	suite.mockPartyRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestIngest_StorageFailureIsTerminal() {
	ctx := context.Background()
	rows := [][]string{
		{"1234567890", "Acme", "", "", "10", "20", ""},
		{"9876543210", "Globex", "", "", "30", "40", ""},
	}

	acme := &domain.Party{PartyID: uuid.NewString(), TaxNumber: "1234567890", DisplayName: "Acme"}

	suite.mockPartyRepo.On("ResolveOrCreateByTaxNumber", mock.Anything, mock.Anything).Return(acme, true, nil).Once()
	suite.mockDocRepo.On("SaveDocument", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()

	events, err := suite.service.Ingest(ctx, rows, suite.accountant.UserID)
	suite.Require().NoError(err)

	all := drain(events)
	last := all[len(all)-1]
	suite.Require().Equal(eventstream.KindError, last.Kind)
	payload := last.Data.(eventstream.ErrorPayload)
	suite.Equal("storage", payload.ErrorKind)
	suite.Contains(payload.Message, "row 1")

	// The second row was never attempted.
	suite.mockDocRepo.AssertNumberOfCalls(suite.T(), "SaveDocument", 1)
}

func (suite *ImportServiceTestSuite) TestIngest_NeverBlocksWithoutConsumer() {
	ctx := context.Background()
	rows := [][]string{
		{"1234567890", "Acme", "", "", "10", "20", ""},
	}

	acme := &domain.Party{PartyID: uuid.NewString(), TaxNumber: "1234567890", DisplayName: "Acme"}
	done := make(chan struct{})

	suite.mockPartyRepo.On("ResolveOrCreateByTaxNumber", mock.Anything, mock.Anything).Return(acme, true, nil).Once()
	suite.mockDocRepo.On("SaveDocument", mock.Anything, mock.Anything).Return(nil).Once().Run(func(args mock.Arguments) {
		close(done)
	})

	events, err := suite.service.Ingest(ctx, rows, suite.accountant.UserID)
	suite.Require().NoError(err)

	// Do not read a single event until the job already stored the row.
	<-done
	all := drain(events)
	suite.Equal(eventstream.KindComplete, all[len(all)-1].Kind)
}

func (suite *ImportServiceTestSuite) TestIngest_CounterpartyRoleForbidden() {
	ctx := context.Background()
	outsider := &domain.User{UserID: uuid.NewString(), Role: domain.RoleCounterparty, PartyID: &suite.senderPartyID}
	suite.mockUserRepo.On("FindUserByID", mock.Anything, outsider.UserID).Return(outsider, nil).Once()

	events, err := suite.service.Ingest(ctx, [][]string{{"1234567890", "Acme"}}, outsider.UserID)

	suite.Require().ErrorIs(err, apperrors.ErrForbidden)
	suite.Nil(events)
}

// --- Dealer line ingest ---

func (suite *ImportServiceTestSuite) dealerDraft() *domain.Document {
	return &domain.Document{
		DocumentNumber:  "MTB-20260115-ABCDEF12",
		Status:          domain.StatusDraft,
		SenderPartyID:   suite.senderPartyID,
		ReceiverPartyID: uuid.NewString(),
		TotalDebit:      decimal.NewFromInt(100),
		TotalCredit:     decimal.NewFromInt(250), // balance 150
	}
}

func (suite *ImportServiceTestSuite) TestIngestDealerLines_ReplacesWhenBalanced() {
	ctx := context.Background()
	doc := suite.dealerDraft()
	rows := [][]string{
		{"D1", "East", "100"},
		{"D2", "West", "50"},
	}

	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()
	suite.mockDocRepo.On("ReplaceDealerLines", mock.Anything, doc.DocumentNumber, mock.MatchedBy(func(lines []domain.DealerLine) bool {
		return len(lines) == 2 && lines[0].DealerCode == "D1" && lines[1].Balance.Equal(decimal.NewFromInt(50))
	}), suite.accountant.UserID).Return(nil).Once()

	events, err := suite.service.IngestDealerLines(ctx, doc.DocumentNumber, rows, suite.accountant.UserID)
	suite.Require().NoError(err)

	all := drain(events)
	last := all[len(all)-1]
	suite.Require().Equal(eventstream.KindComplete, last.Kind)
	suite.Equal(2, last.Data.(eventstream.CompletePayload).Summary.Accepted)

	suite.mockDocRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestIngestDealerLines_SumMismatchLeavesDocumentUntouched() {
	ctx := context.Background()
	doc := suite.dealerDraft()
	rows := [][]string{
		{"D1", "East", "100"},
		{"D2", "West", "40"}, // sums to 140, balance is 150
	}

	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()

	events, err := suite.service.IngestDealerLines(ctx, doc.DocumentNumber, rows, suite.accountant.UserID)
	suite.Require().NoError(err)

	all := drain(events)
	last := all[len(all)-1]
	suite.Require().Equal(eventstream.KindError, last.Kind)
	suite.Equal("validation", last.Data.(eventstream.ErrorPayload).ErrorKind)

	suite.mockDocRepo.AssertNotCalled(suite.T(), "ReplaceDealerLines", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ImportServiceTestSuite) TestIngestDealerLines_RejectedRowsSkipReplacement() {
	ctx := context.Background()
	doc := suite.dealerDraft()
	rows := [][]string{
		{"D1", "East", "150"},
		{"", "Missing Code", "0"},
	}

	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()

	events, err := suite.service.IngestDealerLines(ctx, doc.DocumentNumber, rows, suite.accountant.UserID)
	suite.Require().NoError(err)

	all := drain(events)
	last := all[len(all)-1]
	suite.Require().Equal(eventstream.KindComplete, last.Kind)
	summary := last.Data.(eventstream.CompletePayload).Summary
	suite.Equal(1, summary.Rejected)

	suite.mockDocRepo.AssertNotCalled(suite.T(), "ReplaceDealerLines", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ImportServiceTestSuite) TestIngestDealerLines_SentDocumentRejected() {
	ctx := context.Background()
	doc := suite.dealerDraft()
	doc.Status = domain.StatusSent

	suite.mockDocRepo.On("FindDocumentByNumber", mock.Anything, doc.DocumentNumber).Return(doc, nil).Once()

	events, err := suite.service.IngestDealerLines(ctx, doc.DocumentNumber, [][]string{{"D1", "East", "150"}}, suite.accountant.UserID)

	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)
	suite.Nil(events)
}

func TestImportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ImportServiceTestSuite))
}
