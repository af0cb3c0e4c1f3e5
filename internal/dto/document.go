package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kobisoft/mutabakat_app/internal/core/domain"
)

// DealerLineRequest is one sub-ledger line of a create request.
type DealerLineRequest struct {
	DealerCode string          `json:"dealerCode" binding:"required"`
	DealerName string          `json:"dealerName" binding:"required"`
	Balance    decimal.Decimal `json:"balance"`
}

// CreateDocumentRequest creates a reconciliation document in DRAFT.
type CreateDocumentRequest struct {
	ReceiverTaxNumber string              `json:"receiverTaxNumber" binding:"required,taxnumber"`
	ReceiverName      string              `json:"receiverName" binding:"required"`
	PeriodStart       time.Time           `json:"periodStart" binding:"required" time_format:"2006-01-02"`
	PeriodEnd         time.Time           `json:"periodEnd" binding:"required" time_format:"2006-01-02"`
	TotalDebit        decimal.Decimal     `json:"totalDebit"`
	TotalCredit       decimal.Decimal     `json:"totalCredit"`
	Description       string              `json:"description"`
	DealerLines       []DealerLineRequest `json:"dealerLines"`
}

// RejectDocumentRequest carries the mandatory rejection reason.
type RejectDocumentRequest struct {
	Reason           string `json:"reason" binding:"required"`
	RequestStatement bool   `json:"requestStatement"`
}

// DealerLineResponse mirrors one dealer line.
type DealerLineResponse struct {
	DealerCode string          `json:"dealerCode"`
	DealerName string          `json:"dealerName"`
	Balance    decimal.Decimal `json:"balance"`
}

// DocumentResponse is the API shape of a document.
type DocumentResponse struct {
	DocumentNumber     string               `json:"documentNumber"`
	Status             string               `json:"status"`
	SenderPartyID      string               `json:"senderPartyID"`
	ReceiverPartyID    string               `json:"receiverPartyID"`
	PeriodStart        time.Time            `json:"periodStart"`
	PeriodEnd          time.Time            `json:"periodEnd"`
	TotalDebit         decimal.Decimal      `json:"totalDebit"`
	TotalCredit        decimal.Decimal      `json:"totalCredit"`
	Balance            decimal.Decimal      `json:"balance"`
	Description        string               `json:"description"`
	RejectionReason    *string              `json:"rejectionReason,omitempty"`
	StatementRequested bool                 `json:"statementRequested"`
	DealerLines        []DealerLineResponse `json:"dealerLines,omitempty"`
	SentAt             *time.Time           `json:"sentAt,omitempty"`
	ResolvedAt         *time.Time           `json:"resolvedAt,omitempty"`
	CreatedAt          time.Time            `json:"createdAt"`
	CreatedBy          string               `json:"createdBy"`
}

// ListDocumentsParams controls document listing.
type ListDocumentsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListDocumentsResponse is a page of documents.
type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	NextToken *string            `json:"nextToken,omitempty"`
}

// ToDocumentResponse converts a domain.Document to its API shape.
func ToDocumentResponse(d *domain.Document) DocumentResponse {
	lines := make([]DealerLineResponse, len(d.DealerLines))
	for i, l := range d.DealerLines {
		lines[i] = DealerLineResponse{DealerCode: l.DealerCode, DealerName: l.DealerName, Balance: l.Balance}
	}
	if len(lines) == 0 {
		lines = nil
	}
	return DocumentResponse{
		DocumentNumber:     d.DocumentNumber,
		Status:             string(d.Status),
		SenderPartyID:      d.SenderPartyID,
		ReceiverPartyID:    d.ReceiverPartyID,
		PeriodStart:        d.PeriodStart,
		PeriodEnd:          d.PeriodEnd,
		TotalDebit:         d.TotalDebit,
		TotalCredit:        d.TotalCredit,
		Balance:            d.Balance(),
		Description:        d.Description,
		RejectionReason:    d.RejectionReason,
		StatementRequested: d.StatementRequested,
		DealerLines:        lines,
		SentAt:             d.SentAt,
		ResolvedAt:         d.ResolvedAt,
		CreatedAt:          d.CreatedAt,
		CreatedBy:          d.CreatedBy,
	}
}

// ToDocumentResponses converts a slice of documents.
func ToDocumentResponses(docs []domain.Document) []DocumentResponse {
	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = ToDocumentResponse(&docs[i])
	}
	return out
}
