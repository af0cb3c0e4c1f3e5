package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kobisoft/mutabakat_app/internal/core/domain"
)

// PublicDocumentView is the summary shown to an external party resolving an
// approval link. It deliberately omits internal identifiers.
type PublicDocumentView struct {
	DocumentNumber  string          `json:"documentNumber"`
	SenderName      string          `json:"senderName"`
	PeriodStart     time.Time       `json:"periodStart"`
	PeriodEnd       time.Time       `json:"periodEnd"`
	TotalDebit      decimal.Decimal `json:"totalDebit"`
	TotalCredit     decimal.Decimal `json:"totalCredit"`
	Balance         decimal.Decimal `json:"balance"`
	Description     string          `json:"description"`
	MissingConsents []string        `json:"missingConsents"`
}

// PublicActionRequest is the body of a public approve/reject call.
type PublicActionRequest struct {
	Action           string `json:"action" binding:"required,oneof=approve reject"`
	Reason           string `json:"reason"`
	RequestStatement bool   `json:"requestStatement"`
}

// RecordConsentsRequest records consent acknowledgments against a token.
type RecordConsentsRequest struct {
	Consents []string `json:"consents" binding:"required,min=1"`
}

// ToPublicDocumentView builds the external summary for a token's document.
func ToPublicDocumentView(doc *domain.Document, sender *domain.Party, token *domain.ApprovalToken) PublicDocumentView {
	return PublicDocumentView{
		DocumentNumber:  doc.DocumentNumber,
		SenderName:      sender.DisplayName,
		PeriodStart:     doc.PeriodStart,
		PeriodEnd:       doc.PeriodEnd,
		TotalDebit:      doc.TotalDebit,
		TotalCredit:     doc.TotalCredit,
		Balance:         doc.Balance(),
		Description:     doc.Description,
		MissingConsents: token.MissingConsents(),
	}
}
