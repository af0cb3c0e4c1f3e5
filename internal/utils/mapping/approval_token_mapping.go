package mapping

import (
	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	"github.com/kobisoft/mutabakat_app/internal/models"
)

// ToModelApprovalToken converts a domain ApprovalToken to a model ApprovalToken
func ToModelApprovalToken(d domain.ApprovalToken) models.ApprovalToken {
	return models.ApprovalToken{
		Token:          d.Token,
		DocumentNumber: d.DocumentNumber,
		Consumed:       d.Consumed,
		ConsumedAt:     d.ConsumedAt,
		Consents:       d.Consents,
		IssuedAt:       d.IssuedAt,
	}
}

// ToDomainApprovalToken converts a model ApprovalToken to a domain ApprovalToken
func ToDomainApprovalToken(m models.ApprovalToken) domain.ApprovalToken {
	return domain.ApprovalToken{
		Token:          m.Token,
		DocumentNumber: m.DocumentNumber,
		Consumed:       m.Consumed,
		ConsumedAt:     m.ConsumedAt,
		Consents:       m.Consents,
		IssuedAt:       m.IssuedAt,
	}
}
