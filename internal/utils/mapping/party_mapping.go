package mapping

import (
	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	"github.com/kobisoft/mutabakat_app/internal/models"
)

// ToModelParty converts a domain Party to a model Party
func ToModelParty(d domain.Party) models.Party {
	return models.Party{
		PartyID:      d.PartyID,
		TaxNumber:    d.TaxNumber,
		DisplayName:  d.DisplayName,
		ContactEmail: d.ContactEmail,
		ContactPhone: d.ContactPhone,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainParty converts a model Party to a domain Party
func ToDomainParty(m models.Party) domain.Party {
	return domain.Party{
		PartyID:      m.PartyID,
		TaxNumber:    m.TaxNumber,
		DisplayName:  m.DisplayName,
		ContactEmail: m.ContactEmail,
		ContactPhone: m.ContactPhone,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}
