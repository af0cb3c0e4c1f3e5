package mapping

import (
	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	"github.com/kobisoft/mutabakat_app/internal/models"
)

// ToModelDocument converts a domain Document to a model Document. Dealer
// lines map separately because they live in their own table.
func ToModelDocument(d domain.Document) models.Document {
	m := models.Document{
		DocumentNumber:     d.DocumentNumber,
		Status:             string(d.Status),
		SenderPartyID:      d.SenderPartyID,
		ReceiverPartyID:    d.ReceiverPartyID,
		PeriodStart:        d.PeriodStart,
		PeriodEnd:          d.PeriodEnd,
		TotalDebit:         d.TotalDebit,
		TotalCredit:        d.TotalCredit,
		Description:        d.Description,
		RejectionReason:    d.RejectionReason,
		StatementRequested: d.StatementRequested,
		SentAt:             d.SentAt,
		ResolvedAt:         d.ResolvedAt,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
	if d.ApprovalMeta != nil {
		ip := d.ApprovalMeta.RemoteIP
		at := d.ApprovalMeta.Timestamp
		m.ApprovalRemoteIP = &ip
		m.ApprovalConsents = d.ApprovalMeta.Consents
		m.ApprovalAt = &at
	}
	return m
}

// ToDomainDocument converts a model Document to a domain Document.
func ToDomainDocument(m models.Document) domain.Document {
	d := domain.Document{
		DocumentNumber:     m.DocumentNumber,
		Status:             domain.DocumentStatus(m.Status),
		SenderPartyID:      m.SenderPartyID,
		ReceiverPartyID:    m.ReceiverPartyID,
		PeriodStart:        m.PeriodStart,
		PeriodEnd:          m.PeriodEnd,
		TotalDebit:         m.TotalDebit,
		TotalCredit:        m.TotalCredit,
		Description:        m.Description,
		RejectionReason:    m.RejectionReason,
		StatementRequested: m.StatementRequested,
		SentAt:             m.SentAt,
		ResolvedAt:         m.ResolvedAt,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
	if m.ApprovalRemoteIP != nil && m.ApprovalAt != nil {
		d.ApprovalMeta = &domain.ApprovalMeta{
			RemoteIP:  *m.ApprovalRemoteIP,
			Consents:  m.ApprovalConsents,
			Timestamp: *m.ApprovalAt,
		}
	}
	return d
}

// ToDomainDocumentSlice converts a slice of model Documents to domain Documents
func ToDomainDocumentSlice(ms []models.Document) []domain.Document {
	ds := make([]domain.Document, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainDocument(m)
	}
	return ds
}

// ToModelDealerLines converts a document's dealer lines to their model rows.
func ToModelDealerLines(documentNumber string, lines []domain.DealerLine) []models.DealerLine {
	ms := make([]models.DealerLine, len(lines))
	for i, l := range lines {
		ms[i] = models.DealerLine{
			DocumentNumber: documentNumber,
			LineNo:         i + 1,
			DealerCode:     l.DealerCode,
			DealerName:     l.DealerName,
			Balance:        l.Balance,
		}
	}
	return ms
}

// ToDomainDealerLines converts model dealer line rows to domain lines.
func ToDomainDealerLines(ms []models.DealerLine) []domain.DealerLine {
	ls := make([]domain.DealerLine, len(ms))
	for i, m := range ms {
		ls[i] = domain.DealerLine{
			DealerCode: m.DealerCode,
			DealerName: m.DealerName,
			Balance:    m.Balance,
		}
	}
	return ls
}
