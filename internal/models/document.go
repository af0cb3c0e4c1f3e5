package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Document is the database shape of a reconciliation document. Approval
// metadata lives in nullable columns filled only for documents decided
// through the public gateway.
type Document struct {
	DocumentNumber     string          `db:"document_number"` // Primary key
	Status             string          `db:"status"`
	SenderPartyID      string          `db:"sender_party_id"`
	ReceiverPartyID    string          `db:"receiver_party_id"`
	PeriodStart        time.Time       `db:"period_start"`
	PeriodEnd          time.Time       `db:"period_end"`
	TotalDebit         decimal.Decimal `db:"total_debit"`
	TotalCredit        decimal.Decimal `db:"total_credit"`
	Description        string          `db:"description"`
	RejectionReason    *string         `db:"rejection_reason"`
	StatementRequested bool            `db:"statement_requested"`
	SentAt             *time.Time      `db:"sent_at"`
	ResolvedAt         *time.Time      `db:"resolved_at"`
	ApprovalRemoteIP   *string         `db:"approval_remote_ip"`
	ApprovalConsents   []string        `db:"approval_consents"`
	ApprovalAt         *time.Time      `db:"approval_at"`
	AuditFields
}

// DealerLine is one sub-ledger row of a document, ordered by line number.
type DealerLine struct {
	DocumentNumber string          `db:"document_number"`
	LineNo         int             `db:"line_no"`
	DealerCode     string          `db:"dealer_code"`
	DealerName     string          `db:"dealer_name"`
	Balance        decimal.Decimal `db:"balance"`
}
