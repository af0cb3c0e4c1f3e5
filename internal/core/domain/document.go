package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentStatus indicates where a reconciliation document is in its lifecycle.
type DocumentStatus string

const (
	StatusDraft    DocumentStatus = "DRAFT"
	StatusSent     DocumentStatus = "SENT"
	StatusApproved DocumentStatus = "APPROVED"
	StatusRejected DocumentStatus = "REJECTED"
)

// TransitionAction names a requested change on a document's state.
type TransitionAction string

const (
	ActionSend    TransitionAction = "send"
	ActionApprove TransitionAction = "approve"
	ActionReject  TransitionAction = "reject"
	ActionDelete  TransitionAction = "delete"
)

// transitions is the complete relation of legal state changes. delete has no
// target state: the document is removed while still in DRAFT.
var transitions = map[TransitionAction]struct {
	From DocumentStatus
	To   DocumentStatus
}{
	ActionSend:    {From: StatusDraft, To: StatusSent},
	ActionApprove: {From: StatusSent, To: StatusApproved},
	ActionReject:  {From: StatusSent, To: StatusRejected},
	ActionDelete:  {From: StatusDraft, To: ""},
}

// TransitionTarget returns the source and target states for an action, or
// ok=false when the action is unknown.
func TransitionTarget(action TransitionAction) (from DocumentStatus, to DocumentStatus, ok bool) {
	t, ok := transitions[action]
	return t.From, t.To, ok
}

// CanTransition reports whether the given action is legal from the given state.
func CanTransition(from DocumentStatus, action TransitionAction) bool {
	t, ok := transitions[action]
	return ok && t.From == from
}

// IsTerminal reports whether no further transition can leave the state.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// DealerLine is one sub-ledger item attributable to a sub-entity under one of
// the two parties. Line balances sum to the document balance.
type DealerLine struct {
	DealerCode string          `json:"dealerCode"`
	DealerName string          `json:"dealerName"`
	Balance    decimal.Decimal `json:"balance"`
}

// ApprovalMeta records how a public approval or rejection reached us.
type ApprovalMeta struct {
	RemoteIP  string    `json:"remoteIP"`
	Consents  []string  `json:"consents"`
	Timestamp time.Time `json:"timestamp"`
}

// Document represents one bilateral reconciliation statement between a sender
// and a receiver party for a period.
type Document struct {
	DocumentNumber     string          `json:"documentNumber"` // Primary key, human readable, globally unique
	Status             DocumentStatus  `json:"status"`
	SenderPartyID      string          `json:"senderPartyID"`
	ReceiverPartyID    string          `json:"receiverPartyID"`
	PeriodStart        time.Time       `json:"periodStart"`
	PeriodEnd          time.Time       `json:"periodEnd"`
	TotalDebit         decimal.Decimal `json:"totalDebit"`
	TotalCredit        decimal.Decimal `json:"totalCredit"`
	Description        string          `json:"description"`
	RejectionReason    *string         `json:"rejectionReason,omitempty"`
	StatementRequested bool            `json:"statementRequested"` // informational flag on REJECTED
	DealerLines        []DealerLine    `json:"dealerLines,omitempty"`
	SentAt             *time.Time      `json:"sentAt,omitempty"`
	ResolvedAt         *time.Time      `json:"resolvedAt,omitempty"` // approval or rejection time
	ApprovalMeta       *ApprovalMeta   `json:"approvalMeta,omitempty"`
	AuditFields
}

// Balance is the net position of the document: credit minus debit.
func (d *Document) Balance() decimal.Decimal {
	return d.TotalCredit.Sub(d.TotalDebit)
}

// DealerLinesBalanced reports whether the dealer lines, when present, sum to
// the document balance.
func (d *Document) DealerLinesBalanced() bool {
	if len(d.DealerLines) == 0 {
		return true
	}
	sum := decimal.Zero
	for _, l := range d.DealerLines {
		sum = sum.Add(l.Balance)
	}
	return sum.Equal(d.Balance())
}
