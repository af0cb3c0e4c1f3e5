package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportRecord is a spreadsheet row that passed validation and is ready to
// become a document.
type ImportRecord struct {
	RowIndex     int // 1-based position in the uploaded file
	TaxNumber    string
	DisplayName  string
	ContactEmail string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	TotalDebit   decimal.Decimal
	TotalCredit  decimal.Decimal
	Description  string
}

// RowRejection describes why one row was not imported. Raw fields are echoed
// back for diagnostics.
type RowRejection struct {
	RowIndex  int      `json:"rowIndex"`
	Reason    string   `json:"reason"`
	RawFields []string `json:"rawFields"`
}

// RowSuccess records one created document and its counterparty.
type RowSuccess struct {
	RowIndex       int    `json:"rowIndex"`
	DocumentNumber string `json:"documentNumber"`
	TaxNumber      string `json:"taxNumber"`
	PartyName      string `json:"partyName"`
}

// ImportSummary is the aggregate outcome of one import job.
// Accepted + Rejected always equals Total.
type ImportSummary struct {
	Total      int            `json:"total"`
	Accepted   int            `json:"accepted"`
	Rejected   int            `json:"rejected"`
	Created    []RowSuccess   `json:"created"`
	Rejections []RowRejection `json:"rejections"`
}

// ImportKind selects which admission ceiling and row shape an upload uses.
type ImportKind string

const (
	// ImportReconciliation creates one draft document per accepted row.
	ImportReconciliation ImportKind = "RECONCILIATION"
	// ImportDealerLines replaces a draft document's sub-ledger lines.
	ImportDealerLines ImportKind = "DEALER_LINES"
)

// DealerLineRecord is a validated sub-ledger row from a dealer import.
type DealerLineRecord struct {
	RowIndex int
	Line     DealerLine
}

// ImportJobStatus is the terminal status of one upload request.
type ImportJobStatus string

const (
	ImportRunning   ImportJobStatus = "RUNNING"
	ImportCompleted ImportJobStatus = "COMPLETED"
	ImportFailed    ImportJobStatus = "FAILED"
)
