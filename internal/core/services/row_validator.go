package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kobisoft/mutabakat_app/internal/core/domain"
)

const rowDateLayout = "2006-01-02"

// Column positions in an import row, matching the downloadable template.
const (
	colTaxNumber = iota
	colName
	colPeriodStart
	colPeriodEnd
	colDebit
	colCredit
	colDescription
)

// ValidateRow turns one raw spreadsheet row into a typed import record.
// Rules run in order and stop at the first failure; a bad row comes back as
// a RowRejection, never as an error. rowIndex is 1-based and counts data
// rows, the header having already been dropped by the parser.
func ValidateRow(rowIndex int, fields []string) (*domain.ImportRecord, *domain.RowRejection) {
	reject := func(format string, args ...any) (*domain.ImportRecord, *domain.RowRejection) {
		return nil, &domain.RowRejection{
			RowIndex:  rowIndex,
			Reason:    fmt.Sprintf(format, args...),
			RawFields: fields,
		}
	}

	field := func(i int) string {
		if i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	taxNumber := field(colTaxNumber)
	if !domain.ValidTaxNumber(taxNumber) {
		return reject("tax number must be 10 or 11 digits, got %q", taxNumber)
	}

	name := field(colName)
	if name == "" {
		return reject("counterparty name is required")
	}

	periodStart, err := parseOptionalDate(field(colPeriodStart))
	if err != nil {
		return reject("period start: %v", err)
	}
	periodEnd, err := parseOptionalDate(field(colPeriodEnd))
	if err != nil {
		return reject("period end: %v", err)
	}
	if !periodStart.IsZero() && !periodEnd.IsZero() && periodStart.After(periodEnd) {
		return reject("period start %s is after period end %s", periodStart.Format(rowDateLayout), periodEnd.Format(rowDateLayout))
	}

	debit, err := parseAmount(field(colDebit))
	if err != nil {
		return reject("total debit: %v", err)
	}
	credit, err := parseAmount(field(colCredit))
	if err != nil {
		return reject("total credit: %v", err)
	}

	return &domain.ImportRecord{
		RowIndex:    rowIndex,
		TaxNumber:   taxNumber,
		DisplayName: name,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		TotalDebit:  debit,
		TotalCredit: credit,
		Description: field(colDescription),
	}, nil
}

// Column positions in a dealer line row.
const (
	colDealerCode = iota
	colDealerName
	colDealerBalance
)

// ValidateDealerRow turns one raw sub-ledger row into a dealer line record.
// Dealer balances may be negative; they only have to sum to the document
// balance, which the ingestor checks.
func ValidateDealerRow(rowIndex int, fields []string) (*domain.DealerLineRecord, *domain.RowRejection) {
	reject := func(format string, args ...any) (*domain.DealerLineRecord, *domain.RowRejection) {
		return nil, &domain.RowRejection{
			RowIndex:  rowIndex,
			Reason:    fmt.Sprintf(format, args...),
			RawFields: fields,
		}
	}

	field := func(i int) string {
		if i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	code := field(colDealerCode)
	if code == "" {
		return reject("dealer code is required")
	}
	name := field(colDealerName)
	if name == "" {
		return reject("dealer name is required")
	}
	balance, err := decimal.NewFromString(field(colDealerBalance))
	if err != nil {
		return reject("balance %q is not a valid amount", field(colDealerBalance))
	}

	return &domain.DealerLineRecord{
		RowIndex: rowIndex,
		Line: domain.DealerLine{
			DealerCode: code,
			DealerName: name,
			Balance:    balance,
		},
	}, nil
}

// parseAmount accepts an empty cell as zero; anything else must be a
// non-negative decimal. Amounts are never coerced.
func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a valid amount", raw)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %s must not be negative", amount)
	}
	return amount, nil
}

func parseOptionalDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(rowDateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a valid date (expected %s)", raw, rowDateLayout)
	}
	return t.UTC(), nil
}
