package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRow_Valid(t *testing.T) {
	record, rejection := ValidateRow(1, []string{"1234567890", "Acme Dealers", "2026-01-01", "2026-01-31", "1500.50", "2000", "January balances"})

	require.Nil(t, rejection)
	require.NotNil(t, record)
	assert.Equal(t, 1, record.RowIndex)
	assert.Equal(t, "1234567890", record.TaxNumber)
	assert.Equal(t, "Acme Dealers", record.DisplayName)
	assert.True(t, record.TotalDebit.Equal(decimal.RequireFromString("1500.50")))
	assert.True(t, record.TotalCredit.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, "2026-01-01", record.PeriodStart.Format("2006-01-02"))
	assert.Equal(t, "January balances", record.Description)
}

func TestValidateRow_MinimalRow(t *testing.T) {
	// Only tax number and name; dates, amounts and description omitted.
	record, rejection := ValidateRow(3, []string{"12345678901", "Sole Trader"})

	require.Nil(t, rejection)
	require.NotNil(t, record)
	assert.True(t, record.TotalDebit.IsZero())
	assert.True(t, record.TotalCredit.IsZero())
	assert.True(t, record.PeriodStart.IsZero())
}

func TestValidateRow_RejectsInOrder(t *testing.T) {
	testCases := []struct {
		name       string
		fields     []string
		wantReason string
	}{
		{
			name:       "bad tax number",
			fields:     []string{"12345", "Acme"},
			wantReason: "tax number",
		},
		{
			name:       "tax number with letters",
			fields:     []string{"12345abc90", "Acme"},
			wantReason: "tax number",
		},
		{
			name:       "missing name",
			fields:     []string{"1234567890", "   "},
			wantReason: "counterparty name",
		},
		{
			name:       "bad tax number wins over missing name",
			fields:     []string{"", ""},
			wantReason: "tax number",
		},
		{
			name:       "malformed start date",
			fields:     []string{"1234567890", "Acme", "01/02/2026"},
			wantReason: "period start",
		},
		{
			name:       "inverted period",
			fields:     []string{"1234567890", "Acme", "2026-02-01", "2026-01-01"},
			wantReason: "period start 2026-02-01 is after period end",
		},
		{
			name:       "malformed debit",
			fields:     []string{"1234567890", "Acme", "", "", "1.500,00"},
			wantReason: "total debit",
		},
		{
			name:       "negative credit",
			fields:     []string{"1234567890", "Acme", "", "", "10", "-5"},
			wantReason: "total credit",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record, rejection := ValidateRow(7, tc.fields)

			assert.Nil(t, record)
			require.NotNil(t, rejection)
			assert.Equal(t, 7, rejection.RowIndex)
			assert.Contains(t, rejection.Reason, tc.wantReason)
			assert.Equal(t, tc.fields, rejection.RawFields)
		})
	}
}

func TestValidateRow_TrimsWhitespace(t *testing.T) {
	record, rejection := ValidateRow(2, []string{" 1234567890 ", "  Acme  ", "", "", " 10 ", " 20 "})

	require.Nil(t, rejection)
	assert.Equal(t, "1234567890", record.TaxNumber)
	assert.Equal(t, "Acme", record.DisplayName)
	assert.True(t, record.TotalDebit.Equal(decimal.NewFromInt(10)))
}
