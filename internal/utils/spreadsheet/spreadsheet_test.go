package spreadsheet_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kobisoft/mutabakat_app/internal/utils/spreadsheet"
)

func TestSupported(t *testing.T) {
	assert.True(t, spreadsheet.Supported("statement.csv"))
	assert.True(t, spreadsheet.Supported("Statement.XLSX"))
	assert.True(t, spreadsheet.Supported("legacy.xls"))
	assert.False(t, spreadsheet.Supported("notes.pdf"))
	assert.False(t, spreadsheet.Supported("archive.zip"))
}

func TestParseRowsCSVSkipsHeader(t *testing.T) {
	csvData := "Tax Number,Name,Start,End,Debit,Credit,Desc\n" +
		"1234567890,Acme,2025-01-01,2025-03-31,100,200,Q1\n" +
		"12345678901,Bravo,,,0,50,\n"

	rows, err := spreadsheet.ParseRows(strings.NewReader(csvData), "upload.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1234567890", rows[0][0])
	assert.Equal(t, "Bravo", rows[1][1])
}

func TestParseRowsCSVRaggedRows(t *testing.T) {
	csvData := "h1,h2,h3\nonly-one-cell\na,b,c,d,e\n"

	rows, err := spreadsheet.ParseRows(strings.NewReader(csvData), "upload.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 1)
	assert.Len(t, rows[1], 5)
}

func TestParseRowsUnsupportedExtension(t *testing.T) {
	_, err := spreadsheet.ParseRows(strings.NewReader(""), "upload.pdf")
	assert.ErrorIs(t, err, spreadsheet.ErrUnsupportedFormat)
}

func TestParseRowsXLSXRoundTrip(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Tax Number", "Name"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"1234567890", "Acme"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"12345678901", "Bravo"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := spreadsheet.ParseRows(&buf, "upload.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme", rows[0][1])
	assert.Equal(t, "12345678901", rows[1][0])
}

func TestWriteTemplateProducesExpectedHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, spreadsheet.WriteTemplate(&buf))

	rows, err := spreadsheet.ParseRows(bytes.NewReader(buf.Bytes()), "template.xlsx")
	require.NoError(t, err)
	// Template ships with one illustrative data row.
	require.Len(t, rows, 1)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	all, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, spreadsheet.TemplateHeaders, all[0])
}
