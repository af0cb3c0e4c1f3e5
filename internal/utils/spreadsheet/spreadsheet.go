// Package spreadsheet decodes uploaded reconciliation files into raw row
// values and generates the download template. Supported containers are the
// small whitelist of legacy and modern formats: .csv, .xls and .xlsx.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files outside the accepted whitelist.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// TemplateHeaders is the fixed first row of the import template. Column order
// matches what the row validator expects.
var TemplateHeaders = []string{
	"Tax Number",
	"Counterparty Name",
	"Period Start (YYYY-MM-DD)",
	"Period End (YYYY-MM-DD)",
	"Total Debit",
	"Total Credit",
	"Description",
}

// DealerTemplateHeaders is the fixed first row of the dealer line template.
var DealerTemplateHeaders = []string{
	"Dealer Code",
	"Dealer Name",
	"Balance",
}

// maxSheetRows bounds how many rows are read out of a legacy workbook.
const maxSheetRows = 65535

// Supported reports whether the filename carries a whitelisted extension.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xls", ".xlsx":
		return true
	}
	return false
}

// ParseRows decodes the uploaded file into rows of string cells. The first
// row is assumed to be the header and is skipped; returned rows are the data
// rows in file order.
func ParseRows(r io.Reader, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(r)
	case ".xlsx":
		return parseXLSX(r)
	case ".xls":
		return parseXLS(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func parseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows may be ragged; the validator deals with it
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return dropHeader(records), nil
}

func parseXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx sheet %q: %w", sheet, err)
	}
	return dropHeader(rows), nil
}

func parseXLS(r io.Reader) ([][]string, error) {
	// The xls reader needs random access; buffer the upload.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read xls upload: %w", err)
	}
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}
	rows := wb.ReadAllCells(maxSheetRows)
	return dropHeader(rows), nil
}

func dropHeader(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	return rows[1:]
}

// WriteTemplate generates the fixed-format xlsx scaffold matching the fields
// the reconciliation import expects, including one illustrative row.
func WriteTemplate(w io.Writer) error {
	example := []any{"1234567890", "Acme Trading Ltd", "2025-01-01", "2025-03-31", "1250.00", "3400.50", "Q1 balance statement"}
	return writeScaffold(w, TemplateHeaders, example)
}

// WriteDealerTemplate generates the xlsx scaffold for dealer line imports.
func WriteDealerTemplate(w io.Writer) error {
	example := []any{"DLR-001", "Acme Branch East", "2150.00"}
	return writeScaffold(w, DealerTemplateHeaders, example)
}

func writeScaffold(w io.Writer, headers []string, example []any) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header cell %s: %w", cell, err)
		}
	}

	for i, v := range example {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return fmt.Errorf("failed to compute example cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write example cell %s: %w", cell, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write template workbook: %w", err)
	}
	return nil
}
