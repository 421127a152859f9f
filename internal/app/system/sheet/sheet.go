// Package sheet decodes uploaded spreadsheets into loosely-typed rows.
//
// Only the first worksheet of a workbook is read. The first non-empty row
// is the header row; each following non-empty row becomes a Row keyed by
// those headers. Empty cells are left out of the Row entirely, so callers
// can tell "column missing" from "column present but blank" the same way.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format identifies a supported spreadsheet container.
type Format string

const (
	FormatXLSX Format = "xlsx" // Office Open XML (zipped XML)
	FormatXLS  Format = "xls"  // legacy BIFF8 binary
)

var (
	// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .xls.
	ErrUnsupportedFormat = errors.New("unsupported file format; use .xlsx or .xls")
	// ErrParse wraps any failure to read the workbook itself.
	ErrParse = errors.New("the file could not be read as a spreadsheet")
	// ErrNoRows means the first sheet has no data rows below the header.
	ErrNoRows = errors.New("the spreadsheet has no data rows")
	// ErrTooManyRows means the first sheet exceeds MaxRows data rows.
	ErrTooManyRows = errors.New("the spreadsheet has too many rows")
)

// FormatOf returns the spreadsheet format implied by a file name's extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Decode reads the whole spreadsheet from r and returns the rows of its
// first sheet. The format is chosen from name's extension; the decoding
// library does its own content detection beyond that.
func Decode(name string, r io.Reader) ([]Row, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}

	var grid [][]any
	switch format {
	case FormatXLSX:
		grid, err = readXLSX(r)
	case FormatXLS:
		grid, err = readXLS(r)
	}
	if err != nil {
		return nil, err
	}
	return buildRows(grid, MaxRows)
}

// buildRows turns a cell grid into header-keyed rows.
func buildRows(grid [][]any, maxRows int) ([]Row, error) {
	headerAt := -1
	for i, cells := range grid {
		if !blank(cells) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, ErrNoRows
	}

	header := make([]string, len(grid[headerAt]))
	for i, v := range grid[headerAt] {
		if v != nil {
			header[i] = strings.TrimSpace(FormatValue(v))
		}
	}

	var rows []Row
	for _, cells := range grid[headerAt+1:] {
		if blank(cells) {
			continue
		}
		row := make(Row, len(cells))
		for i, v := range cells {
			if v == nil || i >= len(header) || header[i] == "" {
				continue
			}
			if _, dup := row[header[i]]; dup {
				continue // first column with a repeated header wins
			}
			row[header[i]] = v
		}
		if len(row) == 0 {
			continue
		}
		if maxRows > 0 && len(rows) >= maxRows {
			return nil, ErrTooManyRows
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

func blank(cells []any) bool {
	for _, v := range cells {
		if v != nil {
			return false
		}
	}
	return true
}

func parseErr(err error) error {
	return fmt.Errorf("%w: %v", ErrParse, err)
}
