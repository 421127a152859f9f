// internal/app/system/sheet/xlsx.go
package sheet

import (
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readXLSX loads the first worksheet of an .xlsx workbook as a cell grid.
// Booleans and plain numbers keep their type; everything else, including
// numbers shown through a number format (dates, percentages), is text as
// displayed.
func readXLSX(r io.Reader) ([][]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, parseErr(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRows
	}
	name := sheets[0]

	shown, err := f.GetRows(name)
	if err != nil {
		return nil, parseErr(err)
	}
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, parseErr(err)
	}

	grid := make([][]any, len(shown))
	for i, cols := range shown {
		cells := make([]any, len(cols))
		for j, text := range cols {
			cells[j] = xlsxCell(f, name, i, j, text, at(raw, i, j))
		}
		grid[i] = cells
	}
	return grid, nil
}

func xlsxCell(f *excelize.File, sheetName string, row, col int, shown, raw string) any {
	text := strings.TrimSpace(shown)
	if text == "" {
		return nil
	}
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return text
	}
	typ, err := f.GetCellType(sheetName, ref)
	if err != nil {
		return text
	}

	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if shown != raw {
			return text
		}
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return text
}

func at(grid [][]string, i, j int) string {
	if i < len(grid) && j < len(grid[i]) {
		return grid[i][j]
	}
	return ""
}
