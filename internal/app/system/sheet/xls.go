// internal/app/system/sheet/xls.go
package sheet

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
)

// readXLS loads the first worksheet of a legacy .xls workbook. The BIFF
// reader only exposes displayed text, so every cell is a string.
func readXLS(r io.Reader) (grid [][]any, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, parseErr(err)
	}

	// The reader panics on some malformed streams.
	defer func() {
		if p := recover(); p != nil {
			grid, err = nil, parseErr(fmt.Errorf("%v", p))
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, parseErr(err)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrNoRows
	}
	sh := wb.GetSheet(0)
	if sh == nil {
		return nil, ErrNoRows
	}

	for i := 0; i <= int(sh.MaxRow); i++ {
		row := xlsRow(sh, i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		n := row.LastCol()
		cells := make([]any, n)
		for j := 0; j < n; j++ {
			if v := strings.TrimSpace(row.Col(j)); v != "" {
				cells[j] = v
			}
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// xlsRow returns row i, or nil when the sheet has no record for it.
// WorkSheet.Row dereferences missing rows, which blank rows always are.
func xlsRow(sh *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sh.Row(i)
}
