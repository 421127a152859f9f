// internal/app/system/bulkimport/template.go
package bulkimport

import (
	"fmt"
	"io"

	"github.com/dalemusser/pharmahub/internal/app/system/normalize"
	"github.com/xuri/excelize/v2"
)

const templateSheet = "Plantilla"

// TemplateFileName returns plantilla_<entity>.xlsx. Sub-pharmacy templates
// carry the parent pharmacy's name when one is known.
func TemplateFileName(p Profile, c Context) string {
	name := "plantilla_" + p.TemplateSlug
	if p.Entity == SubPharmacies {
		if s := normalize.Slug(c.PharmacyName); s != "" {
			name += "_" + s
		}
	}
	return name + ".xlsx"
}

// WriteTemplate writes a one-sheet workbook with the localized header row
// and the profile's sample rows.
func WriteTemplate(w io.Writer, p Profile) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, col := range p.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(templateSheet, cell, col.Header); err != nil {
			return err
		}
		if err := f.SetCellStyle(templateSheet, cell, cell, headerStyle); err != nil {
			return err
		}

		width := col.Width
		if width <= 0 {
			width = 18
		}
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(templateSheet, colName, colName, width); err != nil {
			return err
		}
	}

	for r, sample := range p.Samples {
		for c := range p.Columns {
			if c >= len(sample) {
				break
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(templateSheet, cell, sample[c]); err != nil {
				return err
			}
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}
