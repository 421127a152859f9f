package sheet

import (
	"bytes"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildXLSX writes rows into the first sheet of a new workbook, starting at
// startRow (1-based). Extra sheets are appended after it.
func buildXLSX(t *testing.T, startRow int, rows [][]any, extra map[string][][]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	write := func(sheetName string, first int, data [][]any) {
		for i := range data {
			if len(data[i]) == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, first+i)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			if err := f.SetSheetRow(sheetName, cell, &data[i]); err != nil {
				t.Fatalf("SetSheetRow: %v", err)
			}
		}
	}

	write("Sheet1", startRow, rows)
	for name, data := range extra {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
		write(name, 1, data)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"municipios.xlsx", FormatXLSX, false},
		{"MUNICIPIOS.XLSX", FormatXLSX, false},
		{"viejo.xls", FormatXLS, false},
		{"datos.csv", "", true},
		{"sin_extension", "", true},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.name)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("FormatOf(%q) error = %v, want ErrUnsupportedFormat", tt.name, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("FormatOf(%q) = %q, %v; want %q", tt.name, got, err, tt.want)
		}
	}
}

func TestDecode_XLSXKeepsCellTypes(t *testing.T) {
	buf := buildXLSX(t, 1, [][]any{
		{"Nombre", "Código", "Teléfono", "Estado", "Activo"},
		{"Libertador", "00123", 4121234567, "SI", true},
	}, nil)

	rows, err := Decode("municipios.xlsx", buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]

	if got := row["Nombre"]; got != "Libertador" {
		t.Errorf("Nombre = %#v, want %q", got, "Libertador")
	}
	if got := row["Código"]; got != "00123" {
		t.Errorf("text cell should keep leading zeros, got %#v", got)
	}
	if got, ok := row["Teléfono"].(float64); !ok || got != 4121234567 {
		t.Errorf("Teléfono = %#v, want float64 4121234567", row["Teléfono"])
	}
	if got := row["Activo"]; got != true {
		t.Errorf("Activo = %#v, want true", got)
	}
	if got := row.Text("Teléfono"); got != "4121234567" {
		t.Errorf("Text(Teléfono) = %q, want %q", got, "4121234567")
	}
}

func TestDecode_ReadsOnlyFirstSheet(t *testing.T) {
	buf := buildXLSX(t, 1, [][]any{
		{"Nombre"},
		{"Uno"},
		{"Dos"},
	}, map[string][][]any{
		"Otra": {{"Nombre"}, {"Ignorado"}, {"Ignorado"}, {"Ignorado"}},
	})

	rows, err := Decode("estados.xlsx", buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows from the first sheet, got %d", len(rows))
	}
	for _, r := range rows {
		if r.Text("Nombre") == "Ignorado" {
			t.Fatalf("row from second sheet leaked into result: %v", r)
		}
	}
}

func TestDecode_SkipsBlankRowsAndFindsHeader(t *testing.T) {
	buf := buildXLSX(t, 3, [][]any{
		{"Nombre", "Código"},
		{"Uno", "U1"},
		{},
		{"Dos", "D2"},
	}, nil)

	rows, err := Decode("estados.xlsx", buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	if rows[0].Text("Nombre") != "Uno" || rows[1].Text("Código") != "D2" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestDecode_HeaderOnlyIsNoRows(t *testing.T) {
	buf := buildXLSX(t, 1, [][]any{{"Nombre", "Código"}}, nil)

	_, err := Decode("vacio.xlsx", buf)
	if !errors.Is(err, ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestDecode_CorruptXLSX(t *testing.T) {
	_, err := Decode("roto.xlsx", strings.NewReader("this is not a zip archive"))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestDecode_CorruptXLS(t *testing.T) {
	_, err := Decode("roto.xls", strings.NewReader("definitely not a compound document"))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

// testdata/municipios.xls is a BIFF8 workbook. Its first sheet, "Municipios",
// starts with an empty row, has the header on row 2, an empty row and a
// whitespace-only row between the two data rows, and keeps codes as text
// cells, phones as NUMBER cells and populations as RK cells. The second
// sheet, "Notas", must never be read.
func TestDecode_LegacyXLS(t *testing.T) {
	f, err := os.Open("testdata/municipios.xls")
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	rows, err := Decode("municipios.xls", f)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := []Row{
		{"Nombre": "Libertador", "Código": "0101", "Teléfono": "4121234567", "Habitantes": "12"},
		{"Nombre": "Chacao №2", "Código": "0102", "Teléfono": "2122634000", "Habitantes": "3"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %#v\nwant %#v", rows, want)
	}
	for _, r := range rows {
		for _, v := range r {
			if v == "No debe leerse" {
				t.Fatalf("row from second sheet leaked into result: %v", r)
			}
		}
	}
	if got := rows[0].Text("Código"); got != "0101" {
		t.Errorf("Text(Código) = %q, want leading zero kept", got)
	}
}

func TestDecode_UnsupportedExtension(t *testing.T) {
	_, err := Decode("datos.csv", strings.NewReader("a,b\n1,2\n"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestBuildRows_TooManyRows(t *testing.T) {
	grid := [][]any{
		{"Nombre"},
		{"a"},
		{"b"},
		{"c"},
	}
	_, err := buildRows(grid, 2)
	if !errors.Is(err, ErrTooManyRows) {
		t.Fatalf("expected ErrTooManyRows, got %v", err)
	}
}

func TestBuildRows_DuplicateHeaderKeepsFirstColumn(t *testing.T) {
	grid := [][]any{
		{"Nombre", "Nombre", ""},
		{"primero", "segundo", "sin encabezado"},
	}
	rows, err := buildRows(grid, 0)
	if err != nil {
		t.Fatalf("buildRows: %v", err)
	}
	if got := rows[0]["Nombre"]; got != "primero" {
		t.Errorf("Nombre = %#v, want %q", got, "primero")
	}
	if len(rows[0]) != 1 {
		t.Errorf("cells under blank headers should be dropped, got %v", rows[0])
	}
}
