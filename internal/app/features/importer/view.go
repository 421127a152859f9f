// internal/app/features/importer/view.go
package importer

import (
	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/dalemusser/pharmahub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/pharmahub/internal/app/system/runs"
	"github.com/dalemusser/pharmahub/internal/app/system/viewdata"
)

// notice is a one-shot message carried through a redirect as ?notice=.
type notice struct {
	Level string
	Text  string
}

var notices = map[string]notice{
	"context_saved":   {"info", "Contexto actualizado."},
	"context_missing": {"warning", "Seleccione el contexto requerido antes de continuar."},
	"file_loaded":     {"info", "Archivo cargado. Revise la vista previa antes de confirmar."},
	"file_missing":    {"error", "Seleccione un archivo .xlsx o .xls."},
	"file_too_large":  {"error", "El archivo supera el tamaño máximo permitido."},
	"file_format":     {"error", "Formato no soportado. Use un archivo .xlsx o .xls."},
	"file_empty":      {"error", "La hoja no tiene filas de datos debajo del encabezado."},
	"file_rows":       {"error", "La hoja tiene demasiadas filas. Divida el archivo."},
	"file_error":      {"error", "No se pudo leer el archivo. Verifique que sea una hoja de cálculo válida."},
	"busy":            {"warning", "Hay una carga en curso. Espere a que termine."},
	"not_ready":       {"warning", "No hay registros listos para cargar."},
	"started":         {"info", "Carga iniciada."},
	"reset":           {"info", "Importación reiniciada."},
	"completed":       {"warning", "La carga ya terminó. Reinicie o seleccione otro archivo para cambiar el contexto."},
}

// resultView is the summary shown once a run completes. Messages come
// from the server and are stripped of markup.
type resultView struct {
	Total     int      `json:"total"`
	Created   int      `json:"created"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Batches   int      `json:"batches"`
	Cancelled bool     `json:"cancelled"`
	Clean     bool     `json:"clean"`
	Errors    []string `json:"errors"`
}

func newResultView(res bulkimport.Result) resultView {
	errs := make([]string, len(res.Errors))
	for i, e := range res.Errors {
		errs[i] = htmlsanitize.Strip(e.String())
	}
	return resultView{
		Total:     res.Total,
		Created:   res.Created,
		Failed:    res.Failed,
		Skipped:   res.Skipped,
		Batches:   res.Batches,
		Cancelled: res.Cancelled,
		Clean:     res.Clean(),
		Errors:    errs,
	}
}

type previewRow struct {
	N     int
	Cells []string
}

type runPageData struct {
	viewdata.BaseVM

	Entity      string
	Label       string
	RunID       string
	RunURL      string
	TemplateURL string
	State       string
	Uploading   bool
	Completed   bool

	Selectors      []selector
	LookupError    bool
	Notice         *notice
	MissingContext string

	FileName         string
	FileProblem      bool
	RowCount         int
	Headers          []string
	Preview          []previewRow
	PreviewTruncated bool
	CanStart         bool

	BatchSize   int
	MaxUploadMB int64
	Progress    bulkimport.Progress
	Result      resultView
}

// buildRunPage fills everything except BaseVM and Selectors.
func buildRunPage(v runs.View, p bulkimport.Profile, noticeCode string, maxUpload int64) runPageData {
	d := runPageData{
		Entity:      string(p.Entity),
		Label:       p.Label,
		RunID:       v.ID,
		RunURL:      runURL(p.Entity, v.ID),
		TemplateURL: entityURL(p.Entity) + "/template",
		State:       string(v.State),
		Uploading:   v.State == runs.Uploading,
		Completed:   v.State == runs.Completed,
		FileName:    v.FileName,
		FileProblem: v.ParseError != "",
		RowCount:    v.RowCount,
		Headers:     p.Headers(),
		BatchSize:   p.BatchSize,
		MaxUploadMB: maxUpload >> 20,
		Progress:    v.Progress,
		CanStart:    v.State == runs.Previewing && len(v.Preview) > 0,
	}
	if n, ok := notices[noticeCode]; ok {
		d.Notice = &n
	}
	if !v.Context.PharmacyID.IsZero() {
		d.TemplateURL += "?pharmacy_id=" + v.Context.PharmacyID.String()
	}
	if err := v.Context.Check(p.Requires); err != nil {
		d.MissingContext = err.Error()
	}

	d.Preview = make([]previewRow, len(v.Preview))
	for i, c := range v.Preview {
		d.Preview[i] = previewRow{N: i + 1, Cells: c.Cells()}
	}
	d.PreviewTruncated = v.State == runs.Previewing && v.RowCount > len(v.Preview)

	if d.Completed {
		d.Result = newResultView(v.Result)
	}
	return d
}
