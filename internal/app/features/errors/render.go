// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/pharmahub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

func render(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL string) {
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, title, "/"),
		Status:  status,
		Message: msg,
	}
	if backURL != "" {
		data.BackURL = backURL
	}

	// HTMX swaps only 2xx by default; keep partial requests readable.
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.RenderSnippet(w, "error_message", data)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}

// RenderBadRequest shows msg with a 400 status.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	render(w, r, http.StatusBadRequest, "Solicitud inválida", msg, backURL)
}

// RenderForbidden shows a friendly access error page with a message.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	render(w, r, http.StatusForbidden, "Acceso denegado", msg, backURL)
}

// RenderNotFound shows msg, or a generic text when empty, with a 404 status.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if msg == "" {
		msg = "La página solicitada no existe."
	}
	render(w, r, http.StatusNotFound, "No encontrado", msg, backURL)
}

// RenderServerError shows msg with a 500 status. Prefer
// ErrorLogger.LogServerError, which also logs the cause.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	render(w, r, http.StatusInternalServerError, "Error del servidor", msg, backURL)
}
