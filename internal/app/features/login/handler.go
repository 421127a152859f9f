// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/pharmahub/internal/app/clients/pharmaapi"
	uierrors "github.com/dalemusser/pharmahub/internal/app/features/errors"
	"github.com/dalemusser/pharmahub/internal/app/system/auditlog"
	"github.com/dalemusser/pharmahub/internal/app/system/auth"
	"github.com/dalemusser/pharmahub/internal/app/system/normalize"
	"github.com/dalemusser/pharmahub/internal/app/system/ratelimit"
	"github.com/dalemusser/pharmahub/internal/app/system/timeouts"
	"github.com/dalemusser/pharmahub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

// Authenticator exchanges credentials for an API token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*pharmaapi.LoginResult, error)
}

type Handler struct {
	API        Authenticator
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(api Authenticator, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		API:        api,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginFormData struct {
	viewdata.BaseVM
	Error     string
	Email     string
	ReturnURL string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Ingresar", "/"),
		ReturnURL: query.Get(r, "return"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Datos de formulario inválidos.", "/login")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		h.renderFormWithError(w, r, "Ingrese su correo y contraseña.", email)
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailed(r.Context(), r, email, "rate limit exceeded")
			w.WriteHeader(http.StatusTooManyRequests)
			h.renderFormWithError(w, r, msg, email)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.API.Login(ctx, email, password)
	if err != nil {
		var apiErr *pharmaapi.APIError
		switch {
		case errors.Is(err, pharmaapi.ErrUnauthorized),
			errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
			h.AuditLog.LoginFailed(r.Context(), r, email, "rejected by API")
			h.renderFormWithError(w, r, "Correo o contraseña incorrectos.", email)
		default:
			h.Log.Error("login: API call failed", zap.Error(err))
			h.AuditLog.LoginFailed(r.Context(), r, email, "API unavailable")
			h.renderFormWithError(w, r, "No se pudo contactar al servidor. Intente más tarde.", email)
		}
		return
	}

	user := &auth.SessionUser{
		ID:       res.User.ID.String(),
		Name:     normalize.Name(res.User.Name),
		LoginID:  email,
		Role:     normalize.Role(res.User.Role),
		APIToken: res.Token,
	}
	if user.Name == "" {
		user.Name = email
	}
	if err := h.SessionMgr.SignIn(w, r, user); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "No se pudo iniciar la sesión.", "/login")
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetLogin(email)
	}
	h.AuditLog.LoginSuccess(r.Context(), r, user.ID, email)
	h.Log.Info("user signed in", zap.String("user_id", user.ID), zap.String("role", user.Role))

	dest := urlutil.SafeReturn(r.FormValue("return"), "", "/")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email string) {
	ret := strings.TrimSpace(r.FormValue("return"))
	if ret == "" {
		ret = query.Get(r, "return")
	}

	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Ingresar", "/"),
		Error:     msg,
		Email:     email,
		ReturnURL: ret,
	})
}
