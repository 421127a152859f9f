package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/dalemusser/pharmahub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID       string
	Name     string
	Email    string
	Role     string
	APIToken string
}

// OperatorUser returns a TestUser with the operador role.
func OperatorUser() TestUser {
	return TestUser{
		ID:       uuid.NewString(),
		Name:     "Operador de Prueba",
		Email:    "operador@test.com",
		Role:     "operador",
		APIToken: "test-token",
	}
}

// AdminUser returns a TestUser with the admin role.
func AdminUser() TestUser {
	return TestUser{
		ID:       uuid.NewString(),
		Name:     "Administrador de Prueba",
		Email:    "admin@test.com",
		Role:     "admin",
		APIToken: "admin-token",
	}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:       user.ID,
		Name:     user.Name,
		LoginID:  user.Email,
		Role:     user.Role,
		APIToken: user.APIToken,
	})
}

// WithChiURLParams adds chi URL parameters to the request context, given as
// key, value pairs.
func WithChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}
