// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"
	"time"

	uierrors "github.com/dalemusser/pharmahub/internal/app/features/errors"
	"github.com/dalemusser/pharmahub/internal/app/store/audit"
	"go.uber.org/zap"
)

// Querier reads audit events.
type Querier interface {
	Query(ctx context.Context, f audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, f audit.QueryFilter) (int64, error)
	GetFailedLogins(ctx context.Context, since time.Time, limit int64) ([]audit.Event, error)
}

type Handler struct {
	Store  Querier
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs an Audit Log feature handler reading from store.
func NewHandler(store Querier, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:  store,
		Log:    logger,
		ErrLog: errLog,
	}
}
