// Package delaynotice wires the delay notification bounded context: the
// notification feed, justifications, and the on-demand scan endpoint.
package delaynotice

import (
	"opsboard_backend/internal/delaynotice/handler"
	"opsboard_backend/internal/delaynotice/repository"
	"opsboard_backend/internal/delaynotice/service"
	apphttp "opsboard_backend/internal/http"
	"opsboard_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the delay notification bounded context implementing http.Module.
type Module struct {
	handler       *handler.Handler
	service       *service.Service
	notifications *repository.Notifications
}

// NewModule creates and initializes the delay notification module. The
// enqueuer backs POST /scan and may be nil in deployments without a queue.
func NewModule(pool *pgxpool.Pool, enqueuer handler.ScanEnqueuer, log *logger.Logger) *Module {
	notifications := repository.NewNotifications(pool)
	justifications := repository.NewJustifications(pool)
	svc := service.NewService(notifications, justifications, log)

	return &Module{
		handler:       handler.NewHandler(svc, enqueuer),
		service:       svc,
		notifications: notifications,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "delaynotice"
}

// Notifications returns the notification repository for the scanner.
func (m *Module) Notifications() *repository.Notifications {
	return m.notifications
}

// RegisterRoutes mounts the notification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	notifications := ctx.Protected.Group("/notifications")
	notifications.GET("/pending", m.handler.Pending)
	notifications.POST("/:id/justification", m.handler.Justify)
	notifications.GET("/:id/justifications", m.handler.ListJustifications)

	justifications := ctx.Protected.Group("/justifications")
	justifications.POST("/:id/archive", m.handler.Archive)
	justifications.POST("/:id/restore", m.handler.Restore)

	ctx.Protected.POST("/scan", m.handler.RunScan)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
