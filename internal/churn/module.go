// Package churn wires the churn workflow bounded context.
package churn

import (
	"opsboard_backend/internal/churn/handler"
	"opsboard_backend/internal/churn/repository"
	"opsboard_backend/internal/churn/service"
	"opsboard_backend/internal/clients"
	"opsboard_backend/internal/events"
	apphttp "opsboard_backend/internal/http"
	"opsboard_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the churn bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the churn module.
func NewModule(pool *pgxpool.Pool, clientRepo *clients.Repository, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.NewService(repo, clientRepo, bus, log)

	return &Module{
		handler: handler.NewHandler(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "churn"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts churn routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/churn")
	group.POST("", m.handler.Initiate)
	group.GET("", m.handler.List)
	group.POST("/:id/advance", m.handler.Advance)
	group.POST("/:id/finalize", m.handler.Finalize)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
