package onboarding

import (
	"time"

	apphttp "opsboard_backend/internal/http"
	"opsboard_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the onboarding bounded context implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
	repo    *Repository
	source  *Source
}

// NewModule creates and initializes the onboarding module.
func NewModule(pool *pgxpool.Pool, loc *time.Location, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	svc := NewService(repo, loc, log)
	h := NewHandler(svc)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
		source:  NewSource(repo),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "onboarding"
}

// Service returns the service layer for external use.
func (m *Module) Service() *Service {
	return m.service
}

// WorkItemSource returns the synthetic milestone source for the scanner.
func (m *Module) WorkItemSource() *Source {
	return m.source
}

// RegisterRoutes mounts onboarding routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/onboarding")
	group.GET("/breaches", m.handler.ListBreaches)
	group.GET("/:clientId/breach", m.handler.Breach)
	group.POST("/:clientId/advance", m.handler.Advance)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
