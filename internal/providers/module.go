// Package providers provides the provider directory bounded context:
// the service businesses that receive and pay for leads.
package providers

import (
	"leadmarket_backend/internal/audit"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/internal/providers/handler"
	"leadmarket_backend/internal/providers/repository"
	"leadmarket_backend/internal/providers/service"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the providers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the providers module with all its dependencies.
func NewModule(pool *pgxpool.Pool, auditor audit.Recorder, phoneRegion string, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, auditor, phoneRegion, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "providers"
}

// Service returns the service layer for external use (distribution engine).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts provider routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	adminGroup := ctx.Admin.Group("/providers")
	adminGroup.GET("", m.handler.List)
	adminGroup.POST("", m.handler.Create)
	adminGroup.GET("/:id", m.handler.GetByID)
	adminGroup.PATCH("/:id/activate", m.handler.Activate)
	adminGroup.PATCH("/:id/deactivate", m.handler.Deactivate)
	adminGroup.PUT("/:id/zones", m.handler.SetZones)
	adminGroup.PUT("/:id/categories", m.handler.SetCategories)
	adminGroup.PUT("/:id/payment-account", m.handler.SetPaymentAccount)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
