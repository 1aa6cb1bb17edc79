// Package geo provides the geographic bounded context: countries, zones and
// the postal code index leads are resolved against.
package geo

import (
	"leadmarket_backend/internal/audit"
	"leadmarket_backend/internal/geo/handler"
	"leadmarket_backend/internal/geo/repository"
	"leadmarket_backend/internal/geo/service"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the geo bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the geo module with all its dependencies.
// Pass a nil cache to resolve directly against the store.
func NewModule(pool *pgxpool.Pool, cache service.MatchCache, auditor audit.Recorder, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cache, auditor, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "geo"
}

// Service returns the service layer for external use (lead intake).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for the bulk import command.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts geo routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/zones/resolve", m.handler.Resolve)

	adminGroup := ctx.Admin.Group("/zones")
	adminGroup.GET("/:id", m.handler.GetZone)
	adminGroup.PUT("/:id/postal-codes", m.handler.UpdatePostalCodes)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
