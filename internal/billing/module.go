// Package billing provides the billing bounded context: per-country lead
// pricing, provider charges and refunds.
package billing

import (
	"leadmarket_backend/internal/audit"
	"leadmarket_backend/internal/billing/handler"
	"leadmarket_backend/internal/billing/pricing"
	"leadmarket_backend/internal/billing/processor"
	"leadmarket_backend/internal/billing/repository"
	"leadmarket_backend/internal/billing/service"
	"leadmarket_backend/internal/events"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the billing bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the billing module. The price book is
// loaded by the composition root and injected explicitly.
func NewModule(
	pool *pgxpool.Pool,
	prices *pricing.Book,
	gateway processor.Processor,
	bus events.Bus,
	auditor audit.Recorder,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, prices, gateway, bus, auditor, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "billing"
}

// Service returns the service layer for external use (lead acceptance
// charging).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts billing routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	adminGroup := ctx.Admin.Group("/billing")
	adminGroup.POST("/charges", m.handler.Charge)
	adminGroup.GET("/transactions", m.handler.List)
	adminGroup.GET("/transactions/:id", m.handler.Get)
	adminGroup.POST("/transactions/:id/refund", m.handler.Refund)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
