// Package leads provides lead intake, distribution fan-out to eligible
// providers and the tracking of provider responses.
package leads

import (
	"leadmarket_backend/internal/audit"
	"leadmarket_backend/internal/events"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/internal/leads/handler"
	"leadmarket_backend/internal/leads/ports"
	"leadmarket_backend/internal/leads/repository"
	"leadmarket_backend/internal/leads/service"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module. The zone resolver,
// category checker, provider directory and charge processor are ports wired
// by the composition root.
func NewModule(
	pool *pgxpool.Pool,
	zones ports.ZoneResolver,
	categories ports.CategoryChecker,
	directory ports.ProviderDirectory,
	charger ports.ChargeProcessor,
	bus events.Bus,
	auditor audit.Recorder,
	phoneRegion string,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, zones, categories, directory, charger, bus, auditor, phoneRegion, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
// Intake and offer responses are public but rate-limited per client IP.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	intake := ctx.V1.Group("/leads")
	intake.Use(ctx.IntakeRateLimiter.RateLimit())
	intake.POST("", m.handler.Create)

	responses := ctx.V1.Group("/lead-responses")
	responses.Use(ctx.IntakeRateLimiter.RateLimit())
	responses.POST("/:id", m.handler.Respond)

	adminGroup := ctx.Admin.Group("/leads")
	adminGroup.GET("", m.handler.List)
	adminGroup.GET("/:id", m.handler.Get)
	adminGroup.GET("/:id/offers", m.handler.ListOffers)
	adminGroup.GET("/:id/eligible-providers", m.handler.PreviewEligible)
	adminGroup.POST("/:id/distribute", m.handler.Distribute)
	adminGroup.POST("/:id/close", m.handler.Close)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
