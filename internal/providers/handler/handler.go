package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadmarket_backend/internal/providers/service"
	"leadmarket_backend/internal/providers/transport"
	"leadmarket_backend/platform/httpkit"
	"leadmarket_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid provider ID"
)

// Handler handles HTTP requests for provider administration.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new provider handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List retrieves all providers.
// GET /api/v1/admin/providers
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID retrieves a provider by ID.
// GET /api/v1/admin/providers/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create registers a new provider.
// POST /api/v1/admin/providers
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), identity.ActorID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Activate makes a provider eligible for distribution.
// PATCH /api/v1/admin/providers/:id/activate
func (h *Handler) Activate(c *gin.Context) {
	h.withIdentity(c, func(actorID, id uuid.UUID) error {
		return h.svc.Activate(c.Request.Context(), actorID, id)
	})
}

// Deactivate removes a provider from distribution.
// PATCH /api/v1/admin/providers/:id/deactivate
func (h *Handler) Deactivate(c *gin.Context) {
	h.withIdentity(c, func(actorID, id uuid.UUID) error {
		return h.svc.Deactivate(c.Request.Context(), actorID, id)
	})
}

// SetZones replaces the provider's zone memberships.
// PUT /api/v1/admin/providers/:id/zones
func (h *Handler) SetZones(c *gin.Context) {
	h.setMemberships(c, func(actorID, id uuid.UUID, ids []uuid.UUID) error {
		return h.svc.SetZones(c.Request.Context(), actorID, id, ids)
	})
}

// SetCategories replaces the provider's category memberships.
// PUT /api/v1/admin/providers/:id/categories
func (h *Handler) SetCategories(c *gin.Context) {
	h.setMemberships(c, func(actorID, id uuid.UUID, ids []uuid.UUID) error {
		return h.svc.SetCategories(c.Request.Context(), actorID, id, ids)
	})
}

// SetPaymentAccount stores the provider's payment method reference.
// PUT /api/v1/admin/providers/:id/payment-account
func (h *Handler) SetPaymentAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.SetPaymentAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.SetPaymentAccount(c.Request.Context(), identity.ActorID(), id, req.PaymentAccount); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}

func (h *Handler) setMemberships(c *gin.Context, set func(actorID, id uuid.UUID, ids []uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.SetMembershipsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := set(identity.ActorID(), id, req.IDs); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}

func (h *Handler) withIdentity(c *gin.Context, op func(actorID, id uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := op(identity.ActorID(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}
