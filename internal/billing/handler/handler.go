// Package handler exposes the billing module over HTTP. All billing
// endpoints are admin-only.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadmarket_backend/internal/billing/repository"
	"leadmarket_backend/internal/billing/service"
	"leadmarket_backend/internal/billing/transport"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/httpkit"
	"leadmarket_backend/platform/validator"
)

type Handler struct {
	service  *service.Service
	validate *validator.Validator
}

func New(service *service.Service, validate *validator.Validator) *Handler {
	return &Handler{service: service, validate: validate}
}

// Charge triggers a manual charge, the retry path after a terminally
// failed transaction. A declined charge is not an HTTP error: the created
// transaction is returned with status failed.
func (h *Handler) Charge(c *gin.Context) {
	var req transport.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	tx, err := h.service.Charge(c.Request.Context(), req.ProviderID, req.LeadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.NewTransactionResponse(tx))
}

func (h *Handler) Refund(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid transaction id"))
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	tx, err := h.service.Refund(c.Request.Context(), id, identity.ActorID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewTransactionResponse(tx))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid transaction id"))
		return
	}
	tx, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewTransactionResponse(tx))
}

// List is the accounting feed. Defaults to completed transactions; pass
// status= to widen.
func (h *Handler) List(c *gin.Context) {
	status := repository.Status(c.DefaultQuery("status", string(repository.StatusCompleted)))
	if c.Query("status") == "all" {
		status = ""
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	if providerID := c.Query("providerId"); providerID != "" {
		id, err := uuid.Parse(providerID)
		if err != nil {
			httpkit.HandleError(c, apperr.BadRequest("invalid provider id"))
			return
		}
		txs, err := h.service.ListByProvider(c.Request.Context(), id, limit, offset)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, transport.NewTransactionListResponse(txs))
		return
	}

	txs, err := h.service.List(c.Request.Context(), status, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewTransactionListResponse(txs))
}

func intQuery(c *gin.Context, name string, fallback int) int {
	value := c.Query(name)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
