// Package handler exposes the leads module over HTTP.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadmarket_backend/internal/leads/repository"
	"leadmarket_backend/internal/leads/service"
	"leadmarket_backend/internal/leads/transport"
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

// Create is the public intake endpoint. It resolves the zone before
// persisting, so an unserved postal code comes back as 404 immediately,
// then distributes the stored lead in the same request.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	lead, err := h.service.Create(c.Request.Context(), service.CreateLeadInput{
		PostalCode:   req.PostalCode,
		CountryISO:   req.Country,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Description:  req.Description,
		CategoryIDs:  req.CategoryIDs,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	result, err := h.service.Distribute(c.Request.Context(), lead.ID, uuid.Nil)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.NewLeadResponse(result.Lead))
}

// Respond is the public endpoint providers hit from the offer email. The
// offer ID doubles as the capability token.
func (h *Handler) Respond(c *gin.Context) {
	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid offer id"))
		return
	}

	var req transport.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	result, err := h.service.Respond(c.Request.Context(), offerID, repository.Decision(req.Decision))
	if httpkit.HandleError(c, err) {
		return
	}
	resp := transport.RespondResponse{Offer: transport.NewOfferResponse(result.Offer)}
	if result.ChargeErr != nil {
		resp.ChargeStatus = "failed"
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid lead id"))
		return
	}
	lead, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewLeadResponse(lead))
}

func (h *Handler) List(c *gin.Context) {
	status := repository.LeadStatus(c.Query("status"))
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	leads, err := h.service.List(c.Request.Context(), status, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	resp := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		resp = append(resp, transport.NewLeadResponse(lead))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Distribute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid lead id"))
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.service.Distribute(c.Request.Context(), id, identity.ActorID())
	if httpkit.HandleError(c, err) {
		return
	}

	offers := make([]transport.OfferResponse, 0, len(result.Offers))
	for _, offer := range result.Offers {
		offers = append(offers, transport.NewOfferWithProviderResponse(offer))
	}
	httpkit.OK(c, transport.DistributeResponse{
		Lead:       transport.NewLeadResponse(result.Lead),
		NewOffers:  offers,
		OfferCount: len(offers),
	})
}

func (h *Handler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid lead id"))
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	lead, err := h.service.Close(c.Request.Context(), id, identity.ActorID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewLeadResponse(lead))
}

func (h *Handler) ListOffers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid lead id"))
		return
	}
	offers, err := h.service.ListOffers(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	resp := make([]transport.OfferResponse, 0, len(offers))
	for _, offer := range offers {
		resp = append(resp, transport.NewOfferWithProviderResponse(offer))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) PreviewEligible(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid lead id"))
		return
	}
	providers, err := h.service.PreviewEligible(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	resp := make([]transport.EligibleProviderResponse, 0, len(providers))
	for _, p := range providers {
		resp = append(resp, transport.EligibleProviderResponse{ID: p.ID, Name: p.Name, Email: p.Email})
	}
	httpkit.OK(c, resp)
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
