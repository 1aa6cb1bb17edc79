package audit

import (
	"encoding/json"
	"net/http"
	"time"

	"leadmarket_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes the read-only admin audit listing.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new audit handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// EntryResponse is the API shape of an audit log entry.
type EntryResponse struct {
	ID         uuid.UUID      `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	ActorID    *uuid.UUID     `json:"actorId,omitempty"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  string         `json:"createdAt"`
}

// ListResponse wraps a page of audit entries.
type ListResponse struct {
	Items []EntryResponse `json:"items"`
}

// List returns audit entries filtered by entity.
// GET /api/v1/admin/audit
func (h *Handler) List(c *gin.Context) {
	var query struct {
		EntityType string `form:"entityType"`
		EntityID   string `form:"entityId"`
		Limit      int    `form:"limit"`
		Offset     int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	entries, err := h.repo.List(c.Request.Context(), ListParams{
		EntityType: query.EntityType,
		EntityID:   query.EntityID,
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toResponse(entry))
	}
	httpkit.OK(c, ListResponse{Items: items})
}

func toResponse(entry LogEntry) EntryResponse {
	metadata := map[string]any{}
	if len(entry.Metadata) > 0 {
		// Metadata was marshalled by us; a decode failure means a manual
		// row edit and is safe to surface as empty.
		_ = json.Unmarshal(entry.Metadata, &metadata)
	}
	return EntryResponse{
		ID:         entry.ID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		ActorID:    entry.ActorID,
		Metadata:   metadata,
		CreatedAt:  entry.CreatedAt.Format(time.RFC3339),
	}
}
