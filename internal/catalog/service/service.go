// Package service provides business logic for the category catalog.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadmarket_backend/internal/audit"
	"leadmarket_backend/internal/catalog/repository"
	"leadmarket_backend/internal/catalog/transport"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
)

// Service provides business logic for categories.
type Service struct {
	repo    repository.Repository
	auditor audit.Recorder
	log     *logger.Logger
}

// New creates a new catalog service.
func New(repo repository.Repository, auditor audit.Recorder, log *logger.Logger) *Service {
	return &Service{repo: repo, auditor: auditor, log: log}
}

// GetByID retrieves a category by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.CategoryResponse, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CategoryResponse{}, err
	}
	return toResponse(category), nil
}

// List retrieves all categories.
func (s *Service) List(ctx context.Context) (transport.CategoryListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return transport.CategoryListResponse{}, err
	}
	return toListResponse(items), nil
}

// ListActive retrieves only active categories.
func (s *Service) ListActive(ctx context.Context) (transport.CategoryListResponse, error) {
	items, err := s.repo.ListActive(ctx)
	if err != nil {
		return transport.CategoryListResponse{}, err
	}
	return toListResponse(items), nil
}

// Create creates a new category. A child's parent must exist and itself be
// a root: the hierarchy never goes deeper than two levels.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, req transport.CreateCategoryRequest) (transport.CategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return transport.CategoryResponse{}, apperr.Validation("category name is required")
	}

	if req.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return transport.CategoryResponse{}, err
		}
		if parent.Kind() != repository.KindRoot {
			return transport.CategoryResponse{}, apperr.Validation("parent must be a top-level category")
		}
	}

	category, err := s.repo.Create(ctx, repository.CreateParams{
		Name:     name,
		ParentID: req.ParentID,
	})
	if err != nil {
		return transport.CategoryResponse{}, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     "category.created",
		EntityType: "category",
		EntityID:   category.ID.String(),
		ActorID:    &actorID,
		Metadata:   map[string]any{"name": category.Name, "kind": string(category.Kind())},
	})

	return toResponse(category), nil
}

// Update renames a category.
func (s *Service) Update(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req transport.UpdateCategoryRequest) (transport.CategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return transport.CategoryResponse{}, apperr.Validation("category name is required")
	}

	category, err := s.repo.Update(ctx, repository.UpdateParams{ID: id, Name: name})
	if err != nil {
		return transport.CategoryResponse{}, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     "category.renamed",
		EntityType: "category",
		EntityID:   category.ID.String(),
		ActorID:    &actorID,
		Metadata:   map[string]any{"name": category.Name},
	})

	return toResponse(category), nil
}

// Deactivate hides a category from new leads and providers. Refused while
// ACTIVE providers still offer it, since they would silently stop matching.
func (s *Service) Deactivate(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	count, err := s.repo.CountActiveProviders(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict("category is still offered by active providers")
	}

	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     "category.deactivated",
		EntityType: "category",
		EntityID:   id.String(),
		ActorID:    &actorID,
	})
	return nil
}

// Activate re-enables a category.
func (s *Service) Activate(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     "category.activated",
		EntityType: "category",
		EntityID:   id.String(),
		ActorID:    &actorID,
	})
	return nil
}

// ExistAll reports whether every ID refers to an active category. Consumed
// by lead intake through the catalog port. Repeated IDs count once, since
// the underlying check compares a row count against the set size.
func (s *Service) ExistAll(ctx context.Context, ids []uuid.UUID) (bool, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return s.repo.ExistAll(ctx, unique)
}

func toResponse(category repository.Category) transport.CategoryResponse {
	return transport.CategoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		Kind:      string(category.Kind()),
		ParentID:  category.ParentID,
		IsActive:  category.IsActive,
		CreatedAt: category.CreatedAt.Format(time.RFC3339),
		UpdatedAt: category.UpdatedAt.Format(time.RFC3339),
	}
}

func toListResponse(items []repository.Category) transport.CategoryListResponse {
	responses := make([]transport.CategoryResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toResponse(item))
	}
	return transport.CategoryListResponse{Items: responses, Total: len(responses)}
}
