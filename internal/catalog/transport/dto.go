package transport

import "github.com/google/uuid"

// CreateCategoryRequest contains data for creating a new category.
// ParentID, when set, must refer to a root category: the hierarchy is at
// most two levels deep.
type CreateCategoryRequest struct {
	Name     string     `json:"name" validate:"required,min=1,max=100"`
	ParentID *uuid.UUID `json:"parentId,omitempty"`
}

// UpdateCategoryRequest renames an existing category.
type UpdateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CategoryResponse represents a category in API responses.
type CategoryResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Kind      string     `json:"kind"`
	ParentID  *uuid.UUID `json:"parentId,omitempty"`
	IsActive  bool       `json:"isActive"`
	CreatedAt string     `json:"createdAt"`
	UpdatedAt string     `json:"updatedAt"`
}

// CategoryListResponse wraps a list of categories.
type CategoryListResponse struct {
	Items []CategoryResponse `json:"items"`
	Total int                `json:"total"`
}
