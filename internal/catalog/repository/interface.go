package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Category is a service category a lead can request and a provider can
// offer. The hierarchy is at most two levels deep: a category either has no
// parent (root) or its parent is a root.
type Category struct {
	ID        uuid.UUID  `db:"id"`
	Name      string     `db:"name"`
	ParentID  *uuid.UUID `db:"parent_id"`
	IsActive  bool       `db:"is_active"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// Kind tags the category's place in the hierarchy.
type Kind string

const (
	KindRoot  Kind = "root"
	KindChild Kind = "child"
)

// Kind returns whether the category is a root or a child.
func (c Category) Kind() Kind {
	if c.ParentID == nil {
		return KindRoot
	}
	return KindChild
}

// CreateParams contains parameters for creating a category.
type CreateParams struct {
	Name     string
	ParentID *uuid.UUID
}

// UpdateParams contains parameters for renaming a category.
type UpdateParams struct {
	ID   uuid.UUID
	Name string
}

// CategoryReader provides read operations for categories.
type CategoryReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Category, error)
	List(ctx context.Context) ([]Category, error)
	ListActive(ctx context.Context) ([]Category, error)
	ExistAll(ctx context.Context, ids []uuid.UUID) (bool, error)
	CountActiveProviders(ctx context.Context, id uuid.UUID) (int, error)
}

// CategoryWriter provides write operations for categories.
type CategoryWriter interface {
	Create(ctx context.Context, params CreateParams) (Category, error)
	Update(ctx context.Context, params UpdateParams) (Category, error)
	SetActive(ctx context.Context, id uuid.UUID, isActive bool) error
}

// Repository combines all category repository operations.
type Repository interface {
	CategoryReader
	CategoryWriter
}
