package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Category labels transactions and budgets. A category may sit under one
// parent, and a parent may not itself have a parent.
type Category struct {
	ID        int32     `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	ParentID  *int32    `json:"parentId,omitempty"`
	Color     *string   `json:"color,omitempty"`
	Icon      *string   `json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type CategoryRepository interface {
	Create(ctx context.Context, category *Category) (*Category, error)
	GetByID(ctx context.Context, userID uuid.UUID, id int32) (*Category, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*Category, error)
}
