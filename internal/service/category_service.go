package service

import (
	"context"
	"strings"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/google/uuid"
)

// CategoryService handles category-related business logic
type CategoryService struct {
	store domain.Store
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(store domain.Store) *CategoryService {
	return &CategoryService{store: store}
}

// CreateCategoryInput holds the input for creating a category
type CreateCategoryInput struct {
	Name     string
	ParentID *int32
	Color    *string
	Icon     *string
}

// CreateCategory creates a category, optionally under a top-level parent
func (s *CategoryService) CreateCategory(ctx context.Context, userID uuid.UUID, input CreateCategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}

	repos := s.store.Repos()
	if input.ParentID != nil {
		parent, err := repos.Categories.GetByID(ctx, userID, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.ParentID != nil {
			return nil, domain.ErrCategoryTooDeep
		}
	}

	return repos.Categories.Create(ctx, &domain.Category{
		UserID:   userID,
		Name:     name,
		ParentID: input.ParentID,
		Color:    input.Color,
		Icon:     input.Icon,
	})
}

// GetCategories retrieves the user's categories
func (s *CategoryService) GetCategories(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	categories, err := s.store.Repos().Categories.GetAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	return categories, nil
}
