package service

import (
	"context"
	"strings"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/validate"
)

// CategoryInput is the admin category payload.
type CategoryInput struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"omitempty,max=100"`
}

func (s *catalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *catalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return s.store.GetCategory(ctx, id)
}

// CreateCategory derives the slug from the name when none is given.
func (s *catalogService) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	const op = "catalog.create_category"

	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(op, &in); err != nil {
		return nil, err
	}

	slug, err := s.categorySlug(ctx, in, 0)
	if err != nil {
		return nil, err
	}

	c := &domain.Category{Name: in.Name, Slug: slug}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "category created", "category_id", c.ID, "slug", c.Slug)
	return c, nil
}

// UpdateCategory renames a category. The slug only changes when one is given.
func (s *catalogService) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*domain.Category, error) {
	const op = "catalog.update_category"

	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(op, &in); err != nil {
		return nil, err
	}

	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Name = in.Name
	if strings.TrimSpace(in.Slug) != "" {
		slug, err := s.categorySlug(ctx, in, id)
		if err != nil {
			return nil, err
		}
		c.Slug = slug
	}

	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes the category; its products lose their category.
func (s *catalogService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "category deleted", "category_id", id)
	return nil
}

func (s *catalogService) categorySlug(ctx context.Context, in CategoryInput, excludeID int64) (string, error) {
	explicit := strings.TrimSpace(in.Slug)
	if explicit != "" {
		slug := generateSlug(explicit)
		if slug == "" || slug == CategoryAll {
			return "", domain.NewValidationError("catalog.category_slug", "slug", "Invalid slug")
		}
		taken, err := s.store.CategorySlugTaken(ctx, slug, excludeID)
		if err != nil {
			return "", err
		}
		if taken {
			return "", domain.ErrDuplicateSlug
		}
		return slug, nil
	}

	base := generateSlug(in.Name)
	if base == CategoryAll {
		base = "all-products"
	}
	return uniqueSlug(ctx, base, excludeID, s.store.CategorySlugTaken)
}
