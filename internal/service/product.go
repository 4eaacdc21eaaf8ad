package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/validate"
)

// ErrImageStorageDisabled is returned when no storage backend is configured.
var ErrImageStorageDisabled = domain.Errorf(domain.EINVALID, "", "Image uploads are not configured")

// ProductInput is the admin product payload.
type ProductInput struct {
	CategoryID  *int64          `json:"category_id"`
	Name        string          `json:"name" validate:"required,max=200"`
	Slug        string          `json:"slug" validate:"omitempty,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price" validate:"-"`
	IsActive    *bool           `json:"is_active"`
}

// imageExtensions maps accepted upload content types to file extensions.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ListStorefrontProducts returns active products ordered by name. categorySlug
// "" or "all" lists every category; an unknown slug is ErrCategoryNotFound.
func (s *catalogService) ListStorefrontProducts(ctx context.Context, categorySlug, query string) ([]domain.Product, error) {
	filter := domain.ProductFilter{
		ActiveOnly: true,
		Query:      strings.TrimSpace(query),
	}

	filterType := "none"
	if categorySlug != "" && categorySlug != CategoryAll {
		c, err := s.store.GetCategoryBySlug(ctx, categorySlug)
		if err != nil {
			return nil, err
		}
		filter.CategoryID = &c.ID
		filterType = "category"
	}
	if filter.Query != "" {
		filterType = "query"
	}
	if s.metrics != nil {
		s.metrics.ProductSearches.WithLabelValues(filterType).Inc()
	}

	return s.store.ListProducts(ctx, filter)
}

// ListAdminProducts returns every product, newest first, with total stock.
func (s *catalogService) ListAdminProducts(ctx context.Context, categoryID *int64, query string) ([]domain.Product, error) {
	return s.store.ListProducts(ctx, domain.ProductFilter{
		CategoryID:  categoryID,
		Query:       strings.TrimSpace(query),
		NewestFirst: true,
	})
}

// GetStorefrontProduct returns an active product with its variants.
func (s *catalogService) GetStorefrontProduct(ctx context.Context, slug string) (*domain.Product, error) {
	p, err := s.store.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, domain.ErrProductNotFound
	}
	if s.metrics != nil {
		availability := "sold_out"
		if p.IsAvailable() {
			availability = "in_stock"
		}
		s.metrics.ProductViews.WithLabelValues(availability).Inc()
	}
	return p, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *catalogService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	const op = "catalog.create_product"

	in.Name = strings.TrimSpace(in.Name)
	if err := s.validateProduct(op, &in); err != nil {
		return nil, err
	}

	slug, err := s.productSlug(ctx, in, 0)
	if err != nil {
		return nil, err
	}

	p := &domain.Product{
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		Price:       in.Price.Round(2),
		IsActive:    true,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "product created", "product_id", p.ID, "slug", p.Slug)
	return p, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*domain.Product, error) {
	const op = "catalog.update_product"

	in.Name = strings.TrimSpace(in.Name)
	if err := s.validateProduct(op, &in); err != nil {
		return nil, err
	}

	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Slug) != "" {
		slug, err := s.productSlug(ctx, in, id)
		if err != nil {
			return nil, err
		}
		p.Slug = slug
	}

	p.CategoryID = in.CategoryID
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price.Round(2)
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product and its variants. Order items keep their snapshot.
func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.removeImage(ctx, p.ImageKey)
	s.logger.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

// SetProductImage stores an uploaded image and points the product at it.
// The previous image is removed on a best-effort basis.
func (s *catalogService) SetProductImage(ctx context.Context, id int64, filename, contentType string, content io.Reader) (*domain.Product, error) {
	const op = "catalog.set_product_image"

	if s.files == nil {
		return nil, ErrImageStorageDisabled
	}

	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, domain.NewValidationError(op, "image", "Upload a JPEG, PNG, WebP or GIF image")
	}

	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("products/%d/%s%s", id, uuid.NewString(), ext)
	if _, err := s.files.Put(ctx, key, content, contentType); err != nil {
		return nil, domain.Internal(err, op, "Failed to store image")
	}

	oldKey := p.ImageKey
	p.ImageKey = key
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		s.removeImage(ctx, key)
		return nil, err
	}
	s.removeImage(ctx, oldKey)

	s.logger.InfoContext(ctx, "product image updated", "product_id", id, "key", key, "filename", filename)
	return p, nil
}

// ImageURL derives the public URL of an image key.
func (s *catalogService) ImageURL(key string) string {
	if key == "" || s.files == nil {
		return ""
	}
	return s.files.URL(key)
}

func (s *catalogService) removeImage(ctx context.Context, key string) {
	if key == "" || s.files == nil {
		return
	}
	if err := s.files.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete image", "key", key, "error", err)
	}
}

func (s *catalogService) validateProduct(op string, in *ProductInput) error {
	err := validate.Struct(op, in)
	if perr := nonNegativePrice(op, in.Price); perr != nil {
		if err == nil {
			return perr
		}
		if domain.IsValidationError(err) {
			return domain.AddFieldError(err, "price", ErrInvalidPrice.Error())
		}
	}
	return err
}

func (s *catalogService) productSlug(ctx context.Context, in ProductInput, excludeID int64) (string, error) {
	explicit := strings.TrimSpace(in.Slug)
	if explicit == "" {
		return uniqueSlug(ctx, generateSlug(in.Name), excludeID, s.store.ProductSlugTaken)
	}

	slug := generateSlug(explicit)
	if slug == "" {
		return "", domain.NewValidationError("catalog.product_slug", "slug", "Invalid slug")
	}
	taken, err := s.store.ProductSlugTaken(ctx, slug, excludeID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", domain.ErrDuplicateSlug
	}
	return slug, nil
}
