package service

import (
	"context"
	"strings"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/validate"
)

// VariantInput is the admin variant payload.
type VariantInput struct {
	Size  string `json:"size" validate:"required,max=20"`
	Stock int    `json:"stock" validate:"gte=0"`
}

func (s *catalogService) ListVariants(ctx context.Context, productID int64) ([]domain.ProductVariant, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.ListVariants(ctx, productID)
}

// CreateVariant adds a size. A size already present on the product is ErrDuplicateSize.
func (s *catalogService) CreateVariant(ctx context.Context, productID int64, in VariantInput) (*domain.ProductVariant, error) {
	const op = "catalog.create_variant"

	in.Size = strings.TrimSpace(in.Size)
	if err := validate.Struct(op, &in); err != nil {
		return nil, err
	}

	v := &domain.ProductVariant{ProductID: productID, Size: in.Size, Stock: in.Stock}
	if err := s.store.CreateVariant(ctx, v); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "variant created", "product_id", productID, "variant_id", v.ID, "size", v.Size)
	return v, nil
}

// UpdateVariant sets the size and absolute stock of a variant of productID.
func (s *catalogService) UpdateVariant(ctx context.Context, productID, variantID int64, in VariantInput) (*domain.ProductVariant, error) {
	const op = "catalog.update_variant"

	in.Size = strings.TrimSpace(in.Size)
	if err := validate.Struct(op, &in); err != nil {
		return nil, err
	}

	v, err := s.store.GetProductVariant(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}

	v.Size = in.Size
	v.Stock = in.Stock
	if err := s.store.UpdateVariant(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *catalogService) DeleteVariant(ctx context.Context, productID, variantID int64) error {
	return s.store.DeleteVariant(ctx, productID, variantID)
}
