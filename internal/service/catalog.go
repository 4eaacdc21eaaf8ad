package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/storage"
	"github.com/dukerupert/boutique/internal/telemetry"
)

// CategoryAll is the storefront pseudo-slug that disables category filtering.
const CategoryAll = "all"

// CatalogService provides business logic for categories, products and variants.
type CatalogService interface {
	// Categories
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	// Products
	ListStorefrontProducts(ctx context.Context, categorySlug, query string) ([]domain.Product, error)
	ListAdminProducts(ctx context.Context, categoryID *int64, query string) ([]domain.Product, error)
	GetStorefrontProduct(ctx context.Context, slug string) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	SetProductImage(ctx context.Context, id int64, filename, contentType string, content io.Reader) (*domain.Product, error)
	ImageURL(key string) string

	// Variants
	ListVariants(ctx context.Context, productID int64) ([]domain.ProductVariant, error)
	CreateVariant(ctx context.Context, productID int64, in VariantInput) (*domain.ProductVariant, error)
	UpdateVariant(ctx context.Context, productID, variantID int64, in VariantInput) (*domain.ProductVariant, error)
	DeleteVariant(ctx context.Context, productID, variantID int64) error
}

type catalogService struct {
	store   domain.CatalogStore
	files   storage.Storage
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// NewCatalogService creates a new CatalogService instance. files may be nil
// when image upload is not configured.
func NewCatalogService(store domain.CatalogStore, files storage.Storage, metrics *telemetry.BusinessMetrics, logger *slog.Logger) (CatalogService, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &catalogService{
		store:   store,
		files:   files,
		metrics: metrics,
		logger:  logger.With("service", "catalog"),
	}, nil
}

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes       = regexp.MustCompile(`-+`)
	slugFold         = strings.NewReplacer(
		"à", "a", "â", "a", "ä", "a", "á", "a",
		"ç", "c",
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"î", "i", "ï", "i", "í", "i",
		"ô", "o", "ö", "o", "ó", "o",
		"ù", "u", "û", "u", "ü", "u", "ú", "u",
		"ÿ", "y", "ñ", "n", "œ", "oe", "æ", "ae",
		"'", "-", "’", "-", "_", "-",
	)
)

const maxSlugLength = 100

// generateSlug lowercases input, folds common accents and keeps [a-z0-9-].
func generateSlug(input string) string {
	if input == "" {
		return ""
	}

	slug := strings.ToLower(strings.TrimSpace(input))
	slug = slugFold.Replace(slug)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugDashes.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}

	return slug
}

// uniqueSlug appends -2, -3, ... to base until taken reports it free.
func uniqueSlug(ctx context.Context, base string, excludeID int64, taken func(ctx context.Context, slug string, excludeID int64) (bool, error)) (string, error) {
	if base == "" {
		base = "item"
	}

	candidate := base
	for n := 2; ; n++ {
		exists, err := taken(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
		if n > 1000 {
			return "", domain.Conflict("catalog.unique_slug", "Could not find a free slug for "+base)
		}
	}
}

func nonNegativePrice(op string, price decimal.Decimal) error {
	if price.IsNegative() {
		return domain.NewValidationError(op, "price", ErrInvalidPrice.Error())
	}
	return nil
}
