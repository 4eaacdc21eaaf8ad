package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Catalog errors
var (
	ErrCategoryNotFound = Errorf(ENOTFOUND, "", "Category not found")
	ErrProductNotFound  = Errorf(ENOTFOUND, "", "Product not found")
	ErrVariantNotFound  = Errorf(ENOTFOUND, "", "Size not found")
	ErrDuplicateSlug    = Errorf(ECONFLICT, "", "Slug already in use")
	ErrDuplicateSize    = Errorf(ECONFLICT, "", "This size already exists for the product")
)

// Category groups products. Deleting a category never deletes its products.
type Category struct {
	ID        int64
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product is a sellable item. Stock lives on its variants.
type Product struct {
	ID          int64
	CategoryID  *int64
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	ImageKey    string
	IsActive    bool

	// TotalStock is the sum of stock over variants with stock > 0.
	// Populated by list and detail reads.
	TotalStock int

	Variants  []ProductVariant
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAvailable reports whether any variant has stock.
func (p *Product) IsAvailable() bool {
	return p.TotalStock > 0
}

// SumStock returns the total stock across variants, ignoring non-positive counts.
func SumStock(variants []ProductVariant) int {
	total := 0
	for _, v := range variants {
		if v.Stock > 0 {
			total += v.Stock
		}
	}
	return total
}

// ProductVariant is a size of a product with its own stock count.
// (ProductID, Size) is unique.
type ProductVariant struct {
	ID        int64
	ProductID int64
	Size      string
	Stock     int
}

// VariantDetail is a variant joined with the product fields the cart needs.
type VariantDetail struct {
	ProductVariant
	ProductName string
	ProductSlug string
	Price       decimal.Decimal
	ImageKey    string
	IsActive    bool
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	ActiveOnly  bool
	CategoryID  *int64
	Query       string // case-insensitive substring over name and description
	NewestFirst bool   // order by id descending instead of by name
}

// CategoryStore persists categories.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id int64) error
	CategorySlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
}

// ProductStore persists products.
type ProductStore interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id int64) error
	ProductSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
}

// VariantStore persists product variants.
type VariantStore interface {
	ListVariants(ctx context.Context, productID int64) ([]ProductVariant, error)
	CreateVariant(ctx context.Context, v *ProductVariant) error
	UpdateVariant(ctx context.Context, v *ProductVariant) error
	DeleteVariant(ctx context.Context, productID, variantID int64) error
	CatalogReader
}

// CatalogReader is the read side of the catalog used by the cart and checkout.
type CatalogReader interface {
	// GetVariant returns the variant joined with its product.
	GetVariant(ctx context.Context, id int64) (*VariantDetail, error)

	// GetProductVariant returns the variant only if it belongs to productID.
	GetProductVariant(ctx context.Context, productID, variantID int64) (*ProductVariant, error)

	// VariantsByIDs resolves many variants in one round trip. Missing ids are absent from the map.
	VariantsByIDs(ctx context.Context, ids []int64) (map[int64]VariantDetail, error)

	GetProduct(ctx context.Context, id int64) (*Product, error)
}

// CatalogStore is the full read/write catalog.
type CatalogStore interface {
	CategoryStore
	ProductStore
	VariantStore
}
