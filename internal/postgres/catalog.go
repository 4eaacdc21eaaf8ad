package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/jackc/pgx/v5"
)

// CatalogStore implements the category, product and variant stores using PostgreSQL.
type CatalogStore struct {
	db DBTX
}

// Compile-time checks that CatalogStore implements the domain catalog stores.
var (
	_ domain.CategoryStore = (*CatalogStore)(nil)
	_ domain.ProductStore  = (*CatalogStore)(nil)
	_ domain.VariantStore  = (*CatalogStore)(nil)
	_ domain.CatalogStore  = (*CatalogStore)(nil)
)

// NewCatalogStore creates a new PostgreSQL-backed catalog store.
func NewCatalogStore(db DBTX) *CatalogStore {
	return &CatalogStore{db: db}
}

// =============================================================================
// CATEGORIES
// =============================================================================

const categoryColumns = `id, name, slug, created_at, updated_at`

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories returns all categories ordered by name.
func (s *CatalogStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, domain.Internal(err, "category.list", "failed to list categories")
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, domain.Internal(err, "category.list", "failed to scan category")
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "category.list", "failed to list categories")
	}
	return categories, nil
}

// GetCategory retrieves a category by id.
func (s *CatalogStore) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	c, err := scanCategory(s.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, domain.Internal(err, "category.get", "failed to get category")
	}
	return c, nil
}

// GetCategoryBySlug retrieves a category by slug.
func (s *CatalogStore) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	c, err := scanCategory(s.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, domain.Internal(err, "category.get_by_slug", "failed to get category")
	}
	return c, nil
}

// CreateCategory inserts c and fills its id and timestamps.
func (s *CatalogStore) CreateCategory(ctx context.Context, c *domain.Category) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		c.Name, c.Slug,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSlug
		}
		return domain.Internal(err, "category.create", "failed to create category")
	}
	return nil
}

// UpdateCategory saves the name and slug of c.
func (s *CatalogStore) UpdateCategory(ctx context.Context, c *domain.Category) error {
	err := s.db.QueryRow(ctx,
		`UPDATE categories SET name = $2, slug = $3, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		c.ID, c.Name, c.Slug,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrCategoryNotFound
		}
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSlug
		}
		return domain.Internal(err, "category.update", "failed to update category")
	}
	return nil
}

// DeleteCategory removes a category. Its products keep existing with a null
// category through the ON DELETE SET NULL foreign key.
func (s *CatalogStore) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, "category.delete", "failed to delete category")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// CategorySlugTaken reports whether another category already uses slug.
func (s *CatalogStore) CategorySlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var taken bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1 AND id <> $2)`, slug, excludeID,
	).Scan(&taken)
	if err != nil {
		return false, domain.Internal(err, "category.slug_taken", "failed to check slug")
	}
	return taken, nil
}

// =============================================================================
// PRODUCTS
// =============================================================================

const productSelect = `
SELECT p.id, p.category_id, p.name, p.slug, p.description, p.price::text, p.image_key,
       p.is_active, p.created_at, p.updated_at,
       COALESCE(SUM(v.stock) FILTER (WHERE v.stock > 0), 0)::int AS total_stock
FROM products p
LEFT JOIN product_variants v ON v.product_id = p.id`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &price, &p.ImageKey,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt, &p.TotalStock)
	if err != nil {
		return nil, err
	}
	if p.Price, err = parseNumeric(price); err != nil {
		return nil, fmt.Errorf("product %d price: %w", p.ID, err)
	}
	return &p, nil
}

// ListProducts returns products matching filter, each annotated with its total stock.
func (s *CatalogStore) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if filter.ActiveOnly {
		where = append(where, "p.is_active")
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		where = append(where, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		where = append(where, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}

	query := productSelect
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nGROUP BY p.id"
	if filter.NewestFirst {
		query += "\nORDER BY p.id DESC"
	} else {
		query += "\nORDER BY p.name, p.id"
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal(err, "product.list", "failed to list products")
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.Internal(err, "product.list", "failed to scan product")
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "product.list", "failed to list products")
	}
	return products, nil
}

// GetProduct retrieves a product with its variants.
func (s *CatalogStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRow(ctx, productSelect+"\nWHERE p.id = $1\nGROUP BY p.id", id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "product.get", "failed to get product")
	}
	if p.Variants, err = s.ListVariants(ctx, p.ID); err != nil {
		return nil, err
	}
	p.TotalStock = domain.SumStock(p.Variants)
	return p, nil
}

// GetProductBySlug retrieves a product with its variants by slug.
func (s *CatalogStore) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRow(ctx, productSelect+"\nWHERE p.slug = $1\nGROUP BY p.id", slug))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "product.get_by_slug", "failed to get product")
	}
	// Variants are a second read; keep the total consistent with them.
	if p.Variants, err = s.ListVariants(ctx, p.ID); err != nil {
		return nil, err
	}
	p.TotalStock = domain.SumStock(p.Variants)
	return p, nil
}

// CreateProduct inserts p and fills its id and timestamps. Variants are created separately.
func (s *CatalogStore) CreateProduct(ctx context.Context, p *domain.Product) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO products (category_id, name, slug, description, price, image_key, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		p.CategoryID, p.Name, p.Slug, p.Description, p.Price, p.ImageKey, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return translateProductError(err, "product.create", "failed to create product")
	}
	return nil
}

// UpdateProduct saves every editable field of p.
func (s *CatalogStore) UpdateProduct(ctx context.Context, p *domain.Product) error {
	err := s.db.QueryRow(ctx, `
		UPDATE products
		SET category_id = $2, name = $3, slug = $4, description = $5, price = $6,
		    image_key = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.CategoryID, p.Name, p.Slug, p.Description, p.Price, p.ImageKey, p.IsActive,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrProductNotFound
		}
		return translateProductError(err, "product.update", "failed to update product")
	}
	return nil
}

func translateProductError(err error, op, message string) error {
	switch code, _ := pgErrorCode(err); code {
	case pgUniqueViolation:
		return domain.ErrDuplicateSlug
	case pgForeignKeyViolation:
		return domain.ErrCategoryNotFound
	case pgCheckViolation:
		return domain.NewValidationError(op, "price", "Price must be zero or more")
	}
	return domain.Internal(err, op, message)
}

// DeleteProduct removes a product and its variants. Order items keep their snapshot.
func (s *CatalogStore) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, "product.delete", "failed to delete product")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// ProductSlugTaken reports whether another product already uses slug.
func (s *CatalogStore) ProductSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var taken bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE slug = $1 AND id <> $2)`, slug, excludeID,
	).Scan(&taken)
	if err != nil {
		return false, domain.Internal(err, "product.slug_taken", "failed to check slug")
	}
	return taken, nil
}

// =============================================================================
// VARIANTS
// =============================================================================

// ListVariants returns the variants of a product in creation order.
func (s *CatalogStore) ListVariants(ctx context.Context, productID int64) ([]domain.ProductVariant, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, product_id, size, stock FROM product_variants WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, domain.Internal(err, "variant.list", "failed to list variants")
	}
	defer rows.Close()

	variants := []domain.ProductVariant{}
	for rows.Next() {
		var v domain.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Stock); err != nil {
			return nil, domain.Internal(err, "variant.list", "failed to scan variant")
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "variant.list", "failed to list variants")
	}
	return variants, nil
}

// CreateVariant inserts v and fills its id.
func (s *CatalogStore) CreateVariant(ctx context.Context, v *domain.ProductVariant) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO product_variants (product_id, size, stock) VALUES ($1, $2, $3) RETURNING id`,
		v.ProductID, v.Size, v.Stock,
	).Scan(&v.ID)
	if err != nil {
		return translateVariantError(err, "variant.create", "failed to create variant")
	}
	return nil
}

// UpdateVariant sets size and stock of a variant owned by v.ProductID.
// This is an administrative absolute write; checkout uses DecrementStock.
func (s *CatalogStore) UpdateVariant(ctx context.Context, v *domain.ProductVariant) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE product_variants SET size = $3, stock = $4 WHERE id = $1 AND product_id = $2`,
		v.ID, v.ProductID, v.Size, v.Stock,
	)
	if err != nil {
		return translateVariantError(err, "variant.update", "failed to update variant")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVariantNotFound
	}
	return nil
}

func translateVariantError(err error, op, message string) error {
	switch code, _ := pgErrorCode(err); code {
	case pgUniqueViolation:
		return domain.ErrDuplicateSize
	case pgForeignKeyViolation:
		return domain.ErrProductNotFound
	case pgCheckViolation:
		return domain.NewValidationError(op, "stock", "Stock must be zero or more")
	}
	return domain.Internal(err, op, message)
}

// DeleteVariant removes a variant owned by productID.
func (s *CatalogStore) DeleteVariant(ctx context.Context, productID, variantID int64) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM product_variants WHERE id = $1 AND product_id = $2`, variantID, productID)
	if err != nil {
		return domain.Internal(err, "variant.delete", "failed to delete variant")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVariantNotFound
	}
	return nil
}

const variantDetailSelect = `
SELECT v.id, v.product_id, v.size, v.stock,
       p.name, p.slug, p.price::text, p.image_key, p.is_active
FROM product_variants v
JOIN products p ON p.id = v.product_id`

func scanVariantDetail(row pgx.Row) (*domain.VariantDetail, error) {
	var (
		d     domain.VariantDetail
		price string
	)
	err := row.Scan(&d.ID, &d.ProductID, &d.Size, &d.Stock,
		&d.ProductName, &d.ProductSlug, &price, &d.ImageKey, &d.IsActive)
	if err != nil {
		return nil, err
	}
	if d.Price, err = parseNumeric(price); err != nil {
		return nil, fmt.Errorf("variant %d price: %w", d.ID, err)
	}
	return &d, nil
}

// GetVariant returns a variant joined with its product.
func (s *CatalogStore) GetVariant(ctx context.Context, id int64) (*domain.VariantDetail, error) {
	d, err := scanVariantDetail(s.db.QueryRow(ctx, variantDetailSelect+"\nWHERE v.id = $1", id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, domain.Internal(err, "variant.get", "failed to get variant")
	}
	return d, nil
}

// GetProductVariant returns a variant only if it belongs to productID.
func (s *CatalogStore) GetProductVariant(ctx context.Context, productID, variantID int64) (*domain.ProductVariant, error) {
	var v domain.ProductVariant
	err := s.db.QueryRow(ctx,
		`SELECT id, product_id, size, stock FROM product_variants WHERE id = $1 AND product_id = $2`,
		variantID, productID,
	).Scan(&v.ID, &v.ProductID, &v.Size, &v.Stock)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, domain.Internal(err, "variant.get_for_product", "failed to get variant")
	}
	return &v, nil
}

// VariantsByIDs resolves all ids in a single query.
func (s *CatalogStore) VariantsByIDs(ctx context.Context, ids []int64) (map[int64]domain.VariantDetail, error) {
	out := make(map[int64]domain.VariantDetail, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.db.Query(ctx, variantDetailSelect+"\nWHERE v.id = ANY($1)", ids)
	if err != nil {
		return nil, domain.Internal(err, "variant.by_ids", "failed to load variants")
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanVariantDetail(rows)
		if err != nil {
			return nil, domain.Internal(err, "variant.by_ids", "failed to scan variant")
		}
		out[d.ID] = *d
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "variant.by_ids", "failed to load variants")
	}
	return out, nil
}
