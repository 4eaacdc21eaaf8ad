package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/service"
)

// mockCatalogService implements service.CatalogService for testing.
// Unset funcs return zero values.
type mockCatalogService struct {
	ListCategoriesFunc    func(ctx context.Context) ([]domain.Category, error)
	CreateCategoryFunc    func(ctx context.Context, in service.CategoryInput) (*domain.Category, error)
	UpdateCategoryFunc    func(ctx context.Context, id int64, in service.CategoryInput) (*domain.Category, error)
	DeleteCategoryFunc    func(ctx context.Context, id int64) error
	ListAdminProductsFunc func(ctx context.Context, categoryID *int64, query string) ([]domain.Product, error)
	GetProductFunc        func(ctx context.Context, id int64) (*domain.Product, error)
	CreateProductFunc     func(ctx context.Context, in service.ProductInput) (*domain.Product, error)
	UpdateProductFunc     func(ctx context.Context, id int64, in service.ProductInput) (*domain.Product, error)
	DeleteProductFunc     func(ctx context.Context, id int64) error
	SetProductImageFunc   func(ctx context.Context, id int64, filename, contentType string, content io.Reader) (*domain.Product, error)
	ListVariantsFunc      func(ctx context.Context, productID int64) ([]domain.ProductVariant, error)
	CreateVariantFunc     func(ctx context.Context, productID int64, in service.VariantInput) (*domain.ProductVariant, error)
	UpdateVariantFunc     func(ctx context.Context, productID, variantID int64, in service.VariantInput) (*domain.ProductVariant, error)
	DeleteVariantFunc     func(ctx context.Context, productID, variantID int64) error
}

func (m *mockCatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if m.ListCategoriesFunc == nil {
		return nil, nil
	}
	return m.ListCategoriesFunc(ctx)
}

func (m *mockCatalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return nil, domain.ErrCategoryNotFound
}

func (m *mockCatalogService) CreateCategory(ctx context.Context, in service.CategoryInput) (*domain.Category, error) {
	return m.CreateCategoryFunc(ctx, in)
}

func (m *mockCatalogService) UpdateCategory(ctx context.Context, id int64, in service.CategoryInput) (*domain.Category, error) {
	return m.UpdateCategoryFunc(ctx, id, in)
}

func (m *mockCatalogService) DeleteCategory(ctx context.Context, id int64) error {
	return m.DeleteCategoryFunc(ctx, id)
}

func (m *mockCatalogService) ListStorefrontProducts(ctx context.Context, categorySlug, query string) ([]domain.Product, error) {
	return nil, nil
}

func (m *mockCatalogService) ListAdminProducts(ctx context.Context, categoryID *int64, query string) ([]domain.Product, error) {
	return m.ListAdminProductsFunc(ctx, categoryID, query)
}

func (m *mockCatalogService) GetStorefrontProduct(ctx context.Context, slug string) (*domain.Product, error) {
	return nil, domain.ErrProductNotFound
}

func (m *mockCatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return m.GetProductFunc(ctx, id)
}

func (m *mockCatalogService) CreateProduct(ctx context.Context, in service.ProductInput) (*domain.Product, error) {
	return m.CreateProductFunc(ctx, in)
}

func (m *mockCatalogService) UpdateProduct(ctx context.Context, id int64, in service.ProductInput) (*domain.Product, error) {
	return m.UpdateProductFunc(ctx, id, in)
}

func (m *mockCatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return m.DeleteProductFunc(ctx, id)
}

func (m *mockCatalogService) SetProductImage(ctx context.Context, id int64, filename, contentType string, content io.Reader) (*domain.Product, error) {
	return m.SetProductImageFunc(ctx, id, filename, contentType, content)
}

func (m *mockCatalogService) ImageURL(key string) string {
	if key == "" {
		return ""
	}
	return "https://cdn.example.com/" + key
}

func (m *mockCatalogService) ListVariants(ctx context.Context, productID int64) ([]domain.ProductVariant, error) {
	return m.ListVariantsFunc(ctx, productID)
}

func (m *mockCatalogService) CreateVariant(ctx context.Context, productID int64, in service.VariantInput) (*domain.ProductVariant, error) {
	return m.CreateVariantFunc(ctx, productID, in)
}

func (m *mockCatalogService) UpdateVariant(ctx context.Context, productID, variantID int64, in service.VariantInput) (*domain.ProductVariant, error) {
	return m.UpdateVariantFunc(ctx, productID, variantID, in)
}

func (m *mockCatalogService) DeleteVariant(ctx context.Context, productID, variantID int64) error {
	return m.DeleteVariantFunc(ctx, productID, variantID)
}

// mockShopService implements service.ShopService for testing
type mockShopService struct {
	GetConfigFunc    func(ctx context.Context) (*domain.ShopConfiguration, error)
	UpdateConfigFunc func(ctx context.Context, in service.ShopConfigInput) (*domain.ShopConfiguration, error)
	DashboardFunc    func(ctx context.Context) (*service.Dashboard, error)
}

func (m *mockShopService) GetConfig(ctx context.Context) (*domain.ShopConfiguration, error) {
	return m.GetConfigFunc(ctx)
}

func (m *mockShopService) UpdateConfig(ctx context.Context, in service.ShopConfigInput) (*domain.ShopConfiguration, error) {
	return m.UpdateConfigFunc(ctx, in)
}

func (m *mockShopService) Dashboard(ctx context.Context) (*service.Dashboard, error) {
	return m.DashboardFunc(ctx)
}

// mockOrderService implements service.OrderService for testing
type mockOrderService struct {
	ListOrdersFunc   func(ctx context.Context, status string, limit, offset int) ([]domain.Order, int, error)
	GetOrderFunc     func(ctx context.Context, id int64) (*domain.Order, error)
	UpdateStatusFunc func(ctx context.Context, id int64, status string) (*domain.Order, error)
	DeleteOrderFunc  func(ctx context.Context, id int64) error
}

func (m *mockOrderService) ListOrders(ctx context.Context, status string, limit, offset int) ([]domain.Order, int, error) {
	return m.ListOrdersFunc(ctx, status, limit, offset)
}

func (m *mockOrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return m.GetOrderFunc(ctx, id)
}

func (m *mockOrderService) GetOrderFor(ctx context.Context, id int64, userID *int64, staff bool, sessionOrders []int64) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	return m.UpdateStatusFunc(ctx, id, status)
}

func (m *mockOrderService) DeleteOrder(ctx context.Context, id int64) error {
	return m.DeleteOrderFunc(ctx, id)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
