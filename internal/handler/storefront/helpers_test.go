package storefront

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/boutique/internal/cookie"
	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/service"
	"github.com/dukerupert/boutique/internal/session"
)

// mockCartService implements service.CartService for testing
type mockCartService struct {
	addItemFunc        func(ctx context.Context, cart *domain.Cart, productID, variantID int64, quantity int) (int, error)
	viewCartFunc       func(ctx context.Context, cart *domain.Cart) (*service.CartView, error)
	updateQuantityFunc func(ctx context.Context, cart *domain.Cart, key domain.CartKey, quantity int) (*service.CartUpdate, error)
	removeItemFunc     func(ctx context.Context, cart *domain.Cart, key domain.CartKey) (*service.CartUpdate, error)
}

func (m *mockCartService) AddItem(ctx context.Context, cart *domain.Cart, productID, variantID int64, quantity int) (int, error) {
	if m.addItemFunc != nil {
		return m.addItemFunc(ctx, cart, productID, variantID, quantity)
	}
	return 0, nil
}

func (m *mockCartService) ViewCart(ctx context.Context, cart *domain.Cart) (*service.CartView, error) {
	if m.viewCartFunc != nil {
		return m.viewCartFunc(ctx, cart)
	}
	return &service.CartView{}, nil
}

func (m *mockCartService) UpdateQuantity(ctx context.Context, cart *domain.Cart, key domain.CartKey, quantity int) (*service.CartUpdate, error) {
	if m.updateQuantityFunc != nil {
		return m.updateQuantityFunc(ctx, cart, key, quantity)
	}
	return &service.CartUpdate{Key: key, Quantity: quantity}, nil
}

func (m *mockCartService) RemoveItem(ctx context.Context, cart *domain.Cart, key domain.CartKey) (*service.CartUpdate, error) {
	if m.removeItemFunc != nil {
		return m.removeItemFunc(ctx, cart, key)
	}
	return &service.CartUpdate{Key: key}, nil
}

// mockCheckoutService implements service.CheckoutService for testing
type mockCheckoutService struct {
	summarizeFunc func(ctx context.Context, cart *domain.Cart) (*service.CheckoutSummary, error)
	checkoutFunc  func(ctx context.Context, cart *domain.Cart, req service.CheckoutRequest) (*domain.Order, error)
}

func (m *mockCheckoutService) Summarize(ctx context.Context, cart *domain.Cart) (*service.CheckoutSummary, error) {
	if m.summarizeFunc != nil {
		return m.summarizeFunc(ctx, cart)
	}
	return &service.CheckoutSummary{}, nil
}

func (m *mockCheckoutService) Checkout(ctx context.Context, cart *domain.Cart, req service.CheckoutRequest) (*domain.Order, error) {
	if m.checkoutFunc != nil {
		return m.checkoutFunc(ctx, cart, req)
	}
	return &domain.Order{ID: 1}, nil
}

// mockOrderService implements service.OrderService for testing
type mockOrderService struct {
	getOrderForFunc func(ctx context.Context, id int64, userID *int64, staff bool, sessionOrders []int64) (*domain.Order, error)
}

func (m *mockOrderService) ListOrders(ctx context.Context, status string, limit, offset int) ([]domain.Order, int, error) {
	return nil, 0, nil
}

func (m *mockOrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}

func (m *mockOrderService) GetOrderFor(ctx context.Context, id int64, userID *int64, staff bool, sessionOrders []int64) (*domain.Order, error) {
	if m.getOrderForFunc != nil {
		return m.getOrderForFunc(ctx, id, userID, staff, sessionOrders)
	}
	return nil, domain.ErrOrderNotFound
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}

func (m *mockOrderService) DeleteOrder(ctx context.Context, id int64) error {
	return domain.ErrOrderNotFound
}

// mockUserService implements service.UserService for testing
type mockUserService struct {
	authenticateFunc func(ctx context.Context, email, password string) (*domain.User, error)
}

func (m *mockUserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	if m.authenticateFunc != nil {
		return m.authenticateFunc(ctx, email, password)
	}
	return nil, domain.ErrInvalidCredentials
}

func (m *mockUserService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (m *mockUserService) Register(ctx context.Context, email, password, fullName string, staff bool) (*domain.User, error) {
	return nil, domain.ErrDuplicateEmail
}

// mockCatalogService implements the read side of service.CatalogService.
// Admin operations are not used by the storefront and return nothing.
type mockCatalogService struct {
	listCategoriesFunc         func(ctx context.Context) ([]domain.Category, error)
	listStorefrontProductsFunc func(ctx context.Context, categorySlug, query string) ([]domain.Product, error)
	getStorefrontProductFunc   func(ctx context.Context, slug string) (*domain.Product, error)
}

func (m *mockCatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if m.listCategoriesFunc != nil {
		return m.listCategoriesFunc(ctx)
	}
	return nil, nil
}

func (m *mockCatalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return nil, domain.ErrCategoryNotFound
}

func (m *mockCatalogService) CreateCategory(ctx context.Context, in service.CategoryInput) (*domain.Category, error) {
	return nil, nil
}

func (m *mockCatalogService) UpdateCategory(ctx context.Context, id int64, in service.CategoryInput) (*domain.Category, error) {
	return nil, nil
}

func (m *mockCatalogService) DeleteCategory(ctx context.Context, id int64) error { return nil }

func (m *mockCatalogService) ListStorefrontProducts(ctx context.Context, categorySlug, query string) ([]domain.Product, error) {
	if m.listStorefrontProductsFunc != nil {
		return m.listStorefrontProductsFunc(ctx, categorySlug, query)
	}
	return nil, nil
}

func (m *mockCatalogService) ListAdminProducts(ctx context.Context, categoryID *int64, query string) ([]domain.Product, error) {
	return nil, nil
}

func (m *mockCatalogService) GetStorefrontProduct(ctx context.Context, slug string) (*domain.Product, error) {
	if m.getStorefrontProductFunc != nil {
		return m.getStorefrontProductFunc(ctx, slug)
	}
	return nil, domain.ErrProductNotFound
}

func (m *mockCatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return nil, domain.ErrProductNotFound
}

func (m *mockCatalogService) CreateProduct(ctx context.Context, in service.ProductInput) (*domain.Product, error) {
	return nil, nil
}

func (m *mockCatalogService) UpdateProduct(ctx context.Context, id int64, in service.ProductInput) (*domain.Product, error) {
	return nil, nil
}

func (m *mockCatalogService) DeleteProduct(ctx context.Context, id int64) error { return nil }

func (m *mockCatalogService) SetProductImage(ctx context.Context, id int64, filename, contentType string, content io.Reader) (*domain.Product, error) {
	return nil, nil
}

func (m *mockCatalogService) ImageURL(key string) string { return "/media/" + key }

func (m *mockCatalogService) ListVariants(ctx context.Context, productID int64) ([]domain.ProductVariant, error) {
	return nil, nil
}

func (m *mockCatalogService) CreateVariant(ctx context.Context, productID int64, in service.VariantInput) (*domain.ProductVariant, error) {
	return nil, nil
}

func (m *mockCatalogService) UpdateVariant(ctx context.Context, productID, variantID int64, in service.VariantInput) (*domain.ProductVariant, error) {
	return nil, nil
}

func (m *mockCatalogService) DeleteVariant(ctx context.Context, productID, variantID int64) error {
	return nil
}

// mockStockService implements service.StockService for testing
type mockStockService struct {
	byVariant map[string]int
	byProduct map[string]int
	err       error
}

func (m *mockStockService) StockByVariant(ctx context.Context) (map[string]int, error) {
	return m.byVariant, m.err
}

func (m *mockStockService) StockByProduct(ctx context.Context) (map[string]int, error) {
	return m.byProduct, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testClient drives handlers through the session middleware and keeps the
// session cookie between requests, like a browser would.
type testClient struct {
	t       *testing.T
	manager *session.Manager
	cookie  *http.Cookie
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	mgr := session.NewManager(session.NewMemoryStore(), cookie.NewConfig("", false), time.Hour, discardLogger())
	return &testClient{t: t, manager: mgr}
}

// do serves req with h and records the resulting session cookie.
func (c *testClient) do(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	rec := httptest.NewRecorder()
	c.manager.Middleware(h).ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name != cookie.SessionCookieName {
			continue
		}
		if ck.MaxAge < 0 {
			c.cookie = nil
		} else {
			c.cookie = ck
		}
	}
	return rec
}

// session runs fn against the client's current session. Changes fn makes are saved.
func (c *testClient) session(fn func(sess *session.Session)) {
	c.t.Helper()
	c.do(func(w http.ResponseWriter, r *http.Request) {
		fn(session.FromContext(r.Context()))
	}, httptest.NewRequest(http.MethodGet, "/", nil))
}

// seedCart stores lines as the session cart.
func (c *testClient) seedCart(lines ...domain.CartLine) {
	c.t.Helper()
	c.session(func(sess *session.Session) {
		cart := domain.NewCart()
		for _, l := range lines {
			cart.Put(l)
		}
		require.NoError(c.t, sess.SaveCart(cart))
	})
}

// cart returns the cart currently stored in the session.
func (c *testClient) cart() *domain.Cart {
	c.t.Helper()
	var cart *domain.Cart
	c.session(func(sess *session.Session) {
		cart, _ = sess.Cart()
	})
	return cart
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func withUser(req *http.Request, user *domain.User) *http.Request {
	return req.WithContext(domain.NewContextWithUser(req.Context(), user))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
