package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/shipping"
	"github.com/dukerupert/boutique/internal/tax"
	"github.com/dukerupert/boutique/internal/telemetry"
)

// ============================================================================
// In-memory store
// ============================================================================

// memStore implements the catalog, order store and transaction manager in
// memory. WithinTx holds the store lock for the whole transaction and restores
// a snapshot when fn fails, which is what the row locks and rollback give us
// in Postgres.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	categories map[int64]domain.Category
	products   map[int64]domain.Product
	variants   map[int64]domain.ProductVariant
	orders     map[int64]domain.Order
	jobs       []*domain.Job

	// Failure injection
	failItemAfter int // fail CreateOrderItem once this many items were written; 0 disables
	failEnqueue   bool
	beforeCommit  func(s *memStore) // runs under the lock before the tx snapshot

	commits int
}

var (
	_ domain.CatalogStore = (*memStore)(nil)
	_ domain.OrderStore   = (*memStore)(nil)
	_ domain.TxManager    = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		categories: make(map[int64]domain.Category),
		products:   make(map[int64]domain.Product),
		variants:   make(map[int64]domain.ProductVariant),
		orders:     make(map[int64]domain.Order),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// seedProduct adds an active product with one variant per size and returns
// the product id and the variant ids in the order given.
func (s *memStore) seedProduct(name, price string, stock map[string]int, sizes ...string) (int64, []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := domain.Product{
		ID:       s.id(),
		Name:     name,
		Slug:     generateSlug(name),
		Price:    decimal.RequireFromString(price),
		IsActive: true,
	}
	s.products[p.ID] = p

	ids := make([]int64, 0, len(sizes))
	for _, size := range sizes {
		v := domain.ProductVariant{ID: s.id(), ProductID: p.ID, Size: size, Stock: stock[size]}
		s.variants[v.ID] = v
		ids = append(ids, v.ID)
	}
	return p.ID, ids
}

func (s *memStore) stock(variantID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variants[variantID].Stock
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) jobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// ===== Categories =====

func (s *memStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return &c, nil
}

func (s *memStore) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

func (s *memStore) CreateCategory(ctx context.Context, c *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.Slug == c.Slug {
			return domain.ErrDuplicateSlug
		}
	}
	c.ID = s.id()
	s.categories[c.ID] = *c
	return nil
}

func (s *memStore) UpdateCategory(ctx context.Context, c *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *memStore) DeleteCategory(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(s.categories, id)
	for pid, p := range s.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			s.products[pid] = p
		}
	}
	return nil
}

func (s *memStore) CategorySlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// ===== Products =====

func (s *memStore) withVariants(p domain.Product) domain.Product {
	p.Variants = nil
	for _, v := range s.variants {
		if v.ProductID == p.ID {
			p.Variants = append(p.Variants, v)
		}
	}
	sort.Slice(p.Variants, func(i, j int) bool { return p.Variants[i].ID < p.Variants[j].ID })
	p.TotalStock = domain.SumStock(p.Variants)
	return p
}

func (s *memStore) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(filter.Query)
	var out []domain.Product
	for _, p := range s.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		out = append(out, s.withVariants(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.NewestFirst {
			return out[i].ID > out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *memStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	p = s.withVariants(p)
	return &p, nil
}

func (s *memStore) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Slug == slug {
			p = s.withVariants(p)
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (s *memStore) CreateProduct(ctx context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.products {
		if existing.Slug == p.Slug {
			return domain.ErrDuplicateSlug
		}
	}
	p.ID = s.id()
	s.products[p.ID] = *p
	return nil
}

func (s *memStore) UpdateProduct(ctx context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	stored := *p
	stored.Variants = nil
	s.products[p.ID] = stored
	return nil
}

func (s *memStore) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(s.products, id)
	for vid, v := range s.variants {
		if v.ProductID == id {
			delete(s.variants, vid)
		}
	}
	return nil
}

func (s *memStore) ProductSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// ===== Variants =====

func (s *memStore) ListVariants(ctx context.Context, productID int64) ([]domain.ProductVariant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withVariants(domain.Product{ID: productID}).Variants, nil
}

func (s *memStore) CreateVariant(ctx context.Context, v *domain.ProductVariant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[v.ProductID]; !ok {
		return domain.ErrProductNotFound
	}
	for _, existing := range s.variants {
		if existing.ProductID == v.ProductID && existing.Size == v.Size {
			return domain.ErrDuplicateSize
		}
	}
	v.ID = s.id()
	s.variants[v.ID] = *v
	return nil
}

func (s *memStore) UpdateVariant(ctx context.Context, v *domain.ProductVariant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.variants {
		if existing.ID != v.ID && existing.ProductID == v.ProductID && existing.Size == v.Size {
			return domain.ErrDuplicateSize
		}
	}
	s.variants[v.ID] = *v
	return nil
}

func (s *memStore) DeleteVariant(ctx context.Context, productID, variantID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.variants[variantID]
	if !ok || v.ProductID != productID {
		return domain.ErrVariantNotFound
	}
	delete(s.variants, variantID)
	return nil
}

func (s *memStore) detail(v domain.ProductVariant) (domain.VariantDetail, bool) {
	p, ok := s.products[v.ProductID]
	if !ok {
		return domain.VariantDetail{}, false
	}
	return domain.VariantDetail{
		ProductVariant: v,
		ProductName:    p.Name,
		ProductSlug:    p.Slug,
		Price:          p.Price,
		ImageKey:       p.ImageKey,
		IsActive:       p.IsActive,
	}, true
}

func (s *memStore) GetVariant(ctx context.Context, id int64) (*domain.VariantDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.variants[id]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	d, ok := s.detail(v)
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	return &d, nil
}

func (s *memStore) GetProductVariant(ctx context.Context, productID, variantID int64) (*domain.ProductVariant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.variants[variantID]
	if !ok || v.ProductID != productID {
		return nil, domain.ErrVariantNotFound
	}
	return &v, nil
}

func (s *memStore) VariantsByIDs(ctx context.Context, ids []int64) (map[int64]domain.VariantDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]domain.VariantDetail, len(ids))
	for _, id := range ids {
		v, ok := s.variants[id]
		if !ok {
			continue
		}
		if d, ok := s.detail(v); ok {
			out[id] = d
		}
	}
	return out, nil
}

// ===== Orders =====

func (s *memStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Order
	for _, o := range s.orders {
		if filter.Status == "" || o.Status == filter.Status {
			all = append(all, o)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	if filter.Offset >= len(all) {
		return nil, total, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, total, nil
}

func (s *memStore) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (s *memStore) GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if key != "" && o.IdempotencyKey == key {
			return &o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (s *memStore) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	s.orders[id] = o
	return nil
}

func (s *memStore) DeleteOrder(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(s.orders, id)
	return nil
}

// ===== Transactions =====

func (s *memStore) WithinTx(ctx context.Context, fn func(tx domain.OrderTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Another transaction committing just before ours.
	if s.beforeCommit != nil {
		s.beforeCommit(s)
	}

	variants := make(map[int64]domain.ProductVariant, len(s.variants))
	for k, v := range s.variants {
		variants[k] = v
	}
	orders := make(map[int64]domain.Order, len(s.orders))
	for k, v := range s.orders {
		orders[k] = v
	}
	jobs := len(s.jobs)

	if err := fn(&memTx{s: s}); err != nil {
		s.variants = variants
		s.orders = orders
		s.jobs = s.jobs[:jobs]
		return err
	}
	s.commits++
	return nil
}

type memTx struct {
	s     *memStore
	items int
}

func (t *memTx) CreateOrder(ctx context.Context, o *domain.Order) error {
	for _, existing := range t.s.orders {
		if o.IdempotencyKey != "" && existing.IdempotencyKey == o.IdempotencyKey {
			return domain.ErrDuplicateCheckout
		}
	}
	o.ID = t.s.id()
	t.s.orders[o.ID] = *o
	return nil
}

func (t *memTx) CreateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	if t.s.failItemAfter > 0 && t.items >= t.s.failItemAfter {
		return errors.New("connection reset by peer")
	}
	t.items++
	item.ID = t.s.id()
	o := t.s.orders[item.OrderID]
	o.Items = append(o.Items, *item)
	t.s.orders[item.OrderID] = o
	return nil
}

func (t *memTx) DecrementStock(ctx context.Context, productID, variantID int64, quantity int) error {
	v, ok := t.s.variants[variantID]
	if !ok || v.ProductID != productID || v.Stock < quantity {
		return domain.ErrInsufficientStock
	}
	v.Stock -= quantity
	t.s.variants[variantID] = v
	return nil
}

func (t *memTx) EnqueueJob(ctx context.Context, job *domain.Job) error {
	if t.s.failEnqueue {
		return errors.New("jobs table unavailable")
	}
	job.ID = t.s.id()
	t.s.jobs = append(t.s.jobs, job)
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *telemetry.BusinessMetrics {
	return telemetry.NewBusinessMetrics("test", prometheus.NewRegistry())
}

func newTestCheckout(t *testing.T, store *memStore) (CheckoutService, *telemetry.BusinessMetrics) {
	t.Helper()

	rates := shipping.NewFlatRateProvider([]shipping.FlatRate{{
		ServiceName: "Standard",
		ServiceCode: "standard",
		Cost:        decimal.RequireFromString("10.00"),
	}})
	calc, err := tax.NewPercentageCalculator(decimal.RequireFromString("0.16"), false)
	require.NoError(t, err)

	metrics := testMetrics()
	svc, err := NewCheckoutService(store, store, store, rates, calc, CheckoutConfig{}, metrics, discardLogger())
	require.NoError(t, err)
	return svc, metrics
}

// cartWith builds a cart line from the current catalog state.
func cartWith(t *testing.T, store *memStore, variantID int64, quantity int) *domain.Cart {
	t.Helper()
	cart := domain.NewCart()
	addLine(t, store, cart, variantID, quantity)
	return cart
}

func addLine(t *testing.T, store *memStore, cart *domain.Cart, variantID int64, quantity int) {
	t.Helper()
	v, err := store.GetVariant(context.Background(), variantID)
	require.NoError(t, err)
	cart.Put(domain.CartLine{
		Key:       domain.CartKey{ProductID: v.ProductID, VariantID: v.ID},
		Name:      v.ProductName,
		Size:      v.Size,
		UnitPrice: v.Price,
		Quantity:  quantity,
	})
}

func validRequest() CheckoutRequest {
	return CheckoutRequest{
		FullName: "Amani Mbuyi",
		Phone:    "+243810000000",
		Address:  "12 Avenue du Commerce",
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
