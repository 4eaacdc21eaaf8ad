package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dukerupert/boutique/internal/domain"
)

// StockService answers stock polling. Reads reflect committed rows only;
// nothing held in carts is subtracted.
type StockService interface {
	// StockByVariant maps variant id to stock over active products.
	StockByVariant(ctx context.Context) (map[string]int, error)

	// StockByProduct maps product id to the stock summed over its variants.
	StockByProduct(ctx context.Context) (map[string]int, error)
}

type stockService struct {
	store domain.StockStore
}

// NewStockService creates a new StockService instance
func NewStockService(store domain.StockStore) (StockService, error) {
	if store == nil {
		return nil, fmt.Errorf("stock store is required")
	}
	return &stockService{store: store}, nil
}

func (s *stockService) StockByVariant(ctx context.Context) (map[string]int, error) {
	m, err := s.store.StockByVariant(ctx)
	if err != nil {
		return nil, err
	}
	return stringKeys(m), nil
}

func (s *stockService) StockByProduct(ctx context.Context) (map[string]int, error) {
	m, err := s.store.StockByProduct(ctx)
	if err != nil {
		return nil, err
	}
	return stringKeys(m), nil
}

// stringKeys renders ids the way JSON object keys are read by clients.
func stringKeys(m map[int64]int) map[string]int {
	out := make(map[string]int, len(m))
	for id, n := range m {
		out[strconv.FormatInt(id, 10)] = n
	}
	return out
}
