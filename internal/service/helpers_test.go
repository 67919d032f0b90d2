package service

import (
	"context"
	"sync"
	"testing"

	"almacen-service/internal/mirror"
	"almacen-service/internal/store"
	"almacen-service/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testEnv wires the services against a given DataStore the same way main
// does, minus broker and redis.
type testEnv struct {
	ds      store.DataStore
	mirror  *mirror.Mirror
	carts   *CartService
	ledger  *LedgerService
	catalog *CatalogService
	sales   *SaleService
}

func newTestEnv(t *testing.T, ds store.DataStore) *testEnv {
	return newTestEnvWithCache(t, ds, nil)
}

func newTestEnvWithCache(t *testing.T, ds store.DataStore, cache StockCache) *testEnv {
	t.Helper()

	m := mirror.New()
	require.NoError(t, m.Load(context.Background(), ds))

	carts := NewCartService(m)
	ledger := NewLedgerService(ds, m, NopPublisher{})
	catalog := NewCatalogService(ds, m, NopPublisher{}, cache, "Ajuste manual")
	sales := NewSaleService(ds, m, carts, ledger, NopPublisher{}, cache, nil)

	return &testEnv{
		ds:      ds,
		mirror:  m,
		carts:   carts,
		ledger:  ledger,
		catalog: catalog,
		sales:   sales,
	}
}

func newSeededEnv(t *testing.T) *testEnv {
	return newTestEnv(t, memory.NewSeeded())
}

// stubStockCache records the stock levels pushed into the cache.
type stubStockCache struct {
	mu     sync.Mutex
	stocks map[string]decimal.Decimal
}

func newStubStockCache() *stubStockCache {
	return &stubStockCache{stocks: make(map[string]decimal.Decimal)}
}

func (c *stubStockCache) SetStock(_ context.Context, productID string, stock decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stocks[productID] = stock
	return nil
}

func (c *stubStockCache) stock(productID string) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stocks[productID]
	return s, ok
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)),
		"expected %s, got %s", want, got.String())
}
