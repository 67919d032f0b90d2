package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"almacen-service/internal/models"
	"almacen-service/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is an in-memory DataStore used by tests and dev/demo mode. It
// mimics the remote store's contract (server-assigned IDs and timestamps,
// independent per-entity writes) without any durability.
type Store struct {
	mu        sync.RWMutex
	products  []models.Product
	movements []models.StockMovement
	clients   []models.Client
	sales     []models.Sale
}

var _ store.DataStore = (*Store)(nil)

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// Close implements store.DataStore.
func (s *Store) Close() error { return nil }

// ListProducts returns a copy of the catalog in insertion order.
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// InsertProduct assigns an ID and appends the product.
func (s *Store) InsertProduct(ctx context.Context, draft *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if draft.ID == "" {
		draft.ID = uuid.New().String()
	}
	draft.CreatedAt = store.Now()
	s.products = append(s.products, *draft)
	return nil
}

// UpdateProduct replaces the full record matched by ID.
func (s *Store) UpdateProduct(ctx context.Context, product models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == product.ID {
			product.CreatedAt = s.products[i].CreatedAt
			s.products[i] = product
			return nil
		}
	}
	return fmt.Errorf("%w: product %s", store.ErrNotFound, product.ID)
}

// UpdateProductStock writes only the stock value.
func (s *Store) UpdateProductStock(ctx context.Context, productID string, stock decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == productID {
			s.products[i].Stock = stock
			return nil
		}
	}
	return fmt.Errorf("%w: product %s", store.ErrNotFound, productID)
}

// InsertStockMovement assigns ID and timestamp and appends the movement.
func (s *Store) InsertStockMovement(ctx context.Context, movement *models.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	if movement.Date.IsZero() {
		movement.Date = store.Now()
	}
	s.movements = append(s.movements, *movement)
	return nil
}

// ListStockMovements returns all movements ordered by date ascending.
func (s *Store) ListStockMovements(ctx context.Context) ([]models.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.StockMovement, len(s.movements))
	copy(out, s.movements)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ListStockMovementsByProduct returns one product's movements, oldest first.
func (s *Store) ListStockMovementsByProduct(ctx context.Context, productID string) ([]models.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.StockMovement{}
	for _, m := range s.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ListClients returns a copy of all clients with their histories.
func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Client, len(s.clients))
	for i, c := range s.clients {
		out[i] = c
		out[i].Purchases = append([]models.ClientPurchase(nil), c.Purchases...)
		out[i].Payments = append([]models.ClientPayment(nil), c.Payments...)
	}
	return out, nil
}

// InsertClient assigns an ID and appends the client.
func (s *Store) InsertClient(ctx context.Context, draft *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if draft.ID == "" {
		draft.ID = uuid.New().String()
	}
	draft.CreatedAt = store.Now()
	s.clients = append(s.clients, *draft)
	return nil
}

// UpdateClientDebt writes a client's outstanding balance.
func (s *Store) UpdateClientDebt(ctx context.Context, clientID string, debt decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.clients {
		if s.clients[i].ID == clientID {
			s.clients[i].Debt = debt
			return nil
		}
	}
	return fmt.Errorf("%w: client %s", store.ErrNotFound, clientID)
}

// InsertClientPurchase appends a purchase entry to its client.
func (s *Store) InsertClientPurchase(ctx context.Context, purchase *models.ClientPurchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if purchase.ID == "" {
		purchase.ID = uuid.New().String()
	}
	if purchase.Date.IsZero() {
		purchase.Date = store.Now()
	}
	for i := range s.clients {
		if s.clients[i].ID == purchase.ClientID {
			s.clients[i].Purchases = append(s.clients[i].Purchases, *purchase)
			return nil
		}
	}
	return fmt.Errorf("%w: client %s", store.ErrNotFound, purchase.ClientID)
}

// InsertClientPayment appends a payment entry to its client.
func (s *Store) InsertClientPayment(ctx context.Context, payment *models.ClientPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.Date.IsZero() {
		payment.Date = store.Now()
	}
	for i := range s.clients {
		if s.clients[i].ID == payment.ClientID {
			s.clients[i].Payments = append(s.clients[i].Payments, *payment)
			return nil
		}
	}
	return fmt.Errorf("%w: client %s", store.ErrNotFound, payment.ClientID)
}

// InsertSale assigns ID and date to the header. Items are written
// separately, as in the remote store.
func (s *Store) InsertSale(ctx context.Context, sale *models.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	if sale.Date.IsZero() {
		sale.Date = store.Now()
	}
	header := *sale
	header.Items = nil
	s.sales = append(s.sales, header)
	return nil
}

// InsertSaleItems attaches items to a previously written sale header.
func (s *Store) InsertSaleItems(ctx context.Context, saleID string, items []models.SaleItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sales {
		if s.sales[i].ID == saleID {
			for _, item := range items {
				item.ID = uuid.New().String()
				item.SaleID = saleID
				s.sales[i].Items = append(s.sales[i].Items, item)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: sale %s", store.ErrNotFound, saleID)
}

// ListSales returns all sales with items, most recent first.
func (s *Store) ListSales(ctx context.Context) ([]models.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Sale, 0, len(s.sales))
	for i := len(s.sales) - 1; i >= 0; i-- {
		sale := s.sales[i]
		sale.Items = append([]models.SaleItem(nil), s.sales[i].Items...)
		out = append(out, sale)
	}
	return out, nil
}
