package mirror

import (
	"context"
	"fmt"
	"sync"

	"almacen-service/internal/models"
	"almacen-service/internal/store"

	"github.com/shopspring/decimal"
)

// Mirror is the process-local copy of the remote store used to serve all
// reads. It is mutated only by the owning services, and only after the
// remote store has confirmed the corresponding write, so it can trail the
// store by one step when a secondary write fails mid-pipeline.
type Mirror struct {
	mu        sync.RWMutex
	products  []models.Product
	clients   []models.Client
	sales     []models.Sale // most recent first
	movements []models.StockMovement
}

// New returns an empty mirror.
func New() *Mirror {
	return &Mirror{}
}

// Load replaces the mirror contents with the remote store's current state.
// Called once at session start.
func (m *Mirror) Load(ctx context.Context, ds store.DataStore) error {
	products, err := ds.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	clients, err := ds.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("failed to load clients: %w", err)
	}
	sales, err := ds.ListSales(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sales: %w", err)
	}
	movements, err := ds.ListStockMovements(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stock movements: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = products
	m.clients = clients
	m.sales = sales
	m.movements = movements
	return nil
}

// Products returns a copy of the catalog.
func (m *Mirror) Products() []models.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Product, len(m.products))
	copy(out, m.products)
	return out
}

// Product looks up one product by ID.
func (m *Mirror) Product(id string) (models.Product, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// AppendProduct adds a newly created product.
func (m *Mirror) AppendProduct(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, p)
}

// ReplaceProduct swaps the full record matched by ID.
func (m *Mirror) ReplaceProduct(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if m.products[i].ID == p.ID {
			m.products[i] = p
			return
		}
	}
}

// SetProductStock updates one product's stock level.
func (m *Mirror) SetProductStock(id string, stock decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if m.products[i].ID == id {
			m.products[i].Stock = stock
			return
		}
	}
}

// Clients returns a copy of all clients with their histories.
func (m *Mirror) Clients() []models.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Client, len(m.clients))
	for i, c := range m.clients {
		out[i] = c
		out[i].Purchases = append([]models.ClientPurchase(nil), c.Purchases...)
		out[i].Payments = append([]models.ClientPayment(nil), c.Payments...)
	}
	return out
}

// Client looks up one client by ID.
func (m *Mirror) Client(id string) (models.Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.clients {
		if c.ID == id {
			c.Purchases = append([]models.ClientPurchase(nil), c.Purchases...)
			c.Payments = append([]models.ClientPayment(nil), c.Payments...)
			return c, true
		}
	}
	return models.Client{}, false
}

// AppendClient adds a newly created client.
func (m *Mirror) AppendClient(c models.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients = append(m.clients, c)
}

// SetClientDebt updates one client's outstanding balance.
func (m *Mirror) SetClientDebt(id string, debt decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.clients {
		if m.clients[i].ID == id {
			m.clients[i].Debt = debt
			return
		}
	}
}

// AppendClientPurchase appends a purchase entry to its client.
func (m *Mirror) AppendClientPurchase(p models.ClientPurchase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.clients {
		if m.clients[i].ID == p.ClientID {
			m.clients[i].Purchases = append(m.clients[i].Purchases, p)
			return
		}
	}
}

// AppendClientPayment appends a payment entry to its client.
func (m *Mirror) AppendClientPayment(p models.ClientPayment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.clients {
		if m.clients[i].ID == p.ClientID {
			m.clients[i].Payments = append(m.clients[i].Payments, p)
			return
		}
	}
}

// Sales returns a copy of the sales list, most recent first.
func (m *Mirror) Sales() []models.Sale {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Sale, len(m.sales))
	for i, s := range m.sales {
		out[i] = s
		out[i].Items = append([]models.SaleItem(nil), s.Items...)
	}
	return out
}

// PrependSale adds a completed sale at the head of the list.
func (m *Mirror) PrependSale(s models.Sale) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append([]models.Sale{s}, m.sales...)
}

// StockMovements returns all movements ordered by date ascending.
func (m *Mirror) StockMovements() []models.StockMovement {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.StockMovement, len(m.movements))
	copy(out, m.movements)
	return out
}

// StockMovementsByProduct returns one product's movements, oldest first.
func (m *Mirror) StockMovementsByProduct(productID string) []models.StockMovement {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.StockMovement{}
	for _, mv := range m.movements {
		if mv.ProductID == productID {
			out = append(out, mv)
		}
	}
	return out
}

// AppendStockMovement adds a confirmed movement to the audit trail.
func (m *Mirror) AppendStockMovement(mv models.StockMovement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements = append(m.movements, mv)
}
