package service

import (
	"sync"

	"almacen-service/internal/mirror"
	"almacen-service/internal/models"

	"github.com/shopspring/decimal"
)

// CartService holds the transient, session-scoped working sets of products
// about to be purchased. Carts live only in memory: navigating away without
// checking out discards them, and a committed checkout clears them. Nothing
// here touches stock or the backing store.
type CartService struct {
	mu      sync.Mutex
	catalog *mirror.Mirror
	carts   map[string][]models.CartLine
}

// NewCartService creates a new cart service backed by the catalog mirror.
func NewCartService(catalog *mirror.Mirror) *CartService {
	return &CartService{
		catalog: catalog,
		carts:   make(map[string][]models.CartLine),
	}
}

// Add puts one unit of the product into the session's cart, or increments
// the existing line by 1.
func (cs *CartService) Add(sessionID, productID string) error {
	product, ok := cs.catalog.Product(productID)
	if !ok {
		return &NotFoundError{Entity: "product", ID: productID}
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	lines := cs.carts[sessionID]
	for i := range lines {
		if lines[i].Product.ID == productID {
			lines[i].Quantity = lines[i].Quantity.Add(decimal.NewFromInt(1))
			return nil
		}
	}
	cs.carts[sessionID] = append(lines, models.CartLine{
		Product:  product,
		Quantity: decimal.NewFromInt(1),
	})
	return nil
}

// Remove deletes the product's line unconditionally.
func (cs *CartService) Remove(sessionID, productID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.carts[sessionID] = deleteLine(cs.carts[sessionID], productID)
}

// SetQuantity replaces the line's quantity. A quantity of zero or less
// removes the line instead; a non-positive quantity is never stored.
func (cs *CartService) SetQuantity(sessionID, productID string, quantity decimal.Decimal) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if quantity.Sign() <= 0 {
		cs.carts[sessionID] = deleteLine(cs.carts[sessionID], productID)
		return
	}
	lines := cs.carts[sessionID]
	for i := range lines {
		if lines[i].Product.ID == productID {
			lines[i].Quantity = quantity
			return
		}
	}
}

// Clear empties the session's cart.
func (cs *CartService) Clear(sessionID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.carts, sessionID)
}

// Lines returns a copy of the session's cart lines.
func (cs *CartService) Lines(sessionID string) []models.CartLine {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]models.CartLine(nil), cs.carts[sessionID]...)
}

// Total derives the cart total from current line prices. It is recomputed
// on every call, never stored.
func (cs *CartService) Total(sessionID string) decimal.Decimal {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	total := decimal.Zero
	for _, line := range cs.carts[sessionID] {
		total = total.Add(line.Product.SellPrice.Mul(line.Quantity))
	}
	return total
}

func deleteLine(lines []models.CartLine, productID string) []models.CartLine {
	out := lines[:0]
	for _, line := range lines {
		if line.Product.ID != productID {
			out = append(out, line)
		}
	}
	return out
}
