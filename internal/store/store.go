package store

import (
	"context"
	"errors"
	"time"

	"almacen-service/internal/models"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an operation references an unknown record.
var ErrNotFound = errors.New("not found")

// DataStore is the remote persistence collaborator. All writes are
// independent remote operations; there is no cross-entity transaction,
// and callers own the partial-failure policy.
type DataStore interface {
	// Products
	ListProducts(ctx context.Context) ([]models.Product, error)
	InsertProduct(ctx context.Context, draft *models.Product) error
	UpdateProduct(ctx context.Context, product models.Product) error
	UpdateProductStock(ctx context.Context, productID string, stock decimal.Decimal) error

	// Stock movements (append-only)
	InsertStockMovement(ctx context.Context, movement *models.StockMovement) error
	ListStockMovements(ctx context.Context) ([]models.StockMovement, error)
	ListStockMovementsByProduct(ctx context.Context, productID string) ([]models.StockMovement, error)

	// Clients and their histories
	ListClients(ctx context.Context) ([]models.Client, error)
	InsertClient(ctx context.Context, draft *models.Client) error
	UpdateClientDebt(ctx context.Context, clientID string, debt decimal.Decimal) error
	InsertClientPurchase(ctx context.Context, purchase *models.ClientPurchase) error
	InsertClientPayment(ctx context.Context, payment *models.ClientPayment) error

	// Sales (immutable once written)
	InsertSale(ctx context.Context, sale *models.Sale) error
	InsertSaleItems(ctx context.Context, saleID string, items []models.SaleItem) error
	ListSales(ctx context.Context) ([]models.Sale, error)

	Close() error
}

// Now returns the current UTC time. Kept as a variable so tests can pin it.
var Now = func() time.Time { return time.Now().UTC() }
