package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"almacen-service/internal/models"
	"almacen-service/internal/store"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Store is the PostgreSQL-backed DataStore.
type Store struct {
	db *sqlx.DB
}

var _ store.DataStore = (*Store)(nil)

// NewStore connects to PostgreSQL and returns a Store.
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// ListProducts retrieves the whole catalog
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY created_at")
	return products, err
}

// InsertProduct inserts a product draft; the database assigns the ID.
func (s *Store) InsertProduct(ctx context.Context, draft *models.Product) error {
	query := `
		INSERT INTO products (name, category, unit, cost_price, sell_price, stock, min_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query,
		draft.Name, draft.Category, draft.Unit,
		draft.CostPrice, draft.SellPrice, draft.Stock, draft.MinStock,
	).Scan(&draft.ID, &draft.CreatedAt)
}

// UpdateProduct replaces the full product record matched by ID.
func (s *Store) UpdateProduct(ctx context.Context, product models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, category = $2, unit = $3, cost_price = $4,
		    sell_price = $5, stock = $6, min_stock = $7
		WHERE id = $8`,
		product.Name, product.Category, product.Unit, product.CostPrice,
		product.SellPrice, product.Stock, product.MinStock, product.ID)
	if err != nil {
		return err
	}
	return requireRow(res, product.ID)
}

// UpdateProductStock writes only the stock column.
func (s *Store) UpdateProductStock(ctx context.Context, productID string, stock decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET stock = $1 WHERE id = $2", stock, productID)
	if err != nil {
		return err
	}
	return requireRow(res, productID)
}

// InsertStockMovement appends a movement; the database assigns ID and timestamp.
func (s *Store) InsertStockMovement(ctx context.Context, movement *models.StockMovement) error {
	query := `
		INSERT INTO stock_movements (product_id, type, quantity, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, date`

	return s.db.QueryRowxContext(ctx, query,
		movement.ProductID, movement.Type, movement.Quantity, movement.Reason,
	).Scan(&movement.ID, &movement.Date)
}

// ListStockMovements retrieves all movements, oldest first.
func (s *Store) ListStockMovements(ctx context.Context) ([]models.StockMovement, error) {
	movements := []models.StockMovement{}
	err := s.db.SelectContext(ctx, &movements,
		"SELECT * FROM stock_movements ORDER BY date")
	return movements, err
}

// ListStockMovementsByProduct retrieves one product's movements, oldest first.
func (s *Store) ListStockMovementsByProduct(ctx context.Context, productID string) ([]models.StockMovement, error) {
	movements := []models.StockMovement{}
	err := s.db.SelectContext(ctx, &movements,
		"SELECT * FROM stock_movements WHERE product_id = $1 ORDER BY date", productID)
	return movements, err
}

// ListClients retrieves all clients with their purchase and payment histories.
func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	clients := []models.Client{}
	if err := s.db.SelectContext(ctx, &clients, "SELECT * FROM clients ORDER BY created_at"); err != nil {
		return nil, err
	}

	for i := range clients {
		purchases := []models.ClientPurchase{}
		err := s.db.SelectContext(ctx, &purchases,
			"SELECT * FROM client_purchases WHERE client_id = $1 ORDER BY date", clients[i].ID)
		if err != nil {
			return nil, err
		}
		clients[i].Purchases = purchases

		payments := []models.ClientPayment{}
		err = s.db.SelectContext(ctx, &payments,
			"SELECT * FROM client_payments WHERE client_id = $1 ORDER BY date", clients[i].ID)
		if err != nil {
			return nil, err
		}
		clients[i].Payments = payments
	}

	return clients, nil
}

// InsertClient inserts a client draft; the database assigns the ID.
func (s *Store) InsertClient(ctx context.Context, draft *models.Client) error {
	query := `
		INSERT INTO clients (name, phone, debt)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query,
		draft.Name, draft.Phone, draft.Debt,
	).Scan(&draft.ID, &draft.CreatedAt)
}

// UpdateClientDebt writes a client's outstanding balance.
func (s *Store) UpdateClientDebt(ctx context.Context, clientID string, debt decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE clients SET debt = $1 WHERE id = $2", debt, clientID)
	if err != nil {
		return err
	}
	return requireRow(res, clientID)
}

// InsertClientPurchase appends a purchase-history entry.
func (s *Store) InsertClientPurchase(ctx context.Context, purchase *models.ClientPurchase) error {
	query := `
		INSERT INTO client_purchases (client_id, amount, detail)
		VALUES ($1, $2, $3)
		RETURNING id, date`

	return s.db.QueryRowxContext(ctx, query,
		purchase.ClientID, purchase.Amount, purchase.Detail,
	).Scan(&purchase.ID, &purchase.Date)
}

// InsertClientPayment appends a payment-history entry.
func (s *Store) InsertClientPayment(ctx context.Context, payment *models.ClientPayment) error {
	query := `
		INSERT INTO client_payments (client_id, amount)
		VALUES ($1, $2)
		RETURNING id, date`

	return s.db.QueryRowxContext(ctx, query,
		payment.ClientID, payment.Amount,
	).Scan(&payment.ID, &payment.Date)
}

// requireRow maps zero affected rows onto store.ErrNotFound.
func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}
