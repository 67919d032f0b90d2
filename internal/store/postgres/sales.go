package postgres

import (
	"context"

	"almacen-service/internal/models"
)

// InsertSale writes a sale header; the database assigns ID and date.
// Items are written separately with InsertSaleItems.
func (s *Store) InsertSale(ctx context.Context, sale *models.Sale) error {
	query := `
		INSERT INTO sales (total, payment_method, client_id)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING id, date`

	return s.db.QueryRowxContext(ctx, query,
		sale.Total, sale.PaymentMethod, sale.ClientID,
	).Scan(&sale.ID, &sale.Date)
}

// InsertSaleItems writes the item list of a sale in one statement.
func (s *Store) InsertSaleItems(ctx context.Context, saleID string, items []models.SaleItem) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([]models.SaleItem, len(items))
	copy(rows, items)
	for i := range rows {
		rows[i].SaleID = saleID
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO sale_items (sale_id, product_id, product_name, quantity, unit_price, subtotal)
		VALUES (:sale_id, :product_id, :product_name, :quantity, :unit_price, :subtotal)`,
		rows)
	return err
}

// ListSales retrieves all sales joined with their items, most recent first.
func (s *Store) ListSales(ctx context.Context) ([]models.Sale, error) {
	sales := []models.Sale{}
	err := s.db.SelectContext(ctx, &sales, `
		SELECT id, date, total, payment_method, COALESCE(client_id::text, '') AS client_id
		FROM sales ORDER BY date DESC`)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return sales, nil
	}

	items := []models.SaleItem{}
	err = s.db.SelectContext(ctx, &items,
		"SELECT * FROM sale_items ORDER BY sale_id, id")
	if err != nil {
		return nil, err
	}

	bySale := make(map[string][]models.SaleItem)
	for _, item := range items {
		bySale[item.SaleID] = append(bySale[item.SaleID], item)
	}
	for i := range sales {
		sales[i].Items = bySale[sales[i].ID]
	}

	return sales, nil
}
