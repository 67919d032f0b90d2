package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockCache mirrors confirmed stock levels into a shared cache so external
// readers never have to touch the database. A nil cache disables mirroring.
type StockCache interface {
	SetStock(ctx context.Context, productID string, stock decimal.Decimal) error
}

// refreshStockCache pushes one confirmed stock level into the cache.
// Refreshes are best-effort: the catalog stays the source of truth and a
// failed refresh only logs.
func refreshStockCache(ctx context.Context, cache StockCache, logger *zap.Logger, productID string, stock decimal.Decimal) {
	if cache == nil {
		return
	}
	if err := cache.SetStock(ctx, productID, stock); err != nil {
		logger.Warn("Failed to refresh stock cache",
			zap.String("product_id", productID),
			zap.Error(err))
	}
}
