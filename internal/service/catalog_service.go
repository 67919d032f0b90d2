package service

import (
	"context"
	"errors"
	"time"

	"almacen-service/internal/mirror"
	"almacen-service/internal/models"
	"almacen-service/internal/store"
	"almacen-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService owns product records and their stock levels. Every stock
// change it applies is paired with an append-only StockMovement so catalog
// stock and the audit trail agree by construction.
type CatalogService struct {
	ds            store.DataStore
	mirror        *mirror.Mirror
	publisher     EventPublisher
	cache         StockCache
	logger        *zap.Logger
	defaultReason string
}

// NewCatalogService creates a new catalog service. A nil cache disables
// stock-level cache refreshes.
func NewCatalogService(ds store.DataStore, m *mirror.Mirror, publisher EventPublisher, cache StockCache, defaultReason string) *CatalogService {
	return &CatalogService{
		ds:            ds,
		mirror:        m,
		publisher:     publisher,
		cache:         cache,
		logger:        util.GetLogger(),
		defaultReason: defaultReason,
	}
}

// Create validates a product draft, persists it and appends it to the
// mirror. The store assigns the identifier.
func (cs *CatalogService) Create(ctx context.Context, draft models.Product) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Create")
	defer span.End()

	if err := validateProduct(draft); err != nil {
		return nil, err
	}

	if err := cs.ds.InsertProduct(ctx, &draft); err != nil {
		return nil, &PersistenceError{Op: "insert product", Err: err}
	}

	cs.mirror.AppendProduct(draft)
	cs.logger.Info("Product created",
		zap.String("product_id", draft.ID),
		zap.String("name", draft.Name))
	return &draft, nil
}

// Update replaces the full product record matched by ID. There is no
// partial-field patch; callers send the complete record.
func (cs *CatalogService) Update(ctx context.Context, product models.Product) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.Update")
	defer span.End()

	if _, ok := cs.mirror.Product(product.ID); !ok {
		return &NotFoundError{Entity: "product", ID: product.ID}
	}
	if err := validateProduct(product); err != nil {
		return err
	}

	if err := cs.ds.UpdateProduct(ctx, product); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Entity: "product", ID: product.ID}
		}
		return &PersistenceError{Op: "update product", Err: err}
	}

	cs.mirror.ReplaceProduct(product)
	return nil
}

// AdjustStock applies a signed stock delta, clamped at zero, and appends a
// movement recording the requested delta verbatim. A positive delta is a
// restock ("ingreso"), anything else a manual adjustment ("ajuste").
// Overselling and over-adjusting are allowed: the clamp is a policy, not a
// failure.
func (cs *CatalogService) AdjustStock(ctx context.Context, productID string, delta decimal.Decimal, reason string) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.AdjustStock")
	defer span.End()

	product, ok := cs.mirror.Product(productID)
	if !ok {
		return nil, &NotFoundError{Entity: "product", ID: productID}
	}
	if reason == "" {
		reason = cs.defaultReason
	}

	newStock := product.Stock.Add(delta)
	if newStock.IsNegative() {
		newStock = decimal.Zero
		util.StockClampsTotal.Inc()
	}

	if err := cs.ds.UpdateProductStock(ctx, productID, newStock); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Entity: "product", ID: productID}
		}
		return nil, &PersistenceError{Op: "update product stock", Err: err}
	}
	cs.mirror.SetProductStock(productID, newStock)
	refreshStockCache(ctx, cs.cache, cs.logger, productID, newStock)

	movementType := models.MovementAdjustment
	if delta.Sign() > 0 {
		movementType = models.MovementRestock
	}

	movement := models.StockMovement{
		ProductID: productID,
		Type:      movementType,
		Quantity:  delta,
		Reason:    reason,
	}
	if err := cs.ds.InsertStockMovement(ctx, &movement); err != nil {
		cs.logger.Error("Failed to record stock movement",
			zap.String("product_id", productID),
			zap.String("delta", delta.String()),
			zap.Error(err))
		util.SaleStepFailuresTotal.WithLabelValues("stock_movement").Inc()
	} else {
		cs.mirror.AppendStockMovement(movement)
	}

	util.StockAdjustmentsTotal.WithLabelValues(movementType).Inc()
	cs.logger.Info("Stock adjusted",
		zap.String("product_id", productID),
		zap.String("delta", delta.String()),
		zap.String("new_stock", newStock.String()),
		zap.String("reason", reason))

	event := &models.StockAdjustedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeStockAdjusted,
			Timestamp: time.Now(),
		},
		ProductID:    productID,
		MovementType: movementType,
		Delta:        delta,
		NewStock:     newStock,
		Reason:       reason,
	}
	if err := cs.publisher.PublishStockAdjusted(ctx, event); err != nil {
		cs.logger.Error("Failed to publish StockAdjusted event", zap.Error(err))
	}

	product.Stock = newStock
	return &product, nil
}

func validateProduct(p models.Product) error {
	if p.Name == "" {
		return errValidation("product name is required")
	}
	if p.CostPrice.IsNegative() || p.SellPrice.IsNegative() {
		return errValidation("product prices must not be negative")
	}
	if p.Stock.IsNegative() || p.MinStock.IsNegative() {
		return errValidation("product stock must not be negative")
	}
	if !validUnit(p.Unit) {
		return errValidation("unknown unit: %s", p.Unit)
	}
	if !models.ValidCategory(p.Category) {
		return errValidation("unknown category: %s", p.Category)
	}
	return nil
}

func validUnit(u string) bool {
	switch u {
	case models.UnitPiece, models.UnitKilo, models.UnitLitre:
		return true
	}
	return false
}
