package service

import (
	"context"
	"strings"
	"time"

	"almacen-service/internal/mirror"
	"almacen-service/internal/models"
	"almacen-service/internal/store"
	"almacen-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// IdempotencyGuard claims checkout idempotency keys so a retried request
// does not commit the same sale twice. A nil guard disables the check.
type IdempotencyGuard interface {
	ClaimIdempotencyKey(ctx context.Context, key string) (bool, error)
}

// SaleService turns a non-empty cart plus a payment selection into a
// persisted sale and its side effects: one stock movement and one stock
// decrement per item, and a debt charge when the sale is on fiado.
//
// The writes are sequential and independent; there is no cross-entity
// transaction. The sale header write is the only fatal step. Every later
// step logs its failure and continues best-effort, so the remote store and
// the local mirror can diverge by one step until the session reloads. The
// pipeline is at-most loosely ordered, not serializable: nothing stops a
// second checkout from starting before this one's writes finish.
type SaleService struct {
	ds        store.DataStore
	mirror    *mirror.Mirror
	carts     *CartService
	ledger    *LedgerService
	publisher EventPublisher
	cache     StockCache
	guard     IdempotencyGuard
	logger    *zap.Logger
}

// NewSaleService creates a new sale processor. A nil cache disables
// stock-level cache refreshes; a nil guard disables idempotency checks.
func NewSaleService(
	ds store.DataStore,
	m *mirror.Mirror,
	carts *CartService,
	ledger *LedgerService,
	publisher EventPublisher,
	cache StockCache,
	guard IdempotencyGuard,
) *SaleService {
	return &SaleService{
		ds:        ds,
		mirror:    m,
		carts:     carts,
		ledger:    ledger,
		publisher: publisher,
		cache:     cache,
		guard:     guard,
		logger:    util.GetLogger(),
	}
}

// CheckoutRequest selects the payment method for a session's cart. On
// fiado either an existing client ID or a new client draft must be given.
type CheckoutRequest struct {
	SessionID      string
	PaymentMethod  string            `json:"payment_method" binding:"required"`
	ClientID       string            `json:"client_id,omitempty"`
	NewClient      *NewClientRequest `json:"new_client,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// NewClientRequest creates a credit client just-in-time during checkout.
type NewClientRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// Checkout validates and commits the sale. See the SaleService doc for the
// failure policy.
func (ss *SaleService) Checkout(ctx context.Context, req *CheckoutRequest) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	lines := ss.carts.Lines(req.SessionID)
	if len(lines) == 0 {
		util.SalesFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, errValidation("cart is empty")
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		util.SalesFailedTotal.WithLabelValues("invalid_payment_method").Inc()
		return nil, errValidation("unknown payment method: %s", req.PaymentMethod)
	}

	clientID, err := ss.resolveClient(ctx, req)
	if err != nil {
		util.SalesFailedTotal.WithLabelValues("client").Inc()
		return nil, err
	}

	if ss.guard != nil && req.IdempotencyKey != "" {
		claimed, err := ss.guard.ClaimIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			ss.logger.Warn("Idempotency check unavailable, proceeding",
				zap.String("key", req.IdempotencyKey),
				zap.Error(err))
		} else if !claimed {
			util.SalesFailedTotal.WithLabelValues("duplicate").Inc()
			return nil, errValidation("duplicate checkout: %s", req.IdempotencyKey)
		}
	}

	items, total, err := ss.buildItems(lines)
	if err != nil {
		util.SalesFailedTotal.WithLabelValues("unknown_product").Inc()
		return nil, err
	}

	sale := models.Sale{
		Total:         total,
		PaymentMethod: req.PaymentMethod,
		ClientID:      clientID,
	}
	if err := ss.ds.InsertSale(ctx, &sale); err != nil {
		// The header write is the one fatal step: without a persisted
		// sale ID no item, stock or debt mutation is attempted.
		util.SalesFailedTotal.WithLabelValues("db_error").Inc()
		return nil, &PersistenceError{Op: "insert sale", Err: err}
	}
	sale.Items = items

	ss.logger.Info("Sale created",
		zap.String("sale_id", sale.ID),
		zap.String("payment_method", sale.PaymentMethod),
		zap.String("total", sale.Total.String()))

	if err := ss.ds.InsertSaleItems(ctx, sale.ID, items); err != nil {
		ss.logger.Error("Failed to persist sale items",
			zap.String("sale_id", sale.ID),
			zap.Error(err))
		util.SaleStepFailuresTotal.WithLabelValues("sale_items").Inc()
	}

	ss.applyStockEffects(ctx, sale.ID, items)

	if sale.PaymentMethod == models.PaymentCredit {
		detail := joinItemNames(items)
		if err := ss.ledger.ChargeCredit(ctx, clientID, total, detail, sale.ID); err != nil {
			ss.logger.Error("Failed to charge client credit",
				zap.String("sale_id", sale.ID),
				zap.String("client_id", clientID),
				zap.Error(err))
			util.SaleStepFailuresTotal.WithLabelValues("credit_charge").Inc()
		}
	}

	ss.mirror.PrependSale(sale)
	ss.carts.Clear(req.SessionID)

	util.SalesCompletedTotal.WithLabelValues(sale.PaymentMethod).Inc()
	ss.publishSaleCompleted(ctx, &sale)

	return &sale, nil
}

// resolveClient returns the client ID a fiado sale is charged to, creating
// the client just-in-time when the request carries a draft. Non-credit
// payment methods never touch a client.
func (ss *SaleService) resolveClient(ctx context.Context, req *CheckoutRequest) (string, error) {
	if req.PaymentMethod != models.PaymentCredit {
		return "", nil
	}

	if req.ClientID != "" {
		if _, ok := ss.mirror.Client(req.ClientID); !ok {
			return "", &NotFoundError{Entity: "client", ID: req.ClientID}
		}
		return req.ClientID, nil
	}

	if req.NewClient != nil && req.NewClient.Name != "" {
		client, err := ss.ledger.CreateClient(ctx, req.NewClient.Name, req.NewClient.Phone)
		if err != nil {
			return "", err
		}
		return client.ID, nil
	}

	return "", errValidation("fiado sale requires a client")
}

// buildItems snapshots the current product name and sell price for each
// cart line and computes the line subtotals and the sale total.
func (ss *SaleService) buildItems(lines []models.CartLine) ([]models.SaleItem, decimal.Decimal, error) {
	items := make([]models.SaleItem, 0, len(lines))
	total := decimal.Zero

	for _, line := range lines {
		product, ok := ss.mirror.Product(line.Product.ID)
		if !ok {
			return nil, decimal.Zero, &NotFoundError{Entity: "product", ID: line.Product.ID}
		}

		subtotal := product.SellPrice.Mul(line.Quantity)
		items = append(items, models.SaleItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.SellPrice,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}

	return items, total, nil
}

// applyStockEffects decrements stock and appends one venta movement per
// item, in item order. The stock each step sees is re-read from the mirror
// after the previous step's confirmed write, not captured up front, so
// repeated products observe each other's decrements.
func (ss *SaleService) applyStockEffects(ctx context.Context, saleID string, items []models.SaleItem) {
	for _, item := range items {
		product, ok := ss.mirror.Product(item.ProductID)
		if !ok {
			ss.logger.Error("Product vanished from mirror during checkout",
				zap.String("sale_id", saleID),
				zap.String("product_id", item.ProductID))
			continue
		}

		newStock := product.Stock.Sub(item.Quantity)
		if newStock.IsNegative() {
			// Overselling is allowed: the stock clamps at zero, the
			// movement still records the full requested quantity.
			newStock = decimal.Zero
			util.StockClampsTotal.Inc()
		}

		if err := ss.ds.UpdateProductStock(ctx, item.ProductID, newStock); err != nil {
			ss.logger.Error("Failed to persist stock decrement",
				zap.String("sale_id", saleID),
				zap.String("product_id", item.ProductID),
				zap.Error(err))
			util.SaleStepFailuresTotal.WithLabelValues("stock_update").Inc()
		} else {
			ss.mirror.SetProductStock(item.ProductID, newStock)
			refreshStockCache(ctx, ss.cache, ss.logger, item.ProductID, newStock)
		}

		movement := models.StockMovement{
			ProductID: item.ProductID,
			Type:      models.MovementSale,
			Quantity:  item.Quantity.Neg(),
			Reason:    "Venta " + saleID,
		}
		if err := ss.ds.InsertStockMovement(ctx, &movement); err != nil {
			ss.logger.Error("Failed to record sale stock movement",
				zap.String("sale_id", saleID),
				zap.String("product_id", item.ProductID),
				zap.Error(err))
			util.SaleStepFailuresTotal.WithLabelValues("stock_movement").Inc()
		} else {
			ss.mirror.AppendStockMovement(movement)
		}
	}
}

func (ss *SaleService) publishSaleCompleted(ctx context.Context, sale *models.Sale) {
	eventItems := make([]models.SaleItemData, 0, len(sale.Items))
	for _, item := range sale.Items {
		eventItems = append(eventItems, models.SaleItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	event := &models.SaleCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSaleCompleted,
			Timestamp: time.Now(),
		},
		SaleID:        sale.ID,
		Total:         sale.Total,
		PaymentMethod: sale.PaymentMethod,
		ClientID:      sale.ClientID,
		Items:         eventItems,
	}
	if err := ss.publisher.PublishSaleCompleted(ctx, event); err != nil {
		ss.logger.Error("Failed to publish SaleCompleted event", zap.Error(err))
	}
}

func joinItemNames(items []models.SaleItem) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.ProductName)
	}
	return strings.Join(names, ", ")
}
