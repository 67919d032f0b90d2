package worker

import (
	"context"
	"log"

	"almacen-service/internal/broker"
	"almacen-service/internal/mirror"
	"almacen-service/internal/models"
	"almacen-service/internal/util"

	"go.uber.org/zap"
)

// StockAlertWorker consumes sale and adjustment events and emits a warning
// whenever a touched product's stock falls to or below its minimum
// threshold. It only reads the mirror; it never mutates catalog state.
type StockAlertWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	catalog      *mirror.Mirror
	logger       *zap.Logger
}

// NewStockAlertWorker creates a new stock alert worker.
func NewStockAlertWorker(consumer *broker.Consumer, catalog *mirror.Mirror) *StockAlertWorker {
	w := &StockAlertWorker{
		consumer: consumer,
		catalog:  catalog,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnSaleCompleted(w.handleSaleCompleted)
	eventHandler.OnStockAdjusted(w.handleStockAdjusted)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *StockAlertWorker) Start(ctx context.Context) error {
	log.Println("Starting stock alert worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockAlertWorker) Stop() error {
	log.Println("Stopping stock alert worker...")
	return w.consumer.Close()
}

func (w *StockAlertWorker) handleSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error {
	for _, item := range event.Items {
		w.checkProduct(item.ProductID)
	}
	return nil
}

func (w *StockAlertWorker) handleStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error {
	w.checkProduct(event.ProductID)
	return nil
}

func (w *StockAlertWorker) checkProduct(productID string) {
	product, ok := w.catalog.Product(productID)
	if !ok {
		return
	}

	if product.Stock.Cmp(product.MinStock) <= 0 {
		util.LowStockAlertsTotal.Inc()
		w.logger.Warn("Product at or below minimum stock",
			zap.String("product_id", product.ID),
			zap.String("name", product.Name),
			zap.String("stock", product.Stock.String()),
			zap.String("min_stock", product.MinStock.String()))
	}
}
