package service

import (
	"context"

	"almacen-service/internal/models"
)

// EventPublisher publishes domain events after operations complete.
// Publishing is always best-effort: failures are logged, never propagated.
type EventPublisher interface {
	PublishSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error
	PublishStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error
	PublishDebtCharged(ctx context.Context, event *models.DebtChargedEvent) error
	PublishPaymentRegistered(ctx context.Context, event *models.PaymentRegisteredEvent) error
}

// NopPublisher discards all events. Used in tests and when the broker is
// not configured.
type NopPublisher struct{}

func (NopPublisher) PublishSaleCompleted(context.Context, *models.SaleCompletedEvent) error {
	return nil
}

func (NopPublisher) PublishStockAdjusted(context.Context, *models.StockAdjustedEvent) error {
	return nil
}

func (NopPublisher) PublishDebtCharged(context.Context, *models.DebtChargedEvent) error {
	return nil
}

func (NopPublisher) PublishPaymentRegistered(context.Context, *models.PaymentRegisteredEvent) error {
	return nil
}
