package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeSaleCompleted     = "SALE_COMPLETED"
	EventTypeStockAdjusted     = "STOCK_ADJUSTED"
	EventTypeDebtCharged       = "DEBT_CHARGED"
	EventTypePaymentRegistered = "PAYMENT_REGISTERED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleItemData represents item data in events
type SaleItemData struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SaleCompletedEvent published after a checkout runs to completion
type SaleCompletedEvent struct {
	BaseEvent
	SaleID        string          `json:"sale_id"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	ClientID      string          `json:"client_id,omitempty"`
	Items         []SaleItemData  `json:"items"`
}

// StockAdjustedEvent published after a manual stock adjustment or restock
type StockAdjustedEvent struct {
	BaseEvent
	ProductID    string          `json:"product_id"`
	MovementType string          `json:"movement_type"`
	Delta        decimal.Decimal `json:"delta"`
	NewStock     decimal.Decimal `json:"new_stock"`
	Reason       string          `json:"reason,omitempty"`
}

// DebtChargedEvent published when a fiado sale increases a client's debt
type DebtChargedEvent struct {
	BaseEvent
	ClientID string          `json:"client_id"`
	SaleID   string          `json:"sale_id"`
	Amount   decimal.Decimal `json:"amount"`
	NewDebt  decimal.Decimal `json:"new_debt"`
}

// PaymentRegisteredEvent published when a client pays down debt
type PaymentRegisteredEvent struct {
	BaseEvent
	ClientID string          `json:"client_id"`
	Amount   decimal.Decimal `json:"amount"`
	NewDebt  decimal.Decimal `json:"new_debt"`
}
