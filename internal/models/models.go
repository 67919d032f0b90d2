package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog product and its current stock level.
// Stock is decimal because kg/litre products sell in fractional quantities.
type Product struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Category  string          `db:"category" json:"category"`
	Unit      string          `db:"unit" json:"unit"`
	CostPrice decimal.Decimal `db:"cost_price" json:"cost_price"`
	SellPrice decimal.Decimal `db:"sell_price" json:"sell_price"`
	Stock     decimal.Decimal `db:"stock" json:"stock"`
	MinStock  decimal.Decimal `db:"min_stock" json:"min_stock"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Units of measure
const (
	UnitPiece = "unidad"
	UnitKilo  = "kg"
	UnitLitre = "litro"
)

// Categories is the fixed set of product categories.
var Categories = []string{
	"Bebidas", "Lácteos", "Almacén", "Limpieza", "Golosinas",
	"Fiambrería", "Panadería", "Verdulería", "Otros",
}

// ValidCategory reports whether c is one of the fixed product categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// CartLine is one (product, quantity) pair in a checkout session.
// The product is a snapshot taken when the line was added; totals are
// always derived from it, never stored.
type CartLine struct {
	Product  Product         `json:"product"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Sale is an immutable record of a completed checkout.
type Sale struct {
	ID            string          `db:"id" json:"id"`
	Date          time.Time       `db:"date" json:"date"`
	Total         decimal.Decimal `db:"total" json:"total"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	ClientID      string          `db:"client_id" json:"client_id,omitempty"`
	Items         []SaleItem      `db:"-" json:"items"`
}

// SaleItem snapshots the product name and unit price at sale time so that
// later catalog edits never rewrite sales history.
type SaleItem struct {
	ID          string          `db:"id" json:"id"`
	SaleID      string          `db:"sale_id" json:"sale_id"`
	ProductID   string          `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
}

// Payment methods
const (
	PaymentCash     = "efectivo"
	PaymentTransfer = "transferencia"
	PaymentCard     = "tarjeta"
	PaymentCredit   = "fiado"
)

// ValidPaymentMethod reports whether m is one of the accepted payment methods.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentTransfer, PaymentCard, PaymentCredit:
		return true
	}
	return false
}

// StockMovement is an append-only audit record of a stock change. The
// quantity is the requested signed delta, recorded verbatim even when the
// catalog clamped the resulting stock at zero.
type StockMovement struct {
	ID        string          `db:"id" json:"id"`
	ProductID string          `db:"product_id" json:"product_id"`
	Date      time.Time       `db:"date" json:"date"`
	Type      string          `db:"type" json:"type"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	Reason    string          `db:"reason" json:"reason,omitempty"`
}

// Stock movement types
const (
	MovementSale       = "venta"
	MovementAdjustment = "ajuste"
	MovementRestock    = "ingreso"
)

// Client is a credit ("fiado") customer with an outstanding balance and
// append-only purchase/payment histories.
type Client struct {
	ID        string           `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Phone     string           `db:"phone" json:"phone"`
	Debt      decimal.Decimal  `db:"debt" json:"debt"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	Purchases []ClientPurchase `db:"-" json:"purchases"`
	Payments  []ClientPayment  `db:"-" json:"payments"`
}

// ClientPurchase is one credit purchase attached to a client.
type ClientPurchase struct {
	ID       string          `db:"id" json:"id"`
	ClientID string          `db:"client_id" json:"client_id"`
	Date     time.Time       `db:"date" json:"date"`
	Amount   decimal.Decimal `db:"amount" json:"amount"`
	Detail   string          `db:"detail" json:"detail"`
}

// ClientPayment is one debt payment attached to a client.
type ClientPayment struct {
	ID       string          `db:"id" json:"id"`
	ClientID string          `db:"client_id" json:"client_id"`
	Date     time.Time       `db:"date" json:"date"`
	Amount   decimal.Decimal `db:"amount" json:"amount"`
}
