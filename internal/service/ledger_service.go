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

// LedgerService owns client credit ("fiado") balances. Debt only grows
// through credit sales and only shrinks through registered payments, and it
// never goes below zero.
type LedgerService struct {
	ds        store.DataStore
	mirror    *mirror.Mirror
	publisher EventPublisher
	logger    *zap.Logger
}

// NewLedgerService creates a new client debt ledger service.
func NewLedgerService(ds store.DataStore, m *mirror.Mirror, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		ds:        ds,
		mirror:    m,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// CreateClient registers a new credit client with zero debt and empty
// histories. The store assigns the identifier.
func (ls *LedgerService) CreateClient(ctx context.Context, name, phone string) (*models.Client, error) {
	if name == "" {
		return nil, errValidation("client name is required")
	}

	client := models.Client{
		Name:  name,
		Phone: phone,
		Debt:  decimal.Zero,
	}
	if err := ls.ds.InsertClient(ctx, &client); err != nil {
		return nil, &PersistenceError{Op: "insert client", Err: err}
	}

	ls.mirror.AppendClient(client)
	ls.logger.Info("Client created",
		zap.String("client_id", client.ID),
		zap.String("name", client.Name))
	return &client, nil
}

// ChargeCredit adds amount to the client's debt and appends a purchase
// entry. Called only by the sale processor when a fiado sale commits; the
// HTTP surface never reaches it directly.
func (ls *LedgerService) ChargeCredit(ctx context.Context, clientID string, amount decimal.Decimal, detail, saleID string) error {
	ctx, span := util.StartSpan(ctx, "LedgerService.ChargeCredit")
	defer span.End()

	client, ok := ls.mirror.Client(clientID)
	if !ok {
		return &NotFoundError{Entity: "client", ID: clientID}
	}

	newDebt := client.Debt.Add(amount)
	if err := ls.ds.UpdateClientDebt(ctx, clientID, newDebt); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Entity: "client", ID: clientID}
		}
		return &PersistenceError{Op: "update client debt", Err: err}
	}
	ls.mirror.SetClientDebt(clientID, newDebt)

	purchase := models.ClientPurchase{
		ClientID: clientID,
		Amount:   amount,
		Detail:   detail,
	}
	if err := ls.ds.InsertClientPurchase(ctx, &purchase); err != nil {
		ls.logger.Error("Failed to record client purchase",
			zap.String("client_id", clientID),
			zap.Error(err))
		util.SaleStepFailuresTotal.WithLabelValues("client_purchase").Inc()
	} else {
		ls.mirror.AppendClientPurchase(purchase)
	}

	util.CreditChargesTotal.Inc()
	ls.logger.Info("Credit charged",
		zap.String("client_id", clientID),
		zap.String("amount", amount.String()),
		zap.String("new_debt", newDebt.String()))

	event := &models.DebtChargedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeDebtCharged,
			Timestamp: time.Now(),
		},
		ClientID: clientID,
		SaleID:   saleID,
		Amount:   amount,
		NewDebt:  newDebt,
	}
	if err := ls.publisher.PublishDebtCharged(ctx, event); err != nil {
		ls.logger.Error("Failed to publish DebtCharged event", zap.Error(err))
	}

	return nil
}

// RegisterPayment subtracts amount from the client's debt, clamped at zero,
// and appends a payment entry. Overpaying never produces a credit balance.
func (ls *LedgerService) RegisterPayment(ctx context.Context, clientID string, amount decimal.Decimal) (*models.Client, error) {
	ctx, span := util.StartSpan(ctx, "LedgerService.RegisterPayment")
	defer span.End()

	if amount.Sign() <= 0 {
		return nil, errValidation("payment amount must be positive")
	}
	client, ok := ls.mirror.Client(clientID)
	if !ok {
		return nil, &NotFoundError{Entity: "client", ID: clientID}
	}

	newDebt := client.Debt.Sub(amount)
	if newDebt.IsNegative() {
		newDebt = decimal.Zero
	}

	if err := ls.ds.UpdateClientDebt(ctx, clientID, newDebt); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Entity: "client", ID: clientID}
		}
		return nil, &PersistenceError{Op: "update client debt", Err: err}
	}
	ls.mirror.SetClientDebt(clientID, newDebt)

	payment := models.ClientPayment{
		ClientID: clientID,
		Amount:   amount,
	}
	if err := ls.ds.InsertClientPayment(ctx, &payment); err != nil {
		ls.logger.Error("Failed to record client payment",
			zap.String("client_id", clientID),
			zap.Error(err))
		util.LedgerWriteFailuresTotal.WithLabelValues("payment").Inc()
	} else {
		ls.mirror.AppendClientPayment(payment)
		client.Payments = append(client.Payments, payment)
	}

	util.PaymentsRegisteredTotal.Inc()
	ls.logger.Info("Payment registered",
		zap.String("client_id", clientID),
		zap.String("amount", amount.String()),
		zap.String("new_debt", newDebt.String()))

	event := &models.PaymentRegisteredEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentRegistered,
			Timestamp: time.Now(),
		},
		ClientID: clientID,
		Amount:   amount,
		NewDebt:  newDebt,
	}
	if err := ls.publisher.PublishPaymentRegistered(ctx, event); err != nil {
		ls.logger.Error("Failed to publish PaymentRegistered event", zap.Error(err))
	}

	client.Debt = newDebt
	return &client, nil
}
