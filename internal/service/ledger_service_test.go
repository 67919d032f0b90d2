package service

import (
	"context"
	"testing"

	"almacen-service/internal/store/memory"
	"almacen-service/internal/util"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateClient(t *testing.T) {
	env := newSeededEnv(t)

	client, err := env.ledger.CreateClient(context.Background(), "Lucía Torres", "11-8888-7777")
	require.NoError(t, err)
	require.NotEmpty(t, client.ID)
	requireDecimal(t, "0", client.Debt)
	assert.Empty(t, client.Purchases)
	assert.Empty(t, client.Payments)

	_, ok := env.mirror.Client(client.ID)
	assert.True(t, ok)
}

func TestCreateClientRequiresName(t *testing.T) {
	env := newSeededEnv(t)

	_, err := env.ledger.CreateClient(context.Background(), "", "11-0000-0000")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestChargeCredit(t *testing.T) {
	env := newSeededEnv(t)
	ctx := context.Background()

	err := env.ledger.ChargeCredit(ctx, "c3", dec(2500), "Leche, Pan", "s-test")
	require.NoError(t, err)

	c3, ok := env.mirror.Client("c3")
	require.True(t, ok)
	requireDecimal(t, "5700", c3.Debt) // 3200 + 2500
	require.Len(t, c3.Purchases, 1)
	requireDecimal(t, "2500", c3.Purchases[0].Amount)
	assert.Equal(t, "Leche, Pan", c3.Purchases[0].Detail)
}

func TestChargeCreditUnknownClient(t *testing.T) {
	env := newSeededEnv(t)

	err := env.ledger.ChargeCredit(context.Background(), "missing", dec(100), "x", "s-test")
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestRegisterPayment(t *testing.T) {
	env := newSeededEnv(t)

	client, err := env.ledger.RegisterPayment(context.Background(), "c1", dec(2000))
	require.NoError(t, err)
	requireDecimal(t, "10500", client.Debt) // 12500 - 2000
	require.Len(t, client.Payments, 1)
	requireDecimal(t, "2000", client.Payments[0].Amount)
}

func TestRegisterPaymentOverpaymentClampsAtZero(t *testing.T) {
	env := newSeededEnv(t)
	ctx := context.Background()

	// c4 owes 1800; paying 5000 clears the debt without producing a
	// credit balance.
	client, err := env.ledger.RegisterPayment(ctx, "c4", dec(5000))
	require.NoError(t, err)
	requireDecimal(t, "0", client.Debt)

	c4, _ := env.mirror.Client("c4")
	requireDecimal(t, "0", c4.Debt)
	require.Len(t, c4.Payments, 1)
	requireDecimal(t, "5000", c4.Payments[0].Amount)
}

func TestRegisterPaymentSurvivesEntryWriteFailure(t *testing.T) {
	flaky := &flakyStore{DataStore: memory.NewSeeded(), failPaymentInsert: true}
	env := newTestEnv(t, flaky)

	before := testutil.ToFloat64(util.LedgerWriteFailuresTotal.WithLabelValues("payment"))

	// The debt write is the primary step; losing the history entry only
	// logs and counts, the payment itself stands.
	client, err := env.ledger.RegisterPayment(context.Background(), "c1", dec(2000))
	require.NoError(t, err)
	requireDecimal(t, "10500", client.Debt)

	c1, _ := env.mirror.Client("c1")
	requireDecimal(t, "10500", c1.Debt)
	assert.Empty(t, c1.Payments)

	after := testutil.ToFloat64(util.LedgerWriteFailuresTotal.WithLabelValues("payment"))
	assert.Equal(t, before+1, after)
}

func TestRegisterPaymentValidation(t *testing.T) {
	env := newSeededEnv(t)
	ctx := context.Background()

	var validationErr *ValidationError
	_, err := env.ledger.RegisterPayment(ctx, "c1", dec(0))
	require.ErrorAs(t, err, &validationErr)

	_, err = env.ledger.RegisterPayment(ctx, "c1", dec(-500))
	require.ErrorAs(t, err, &validationErr)

	var notFoundErr *NotFoundError
	_, err = env.ledger.RegisterPayment(ctx, "missing", dec(100))
	require.ErrorAs(t, err, &notFoundErr)
}
