package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"almacen-service/internal/mirror"
	"almacen-service/internal/models"
	"almacen-service/internal/service"
	"almacen-service/internal/store/memory"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ds := memory.NewSeeded()
	m := mirror.New()
	require.NoError(t, m.Load(context.Background(), ds))

	carts := service.NewCartService(m)
	ledger := service.NewLedgerService(ds, m, service.NopPublisher{})
	catalog := service.NewCatalogService(ds, m, service.NopPublisher{}, nil, "Ajuste manual")
	sales := service.NewSaleService(ds, m, carts, ledger, service.NopPublisher{}, nil, nil)

	router := gin.New()
	NewHandler(carts, sales, catalog, ledger, m).SetupRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path, session string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set("X-Session-ID", session)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListProducts(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(router, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Products []models.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Products, 20)
}

func TestCartRequiresSessionHeader(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/api/v1/cart/items", "",
		gin.H{"product_id": "p1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutFlow(t *testing.T) {
	router := newTestRouter(t)
	session := "sess-1"

	rec := doJSON(router, http.MethodPost, "/api/v1/cart/items", session,
		gin.H{"product_id": "p1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(router, http.MethodPut, "/api/v1/cart/items/p1", session,
		gin.H{"quantity": "2"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/v1/cart/items", session,
		gin.H{"product_id": "p3"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/v1/checkout", session,
		gin.H{"payment_method": models.PaymentCash})
	require.Equal(t, http.StatusCreated, rec.Code)

	var sale models.Sale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sale))
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(4550)), sale.Total.String())
	assert.Len(t, sale.Items, 2)

	// The cart is gone and the sale heads the list.
	rec = doJSON(router, http.MethodGet, "/api/v1/cart", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart struct {
		Lines []models.CartLine `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Empty(t, cart.Lines)

	rec = doJSON(router, http.MethodGet, "/api/v1/sales", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var salesResp struct {
		Sales []models.Sale `json:"sales"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &salesResp))
	require.NotEmpty(t, salesResp.Sales)
	assert.Equal(t, sale.ID, salesResp.Sales[0].ID)
}

func TestCheckoutErrorsMapToStatuses(t *testing.T) {
	router := newTestRouter(t)
	session := "sess-2"

	// Empty cart → 400
	rec := doJSON(router, http.MethodPost, "/api/v1/checkout", session,
		gin.H{"payment_method": models.PaymentCash})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/v1/cart/items", session,
		gin.H{"product_id": "p1"})
	require.Equal(t, http.StatusOK, rec.Code)

	// Fiado without client → 400
	rec = doJSON(router, http.MethodPost, "/api/v1/checkout", session,
		gin.H{"payment_method": models.PaymentCredit})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Fiado with unknown client → 404
	rec = doJSON(router, http.MethodPost, "/api/v1/checkout", session,
		gin.H{"payment_method": models.PaymentCredit, "client_id": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdjustStockEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/api/v1/products/p16/stock-adjustments", "",
		gin.H{"delta": "-5", "reason": "Se rompió una caja"})
	require.Equal(t, http.StatusOK, rec.Code)

	var product models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	assert.True(t, product.Stock.IsZero(), product.Stock.String())

	rec = doJSON(router, http.MethodPost, "/api/v1/products/missing/stock-adjustments", "",
		gin.H{"delta": "1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterPaymentEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/api/v1/clients/c4/payments", "",
		gin.H{"amount": "5000"})
	require.Equal(t, http.StatusOK, rec.Code)

	var client models.Client
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &client))
	assert.True(t, client.Debt.IsZero(), client.Debt.String())
}
