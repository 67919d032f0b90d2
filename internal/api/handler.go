package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"almacen-service/internal/mirror"
	"almacen-service/internal/models"
	"almacen-service/internal/service"
	"almacen-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler contains HTTP handlers. It is the UI collaborator's only surface:
// reads come from the mirror, mutations go through the services, and
// nothing here writes to the backing store directly.
type Handler struct {
	carts   *service.CartService
	sales   *service.SaleService
	catalog *service.CatalogService
	ledger  *service.LedgerService
	mirror  *mirror.Mirror
}

// NewHandler creates a new HTTP handler
func NewHandler(
	carts *service.CartService,
	sales *service.SaleService,
	catalog *service.CatalogService,
	ledger *service.LedgerService,
	m *mirror.Mirror,
) *Handler {
	return &Handler{
		carts:   carts,
		sales:   sales,
		catalog: catalog,
		ledger:  ledger,
		mirror:  m,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.POST("/products", h.createProduct)
		v1.PUT("/products/:id", h.updateProduct)
		v1.POST("/products/:id/stock-adjustments", h.adjustStock)
		v1.GET("/products/:id/movements", h.listProductMovements)
		v1.GET("/stock-movements", h.listStockMovements)

		v1.GET("/clients", h.listClients)
		v1.POST("/clients", h.createClient)
		v1.POST("/clients/:id/payments", h.registerPayment)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addCartItem)
		v1.PUT("/cart/items/:productId", h.setCartItemQuantity)
		v1.DELETE("/cart/items/:productId", h.removeCartItem)
		v1.DELETE("/cart", h.clearCart)

		v1.GET("/sales", h.listSales)
		v1.POST("/checkout", h.checkout)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": h.mirror.Products()})
}

type productRequest struct {
	Name      string          `json:"name" binding:"required"`
	Category  string          `json:"category" binding:"required"`
	Unit      string          `json:"unit" binding:"required"`
	CostPrice decimal.Decimal `json:"cost_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Stock     decimal.Decimal `json:"stock"`
	MinStock  decimal.Decimal `json:"min_stock"`
}

func (r *productRequest) toModel() models.Product {
	return models.Product{
		Name:      r.Name,
		Category:  r.Category,
		Unit:      r.Unit,
		CostPrice: r.CostPrice,
		SellPrice: r.SellPrice,
		Stock:     r.Stock,
		MinStock:  r.MinStock,
	}
}

func (h *Handler) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.catalog.Create(c.Request.Context(), req.toModel())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product := req.toModel()
	product.ID = c.Param("id")
	if err := h.catalog.Update(c.Request.Context(), product); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

type adjustStockRequest struct {
	Delta  decimal.Decimal `json:"delta"`
	Reason string          `json:"reason,omitempty"`
}

func (h *Handler) adjustStock(c *gin.Context) {
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.catalog.AdjustStock(c.Request.Context(), c.Param("id"), req.Delta, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) listProductMovements(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"movements": h.mirror.StockMovementsByProduct(c.Param("id")),
	})
}

func (h *Handler) listStockMovements(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"movements": h.mirror.StockMovements()})
}

func (h *Handler) listClients(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"clients": h.mirror.Clients()})
}

type createClientRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone,omitempty"`
}

func (h *Handler) createClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	client, err := h.ledger.CreateClient(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

type registerPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) registerPayment(c *gin.Context) {
	var req registerPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	client, err := h.ledger.RegisterPayment(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *Handler) getCart(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lines": h.carts.Lines(session),
		"total": h.carts.Total(session),
	})
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

func (h *Handler) addCartItem(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.carts.Add(session, req.ProductID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": h.carts.Lines(session)})
}

type setQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

func (h *Handler) setCartItemQuantity(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	h.carts.SetQuantity(session, c.Param("productId"), req.Quantity)
	c.JSON(http.StatusOK, gin.H{"lines": h.carts.Lines(session)})
}

func (h *Handler) removeCartItem(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	h.carts.Remove(session, c.Param("productId"))
	c.JSON(http.StatusOK, gin.H{"lines": h.carts.Lines(session)})
}

func (h *Handler) clearCart(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	h.carts.Clear(session)
	c.Status(http.StatusNoContent)
}

func (h *Handler) listSales(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sales": h.mirror.Sales()})
}

func (h *Handler) checkout(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.SessionID = session
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	sale, err := h.sales.Checkout(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// sessionID reads the cart session from the X-Session-ID header.
func sessionID(c *gin.Context) (string, bool) {
	session := c.GetHeader("X-Session-ID")
	if session == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Session-ID header is required"})
		return "", false
	}
	return session, true
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var notFoundErr *service.NotFoundError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Msg})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "operation failed",
			"details": err.Error(),
		})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
