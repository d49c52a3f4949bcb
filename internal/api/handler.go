package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"billiard-pos/internal/models"
	"billiard-pos/internal/notify"
	"billiard-pos/internal/service"
	"billiard-pos/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// eventSubscriber is the live-update feed behind the SSE endpoint.
type eventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan notify.Event, func())
}

// Handler contains HTTP handlers
type Handler struct {
	tables     *service.TableService
	orders     *service.OrderService
	till       *service.TillService
	products   *service.ProductService
	users      *service.UserService
	pricing    *service.PricingService
	subscriber eventSubscriber
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	tables *service.TableService,
	orders *service.OrderService,
	till *service.TillService,
	products *service.ProductService,
	users *service.UserService,
	pricing *service.PricingService,
	subscriber eventSubscriber,
) *Handler {
	return &Handler{
		tables:     tables,
		orders:     orders,
		till:       till,
		products:   products,
		users:      users,
		pricing:    pricing,
		subscriber: subscriber,
		logger:     util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/api/login", h.login)
	router.GET("/api/menu/public", h.publicMenu)

	authed := router.Group("/api", AuthMiddleware(h.users))
	{
		authed.GET("/me", h.currentUser)
		authed.GET("/events", h.events)

		authed.GET("/tables", h.listTables)
		authed.POST("/tables/open/:id", h.openTable)
		authed.GET("/tables/detail/:id", h.tableDetail)
		authed.POST("/tables/close/:id", h.closeTable)
		authed.POST("/tables/move", h.moveTable)

		authed.POST("/orders", h.addLine)
		authed.DELETE("/orders/:id", h.removeLine)

		authed.GET("/kitchen/pending", h.kitchenPending)
		authed.POST("/kitchen/deliver/:id", h.markDelivered)

		authed.GET("/till/current", h.tillCurrent)
		authed.POST("/expenses", h.addExpense)

		authed.GET("/products", h.listProducts)
		authed.GET("/config", h.getConfig)

		admin := authed.Group("", RequireAdmin())
		{
			admin.POST("/till/close", h.closeTill)
			admin.GET("/till/history", h.tillHistory)
			admin.DELETE("/till/history/:id", h.deleteTillClose)
			admin.DELETE("/sales/:id", h.deleteSale)
			admin.GET("/stats/weekly", h.weeklyStats)
			admin.GET("/audit", h.auditTrail)

			admin.POST("/products", h.createProduct)
			admin.DELETE("/products/:id", h.deleteProduct)
			admin.POST("/products/restock", h.restock)
			admin.POST("/config", h.setConfig)

			admin.GET("/users", h.listUsers)
			admin.POST("/users", h.createUser)
			admin.DELETE("/users/:id", h.deleteUser)
		}
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	token, user, err := h.users.Login(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.SetCookie(authCookieName, token, int(12*time.Hour/time.Second), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"token": token, "role": user.Role})
}

func (h *Handler) currentUser(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentAuth(c))
}

// events streams change notifications as server-sent events. Clients
// re-fetch the affected view when an event arrives; the stream carries
// no state of its own.
func (h *Handler) events(c *gin.Context) {
	events, cancel := h.subscriber.Subscribe(c.Request.Context())
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-keepalive.C:
			c.SSEvent("ping", time.Now().Unix())
			c.Writer.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent("message", string(ev))
			c.Writer.Flush()
		}
	}
}

func (h *Handler) publicMenu(c *gin.Context) {
	items, err := h.products.Menu(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) listTables(c *gin.Context) {
	tables, err := h.tables.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tables)
}

func (h *Handler) openTable(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	// Body is optional; an empty body opens with no time limit.
	var req service.OpenTableRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.tables.Open(c.Request.Context(), id, req.TimeLimitMinutes); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) tableDetail(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.tables.Detail(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) closeTable(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.CloseTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	sale, err := h.tables.Close(c.Request.Context(), id, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *Handler) moveTable(c *gin.Context) {
	var req service.MoveTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.tables.Move(c.Request.Context(), req.OriginID, req.DestID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) addLine(c *gin.Context) {
	var req service.AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	line, err := h.orders.AddLine(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, line)
}

func (h *Handler) removeLine(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.orders.RemoveLine(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) kitchenPending(c *gin.Context) {
	lines, err := h.orders.KitchenPending(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

func (h *Handler) markDelivered(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.orders.MarkDelivered(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) tillCurrent(c *gin.Context) {
	totals, err := h.till.CurrentTotals(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *Handler) addExpense(c *gin.Context) {
	var req service.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	expense, err := h.till.AddExpense(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (h *Handler) closeTill(c *gin.Context) {
	tc, err := h.till.CloseTill(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tc)
}

func (h *Handler) tillHistory(c *gin.Context) {
	closes, err := h.till.History(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, closes)
}

func (h *Handler) deleteTillClose(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.till.DeleteTillClose(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) deleteSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.till.DeleteSale(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) auditTrail(c *gin.Context) {
	entries, err := h.users.AuditTrail(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) weeklyStats(c *gin.Context) {
	stats, err := h.till.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	p, err := h.products.Create(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) restock(c *gin.Context) {
	var req service.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.products.Restock(c.Request.Context(), &req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) getConfig(c *gin.Context) {
	ctx := c.Request.Context()
	entries, err := h.pricing.All(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hourly_rate": h.pricing.Rate(ctx),
		"entries":     entries,
	})
}

type setConfigRequest struct {
	HourlyRate float64 `json:"hourly_rate" binding:"required,gt=0"`
}

func (h *Handler) setConfig(c *gin.Context) {
	var req setConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.pricing.SetRate(c.Request.Context(), req.HourlyRate); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) createUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	u, err := h.users.Create(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	auth := CurrentAuth(c)
	if err := h.users.Delete(c.Request.Context(), id, auth.UserID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// respondError maps the domain error taxonomy onto HTTP statuses.
// Storage failures are logged in full and returned as a generic message.
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		validation *models.ValidationError
		conflict   *models.ConflictError
		notFound   *models.NotFoundError
		auth       *models.AuthError
		storage    *models.StorageError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Msg})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Msg})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &auth):
		status := http.StatusUnauthorized
		if auth.Forbidden {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": auth.Msg})
	case errors.As(err, &storage):
		h.logger.Error("Storage failure", zap.String("op", storage.Op), zap.Error(storage.Err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "a database error occurred"})
	default:
		h.logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an internal error occurred"})
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
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
