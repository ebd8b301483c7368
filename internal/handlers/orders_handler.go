package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-commerce-backend/internal/idempotency"
	"github.com/imrishuroy/go-commerce-backend/internal/orders"
	"github.com/imrishuroy/go-commerce-backend/internal/validation"
)

type ordersHandler struct {
	cfg      HandlerConfig
	validate *validatorv10.Validate
}

// RegisterOrdersRoutes registers routes for the order API.
func RegisterOrdersRoutes(r *gin.Engine, cfg HandlerConfig, v *validatorv10.Validate) {
	h := &ordersHandler{cfg: cfg, validate: v}

	r.POST("/api/orders", h.create)
	r.GET("/api/orders", h.list)
	r.GET("/api/orders/:id", h.get)
	r.PATCH("/api/orders/:id/status", h.updateStatus)
	r.DELETE("/api/orders/:id", h.delete)
	r.POST("/api/customers/:id/orders", h.quickCreate)
	r.GET("/api/customers/:id/orders", h.listByCustomer)
}

func (h *ordersHandler) create(c *gin.Context) {
	var req validation.CreateOrderRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		// BindAndValidate already wrote a 400
		return
	}

	items := make([]orders.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, orders.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	h.createIdempotent(c, func(ctx context.Context) (*orders.Order, error) {
		return h.cfg.Orders.Create(ctx, req.CustomerID, items)
	})
}

// quickCreate places a one-unit order for the customer in the path.
func (h *ordersHandler) quickCreate(c *gin.Context) {
	var req validation.QuickOrderRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}
	customerID := c.Param("id")

	h.createIdempotent(c, func(ctx context.Context) (*orders.Order, error) {
		return h.cfg.Orders.QuickCreate(ctx, customerID, req.ProductID)
	})
}

// createIdempotent wraps an order-create invocation in the idempotency
// protocol: reserve the key, run the workflow, store the outcome. A
// replayed key answers from the stored record without touching stock.
func (h *ordersHandler) createIdempotent(c *gin.Context, create func(context.Context) (*orders.Order, error)) {
	ctx := c.Request.Context()

	idempKey := c.GetHeader("Idempotency-Key")
	if idempKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_idempotency_key"})
		return
	}

	created, err := h.cfg.Idempotency.CreateIfNotExists(ctx, idempKey, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": err.Error()})
		return
	}
	if !created {
		h.replay(c, idempKey)
		return
	}

	order, err := create(ctx)
	if err != nil {
		// record the failure so the client can retry with a fresh key
		_ = h.cfg.Idempotency.MarkFailed(ctx, idempKey, err.Error())
		writeError(c, h.cfg.Log, err)
		return
	}

	// The order is committed; event and metric failures must not undo it.
	msgPayload := map[string]string{
		"order_id":        order.ID,
		"idempotency_key": idempKey,
	}
	payloadBytes, _ := json.Marshal(msgPayload)

	attrs := map[string]string{
		"idempotency_key": idempKey,
		"order_id":        order.ID,
		"correlation_id":  c.GetHeader("X-Request-Id"),
	}
	if err := h.cfg.Publisher.SendOrderMessage(ctx, string(payloadBytes), attrs); err != nil {
		h.cfg.Log.WithError(err).WithField("order_id", order.ID).Warn("failed to enqueue order event")
	}
	if err := h.cfg.Metrics.OrderPlaced(ctx, order.TotalAmount); err != nil {
		h.cfg.Log.WithError(err).Warn("failed to record order metric")
	}

	responseBody, _ := json.Marshal(order)
	if err := h.cfg.Idempotency.MarkDone(ctx, idempKey, string(responseBody), http.StatusCreated); err != nil {
		// the key stays IN_PROGRESS until TTL, so duplicates will see 202
		h.cfg.Log.WithError(err).WithField("order_id", order.ID).Warn("failed to mark idempotency key done")
	}

	c.Header("Location", fmt.Sprintf("/api/orders/%s", order.ID))
	c.JSON(http.StatusCreated, order)
}

// replay answers a duplicate create from the stored idempotency record.
func (h *ordersHandler) replay(c *gin.Context, idempKey string) {
	ctx := c.Request.Context()

	rec, err := h.cfg.Idempotency.Get(ctx, idempKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_record_missing"})
		return
	}

	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" {
			c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": rec.OrderID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress"})
	case idempotency.StatusFailed:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed", "detail": rec.Note})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
	}
}

func (h *ordersHandler) list(c *gin.Context) {
	out, err := h.cfg.Orders.List(c.Request.Context())
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ordersHandler) get(c *gin.Context) {
	order, err := h.cfg.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *ordersHandler) listByCustomer(c *gin.Context) {
	out, err := h.cfg.Orders.ListByCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ordersHandler) updateStatus(c *gin.Context) {
	var req validation.UpdateOrderStatusRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	order, err := h.cfg.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *ordersHandler) delete(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.cfg.Orders.Delete(ctx, c.Param("id")); err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	if err := h.cfg.Metrics.OrderDeleted(ctx); err != nil {
		h.cfg.Log.WithError(err).Warn("failed to record delete metric")
	}
	c.Status(http.StatusNoContent)
}
