package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/thaijunny/fashion-be/internal/adapter/http/middleware"
	"github.com/thaijunny/fashion-be/internal/adapter/observ"
	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"

type OrderHandler struct {
	place   *usecase.PlaceOrder
	status  *usecase.UpdateOrderStatus
	queries *usecase.OrderQueries
	timeout time.Duration
}

func NewOrderHandler(place *usecase.PlaceOrder, status *usecase.UpdateOrderStatus, queries *usecase.OrderQueries, timeout time.Duration) *OrderHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OrderHandler{place: place, status: status, queries: queries, timeout: timeout}
}

type checkoutReq struct {
	FullName        string          `json:"full_name" binding:"required,min=2"`
	PhoneNumber     string          `json:"phone_number" binding:"required,phone"`
	ShippingAddress string          `json:"shipping_address" binding:"required,min=10"`
	PaymentMethod   string          `json:"payment_method" binding:"omitempty,oneof=cash_on_delivery bank_transfer"`
	TotalAmount     decimal.Decimal `json:"total_amount" binding:"required,gt=0"`
}

type checkoutResp struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	OrderID  string `json:"order_id"`
	Replayed bool   `json:"replayed,omitempty"`
}

// Checkout POST /api/orders/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req checkoutReq
	if !bind(c, &req) {
		observ.CheckoutTotal.WithLabelValues("rejected").Inc()
		return
	}
	actor, _ := middleware.ActorFrom(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	out, err := h.place.Execute(ctx, usecase.PlaceOrderInput{
		UserID:          actor.UserID,
		IdempotencyKey:  c.GetHeader(HeaderIdempotencyKey),
		ShippingAddress: req.ShippingAddress,
		FullName:        req.FullName,
		PhoneNumber:     req.PhoneNumber,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		TotalAmount:     req.TotalAmount,
	})
	if err != nil {
		observ.CheckoutTotal.WithLabelValues(checkoutOutcome(err)).Inc()
		respondErrorTx(c, err, http.StatusBadRequest)
		return
	}

	if out.Replayed {
		observ.CheckoutTotal.WithLabelValues("replayed").Inc()
		c.JSON(http.StatusOK, checkoutResp{Success: true, Message: "order already placed", OrderID: out.OrderID, Replayed: true})
		return
	}
	observ.CheckoutTotal.WithLabelValues("placed").Inc()
	c.JSON(http.StatusCreated, checkoutResp{Success: true, Message: "order placed", OrderID: out.OrderID})
}

func checkoutOutcome(err error) string {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		return "rejected"
	case errors.Is(err, usecase.ErrDuplicate):
		return "conflict"
	default:
		return "failed"
	}
}

// ListMine GET /api/orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	orders, err := h.queries.ListMine(ctx, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderList(orders))
}

// Get GET /api/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	o, err := h.queries.Get(ctx, actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResp(*o))
}

// ListAll GET /api/orders/admin/all
func (h *OrderHandler) ListAll(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	orders, err := h.queries.ListAll(ctx, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderList(orders))
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus PATCH /api/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if !bind(c, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.status.Execute(ctx, c.Param("id"), domain.Status(req.Status)); err != nil {
		respondError(c, err)
		return
	}
	observ.OrderStatusChanges.WithLabelValues("admin", req.Status).Inc()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "order status updated"})
}
