package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thaijunny/fashion-be/internal/adapter/http/middleware"
	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

type CartHandler struct {
	cart    *usecase.Cart
	timeout time.Duration
}

func NewCartHandler(cart *usecase.Cart, timeout time.Duration) *CartHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CartHandler{cart: cart, timeout: timeout}
}

func (h *CartHandler) View(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	view, err := h.cart.View(ctx, actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResp(view))
}

type addToCartReq struct {
	ProductID string `json:"product_id"`
	ProjectID string `json:"project_id"`
	Size      string `json:"size" binding:"max=10"`
	Color     string `json:"color" binding:"max=20"`
	Material  string `json:"material" binding:"max=50"`
	Quantity  int    `json:"quantity" binding:"min=0,max=999"`
}

// Add responds 201 for a new line and 200 when merged into an existing one.
func (h *CartHandler) Add(c *gin.Context) {
	var req addToCartReq
	if !bind(c, &req) {
		return
	}
	actor, _ := middleware.ActorFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	line, created, err := h.cart.Add(ctx, usecase.AddToCartInput{
		UserID:    actor.UserID,
		ProductID: req.ProductID,
		ProjectID: req.ProjectID,
		Selection: domain.Selection{Size: req.Size, Color: req.Color, Material: req.Material},
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, toCartItemResp(*line))
}

type updateQuantityReq struct {
	Quantity *int `json:"quantity" binding:"required,max=999"`
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req updateQuantityReq
	if !bind(c, &req) {
		return
	}
	actor, _ := middleware.ActorFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	line, err := h.cart.UpdateQuantity(ctx, actor.UserID, c.Param("id"), *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	if line == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "item removed"})
		return
	}
	c.JSON(http.StatusOK, toCartItemResp(*line))
}

func (h *CartHandler) Remove(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.cart.Remove(ctx, actor.UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "item removed from cart"})
}
