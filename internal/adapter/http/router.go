package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thaijunny/fashion-be/internal/adapter/http/middleware"
	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/logging"
)

type Handlers struct {
	Orders *OrderHandler
	Carts  *CartHandler
	Auth   *AuthHandler
	Health *HealthHandler
	Authz  *middleware.Authz
	Logger *slog.Logger
}

func NewRouter(h Handlers) *gin.Engine {
	registerValidators()
	if h.Logger == nil {
		h.Logger = logging.New("http")
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics(), middleware.Logging(h.Logger))

	r.GET("/health", h.Health.Health)
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	authn := h.Authz.Authenticate()
	admin := middleware.RequireRole(domain.RoleAdmin)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.GET("/me", authn, h.Auth.Me)
	}

	cart := api.Group("/cart", authn)
	{
		cart.GET("", h.Carts.View)
		cart.POST("/add", h.Carts.Add)
		cart.PATCH("/:id", h.Carts.UpdateQuantity)
		cart.DELETE("/:id", h.Carts.Remove)
	}

	orders := api.Group("/orders", authn)
	{
		orders.POST("/checkout", h.Orders.Checkout)
		orders.GET("", h.Orders.ListMine)
		orders.GET("/admin/all", admin, h.Orders.ListAll)
		orders.GET("/:id", h.Orders.Get)
		orders.PATCH("/:id/status", admin, h.Orders.UpdateStatus)
	}

	return r
}
