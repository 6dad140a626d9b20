package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/thaijunny/fashion-be/internal/adapter/http/middleware"
	"github.com/thaijunny/fashion-be/internal/adapter/memory"
	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/security"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

type APISuite struct {
	suite.Suite
	store  *memory.Store
	tokens *security.Tokens
	router *gin.Engine
}

func TestAPISuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.store = memory.New()
	s.tokens = security.NewTokens(security.TokenConfig{Secret: "test", Issuer: "fashion-be", Audience: "web", TTL: time.Hour})
	auth := usecase.NewAuth(s.store.Users(), security.BcryptHasher{Cost: bcrypt.MinCost}, s.tokens)

	s.router = NewRouter(Handlers{
		Orders: NewOrderHandler(
			usecase.NewPlaceOrder(s.store, s.store.Carts(), s.store.Orders(), s.store.Outbox(), s.store.KV()),
			usecase.NewUpdateOrderStatus(s.store.Orders(), s.store.KV()),
			usecase.NewOrderQueries(s.store.Orders()),
			time.Second,
		),
		Carts:  NewCartHandler(usecase.NewCart(s.store.Carts(), s.store.Products()), time.Second),
		Auth:   NewAuthHandler(auth),
		Health: NewHealthHandler(map[string]Check{"store": func(context.Context) error { return nil }}),
		Authz:  middleware.NewAuthz(s.tokens, auth),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	s.store.PutUser(domain.User{ID: "u1", Email: "u1@example.com", Role: domain.RoleUser})
	s.store.PutUser(domain.User{ID: "u2", Email: "u2@example.com", Role: domain.RoleUser})
	s.store.PutUser(domain.User{ID: "admin", Email: "admin@example.com", Role: domain.RoleAdmin})
	s.store.PutProduct(domain.Product{
		ID: "tee", Name: "Tee", Price: decimal.RequireFromString("450000"),
		Adjustments: []domain.VariantAdjustment{
			{Dimension: domain.DimensionSize, Value: "L", Delta: decimal.Zero},
			{Dimension: domain.DimensionSize, Value: "XL", Delta: decimal.RequireFromString("30000")},
		},
	})
}

func (s *APISuite) token(userID string) string {
	u, err := s.store.Users().GetByID(context.Background(), userID)
	s.Require().NoError(err)
	tok, err := s.tokens.Issue(u.ID, u.Role)
	s.Require().NoError(err)
	return tok
}

func (s *APISuite) call(method, path, userID string, body any, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(userID))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (s *APISuite) addTee(userID, size string, qty int) {
	w, _ := s.call(http.MethodPost, "/api/cart/add", userID, map[string]any{"product_id": "tee", "size": size, "quantity": qty})
	s.Require().Contains([]int{http.StatusCreated, http.StatusOK}, w.Code, w.Body.String())
}

func validCheckout(total any) map[string]any {
	return map[string]any{
		"full_name":        "Nguyen Lan",
		"phone_number":     "0912345678",
		"shipping_address": "12 Hang Bong, Hoan Kiem, Ha Noi",
		"payment_method":   "cash_on_delivery",
		"total_amount":     total,
	}
}

func (s *APISuite) TestCheckoutScenario() {
	s.addTee("u1", "L", 2)

	w, body := s.call(http.MethodPost, "/api/orders/checkout", "u1", validCheckout(900000))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal(true, body["success"])
	orderID, _ := body["order_id"].(string)
	s.NotEmpty(orderID)

	w, body = s.call(http.MethodGet, "/api/orders/"+orderID, "u1", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.EqualValues(900000, body["total_amount"])
	s.Equal("pending", body["status"])
	items := body["items"].([]any)
	s.Require().Len(items, 1)
	s.EqualValues(2, items[0].(map[string]any)["quantity"])
	s.EqualValues(450000, items[0].(map[string]any)["unit_price"])

	w, body = s.call(http.MethodGet, "/api/cart", "u1", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Empty(body["items"])
	s.EqualValues(0, body["itemCount"])
}

func (s *APISuite) TestCheckoutEmptyCart() {
	w, body := s.call(http.MethodPost, "/api/orders/checkout", "u1", validCheckout(100))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(false, body["success"])
	s.Equal("cart is empty", body["message"])
	s.Equal(0, s.store.OrderCount())
}

func (s *APISuite) TestCheckoutValidation() {
	s.addTee("u1", "L", 1)
	req := validCheckout(-5)
	req["phone_number"] = "12ab"
	req["full_name"] = "L"
	req["payment_method"] = "bitcoin"

	w, body := s.call(http.MethodPost, "/api/orders/checkout", "u1", req)
	s.Require().Equal(http.StatusBadRequest, w.Code)
	s.Equal(false, body["success"])
	paths := map[string]bool{}
	for _, e := range body["errors"].([]any) {
		paths[e.(map[string]any)["path"].(string)] = true
	}
	s.Equal(map[string]bool{"full_name": true, "phone_number": true, "payment_method": true, "total_amount": true}, paths)
	s.Equal(1, s.store.CartLen("u1"), "cart untouched")
}

func (s *APISuite) TestCheckoutTotalMismatch() {
	s.addTee("u1", "XL", 1)
	w, body := s.call(http.MethodPost, "/api/orders/checkout", "u1", validCheckout(450000))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(body["message"], "does not match cart total 480000")
}

func (s *APISuite) TestCheckoutTransactionFailureRollsBack() {
	s.addTee("u1", "L", 1)
	s.store.FailOn("orders.AddItems", errors.New("disk full"))

	w, body := s.call(http.MethodPost, "/api/orders/checkout", "u1", validCheckout(450000))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(false, body["success"])
	s.Contains(body["message"], "disk full")
	s.Equal(0, s.store.OrderCount())
	s.Equal(1, s.store.CartLen("u1"))
}

func (s *APISuite) TestCheckoutIdempotencyReplay() {
	s.addTee("u1", "L", 1)
	w, first := s.call(http.MethodPost, "/api/orders/checkout", "u1", validCheckout(450000), HeaderIdempotencyKey, "k-1")
	s.Require().Equal(http.StatusCreated, w.Code)

	w, again := s.call(http.MethodPost, "/api/orders/checkout", "u1", validCheckout(450000), HeaderIdempotencyKey, "k-1")
	s.Equal(http.StatusOK, w.Code)
	s.Equal(first["order_id"], again["order_id"])
	s.Equal(true, again["replayed"])
	s.Equal(1, s.store.OrderCount())
}

func (s *APISuite) TestCheckoutInProgressConflict() {
	s.addTee("u1", "L", 1)
	ok, err := s.store.KV().TryLock(context.Background(), "checkout", "u1")
	s.Require().NoError(err)
	s.Require().True(ok)

	w, body := s.call(http.MethodPost, "/api/orders/checkout", "u1", validCheckout(450000))
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("checkout already in progress", body["message"])
}

func (s *APISuite) TestOrderAccessAndStatus() {
	s.addTee("u1", "L", 1)
	_, body := s.call(http.MethodPost, "/api/orders/checkout", "u1", validCheckout(450000))
	orderID := body["order_id"].(string)

	w, _ := s.call(http.MethodGet, "/api/orders/"+orderID, "u2", nil)
	s.Equal(http.StatusNotFound, w.Code, "other users cannot see the order")
	w, _ = s.call(http.MethodGet, "/api/orders/"+orderID, "admin", nil)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.call(http.MethodGet, "/api/orders/admin/all", "u1", nil)
	s.Equal(http.StatusForbidden, w.Code)
	w, _ = s.call(http.MethodPatch, "/api/orders/"+orderID+"/status", "u1", map[string]string{"status": "processing"})
	s.Equal(http.StatusForbidden, w.Code)

	w, body = s.call(http.MethodPatch, "/api/orders/"+orderID+"/status", "admin", map[string]string{"status": "processing"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(true, body["success"])

	w, body = s.call(http.MethodPatch, "/api/orders/"+orderID+"/status", "admin", map[string]string{"status": "pending"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("cannot revert from processing to pending", body["message"])

	w, _ = s.call(http.MethodPatch, "/api/orders/missing/status", "admin", map[string]string{"status": "shipped"})
	s.Equal(http.StatusNotFound, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/admin/all", nil)
	req.Header.Set("Authorization", "Bearer "+s.token("admin"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code)
	var all []map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &all))
	s.Len(all, 1)
	s.Equal("processing", all[0]["status"])
}

func (s *APISuite) TestCartEndpoints() {
	w, _ := s.call(http.MethodPost, "/api/cart/add", "u1", map[string]any{"product_id": "tee", "size": "XL"})
	s.Equal(http.StatusCreated, w.Code)
	w, line := s.call(http.MethodPost, "/api/cart/add", "u1", map[string]any{"product_id": "tee", "size": "XL", "quantity": 2})
	s.Require().Equal(http.StatusOK, w.Code, "merged into the same line")
	s.EqualValues(3, line["quantity"])
	s.EqualValues(480000, line["unit_price"])

	w, _ = s.call(http.MethodPost, "/api/cart/add", "u1", map[string]any{"product_id": "nope"})
	s.Equal(http.StatusNotFound, w.Code)

	w, cart := s.call(http.MethodGet, "/api/cart", "u1", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.EqualValues(1440000, cart["total"])
	s.EqualValues(3, cart["itemCount"])

	id := line["id"].(string)
	w, _ = s.call(http.MethodPatch, "/api/cart/"+id, "u2", map[string]any{"quantity": 1})
	s.Equal(http.StatusNotFound, w.Code)
	w, _ = s.call(http.MethodPatch, "/api/cart/"+id, "u1", map[string]any{"quantity": 0})
	s.Equal(http.StatusOK, w.Code)
	s.Equal(0, s.store.CartLen("u1"))

	w, _ = s.call(http.MethodDelete, "/api/cart/"+id, "u1", nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, body := s.call(http.MethodPost, "/api/cart/add", "u1", map[string]any{"product_id": "tee", "quantity": 1000})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("invalid request data", body["message"])
	s.Equal(0, s.store.CartLen("u1"))
}

func (s *APISuite) TestAuthFlow() {
	w, body := s.call(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "new@example.com", "password": "secret1", "full_name": "New", "role": "admin",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal("user", body["user"].(map[string]any)["role"])

	w, _ = s.call(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "new@example.com", "password": "secret1"})
	s.Equal(http.StatusBadRequest, w.Code)

	w, body = s.call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "new@example.com", "password": "secret1"})
	s.Require().Equal(http.StatusOK, w.Code)
	token := body["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "new@example.com")

	w, body = s.call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "new@example.com", "password": "wrong"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("invalid credentials", body["message"])
}

func (s *APISuite) TestHealth() {
	w, body := s.call(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(true, body["ok"])
}

func TestStatusOf(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, statusOf(usecase.Transaction("x", errors.New("y")), http.StatusBadRequest))
	require.Equal(t, http.StatusInternalServerError, statusOf(errors.New("boom"), http.StatusBadRequest))
	require.Equal(t, http.StatusConflict, statusOf(&usecase.Error{Kind: usecase.ErrDuplicate}, 0))
}
