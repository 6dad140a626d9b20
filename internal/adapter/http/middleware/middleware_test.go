package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/security"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

func init() { gin.SetMode(gin.TestMode) }

type userMap map[string]*domain.User

func (m userMap) Authenticate(_ context.Context, id string) (*domain.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, usecase.NotFound("Authenticate", "user not found")
	}
	if u.IsBlocked {
		return nil, usecase.Forbidden("Authenticate", "account is blocked")
	}
	return u, nil
}

func TestRedactJSON(t *testing.T) {
	in := []byte(`{"email":"a@b.co","Password":"hunter2","nested":{"token":"x","items":[{"secret":"s","qty":1}]}}`)
	var got map[string]any
	require.NoError(t, json.Unmarshal(redactJSON(in), &got))

	assert.Equal(t, "a@b.co", got["email"])
	assert.Equal(t, redacted, got["Password"])
	nested := got["nested"].(map[string]any)
	assert.Equal(t, redacted, nested["token"])
	item := nested["items"].([]any)[0].(map[string]any)
	assert.Equal(t, redacted, item["secret"])
	assert.EqualValues(t, 1, item["qty"])

	assert.Equal(t, []byte("plain text"), redactJSON([]byte("plain text")))
}

func TestLogging_RequestIDAndBodyPassthrough(t *testing.T) {
	var logs bytes.Buffer
	r := gin.New()
	r.Use(Logging(slog.New(slog.NewJSONHandler(&logs, nil))))
	r.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusOK, body)
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(`{"password":"hunter2","name":"lan"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"password":"hunter2","name":"lan"}`, w.Body.String(), "handler sees the original body")
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.NotContains(t, logs.String(), "hunter2")
	assert.Contains(t, logs.String(), `"route":"/echo"`)
}

func newAuthRouter(t *testing.T, users userMap) (*gin.Engine, *security.Tokens) {
	t.Helper()
	tokens := security.NewTokens(security.TokenConfig{Secret: "k", Issuer: "fashion-be", Audience: "web", TTL: time.Hour})
	authz := NewAuthz(tokens, users)

	r := gin.New()
	g := r.Group("/", authz.Authenticate())
	g.GET("/me", func(c *gin.Context) {
		a, _ := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": a.UserID})
	})
	g.GET("/admin", RequireRole(domain.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r, tokens
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthz(t *testing.T) {
	users := userMap{
		"u1": {ID: "u1", Role: domain.RoleUser},
		"a1": {ID: "a1", Role: domain.RoleAdmin},
		"b1": {ID: "b1", Role: domain.RoleUser, IsBlocked: true},
	}
	r, tokens := newAuthRouter(t, users)
	tok := func(id string, role domain.Role) string {
		s, err := tokens.Issue(id, role)
		require.NoError(t, err)
		return s
	}

	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", tok("ghost", domain.RoleUser)).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/me", tok("b1", domain.RoleUser)).Code)

	w := do(r, "/me", tok("u1", domain.RoleUser))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1"}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", tok("u1", domain.RoleUser)).Code)
	// role comes from the stored user, not the token
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", tok("u1", domain.RoleAdmin)).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", tok("a1", domain.RoleAdmin)).Code)
}
