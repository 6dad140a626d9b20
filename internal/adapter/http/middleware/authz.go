package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/security"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

const (
	actorKey = "actor"
	userKey  = "user"
)

type TokenParser interface {
	Parse(raw string) (*security.Claims, error)
}

type UserAuthenticator interface {
	Authenticate(ctx context.Context, userID string) (*domain.User, error)
}

type Authz struct {
	tokens TokenParser
	users  UserAuthenticator
}

func NewAuthz(tokens TokenParser, users UserAuthenticator) *Authz {
	return &Authz{tokens: tokens, users: users}
}

// Authenticate verifies the bearer token and reloads the user, so role
// changes and blocks apply to tokens already issued.
func (a *Authz) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}

		claims, err := a.tokens.Parse(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			unauth(c, "invalid_token", "invalid or expired token")
			return
		}

		u, err := a.users.Authenticate(c.Request.Context(), claims.Subject)
		switch {
		case errors.Is(err, usecase.ErrForbidden):
			forbidden(c, "account_blocked", "account is blocked")
			return
		case errors.Is(err, usecase.ErrNotFound):
			unauth(c, "invalid_token", "user no longer exists")
			return
		case err != nil:
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
			return
		}

		c.Set(userKey, u)
		c.Set(actorKey, usecase.Actor{UserID: u.ID, Role: u.Role})
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || actor.Role != role {
			forbidden(c, "insufficient_role", "requires role "+string(role))
			return
		}
		c.Next()
	}
}

func ActorFrom(c *gin.Context) (usecase.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return usecase.Actor{}, false
	}
	a, ok := v.(usecase.Actor)
	return a, ok
}

func UserFrom(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}

func unauth(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": code, "message": desc})
}

func forbidden(c *gin.Context, code, desc string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": code, "message": desc})
}
