package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thaijunny/fashion-be/internal/adapter/http/middleware"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

type AuthHandler struct {
	auth *usecase.Auth
}

func NewAuthHandler(auth *usecase.Auth) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResp struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    userResp `json:"user"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if !bind(c, &req) {
		return
	}
	res, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Email: req.Email, Password: req.Password, FullName: req.FullName,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, authResp{Success: true, Token: res.Token, User: toUserResp(res.User)})
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if !bind(c, &req) {
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResp{Success: true, Token: res.Token, User: toUserResp(res.User)})
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	u, ok := middleware.UserFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResp{Message: "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, toUserResp(u))
}
