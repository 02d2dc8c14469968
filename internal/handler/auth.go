package handler

import (
	"errors"
	"net/http"

	"aira/internal/model"
	"aira/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler handles wallet sign-in
type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: orNop(logger)}
}

// Nonce handles GET /api/v1/auth/nonce
func (h *AuthHandler) Nonce(c *gin.Context) {
	nonce, err := h.auth.GenerateNonce(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to issue nonce", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate nonce"})
		return
	}
	c.JSON(http.StatusOK, model.NonceResponse{Nonce: nonce})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Message, req.Signature)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": service.UnauthorizedMessage})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	c.JSON(http.StatusOK, model.LoginResponse{AccessToken: token})
}

// Profile handles GET /api/v1/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	profile, ok := ProfileFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
