package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"majji-market/internal/service"
)

// OAuthHandler expone el login federado y el hand-off de la sesion al cliente.
type OAuthHandler struct {
	logger *zap.Logger
	oauth  *service.OAuthService
}

func NewOAuthHandler(logger *zap.Logger, oauth *service.OAuthService) *OAuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OAuthHandler{logger: logger, oauth: oauth}
}

// Start maneja GET /auth/oauth/:provider/start.
func (h *OAuthHandler) Start(c *gin.Context) {
	url, state, err := h.oauth.Start(c.Request.Context(), c.Param("provider"))
	if err != nil {
		if errors.Is(err, service.ErrOAuthProviderUnknown) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("oauth start failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start sign-in"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "state": state})
}

// Callback maneja GET /auth/oauth/:provider/callback.
func (h *OAuthHandler) Callback(c *gin.Context) {
	if denied := c.Query("error"); denied != "" {
		h.logger.Info("oauth denied by user", zap.String("reason", denied))
		c.JSON(http.StatusBadRequest, gin.H{"error": "sign-in cancelled"})
		return
	}

	user, err := h.oauth.Complete(c.Request.Context(), c.Param("provider"), c.Query("state"), c.Query("code"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOAuthProviderUnknown):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrOAuthStateInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrOAuthInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "could not verify provider identity"})
		default:
			h.logger.Error("oauth callback failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not complete sign-in"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "signed_in",
		"email":   user.Email,
		"message": "You can return to the app.",
	})
}

// Handoff maneja GET /auth/oauth/handoff: entrega la sesion una sola vez.
func (h *OAuthHandler) Handoff(c *gin.Context) {
	user, tokens, err := h.oauth.Handoff(c.Request.Context(), c.Query("state"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrHandoffPending):
			c.JSON(http.StatusAccepted, gin.H{"status": "pending"})
		case errors.Is(err, service.ErrOAuthStateInvalid), errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown sign-in state"})
		default:
			h.logger.Error("oauth handoff failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hand off session"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user), "tokens": tokens})
}
