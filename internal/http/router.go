package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"majji-market/internal/service"
)

// Pinger reporta si una dependencia responde.
type Pinger func(ctx context.Context) error

// NewRouter configura el router de Gin con middlewares y rutas de autenticacion.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	userH *UserHandler,
	oauthH *OAuthHandler,
	health Pinger,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", healthHandler(health))

	auth := r.Group("/auth")
	auth.POST("/sign-up", userH.SignUp)
	auth.POST("/sign-in", userH.SignIn)
	auth.POST("/refresh", userH.RefreshToken)
	auth.POST("/sign-out", userH.SignOut)
	auth.POST("/otp/request", userH.RequestOTP)
	auth.POST("/otp/verify", userH.VerifyOTP)

	protected := auth.Group("", JWTAuthMiddleware(jwtSvc))
	protected.GET("/session", userH.Session)
	protected.POST("/update-profile", userH.UpdateProfile)

	if oauthH != nil {
		auth.GET("/oauth/handoff", oauthH.Handoff)
		auth.GET("/oauth/:provider/start", oauthH.Start)
		auth.GET("/oauth/:provider/callback", oauthH.Callback)
	}

	return r
}

func healthHandler(ping Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
