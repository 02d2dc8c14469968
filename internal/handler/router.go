package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildInfo is reported by /health and /version
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// Handlers groups the route handlers mounted by NewRouter
type Handlers struct {
	Advisor  *AdvisorHandler
	Chat     *ChatHandler
	Property *PropertyHandler
	Auth     *AuthHandler
}

// NewRouter wires middleware and routes
func NewRouter(h Handlers, tokens TokenParser, allowedOrigins string, info BuildInfo, logger *zap.Logger) *gin.Engine {
	logger = orNop(logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitOrigins(allowedOrigins)
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", requestIDHeader}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "aira-backend",
			"version":    info.Version,
			"build_time": info.BuildTime,
			"git_commit": info.GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    info.Version,
			"build_time": info.BuildTime,
			"git_commit": info.GitCommit,
		})
	})

	requireAuth := RequireAuth(tokens)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/advisor", h.Advisor.Advise)
		apiV1.POST("/chat", h.Chat.Chat)

		// Property endpoints
		apiV1.GET("/properties", h.Property.List)
		apiV1.GET("/properties/:id", h.Property.Get)
		apiV1.GET("/properties/:id/similar", h.Property.Similar)
		apiV1.POST("/properties/upload", requireAuth, h.Property.Upload)
		apiV1.POST("/properties/add", requireAuth, h.Property.Add)

		// Wallet login
		apiV1.GET("/auth/nonce", h.Auth.Nonce)
		apiV1.POST("/auth/login", h.Auth.Login)
		apiV1.GET("/profile", requireAuth, h.Auth.Profile)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router
}

// splitOrigins turns "a, b" into ["a", "b"]; empty means any origin
func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
