package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"blog-analyzer-backend/internal/analyses"
	"blog-analyzer-backend/internal/shared/config"
	"blog-analyzer-backend/internal/shared/metrics"
	"blog-analyzer-backend/internal/shared/server/middleware"
	"blog-analyzer-backend/internal/shared/server/respond"
)

const submitRateLimitGroup = "SUBMIT"

// RouterDeps collects what NewRouter wires into the engine.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *analyses.Handler
	Limiter         *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	cfg := deps.Config
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Session(cfg.IsProduction()),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/analyses" {
					return submitRateLimitGroup
				}
				return ""
			},
			Limiter: deps.Limiter,
			Rules: map[string]middleware.RateLimitRule{
				submitRateLimitGroup: {Rate: cfg.SubmitRateLimitRPS, Burst: cfg.SubmitRateLimitBurst},
			},
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "route not found", nil)
	})
	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
