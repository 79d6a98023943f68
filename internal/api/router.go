// Package api assembles the HTTP router: middleware chain, versioned routes,
// health check, and the metrics endpoint.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	goalsapi "github.com/dailyone-app/dailyone-backend/internal/api/goals"
	"github.com/dailyone-app/dailyone-backend/internal/api/middleware"
	rankapi "github.com/dailyone-app/dailyone-backend/internal/api/rank"
	reflectionsapi "github.com/dailyone-app/dailyone-backend/internal/api/reflections"
	usersapi "github.com/dailyone-app/dailyone-backend/internal/api/users"
	"github.com/dailyone-app/dailyone-backend/internal/cache"
	"github.com/dailyone-app/dailyone-backend/internal/config"
	"github.com/dailyone-app/dailyone-backend/internal/repository"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// Handlers bundles the resource handlers wired into the router.
type Handlers struct {
	Users       *usersapi.Handler
	Goals       *goalsapi.Handler
	Reflections *reflectionsapi.Handler
	Rank        *rankapi.Handler
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(
	cfg *config.Config,
	handlers Handlers,
	userResolver middleware.UserResolver,
	db *repository.DB,
	c cache.Cache,
	log *logger.Logger,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	router.GET("/healthz", healthCheck(db, c))
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	authenticated := router.Group("/api/v1")
	authenticated.Use(middleware.Authenticate(cfg.Auth.JWTSecret, log))

	// User bootstrap only needs a valid token, not an existing user row.
	authenticated.POST("/users/sync", handlers.Users.Sync)
	authenticated.GET("/reflection-options", handlers.Reflections.Options)

	registered := authenticated.Group("")
	registered.Use(middleware.RequireUser(userResolver, log))

	registered.POST("/goals", handlers.Goals.Create)
	registered.GET("/goals/current", handlers.Goals.Current)
	registered.PATCH("/goals/:id/text", handlers.Goals.UpdateText)
	registered.POST("/goals/:id/commit", handlers.Goals.Commit)
	registered.POST("/goals/:id/reset", handlers.Goals.Reset)
	registered.DELETE("/goals/:id", handlers.Goals.Delete)
	registered.POST("/goals/:id/reflection", handlers.Reflections.Reflect)

	registered.PATCH("/reflections/:id", handlers.Reflections.Update)
	registered.GET("/reflections/recent", handlers.Reflections.Recent)

	registered.GET("/rank", handlers.Rank.GetRank)
	registered.GET("/scores/today", handlers.Rank.GetTodayScore)
	registered.GET("/scores/week", handlers.Rank.GetWeekScore)

	return router
}

// requestLogger logs each request with method, path, status, and latency.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}

// healthCheck reports database and cache connectivity.
func healthCheck(db *repository.DB, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := http.StatusOK
		checks := gin.H{"database": "ok", "cache": "ok"}

		if err := db.Health(); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := c.Health(ctx.Request.Context()); err != nil {
			checks["cache"] = err.Error()
			status = http.StatusServiceUnavailable
		}

		ctx.JSON(status, gin.H{
			"status": http.StatusText(status),
			"checks": checks,
		})
	}
}
