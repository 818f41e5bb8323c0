package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/article-threads-api/internal/auth"
	"github.com/article-threads-api/internal/config"
	"github.com/article-threads-api/internal/metrics"
	"github.com/article-threads-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const serviceName = "article-threads-api"

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies are the collaborators the router wires into handlers
type Dependencies struct {
	Services *service.Services
	Resolver auth.Resolver
	// Redis backs the rate limiter; nil disables limiting
	Redis *redis.Client
	// DB is probed by /healthz; nil skips the check
	DB HealthChecker
}

// NewRouter creates and configures the Gin router
func NewRouter(deps Dependencies, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = cfg.Storage.MaxUploadSize

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.CORS.Origins))
	router.Use(auth.Optional(deps.Resolver))
	router.Use(rateLimitMiddleware(deps.Redis, cfg.RateLimit, log))

	// Handlers
	articleHandler := NewArticleHandler(deps.Services, log)
	commentHandler := NewCommentHandler(deps.Services, log)
	requireAuth := auth.Required(deps.Resolver)

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/healthz", readinessCheck(deps.DB, deps.Redis))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.Storage.Provider == "local" {
		router.Static("/uploads", cfg.Storage.UploadDir)
	}

	articles := router.Group("/api/articles")
	{
		articles.GET("", requireAuth, articleHandler.ListArticles)
		articles.POST("", requireAuth, articleHandler.CreateArticle)
		articles.GET("/:id", articleHandler.GetArticle)
		articles.PUT("/:id", requireAuth, articleHandler.UpdateArticle)
		articles.DELETE("/:id", requireAuth, articleHandler.DeleteArticle)

		// Comment endpoints
		articles.GET("/:id/comments", commentHandler.ListComments)
		articles.POST("/:id/comments", requireAuth, commentHandler.CreateComment)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})

	return router
}

// healthCheck reports that the process is up
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   serviceName,
	})
}

// readinessCheck pings the database and Redis. A database failure makes the
// instance unready; Redis is optional and only reported.
func readinessCheck(db HealthChecker, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		checks := gin.H{"database": "disabled", "redis": "disabled"}

		if db != nil {
			checks["database"] = "ok"
			if err := db.HealthCheck(ctx); err != nil {
				checks["database"] = "down"
				status, code = "unavailable", http.StatusServiceUnavailable
			}
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				metrics.RedisErrors.WithLabelValues("ping").Inc()
				checks["redis"] = "down"
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   serviceName,
			"checks":    checks,
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests and records request metrics
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(statusCode)).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(duration.Seconds())

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware allows the configured origins with credentials. Requests
// without an Origin header pass; an empty list allows every origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		if len(allowed) > 0 && !allowed[origin] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CORS policy: origin not allowed"})
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
