package api

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

const swaggerFile = "roombooking.swagger.json"

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Tokens      TokenParser
	Logger      logrus.FieldLogger
	RateLimiter *RateLimiter
	SwaggerDir  string
	Health      map[string]HealthCheck

	Catalog   *CatalogHandler
	Bookings  *BookingHandler
	Revisions *RevisionHandler
	Activity  *ActivityHandler
	Sessions  *SessionHandler
	Users     *UserHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Logger != nil {
		router.Use(AccessLog(cfg.Logger))
	}
	if cfg.RateLimiter != nil {
		router.Use(cfg.RateLimiter.Middleware())
	}

	router.GET("/health", health(cfg.Health))

	if cfg.SwaggerDir != "" {
		router.GET("/docs/openapi.json", func(c *gin.Context) {
			c.File(filepath.Join(cfg.SwaggerDir, swaggerFile))
		})
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/docs/openapi.json"))))
	}

	public := router.Group("/api")
	if cfg.Sessions != nil {
		cfg.Sessions.RegisterPublic(public.Group("/auth"))
	}

	secured := router.Group("/api", Authenticate(cfg.Tokens))
	if cfg.Sessions != nil {
		cfg.Sessions.Register(secured.Group("/auth"))
	}
	if cfg.Catalog != nil {
		cfg.Catalog.Register(secured)
	}
	if cfg.Bookings != nil {
		cfg.Bookings.Register(secured.Group("/bookings"))
	}
	if cfg.Revisions != nil {
		cfg.Revisions.Register(secured.Group("/revision-requests"))
	}
	if cfg.Activity != nil {
		cfg.Activity.Register(secured.Group("/activity-logs"))
	}
	if cfg.Users != nil {
		cfg.Users.Register(secured.Group("/users"))
	}
	return router
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}
