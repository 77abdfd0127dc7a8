package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ginhandler "user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/adapter/gin/middleware"
	ginrouter "user-crud-service/internal/adapter/gin/router"
	"user-crud-service/internal/config"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	handler *ginhandler.UserHandler,
	rateLimiter *middleware.RateLimiter,
	cfg *config.Config,
	l *zap.Logger,
) *http.Server {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := ginrouter.SetupRouter(handler, ginrouter.Config{
		CORSAllowOrigins: cfg.App.CORSAllowOrigins,
		RateLimiter:      rateLimiter,
		SwaggerEnabled:   cfg.App.SwaggerEnabled,
	}, l)

	addr := ":" + cfg.App.HTTPPort
	l.Info("Gin REST API configured",
		zap.String("address", addr),
		zap.Bool("swagger", cfg.App.SwaggerEnabled),
		zap.Bool("rate_limit", rateLimiter != nil),
	)
	if cfg.App.SwaggerEnabled {
		l.Info("Swagger UI available at", zap.String("url", "http://localhost"+addr+"/swagger/index.html"))
	}

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
