package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"user-crud-service/api"
	"user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/adapter/gin/middleware"
	"user-crud-service/pkg/logger"
)

// Config controls the optional parts of the router.
type Config struct {
	CORSAllowOrigins []string
	RateLimiter      *middleware.RateLimiter // nil disables rate limiting
	SwaggerEnabled   bool
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(userHandler *handler.UserHandler, cfg Config, log *zap.Logger) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(logger.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORSAllowOrigins))
	router.Use(cfg.RateLimiter.Middleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	if cfg.SwaggerEnabled {
		router.GET("/openapi.json", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json; charset=utf-8", api.OpenAPI)
		})
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/openapi.json"),
		)))
	}

	// Both "/api/users" and "/api/users/" serve the collection without a redirect.
	router.RedirectTrailingSlash = false
	users := router.Group("/api/users")
	{
		users.POST("", userHandler.CreateUser)
		users.POST("/", userHandler.CreateUser)
		users.GET("", userHandler.ListUsers)
		users.GET("/", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PATCH("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	return router
}
