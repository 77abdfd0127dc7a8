package di

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-crud-service/cmd/api/infrastructure"
	"user-crud-service/internal/adapter/db/crud"
	ginhandler "user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/adapter/gin/middleware"
	"user-crud-service/internal/config"
	"user-crud-service/internal/usecase/user"
	redisclient "user-crud-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client // nil unless rate limiting is enabled
	UserRepo    *crud.UserCRUD
	UserUC      user.Usecase
	RateLimiter *middleware.RateLimiter // nil unless rate limiting is enabled
	GinHandler  *ginhandler.UserHandler
}

// NewContainer creates and initializes all application dependencies. The
// users table is created if it does not exist yet.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (_ *Container, err error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	c.DB, err = infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	c.UserRepo, err = crud.NewUserCRUD(c.DB, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize user repository: %w", err)
	}
	if err := c.UserRepo.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	c.UserUC = user.New(c.UserRepo, l, user.WithRejectEmptyUpdate(cfg.User.RejectEmptyUpdate))

	if cfg.RateLimit.Enabled {
		c.RedisClient, err = infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}

		c.RateLimiter = middleware.NewRateLimiter(
			c.RedisClient.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
				Enabled:           cfg.RateLimit.Enabled,
			},
			l,
		)
	}

	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
