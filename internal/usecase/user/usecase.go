package user

import (
	"context"

	"go.uber.org/zap"

	domain "user-crud-service/internal/domain/user"
	pkgerrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"
)

// NotFoundMessage is the fixed message returned when a user lookup misses.
const NotFoundMessage = "User not found"

// Repository defines the interface for user data access operations.
// Lookups that miss return a nil user and a nil error.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)                  // Insert and return with generated ID
	Get(ctx context.Context, id int64) (*domain.User, error)                           // Retrieve by ID
	GetAll(ctx context.Context) ([]domain.User, error)                                 // Retrieve all, ordered by ID
	Update(ctx context.Context, id int64, fields map[string]any) (*domain.User, error) // Apply a partial field-set
	Delete(ctx context.Context, id int64) (bool, error)                                // Remove, reporting whether it existed
}

// Option configures a UserUsecase.
type Option func(*UserUsecase)

// WithRejectEmptyUpdate controls whether an update without fields is a
// validation error (true) or a no-op returning the current user (false).
func WithRejectEmptyUpdate(reject bool) Option {
	return func(uc *UserUsecase) {
		uc.rejectEmptyUpdate = reject
	}
}

// UserUsecase implements the business logic for user management operations.
// It turns repository misses into NotFoundError so the transport layer only
// has to map errors to status codes.
type UserUsecase struct {
	repo              Repository  // Repository for data access
	log               *zap.Logger // Logger for structured logging
	rejectEmptyUpdate bool
}

// New creates a new UserUsecase. Empty updates are rejected unless
// WithRejectEmptyUpdate(false) is given.
func New(r Repository, log *zap.Logger, opts ...Option) *UserUsecase {
	uc := &UserUsecase{repo: r, log: log, rejectEmptyUpdate: true}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func notFound() error {
	return pkgerrors.NewNotFoundError("user", NotFoundMessage)
}

// CreateUser persists a new user and returns it with its generated ID.
func (uc *UserUsecase) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating user", zap.String("first_name", in.FirstName), zap.String("last_name", in.LastName))

	u, err := uc.repo.Create(ctx, &domain.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Age:       in.Age,
	})
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	log.Info("user created", zap.Int64("id", u.ID))
	return fromDomain(u), nil
}

// GetUser retrieves a user by ID.
func (uc *UserUsecase) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	u, err := uc.repo.Get(ctx, in.ID)
	if err != nil {
		log.Error("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to get user", err)
	}
	if u == nil {
		log.Debug("user not found", zap.Int64("id", in.ID))
		return nil, notFound()
	}

	return fromDomain(u), nil
}

// ListUsers returns every user. An empty store yields an empty, non-nil slice.
func (uc *UserUsecase) ListUsers(ctx context.Context) ([]User, error) {
	domainUsers, err := uc.repo.GetAll(ctx)
	if err != nil {
		logger.WithContext(ctx, uc.log).Error("failed to list users", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list users", err)
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = *fromDomain(&domainUsers[i])
	}
	return users, nil
}

// UpdateUser applies the partial field-set to an existing user.
func (uc *UserUsecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("updating user", zap.Int64("id", in.ID), zap.Int("fields", len(in.Fields)))

	if len(in.Fields) == 0 && uc.rejectEmptyUpdate {
		log.Warn("update rejected", zap.Int64("id", in.ID), zap.String("reason", "no fields"))
		return nil, pkgerrors.NewValidationError("", "no fields to update")
	}

	u, err := uc.repo.Update(ctx, in.ID, in.Fields)
	if err != nil {
		if pkgerrors.IsValidation(err) {
			log.Warn("update rejected", zap.Int64("id", in.ID), zap.Error(err))
			return nil, err
		}
		log.Error("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to update user", err)
	}
	if u == nil {
		return nil, notFound()
	}

	return fromDomain(u), nil
}

// DeleteUser permanently removes a user.
func (uc *UserUsecase) DeleteUser(ctx context.Context, in DeleteUserRequest) error {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting user", zap.Int64("id", in.ID))

	deleted, err := uc.repo.Delete(ctx, in.ID)
	if err != nil {
		log.Error("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		return pkgerrors.NewInternalError("failed to delete user", err)
	}
	if !deleted {
		return notFound()
	}

	return nil
}
