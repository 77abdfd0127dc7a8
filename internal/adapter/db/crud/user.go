package crud

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-crud-service/internal/domain/user"
)

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	FirstName string `gorm:"not null"`
	LastName  string `gorm:"not null"`
	Age       int    `gorm:"not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// UserCRUD binds Base to the users table and speaks domain users.
// The application builds one and shares it across all requests.
type UserCRUD struct {
	base *Base[UserSchema]
}

// NewUserCRUD creates the users repository.
func NewUserCRUD(db *gorm.DB, log *zap.Logger) (*UserCRUD, error) {
	base, err := NewBase[UserSchema](db, log)
	if err != nil {
		return nil, err
	}
	return &UserCRUD{base: base}, nil
}

// Migrate creates the users table if it is missing.
func (r *UserCRUD) Migrate(ctx context.Context) error {
	return r.base.Migrate(ctx)
}

// Create inserts u and returns it with its generated ID.
func (r *UserCRUD) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	model := UserSchema{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
	}

	created, err := r.base.Create(ctx, &model)
	if err != nil {
		return nil, err
	}
	return toDomain(created), nil
}

// Get returns the user with the given ID, or nil if there is none.
func (r *UserCRUD) Get(ctx context.Context, id int64) (*user.User, error) {
	model, err := r.base.Get(ctx, id)
	if err != nil || model == nil {
		return nil, err
	}
	return toDomain(model), nil
}

// GetAll returns every user ordered by ID.
func (r *UserCRUD) GetAll(ctx context.Context) ([]user.User, error) {
	models, err := r.base.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]user.User, len(models))
	for i := range models {
		users[i] = *toDomain(&models[i])
	}
	return users, nil
}

// Update applies the partial field-set and returns the updated user, or nil
// if there is none.
func (r *UserCRUD) Update(ctx context.Context, id int64, fields map[string]any) (*user.User, error) {
	model, err := r.base.Update(ctx, id, fields)
	if err != nil || model == nil {
		return nil, err
	}
	return toDomain(model), nil
}

// Delete removes the user and reports whether it existed.
func (r *UserCRUD) Delete(ctx context.Context, id int64) (bool, error) {
	return r.base.Delete(ctx, id)
}

func toDomain(m *UserSchema) *user.User {
	return &user.User{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Age:       m.Age,
	}
}
