package user

import domain "user-crud-service/internal/domain/user"

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	FirstName string
	LastName  string
	Age       int
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// UpdateUserRequest carries the partial field-set for an update. Fields is
// keyed by column name; keys that are absent are left untouched.
type UpdateUserRequest struct {
	ID     int64
	Fields map[string]any
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Age       int
}

func fromDomain(u *domain.User) *User {
	return &User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
	}
}
