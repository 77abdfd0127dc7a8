package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-crud-service/internal/domain/user"
	"user-crud-service/internal/usecase/user"
	pkgerrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"
)

var registerTagNames sync.Once

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	registerTagNames.Do(useJSONFieldNames)
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// useJSONFieldNames makes validator report json names ("first_name")
// instead of Go field names in FieldError.Field.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// CreateUserRequest represents the HTTP request body for creating a user.
// Pointers distinguish a missing field from its zero value.
type CreateUserRequest struct {
	FirstName *string `json:"first_name" binding:"required"`
	LastName  *string `json:"last_name" binding:"required"`
	Age       *int    `json:"age" binding:"required"`
}

// UpdateUserRequest represents the HTTP request body for a partial update.
// Only the fields present in the body are applied.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Age       *int    `json:"age"`
}

// updatableFields are the body keys accepted by PATCH.
var updatableFields = map[string]struct{}{
	domain.FieldFirstName: {},
	domain.FieldLastName:  {},
	domain.FieldAge:       {},
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Age       int    `json:"age"`
}

// FieldError describes why a single request field was rejected.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

// CreateUser handles POST /api/users/
func (h *UserHandler) CreateUser(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid create user request", zap.Error(err))
		h.validationFailed(c, bindingDetails(err))
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		FirstName: *req.FirstName,
		LastName:  *req.LastName,
		Age:       *req.Age,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(resp))
}

// GetUser handles GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(resp))
}

// ListUsers handles GET /api/users/
func (h *UserHandler) ListUsers(c *gin.Context) {
	resp, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	users := make([]UserResponse, len(resp))
	for i := range resp {
		users[i] = toResponse(&resp[i])
	}

	c.JSON(http.StatusOK, users)
}

// UpdateUser handles PATCH /api/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	log := logger.WithContext(c.Request.Context(), h.log)

	var raw map[string]json.RawMessage
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		log.Warn("invalid update user request", zap.Int64("id", id), zap.Error(err))
		h.validationFailed(c, bindingDetails(err))
		return
	}
	if raw == nil {
		log.Warn("invalid update user request", zap.Int64("id", id), zap.String("reason", "null body"))
		h.validationFailed(c, []FieldError{{Field: "body", Message: "field required"}})
		return
	}
	if details := checkUpdateKeys(raw); len(details) > 0 {
		log.Warn("invalid update user request", zap.Int64("id", id), zap.Any("details", details))
		h.validationFailed(c, details)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		log.Warn("invalid update user request", zap.Int64("id", id), zap.Error(err))
		h.validationFailed(c, bindingDetails(err))
		return
	}

	resp, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:     id,
		Fields: req.fields(),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(resp))
}

// DeleteUser handles DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: id}); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// fields returns only the keys that were present in the body.
func (r UpdateUserRequest) fields() map[string]any {
	fields := make(map[string]any, 3)
	if r.FirstName != nil {
		fields[domain.FieldFirstName] = *r.FirstName
	}
	if r.LastName != nil {
		fields[domain.FieldLastName] = *r.LastName
	}
	if r.Age != nil {
		fields[domain.FieldAge] = *r.Age
	}
	return fields
}

// checkUpdateKeys rejects keys outside the updatable set and explicit nulls.
func checkUpdateKeys(raw map[string]json.RawMessage) []FieldError {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var details []FieldError
	for _, k := range keys {
		if _, ok := updatableFields[k]; !ok {
			details = append(details, FieldError{Field: k, Message: "extra fields not permitted"})
			continue
		}
		if string(raw[k]) == "null" {
			details = append(details, FieldError{Field: k, Message: "none is not an allowed value"})
		}
	}
	return details
}

func (h *UserHandler) pathID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid user ID", zap.String("id", idStr), zap.Error(err))
		h.validationFailed(c, []FieldError{{Field: "id", Message: "value is not a valid integer"}})
		return 0, false
	}
	return id, true
}

func (h *UserHandler) validationFailed(c *gin.Context, details []FieldError) {
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_error",
		Message: "Request validation failed",
		Details: details,
	})
}

// bindingDetails turns a gin binding error into per-field details.
func bindingDetails(err error) []FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return details
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return []FieldError{{Field: field, Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value)}}
	}

	return []FieldError{{Field: "body", Message: "invalid JSON body"}}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}

// handleError converts usecase errors to appropriate HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	status := pkgerrors.StatusOf(err)
	log := logger.WithContext(c.Request.Context(), h.log)

	var (
		nf *pkgerrors.NotFoundError
		ve *pkgerrors.ValidationError
	)
	switch {
	case errors.As(err, &nf):
		c.JSON(status, ErrorResponse{Error: "not_found", Message: nf.Error()})
	case errors.As(err, &ve):
		resp := ErrorResponse{Error: "bad_request", Message: ve.Message}
		if ve.Field != "" {
			resp.Details = []FieldError{{Field: ve.Field, Message: ve.Message}}
		}
		c.JSON(status, resp)
	default:
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

func toResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
	}
}
