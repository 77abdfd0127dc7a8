package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"user-crud-service/internal/adapter/db/crud"
	"user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/usecase/user"
	"user-crud-service/pkg/logger"
)

func setupRouter(t *testing.T, opts ...user.Option) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)

	dsn := filepath.Join(t.TempDir(), "users.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo, err := crud.NewUserCRUD(db, log)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(context.Background()))

	uc := user.New(repo, log, opts...)
	return SetupRouter(handler.NewUserHandler(uc, log), Config{
		CORSAllowOrigins: []string{"*"},
		SwaggerEnabled:   true,
	}, log)
}

func call(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeUser(t *testing.T, w *httptest.ResponseRecorder) handler.UserResponse {
	t.Helper()
	var u handler.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	return u
}

func TestUserLifecycle(t *testing.T) {
	r := setupRouter(t)

	w := call(t, r, http.MethodPost, "/api/users/", `{"first_name":"John","last_name":"Doe","age":30}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeUser(t, w)
	require.NotZero(t, created.ID)
	path := fmt.Sprintf("/api/users/%d", created.ID)

	w = call(t, r, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decodeUser(t, w))

	w = call(t, r, http.MethodPatch, path, `{"age":31}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handler.UserResponse{ID: created.ID, FirstName: "John", LastName: "Doe", Age: 31}, decodeUser(t, w))

	w = call(t, r, http.MethodPatch, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, r, http.MethodDelete, path, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = call(t, r, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"User not found"}`, w.Body.String())

	w = call(t, r, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(t, r, http.MethodPatch, path, `{"age":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsers(t *testing.T) {
	r := setupRouter(t)

	for _, p := range []string{"/api/users", "/api/users/"} {
		w := call(t, r, http.MethodGet, p, "")
		require.Equal(t, http.StatusOK, w.Code, p)
		assert.JSONEq(t, `[]`, w.Body.String())
	}

	call(t, r, http.MethodPost, "/api/users", `{"first_name":"John","last_name":"Doe","age":30}`)
	call(t, r, http.MethodPost, "/api/users", `{"first_name":"Jane","last_name":"Roe","age":25}`)

	w := call(t, r, http.MethodGet, "/api/users/", "")
	require.Equal(t, http.StatusOK, w.Code)

	var users []handler.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Less(t, users[0].ID, users[1].ID)
	assert.Equal(t, "Jane", users[1].FirstName)
}

func TestEmptyUpdateAllowed(t *testing.T) {
	r := setupRouter(t, user.WithRejectEmptyUpdate(false))

	w := call(t, r, http.MethodPost, "/api/users/", `{"first_name":"John","last_name":"Doe","age":30}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeUser(t, w)

	w = call(t, r, http.MethodPatch, fmt.Sprintf("/api/users/%d", created.ID), `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decodeUser(t, w))
}

func TestValidation(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"create missing field", http.MethodPost, "/api/users/", `{"first_name":"John"}`},
		{"create wrong type", http.MethodPost, "/api/users/", `{"first_name":"John","last_name":"Doe","age":"x"}`},
		{"get bad id", http.MethodGet, "/api/users/abc", ""},
		{"update unknown field", http.MethodPatch, "/api/users/1", `{"email":"a@b.c"}`},
		{"update null", http.MethodPatch, "/api/users/1", `{"age":null}`},
		{"update null body", http.MethodPatch, "/api/users/1", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

			var resp handler.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "validation_error", resp.Error)
			assert.NotEmpty(t, resp.Details)
		})
	}
}

func TestHealthAndDocs(t *testing.T) {
	r := setupRouter(t)

	w := call(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(logger.RequestIDHeader))

	w = call(t, r, http.MethodGet, "/openapi.json", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "2.0", doc["swagger"])

	w = call(t, r, http.MethodGet, "/swagger/index.html", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
