package router

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"user-crud-service/internal/adapter/db/crud"
	"user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/usecase/user"
)

func setupBenchmarkRouter(b *testing.B) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	log := zap.NewNop()

	db, err := gorm.Open(sqlite.Open(filepath.Join(b.TempDir(), "bench.db")), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo, err := crud.NewUserCRUD(db, log)
	if err != nil {
		b.Fatal(err)
	}
	if err := repo.Migrate(context.Background()); err != nil {
		b.Fatal(err)
	}

	return SetupRouter(handler.NewUserHandler(user.New(repo, log), log), Config{}, log)
}

func benchRequest(b *testing.B, r http.Handler, method, path, body string, want int) {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != want {
		b.Fatalf("%s %s: status %d, want %d: %s", method, path, w.Code, want, w.Body.String())
	}
}

func BenchmarkGin_CreateUser(b *testing.B) {
	r := setupBenchmarkRouter(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchRequest(b, r, http.MethodPost, "/api/users/", `{"first_name":"John","last_name":"Doe","age":30}`, http.StatusCreated)
	}
}

func BenchmarkGin_GetUser(b *testing.B) {
	r := setupBenchmarkRouter(b)
	benchRequest(b, r, http.MethodPost, "/api/users/", `{"first_name":"John","last_name":"Doe","age":30}`, http.StatusCreated)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchRequest(b, r, http.MethodGet, "/api/users/1", "", http.StatusOK)
	}
}

func BenchmarkGin_UpdateUser(b *testing.B) {
	r := setupBenchmarkRouter(b)
	benchRequest(b, r, http.MethodPost, "/api/users/", `{"first_name":"John","last_name":"Doe","age":30}`, http.StatusCreated)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchRequest(b, r, http.MethodPatch, "/api/users/1", fmt.Sprintf(`{"age":%d}`, i%120), http.StatusOK)
	}
}

func BenchmarkGin_ListUsers(b *testing.B) {
	r := setupBenchmarkRouter(b)
	for i := 0; i < 100; i++ {
		benchRequest(b, r, http.MethodPost, "/api/users/", `{"first_name":"John","last_name":"Doe","age":30}`, http.StatusCreated)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchRequest(b, r, http.MethodGet, "/api/users/", "", http.StatusOK)
	}
}
