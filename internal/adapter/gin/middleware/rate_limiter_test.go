package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func setupRouter(t *testing.T, rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/users", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func hit(r http.Handler, method, path, ip string) int {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_WithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{RequestsPerSecond: 10, BurstCapacity: 10, Enabled: true}, zaptest.NewLogger(t))
	r := setupRouter(t, rl)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "/users/1", "10.0.0.1"))
	}
}

func TestRateLimiter_ExceedLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{RequestsPerSecond: 0.001, BurstCapacity: 2, Enabled: true}, zaptest.NewLogger(t))
	r := setupRouter(t, rl)

	assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "/users/1", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "/users/2", "10.0.0.1"))

	req := httptest.NewRequest(http.MethodGet, "/users/3", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{RequestsPerSecond: 0.001, BurstCapacity: 1, Enabled: false}, zaptest.NewLogger(t))
	r := setupRouter(t, rl)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "/users/1", "10.0.0.1"))
	}
}

func TestRateLimiter_NilLimiter(t *testing.T) {
	var rl *RateLimiter
	r := setupRouter(t, rl)

	assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "/users/1", "10.0.0.1"))
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{RequestsPerSecond: 0.001, BurstCapacity: 1, Enabled: true}, zaptest.NewLogger(t))
	r := setupRouter(t, rl)

	assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "/users/1", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, http.MethodGet, "/users/1", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "/users/1", "10.0.0.2"))
}

func TestRateLimiter_DifferentRoutes(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{RequestsPerSecond: 0.001, BurstCapacity: 1, Enabled: true}, zaptest.NewLogger(t))
	r := setupRouter(t, rl)

	assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "/users/1", "10.0.0.1"))
	assert.Equal(t, http.StatusCreated, hit(r, http.MethodPost, "/users", "10.0.0.1"))

	assert.True(t, mr.Exists("ratelimit:tb:GET:/users/:id:10.0.0.1"))
	assert.True(t, mr.Exists("ratelimit:tb:POST:/users:10.0.0.1"))
}

func TestRateLimiter_FailOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{RequestsPerSecond: 0.001, BurstCapacity: 1, Enabled: true}, zaptest.NewLogger(t))
	r := setupRouter(t, rl)

	mr.Close()

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hit(r, http.MethodGet, "/users/1", "10.0.0.1"))
	}
}
