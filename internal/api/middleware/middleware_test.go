package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func serve(router *gin.Engine, method, ip, origin string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/test", nil)
	req.RemoteAddr = ip + ":4242"
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	router := setupTestRouter()
	router.Use(CORS(DefaultCORSConfig()))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("dashboard GET", func(t *testing.T) {
		w := serve(router, http.MethodGet, "10.0.0.1", "http://localhost:3000", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t,
			strings.ToLower(RequestIDHeader),
			strings.ToLower(w.Header().Get("Access-Control-Expose-Headers")))
	})

	t.Run("preflight only offers read methods", func(t *testing.T) {
		w := serve(router, http.MethodOptions, "10.0.0.1", "http://localhost:3000", http.Header{
			"Access-Control-Request-Method": {"GET"},
		})

		assert.Equal(t, http.StatusNoContent, w.Code)
		methods := w.Header().Get("Access-Control-Allow-Methods")
		assert.Contains(t, methods, "GET")
		assert.NotContains(t, methods, "POST")
		assert.NotContains(t, methods, "DELETE")
	})

	t.Run("no origin", func(t *testing.T) {
		w := serve(router, http.MethodGet, "10.0.0.1", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORSRestrictedOrigins(t *testing.T) {
	router := setupTestRouter()
	router.Use(CORS(CORSConfig{
		AllowOrigins: []string{"https://mission.example.com"},
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       time.Hour,
	}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	allowed := serve(router, http.MethodGet, "10.0.0.1", "https://mission.example.com", nil)
	assert.Equal(t, http.StatusOK, allowed.Code)
	assert.Equal(t, "https://mission.example.com", allowed.Header().Get("Access-Control-Allow-Origin"))

	denied := serve(router, http.MethodGet, "10.0.0.1", "https://elsewhere.example.com", nil)
	assert.Equal(t, http.StatusForbidden, denied.Code)
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name  string
		burst int
		ips   []string
		want  []int
	}{
		{
			name:  "burst then reject",
			burst: 2,
			ips:   []string{"192.168.1.1", "192.168.1.1", "192.168.1.1"},
			want:  []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests},
		},
		{
			name:  "clients are limited separately",
			burst: 1,
			ips:   []string{"192.168.1.1", "192.168.1.2", "192.168.1.1", "192.168.1.2"},
			want:  []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: tt.burst}))
			router.GET("/test", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			for i, ip := range tt.ips {
				w := serve(router, http.MethodGet, ip, "", nil)
				assert.Equal(t, tt.want[i], w.Code, "request %d from %s", i+1, ip)
			}
		})
	}
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()

	assert.Equal(t, []string{"*"}, cfg.AllowOrigins)
	assert.ElementsMatch(t, []string{"GET", "OPTIONS"}, cfg.AllowMethods)
	assert.Contains(t, cfg.AllowHeaders, RequestIDHeader)
	assert.Equal(t, 12*time.Hour, cfg.MaxAge)
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()

	assert.Equal(t, 100, cfg.RequestsPerSecond)
	assert.Equal(t, 200, cfg.Burst)
	assert.Equal(t, 5*time.Minute, cfg.IdleTTL)
}

func TestRateLimitForgetsIdleClients(t *testing.T) {
	router := setupTestRouter()
	router.Use(RateLimit(RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             1,
		IdleTTL:           20 * time.Millisecond,
	}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(ip string) int {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))

	time.Sleep(50 * time.Millisecond)

	// The sweep runs on the next request; a forgotten client starts with a fresh burst
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
}

func TestRequestID(t *testing.T) {
	router := setupTestRouter()
	router.Use(RequestID(nil))

	var seen string
	router.GET("/test", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	t.Run("generated", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		got := w.Header().Get(RequestIDHeader)
		assert.True(t, strings.HasPrefix(got, "req_"))
		assert.Equal(t, got, seen)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "upstream-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "upstream-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "upstream-123", seen)
	})

	t.Run("oversized replaced", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 100))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.True(t, strings.HasPrefix(w.Header().Get(RequestIDHeader), "req_"))
	})
}

func BenchmarkCORS(b *testing.B) {
	router := setupTestRouter()
	router.Use(CORS(DefaultCORSConfig()))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

func BenchmarkRateLimit(b *testing.B) {
	router := setupTestRouter()
	router.Use(RateLimit(DefaultRateLimitConfig()))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.1:1234"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}
