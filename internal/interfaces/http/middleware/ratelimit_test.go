package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func limitedRouter(mw gin.HandlerFunc, method, path string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.Handle(method, path, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func hit(router *gin.Engine, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		rl := NewRateLimiter(3, time.Minute)
		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow("warehouse-a"), "request %d should pass", i+1)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		rl := NewRateLimiter(2, time.Minute)
		assert.True(t, rl.Allow("warehouse-a"))
		assert.True(t, rl.Allow("warehouse-a"))
		assert.False(t, rl.Allow("warehouse-a"))
	})

	t.Run("tracks keys independently", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Minute)
		assert.True(t, rl.Allow("warehouse-a"))
		assert.False(t, rl.Allow("warehouse-a"))
		assert.True(t, rl.Allow("warehouse-b"))
	})

	t.Run("window reset restores tokens", func(t *testing.T) {
		rl := NewRateLimiter(1, 30*time.Millisecond)
		assert.True(t, rl.Allow("warehouse-a"))
		assert.False(t, rl.Allow("warehouse-a"))

		time.Sleep(50 * time.Millisecond)
		assert.True(t, rl.Allow("warehouse-a"))
	})

	t.Run("remaining reflects consumption", func(t *testing.T) {
		rl := NewRateLimiter(3, time.Minute)
		assert.Equal(t, 3, rl.Remaining("warehouse-a"))

		rl.Allow("warehouse-a")
		assert.Equal(t, 2, rl.Remaining("warehouse-a"))

		rl.Allow("warehouse-a")
		rl.Allow("warehouse-a")
		assert.Equal(t, 0, rl.Remaining("warehouse-a"))
	})

	t.Run("concurrent access admits exactly the limit", func(t *testing.T) {
		rl := NewRateLimiter(100, time.Minute)

		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0

		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if rl.Allow("shared") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 100, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("passes requests under the limit through", func(t *testing.T) {
		router := limitedRouter(RateLimit(NewRateLimiter(5, time.Minute)), "GET", "/api/v1/ledger/records")

		for i := 0; i < 5; i++ {
			w := hit(router, "GET", "/api/v1/ledger/records", "10.0.0.5:40000")
			assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		}
	})

	t.Run("rejects with 429 and envelope once exhausted", func(t *testing.T) {
		router := limitedRouter(RateLimit(NewRateLimiter(1, time.Minute)), "GET", "/api/v1/ledger/records")

		assert.Equal(t, http.StatusOK, hit(router, "GET", "/api/v1/ledger/records", "10.0.0.5:40000").Code)

		w := hit(router, "GET", "/api/v1/ledger/records", "10.0.0.5:40000")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
	})

	t.Run("sets rate limit headers on allowed requests", func(t *testing.T) {
		router := limitedRouter(RateLimit(NewRateLimiter(10, time.Minute)), "GET", "/api/v1/ledger/records")

		w := hit(router, "GET", "/api/v1/ledger/records", "10.0.0.5:40000")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("scopes the key to the authenticated user", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		limiter := NewRateLimiter(1, time.Minute)
		router := gin.New()
		router.Use(func(c *gin.Context) {
			if uid := c.GetHeader("X-Test-User"); uid != "" {
				c.Set(JWTUserIDKey, uid)
			}
			c.Next()
		})
		router.Use(RateLimit(limiter))
		router.GET("/api/v1/orders", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})

		serve := func(user string) int {
			req := httptest.NewRequest("GET", "/api/v1/orders", nil)
			req.RemoteAddr = "10.0.0.5:40000"
			if user != "" {
				req.Header.Set("X-Test-User", user)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w.Code
		}

		assert.Equal(t, http.StatusOK, serve("buyer-1"))
		assert.Equal(t, http.StatusTooManyRequests, serve("buyer-1"))

		// Same IP, different user: separate bucket.
		assert.Equal(t, http.StatusOK, serve("buyer-2"))
	})
}

func TestRateLimitByKey(t *testing.T) {
	t.Run("limits using the extracted key", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		mw := RateLimitByKey(limiter, func(c *gin.Context) string {
			return c.GetHeader("X-Warehouse-ID")
		})

		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(mw)
		router.POST("/api/v1/ledger/receive", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})

		serve := func(warehouse string) int {
			req := httptest.NewRequest("POST", "/api/v1/ledger/receive", nil)
			req.Header.Set("X-Warehouse-ID", warehouse)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w.Code
		}

		assert.Equal(t, http.StatusOK, serve("wh-east"))
		assert.Equal(t, http.StatusTooManyRequests, serve("wh-east"))
		assert.Equal(t, http.StatusOK, serve("wh-west"))
	})
}

func TestAuthRateLimit(t *testing.T) {
	t.Run("allows attempts within the limit", func(t *testing.T) {
		router := limitedRouter(AuthRateLimit(NewRateLimiter(5, time.Minute)), "POST", "/auth/login")

		for i := 0; i < 5; i++ {
			w := hit(router, "POST", "/auth/login", "192.168.1.100:12345")
			assert.Equal(t, http.StatusOK, w.Code, "attempt %d should pass", i+1)
		}
	})

	t.Run("returns 429 with auth-specific error once exhausted", func(t *testing.T) {
		router := limitedRouter(AuthRateLimit(NewRateLimiter(3, time.Minute)), "POST", "/auth/login")

		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, hit(router, "POST", "/auth/login", "192.168.1.100:12345").Code)
		}

		w := hit(router, "POST", "/auth/login", "192.168.1.100:12345")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "AUTH_RATE_LIMIT_EXCEEDED")
		assert.Contains(t, w.Body.String(), "Too many authentication attempts")
	})

	t.Run("sets rate limit headers", func(t *testing.T) {
		router := limitedRouter(AuthRateLimit(NewRateLimiter(5, time.Minute)), "POST", "/auth/login")

		w := hit(router, "POST", "/auth/login", "192.168.1.100:12345")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("sets Retry-After when blocked", func(t *testing.T) {
		router := limitedRouter(AuthRateLimit(NewRateLimiter(1, time.Minute)), "POST", "/auth/login")

		hit(router, "POST", "/auth/login", "192.168.1.100:12345")
		w := hit(router, "POST", "/auth/login", "192.168.1.100:12345")

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
	})

	t.Run("limits each client IP separately", func(t *testing.T) {
		router := limitedRouter(AuthRateLimit(NewRateLimiter(2, time.Minute)), "POST", "/auth/login")

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, hit(router, "POST", "/auth/login", "192.168.1.1:12345").Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, hit(router, "POST", "/auth/login", "192.168.1.1:12345").Code)

		assert.Equal(t, http.StatusOK, hit(router, "POST", "/auth/login", "192.168.1.2:12345").Code)
	})

	t.Run("auth prefix keeps counters apart from the global limiter", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		globalLimiter := NewRateLimiter(100, time.Minute)
		authLimiter := NewRateLimiter(2, time.Minute)

		router := gin.New()
		authGroup := router.Group("/auth")
		authGroup.Use(AuthRateLimit(authLimiter))
		authGroup.POST("/login", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})
		router.Use(RateLimit(globalLimiter))
		router.GET("/api/v1/catalog/variants", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, hit(router, "POST", "/auth/login", "192.168.1.100:12345").Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, hit(router, "POST", "/auth/login", "192.168.1.100:12345").Code)

		// Same IP still passes on routes behind the global limiter.
		assert.Equal(t, http.StatusOK, hit(router, "GET", "/api/v1/catalog/variants", "192.168.1.100:12345").Code)
	})
}
