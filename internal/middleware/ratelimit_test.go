package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/supercur/supercur-api/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitLogger(logger.StageLocal)
}

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func doGet(router *gin.Engine, path, apiKey string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within rate limit", func(t *testing.T) {
		router := newLimitedRouter(NewRateLimiter(10, 20))

		for i := 0; i < 10; i++ {
			w := doGet(router, "/test", "sk_client_a")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
			assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		}
	})

	t.Run("blocks requests exceeding burst", func(t *testing.T) {
		router := newLimitedRouter(NewRateLimiter(1, 2))

		var lastCode int
		for i := 0; i < 3; i++ {
			lastCode = doGet(router, "/test", "sk_client_b").Code
		}
		assert.Equal(t, http.StatusTooManyRequests, lastCode)
	})

	t.Run("429 carries retry headers", func(t *testing.T) {
		router := newLimitedRouter(NewRateLimiter(1, 1))

		doGet(router, "/test", "sk_client_c")
		w := doGet(router, "/test", "sk_client_c")

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("different API keys have separate buckets", func(t *testing.T) {
		router := newLimitedRouter(NewRateLimiter(1, 1))

		// Identifiers are keyed on the first 8 characters of the key.
		assert.Equal(t, http.StatusOK, doGet(router, "/test", "delta-key").Code)
		assert.Equal(t, http.StatusOK, doGet(router, "/test", "echo-key").Code)
	})

	t.Run("health endpoint is never limited", func(t *testing.T) {
		router := newLimitedRouter(NewRateLimiter(1, 1))

		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, doGet(router, "/health", "").Code)
		}
	})
}

// Exercises getLimiter from many goroutines against a cleanup-style
// reader so the race detector covers the lastAccess bookkeeping.
func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := NewRateLimiter(100, 100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rl.getLimiter("api:sk_share").Allow()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			rl.limiters.Range(func(_, value interface{}) bool {
				entry := value.(*limiterEntry)
				assert.NotZero(t, entry.lastAccess.Load())
				return true
			})
		}
	}()
	wg.Wait()

	val, ok := rl.limiters.Load("api:sk_share")
	assert.True(t, ok)
	assert.NotNil(t, val.(*limiterEntry).limiter)
}
