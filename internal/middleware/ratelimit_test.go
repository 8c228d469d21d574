package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestIPRateLimiter_BurstThenDeny(t *testing.T) {
	req := require.New(t)
	limiter := NewIPRateLimiter(rate.Limit(1), 2)

	req.True(limiter.Allow("10.0.0.1"))
	req.True(limiter.Allow("10.0.0.1"))
	req.False(limiter.Allow("10.0.0.1"))

	// a different IP has its own budget
	req.True(limiter.Allow("10.0.0.2"))
}

func TestRateLimit_Returns429(t *testing.T) {
	req := require.New(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimit(NewIPRateLimiter(rate.Limit(1), 1)))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	req.Equal(http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	req.Equal(http.StatusTooManyRequests, w.Code)
	req.JSONEq(`{"success":false,"message":"rate limit exceeded"}`, w.Body.String())
}
