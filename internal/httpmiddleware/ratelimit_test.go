package httpmiddleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleTokenBucket(t *testing.T) {
	now := time.Date(2024, 5, 18, 8, 0, 0, 0, time.UTC)
	l := NewSimpleTokenBucket(2, 60)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "ip")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "other")
	assert.True(t, ok, "buckets are per key")

	now = now.Add(2 * time.Second)
	ok, _ = l.Allow(ctx, "ip")
	assert.True(t, ok, "refilled at 60/min")
}

func TestRedisWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	now := time.Date(2024, 5, 18, 8, 0, 10, 0, time.UTC)
	l := NewRedisWindow(client, 2)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "call %d", i)
	}
	assert.True(t, mr.TTL("checkin:ratelimit:10.0.0.1:28600320") > 0)

	now = now.Add(time.Minute)
	ok, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok, "next window")
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) { return true, errors.New("redis down") }

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, error) { return false, nil }

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for name, tc := range map[string]struct {
		l    Limiter
		want int
	}{
		"deny":      {denyAll{}, http.StatusTooManyRequests},
		"fail open": {failingLimiter{}, http.StatusOK},
		"token ok":  {NewSimpleTokenBucket(5, 5), http.StatusOK},
	} {
		t.Run(name, func(t *testing.T) {
			r := gin.New()
			r.Use(RateLimit(tc.l))
			r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
