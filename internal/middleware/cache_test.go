package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/swahilipot/room-booking/internal/config"
)

func cacheCtx(t *testing.T, target, route string, userID any) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(route)
	if userID != nil {
		c.Set("user_id", userID)
	}
	return c
}

func defaultCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Prefix:      "cache",
		KeyStrategy: "route_query",
	}
}

func TestCacheKeySeparatesPathParams(t *testing.T) {
	cfg := defaultCacheConfig()

	// Two users' booking listings share one route pattern but must
	// never share a cache entry.
	u1 := cacheKeyFrom(cfg, cacheCtx(t, "/v1/bookings/user/1", "/v1/bookings/user/:userId", float64(1)))
	u2 := cacheKeyFrom(cfg, cacheCtx(t, "/v1/bookings/user/2", "/v1/bookings/user/:userId", float64(2)))
	assert.NotEqual(t, u1, u2)

	r1 := cacheKeyFrom(cfg, cacheCtx(t, "/v1/rooms/1", "/v1/rooms/:id", nil))
	r2 := cacheKeyFrom(cfg, cacheCtx(t, "/v1/rooms/2", "/v1/rooms/:id", nil))
	assert.NotEqual(t, r1, r2)
}

func TestCacheKeySeparatesUsers(t *testing.T) {
	cfg := defaultCacheConfig()

	// Identical URL, different authenticated callers.
	a := cacheKeyFrom(cfg, cacheCtx(t, "/v1/me", "/v1/me", float64(1)))
	b := cacheKeyFrom(cfg, cacheCtx(t, "/v1/me", "/v1/me", float64(2)))
	assert.NotEqual(t, a, b)

	// An anonymous caller keys differently from an authenticated one.
	anon := cacheKeyFrom(cfg, cacheCtx(t, "/v1/me", "/v1/me", nil))
	assert.NotEqual(t, a, anon)
}

func TestCacheKeyStableForSameRequest(t *testing.T) {
	cfg := defaultCacheConfig()

	a := cacheKeyFrom(cfg, cacheCtx(t, "/v1/rooms?x=1", "/v1/rooms", float64(7)))
	b := cacheKeyFrom(cfg, cacheCtx(t, "/v1/rooms?x=1", "/v1/rooms", float64(7)))
	assert.Equal(t, a, b)

	withQuery := cacheKeyFrom(cfg, cacheCtx(t, "/v1/rooms?x=2", "/v1/rooms", float64(7)))
	assert.NotEqual(t, a, withQuery)
}
