package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/room-booking/internal/config"
	"github.com/iliyamo/room-booking/internal/identity"
	"github.com/iliyamo/room-booking/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, uid uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, uid, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func whoami(c echo.Context) error {
	id, ok := IdentityFrom(c)
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": id.UserID, "role": id.Role})
}

func do(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))

	rec := do(e, http.MethodGet, "/me", bearer(t, 42, "admin"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":42,"role":"ADMIN"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", "Bearer garbage").Code)

	other, err := utils.NewAccessToken("other-secret", 42, "ADMIN", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", "Bearer "+other.Token).Code)

	expired, err := utils.NewAccessToken(secret, 42, "ADMIN", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", "Bearer "+expired.Token).Code)
}

func TestJWTAuthRejectsMissingSubject(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "GUEST",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", "Bearer "+tok).Code)
}

func TestSubject(t *testing.T) {
	n, ok := subject("17")
	assert.True(t, ok)
	assert.Equal(t, uint64(17), n)
	n, ok = subject(float64(9))
	assert.True(t, ok)
	assert.Equal(t, uint64(9), n)

	for _, bad := range []interface{}{nil, "", "0", "-1", "abc", float64(0), float64(1.5), true} {
		_, ok := subject(bad)
		assert.False(t, ok, "%v", bad)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoami, JWTAuth(secret), RequireRole(identity.RoleAdmin))

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/admin", bearer(t, 1, "ADMIN")).Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/admin", bearer(t, 2, "GUEST")).Code)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestTokenBucket(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            2 * time.Hour,
		KeyStrategy:    "user_route",
		Prefix:         "rl",
	}
	e := echo.New()
	e.POST("/v1/reservations", whoami, JWTAuth(secret), NewTokenBucket(cfg, rdb, zap.NewNop()))

	alice := bearer(t, 1, "GUEST")
	first := do(e, http.MethodPost, "/v1/reservations", alice)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/v1/reservations", alice).Code)

	blocked := do(e, http.MethodPost, "/v1/reservations", alice)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	// Buckets are per user.
	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/v1/reservations", bearer(t, 2, "GUEST")).Code)
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour, Prefix: "rl"}
	e := echo.New()
	e.GET("/x", whoami, NewTokenBucket(cfg, rdb, zap.NewNop()))

	mr.Close()
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodGet, "/x", "").Code)
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodGet, "/x", "").Code)
}

func TestTokenBucketDisabled(t *testing.T) {
	e := echo.New()
	e.GET("/x", whoami, NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil))
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodGet, "/x", "").Code)
}

func TestRedisCache(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
	calls := 0
	e := echo.New()
	e.GET("/v1/rooms", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"items": []string{"101"}})
	}, NewRedisCache(cfg, rdb, zap.NewNop()))

	miss := do(e, http.MethodGet, "/v1/rooms?active=true", "")
	require.Equal(t, http.StatusOK, miss.Code)
	assert.Equal(t, "MISS", miss.Header().Get("X-Cache"))

	hit := do(e, http.MethodGet, "/v1/rooms?active=true", "")
	require.Equal(t, http.StatusOK, hit.Code)
	assert.Equal(t, "HIT", hit.Header().Get("X-Cache"))
	assert.JSONEq(t, miss.Body.String(), hit.Body.String())
	assert.Contains(t, hit.Header().Get(echo.HeaderContentType), "application/json")
	assert.Equal(t, 1, calls)

	other := do(e, http.MethodGet, "/v1/rooms?active=false", "")
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	purged := NewCachePurger(rdb, cfg.Prefix, zap.NewNop()).Purge(context.Background())
	assert.Equal(t, 2, purged)
	assert.Equal(t, "MISS", do(e, http.MethodGet, "/v1/rooms?active=true", "").Header().Get("X-Cache"))
}

func TestRedisCacheSkipsErrors(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "cache"}
	e := echo.New()
	e.GET("/v1/rooms/:id", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	}, NewRedisCache(cfg, rdb, nil))

	do(e, http.MethodGet, "/v1/rooms/9", "")
	assert.Equal(t, "MISS", do(e, http.MethodGet, "/v1/rooms/9", "").Header().Get("X-Cache"))
}

func TestCachePurgerNilClient(t *testing.T) {
	assert.Equal(t, 0, NewCachePurger(nil, "cache", nil).Purge(context.Background()))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/fail", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "nope") })

	rec := do(e, http.MethodGet, "/ok", "")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(http.StatusBadRequest), entries[1].ContextMap()["status"])
	assert.Equal(t, "req-1", entries[1].ContextMap()["request_id"])
}
