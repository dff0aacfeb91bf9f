package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"singr-service/internal/domain/constants"
	"singr-service/internal/pkg/jwt"
	"singr-service/internal/pkg/jwt/jwttest"
	"singr-service/internal/pkg/metrics"
	"singr-service/internal/pkg/response"
	"singr-service/internal/pkg/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type grants map[string][]string

func (g grants) Permissions(_ context.Context, roles []string) ([]string, error) {
	var out []string
	for _, r := range roles {
		out = append(out, g[r]...)
	}
	return out, nil
}

type failingResolver struct{}

func (failingResolver) Permissions(context.Context, []string) ([]string, error) {
	return nil, errors.New("db down")
}

type fixture struct {
	jwt     *jwt.Manager
	auth    *AuthMiddleware
	metrics *metrics.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m := jwttest.NewManager(t)
	reg := metrics.NewRegistry()
	return &fixture{
		jwt:     m,
		auth:    NewAuthMiddleware(m.Verifier, grants(constants.DefaultGrants), reg, zap.NewNop()),
		metrics: reg,
	}
}

func (f *fixture) token(t *testing.T, kind jwt.TokenType, roles ...string) string {
	t.Helper()
	tok, err := f.jwt.Generator.Issue(kind, jwt.Identity{UserID: "u1", Email: "u1@example.com", Roles: roles})
	require.NoError(t, err)
	return tok
}

func performRequest(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuth_AttachesIdentity(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/protected", f.auth.Auth(), func(c *gin.Context) {
		id, ok := GetIdentity(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"userId": id.UserID, "roles": GetRoles(c)})
	})

	w := performRequest(r, "Bearer "+f.token(t, jwt.TokenTypeAccess, constants.RoleSinger))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":"u1","roles":["singer"]}`, w.Body.String())
}

func TestAuth_RejectsWithGenericMessage(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/protected", f.auth.Auth(), func(c *gin.Context) {
		t.Fatal("handler must not run")
	})

	cases := map[string]string{
		"refresh token":  "Bearer " + f.token(t, jwt.TokenTypeRefresh, constants.RoleSinger),
		"missing header": "",
		"wrong scheme":   "Token xyz",
		"empty bearer":   "Bearer ",
		"garbage token":  "Bearer not.a.jwt",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := performRequest(r, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			body := decode(t, w)
			assert.False(t, body.Success)
			assert.Equal(t, "AUTHENTICATION_ERROR", body.Error.Code)
			assert.Equal(t, "invalid or expired token", body.Error.Message)
		})
	}

	series, err := testutil.GatherAndCount(f.metrics.Gatherer(), "singr_auth_failures_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, series, 2)
}

func TestAuth_RejectLogsClaimedUserAtDebug(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zap.DebugLevel)
	mw := NewAuthMiddleware(f.jwt.Verifier, grants(constants.DefaultGrants), f.metrics, zap.New(core))
	r := gin.New()
	r.GET("/protected", mw.Auth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(r, "Bearer "+f.token(t, jwt.TokenTypeRefresh, constants.RoleSinger))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "u1")

	entries := logs.FilterMessage("authentication rejected").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "u1", fields["claimed_user_id"])
	assert.NotEmpty(t, fields["reason"])

	performRequest(r, "Bearer not.a.jwt")
	entries = logs.FilterMessage("authentication rejected").All()
	require.Len(t, entries, 2)
	assert.NotContains(t, entries[1].ContextMap(), "claimed_user_id")
}

func TestRequirePermission(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/protected", f.auth.Auth(), f.auth.RequirePermission(constants.PermVenuesWrite), func(c *gin.Context) {
		assert.Contains(t, GetPermissions(c), constants.PermVenuesWrite)
		c.Status(http.StatusNoContent)
	})

	w := performRequest(r, "Bearer "+f.token(t, jwt.TokenTypeAccess, constants.RoleCustomerManager))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = performRequest(r, "Bearer "+f.token(t, jwt.TokenTypeAccess, constants.RoleSinger))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTHORIZATION_ERROR", decode(t, w).Error.Code)
}

func TestRequireAllPermissions(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/protected", f.auth.Auth(),
		f.auth.RequireAllPermissions(constants.PermVenuesWrite, constants.PermVenuesDelete),
		func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, performRequest(r, "Bearer "+f.token(t, jwt.TokenTypeAccess, constants.RoleCustomerOwner)).Code)
	assert.Equal(t, http.StatusForbidden, performRequest(r, "Bearer "+f.token(t, jwt.TokenTypeAccess, constants.RoleCustomerManager)).Code)
}

func TestRequirePermission_WithoutAuthIs401(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/protected", f.auth.RequirePermission(constants.PermVenuesRead), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	assert.Equal(t, http.StatusUnauthorized, performRequest(r, "").Code)
}

func TestRequirePermission_ResolverFailureIs500(t *testing.T) {
	f := newFixture(t)
	mw := NewAuthMiddleware(f.jwt.Verifier, failingResolver{}, nil, zap.NewNop())
	r := gin.New()
	r.GET("/protected", mw.Auth(), mw.RequirePermission(constants.PermVenuesRead), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	assert.Equal(t, http.StatusInternalServerError, performRequest(r, "Bearer "+f.token(t, jwt.TokenTypeAccess, constants.RoleAdmin)).Code)
}

func TestRequireRoles(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/protected", f.auth.Auth(), f.auth.RequireRole(constants.RoleAdmin, constants.RoleSupportAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/both", f.auth.Auth(), f.auth.RequireAllRoles(constants.RoleAdmin, constants.RoleSinger), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, performRequest(r, "Bearer "+f.token(t, jwt.TokenTypeAccess, constants.RoleSupportAdmin)).Code)
	assert.Equal(t, http.StatusForbidden, performRequest(r, "Bearer "+f.token(t, jwt.TokenTypeAccess, constants.RoleSinger)).Code)

	req := httptest.NewRequest(http.MethodGet, "/both", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, jwt.TokenTypeAccess, constants.RoleAdmin))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RecoveryMiddleware(zap.NewNop()))
	r.GET("/protected", func(c *gin.Context) { panic("boom") })

	w := performRequest(r, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, w).Error.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestID_Propagates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/protected", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(), CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/protected", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limit := constants.RateLimit{Max: 2, Window: constants.RateLimitPublicVenues.Window}
	r := gin.New()
	r.Use(RateLimit(session.NewRateLimiter(client), "test", limit, ByIP, zap.NewNop()))
	r.GET("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Reset"))

	mr.FastForward(15 * time.Second)
	w = performRequest(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "45", w.Header().Get("X-RateLimit-Reset"))

	w = performRequest(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "45", w.Header().Get("Retry-After"))
	assert.Equal(t, "45", w.Header().Get("X-RateLimit-Reset"))
	assert.Equal(t, "RATE_LIMITED", decode(t, w).Error.Code)

	// fail open when redis is down
	mr.SetError("LOADING")
	assert.Equal(t, http.StatusOK, performRequest(r, "").Code)
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := metrics.NewRegistry()
	r := gin.New()
	r.Use(MetricsMiddleware(reg), LoggingMiddleware(zap.NewNop()))
	r.GET("/protected", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	performRequest(r, "")
	series, err := testutil.GatherAndCount(reg.Gatherer(), "singr_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}
