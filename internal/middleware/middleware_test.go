package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog-service/internal/apperror"
	"catalog-service/internal/metrics"
	"catalog-service/internal/model"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuth struct {
	tokens map[string]model.Identity
	err    error
}

func (f fakeAuth) Authenticate(_ context.Context, token string) (model.Identity, error) {
	if f.err != nil {
		return model.Identity{}, f.err
	}
	if token == "" {
		return model.Identity{}, apperror.Unauthenticated("No token, authorization denied")
	}
	identity, ok := f.tokens[token]
	if !ok {
		return model.Identity{}, apperror.Unauthenticated("Token is not valid")
	}
	return identity, nil
}

var master = model.Identity{UserID: "u1", Role: model.RoleMaster}

func newEcho(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(mw...)
	e.GET("/whoami", func(c echo.Context) error {
		identity, ok := GetIdentity(c)
		if !ok {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, identity.UserID+":"+string(identity.Role))
	})
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	auth := fakeAuth{tokens: map[string]model.Identity{"good": master}}
	e := newEcho(AuthMiddleware(auth, "token"))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{
			name:   "bearer header",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			status: http.StatusOK,
			body:   "u1:master",
		},
		{
			name:   "cookie fallback",
			setup:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: "good"}) },
			status: http.StatusOK,
			body:   "u1:master",
		},
		{
			name:   "missing token",
			setup:  func(r *http.Request) {},
			status: http.StatusUnauthorized,
			body:   `"No token, authorization denied"`,
		},
		{
			name:   "wrong scheme",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Basic good") },
			status: http.StatusUnauthorized,
			body:   `"No token, authorization denied"`,
		},
		{
			name:   "unknown token",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") },
			status: http.StatusUnauthorized,
			body:   `"Token is not valid"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			tt.setup(req)
			rec := serve(e, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestAuthMiddleware_InternalError(t *testing.T) {
	e := newEcho(AuthMiddleware(fakeAuth{err: apperror.Internal("Failed to verify token", assert.AnError)}, "token"))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec := serve(e, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to verify token")
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestRequireRoles(t *testing.T) {
	auth := fakeAuth{tokens: map[string]model.Identity{
		"master": master,
		"admin":  {UserID: "u2", Role: model.RoleAdmin},
	}}
	e := newEcho(AuthMiddleware(auth, "token"), RequireRoles(model.RoleMaster))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer master")
	assert.Equal(t, http.StatusOK, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer admin")
	rec := serve(e, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Forbidden, insufficient permissions")

	// without AuthMiddleware there is no identity
	bare := newEcho(RequireRoles(model.RoleMaster))
	assert.Equal(t, http.StatusUnauthorized, serve(bare, httptest.NewRequest(http.MethodGet, "/whoami", nil)).Code)
}

func TestMustIdentity(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, err := MustIdentity(c)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	assert.ErrorIs(t, err, ErrNoIdentity)

	c.Set(identityKey, master)
	identity, err := MustIdentity(c)
	require.NoError(t, err)
	assert.Equal(t, master, identity)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen *zap.Logger
	e := echo.New()
	e.Use(RequestIDMiddleware())
	e.GET("/", func(c echo.Context) error {
		seen = logger.FromCtx(c.Request().Context())
		assert.Same(t, seen, logger.FromContext(c))
		return c.String(http.StatusOK, c.Get("request_id").(string))
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, rec.Body.String())
	assert.NotNil(t, seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = serve(e, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.NewMetrics("test", prometheus.NewRegistry())

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/items/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "missing")
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPStatusCategory.WithLabelValues("4xx")))
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	e.Use(RateLimit(1, 2))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		codes = append(codes, serve(e, req).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, serve(e, other).Code)
}
