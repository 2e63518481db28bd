package router

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/profile"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/tenant"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/user"
)

func newTestRouter(t *testing.T, burst int) http.Handler {
	t.Helper()
	lg := zap.NewNop().Sugar()
	return RegisterRoutes(lg, Deps{
		Auth:       auth.NewHandler(nil, nil, auth.Config{}, lg),
		Guard:      auth.NewMiddleware(nil, nil, nil, "", lg),
		Tenants:    tenant.NewHandler(nil, lg),
		Users:      user.NewHandler(nil, lg),
		Profiles:   profile.NewHandler(nil, lg),
		Condominio: condominio.NewHandler(condominio.Services{}, lg),
		Login:      NewRateLimiter(0.001, burst, lg),
	})
}

func TestHealthCarriesRequestIDAndHeaders(t *testing.T) {
	h := newTestRouter(t, 1)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/condominio-api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	req := httptest.NewRequest(http.MethodGet, "/condominio-api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newTestRouter(t, 1)
	paths := []struct{ method, path string }{
		{http.MethodGet, "/condominio-api/condominio/units"},
		{http.MethodGet, "/condominio-api/condominio/bills/b1/attachment"},
		{http.MethodGet, "/condominio-api/condominio/notices/unread-count"},
		{http.MethodPost, "/condominio-api/condominio/notices/n1/read"},
		{http.MethodPatch, "/condominio-api/condominio/residents/r1"},
		{http.MethodGet, "/condominio-api/empresas"},
		{http.MethodGet, "/condominio-api/profiles"},
		{http.MethodGet, "/condominio-api/auth/me"},
	}
	for _, p := range paths {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(p.method, p.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, p.method+" "+p.path)
	}
}

func TestUnknownMethodIsRejected(t *testing.T) {
	h := newTestRouter(t, 1)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/condominio-api/condominio/units", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	h := newTestRouter(t, 2)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/condominio-api/auth/login", strings.NewReader("not json"))
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/condominio-api/auth/login", strings.NewReader("not json"))
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "limits are per client")
}

func TestRateLimiterResetsTable(t *testing.T) {
	l := NewRateLimiter(0.001, 1, nil)
	for i := 0; i < maxTrackedClients; i++ {
		l.clients[strconv.Itoa(i)] = nil
	}
	require.True(t, l.allow("fresh"))
	assert.Len(t, l.clients, 1)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("LOGIN_RATE_PER_SECOND", "2.5")
	t.Setenv("LOGIN_RATE_BURST", "bad")
	cfg := ConfigFromEnv()
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, 2.5, cfg.LoginRatePerSecond)
	assert.Equal(t, 5, cfg.LoginRateBurst)
}
