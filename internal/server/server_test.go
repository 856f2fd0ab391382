package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"auction-house/internal/config"
	"auction-house/internal/repository"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	utils.SetOutput(io.Discard)
}

func newTestApp(t *testing.T, limits config.LimitsConfig) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.Open(repository.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close(db) })

	cfg := config.Defaults()
	cfg.Security.BcryptCost = bcrypt.MinCost
	cfg.Limits = limits

	app, err := NewApp(&cfg, db)
	require.NoError(t, err)
	return app
}

func serve(app http.Handler, req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 2)
	require.True(t, rl.Allow("10.0.0.1"))
	require.True(t, rl.Allow("10.0.0.1"))
	require.False(t, rl.Allow("10.0.0.1"))

	// separate bucket per client
	require.True(t, rl.Allow("10.0.0.2"))

	disabled := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, disabled.Allow("10.0.0.1"))
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, config.LimitsConfig{})

	w := serve(app, httptest.NewRequest(http.MethodGet, "/healthz", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "auction_http_requests_total")
}

func TestRouter_NotFound(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, config.LimitsConfig{})

	w := serve(app, httptest.NewRequest(http.MethodGet, "/nowhere", nil), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "page not found")

	w = serve(app, httptest.NewRequest(http.MethodGet, "/api/nowhere", nil), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "page not found", resp["message"])
}

func TestRouter_CSRF(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, config.LimitsConfig{})
	form := url.Values{"username": {"alice"}, "password": {"correct horse"}}

	// no token
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(app, req, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// token from the form page, echoed back in the header
	page := serve(app, httptest.NewRequest(http.MethodGet, "/register", nil), nil)
	require.Equal(t, http.StatusOK, page.Code)
	token := page.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)
	require.Contains(t, page.Body.String(), `name="gorilla.csrf.Token"`)

	req = httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRF-Token", token)
	w = serve(app, req, page.Result().Cookies())
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, config.LimitsConfig{RequestsPerSecond: 0.001, Burst: 2})

	page := serve(app, httptest.NewRequest(http.MethodGet, "/login", nil), nil)
	token := page.Header().Get("X-CSRF-Token")
	cookies := page.Result().Cookies()

	login := func() *httptest.ResponseRecorder {
		form := url.Values{"username": {"nobody"}, "password": {"wrong password"}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-CSRF-Token", token)
		return serve(app, req, cookies)
	}

	require.Equal(t, http.StatusUnauthorized, login().Code)
	require.Equal(t, http.StatusUnauthorized, login().Code)

	w := login()
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "1", w.Header().Get("Retry-After"))
	require.Contains(t, w.Body.String(), "too many requests")

	// reads stay open
	require.Equal(t, http.StatusOK, serve(app, httptest.NewRequest(http.MethodGet, "/", nil), nil).Code)
}

func TestRouter_RateLimitIgnoresForwardedFor(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, config.LimitsConfig{RequestsPerSecond: 0.001, Burst: 2})

	page := serve(app, httptest.NewRequest(http.MethodGet, "/login", nil), nil)
	token := page.Header().Get("X-CSRF-Token")
	cookies := page.Result().Cookies()

	codes := make(map[int]int)
	for i := 0; i < 10; i++ {
		form := url.Values{"username": {"nobody"}, "password": {"wrong password"}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-CSRF-Token", token)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))
		codes[serve(app, req, cookies).Code]++
	}

	require.Equal(t, 2, codes[http.StatusUnauthorized])
	require.Equal(t, 8, codes[http.StatusTooManyRequests])
}
