package integrationtests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	auction "auction-house/internal/auctionService"
	"auction-house/internal/config"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	utils.SetOutput(io.Discard)
}

// TestApp is the full application over a private in-memory database with a
// clock the test can move
type TestApp struct {
	Handler http.Handler
	Now     time.Time
}

// SetupTestApp builds the application with rate limiting disabled
func SetupTestApp(t *testing.T) *TestApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.Open(repository.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close(db) })

	cfg := config.Defaults()
	cfg.Security.BcryptCost = bcrypt.MinCost
	cfg.Limits = config.LimitsConfig{}

	app := &TestApp{Now: time.Now().UTC().Truncate(time.Second)}
	handler, err := server.NewApp(&cfg, db, auction.WithClock(func() time.Time { return app.Now }))
	require.NoError(t, err)
	app.Handler = handler
	return app
}

// Advance moves the application clock forward
func (a *TestApp) Advance(d time.Duration) {
	a.Now = a.Now.Add(d)
}

// Client plays one browser: it keeps cookies and the latest CSRF token
type Client struct {
	t       *testing.T
	app     *TestApp
	cookies map[string]*http.Cookie
	token   string
}

func (a *TestApp) NewClient(t *testing.T) *Client {
	return &Client{t: t, app: a, cookies: make(map[string]*http.Cookie)}
}

// ExecuteRequest sends req with the client's cookies and token and records
// what the response sets
func (c *Client) ExecuteRequest(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	if c.token != "" {
		req.Header.Set("X-CSRF-Token", c.token)
	}

	w := httptest.NewRecorder()
	c.app.Handler.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	if token := w.Header().Get("X-CSRF-Token"); token != "" {
		c.token = token
	}
	return w
}

// ensureToken fetches a CSRF token before the first unsafe request
func (c *Client) ensureToken() {
	if c.token == "" {
		c.Get("/login")
	}
	require.NotEmpty(c.t, c.token)
}

// Get fetches a page
func (c *Client) Get(path string) *httptest.ResponseRecorder {
	return c.ExecuteRequest(httptest.NewRequest(http.MethodGet, path, nil))
}

// PostForm submits an HTML form
func (c *Client) PostForm(path string, form url.Values) *httptest.ResponseRecorder {
	c.ensureToken()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.ExecuteRequest(req)
}

// ExecuteRequestAndParse sends a JSON request to the API and decodes the envelope
func (c *Client) ExecuteRequestAndParse(method, path string, body any) (map[string]any, *httptest.ResponseRecorder) {
	c.t.Helper()
	if method != http.MethodGet {
		c.ensureToken()
	}

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(c.t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := c.ExecuteRequest(req)

	var resp map[string]any
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp, w
}

// Register creates an account and leaves the client signed in
func (c *Client) Register(username string) *Client {
	c.t.Helper()
	w := c.PostForm("/register", url.Values{"username": {username}, "password": {"password-" + username}})
	require.Equal(c.t, http.StatusSeeOther, w.Code, w.Body.String())
	return c
}

// CreateAuction lists an auction through the API and returns its id
func (c *Client) CreateAuction(title, startingPrice, price string, lasts time.Duration) string {
	c.t.Helper()
	resp, w := c.ExecuteRequestAndParse(http.MethodPost, "/api/auctions", map[string]any{
		"title":          title,
		"description":    title + " in good condition",
		"price":          price,
		"starting_price": startingPrice,
		"expire_at":      c.app.Now.Add(lasts).Format(time.RFC3339),
	})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	return resp["data"].(map[string]any)["id"].(string)
}
