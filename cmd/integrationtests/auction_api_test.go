package integrationtests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func offerPrices(t *testing.T, c *Client, auctionID string) []string {
	t.Helper()
	resp, w := c.ExecuteRequestAndParse(http.MethodGet, "/api/auctions/"+auctionID+"/offers", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var prices []string
	for _, o := range resp["data"].([]any) {
		prices = append(prices, o.(map[string]any)["price"].(string))
	}
	return prices
}

// Bids, a rejected low bid, buy-now, then a bid on the finished auction
func TestBidThenBuyNowScenario(t *testing.T) {
	app := SetupTestApp(t)
	a := app.NewClient(t).Register("alice")
	b := app.NewClient(t).Register("bob")
	c := app.NewClient(t).Register("carol")

	id := a.CreateAuction("Desk lamp", "10", "100", 48*time.Hour)

	resp, w := b.ExecuteRequestAndParse(http.MethodPost, "/api/auctions/"+id+"/bids", map[string]any{"price": "15"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "15.00", resp["data"].(map[string]any)["price"])

	resp, w = c.ExecuteRequestAndParse(http.MethodPost, "/api/auctions/"+id+"/bids", map[string]any{"price": "12"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Your bid has to be greater than 15.00.", resp["fields"].(map[string]any)["price"])

	resp, w = b.ExecuteRequestAndParse(http.MethodGet, "/api/auctions/"+id+"/winning", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "15.00", resp["data"].(map[string]any)["price"])

	app.Advance(time.Hour)
	resp, w = b.ExecuteRequestAndParse(http.MethodPost, "/api/auctions/"+id+"/buy", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	bought := resp["data"].(map[string]any)["auction"].(map[string]any)
	require.Equal(t, "finished", bought["status"])
	require.Equal(t, app.Now.Format(time.RFC3339), bought["expire_at"])

	_, w = c.ExecuteRequestAndParse(http.MethodPost, "/api/auctions/"+id+"/bids", map[string]any{"price": "150"})
	require.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, []string{"100.00", "15.00"}, offerPrices(t, a, id))

	resp, w = b.ExecuteRequestAndParse(http.MethodGet, "/api/me/bids", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"], 1)

	resp, w = c.ExecuteRequestAndParse(http.MethodGet, "/api/me/bids", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"], 0)
}

func TestCreateAuctionValidation(t *testing.T) {
	app := SetupTestApp(t)
	a := app.NewClient(t).Register("alice")

	tests := []struct {
		name       string
		body       map[string]any
		wantField  string
		wantStatus int
	}{
		{
			name:       "starting_price_above_price",
			body:       map[string]any{"title": "Lamp", "description": "d", "price": "40", "starting_price": "50", "expire_at": app.Now.Add(48 * time.Hour).Format(time.RFC3339)},
			wantField:  "starting_price",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "shorter_than_a_day",
			body:       map[string]any{"title": "Lamp", "description": "d", "price": "40", "starting_price": "5", "expire_at": app.Now.Add(23 * time.Hour).Format(time.RFC3339)},
			wantField:  "expire_at",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "blank_title",
			body:       map[string]any{"title": "", "description": "d", "price": "40", "starting_price": "5", "expire_at": app.Now.Add(48 * time.Hour).Format(time.RFC3339)},
			wantField:  "title",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, w := a.ExecuteRequestAndParse(http.MethodPost, "/api/auctions", tt.body)
			require.Equal(t, tt.wantStatus, w.Code)
			require.Contains(t, resp["fields"], tt.wantField)
		})
	}

	// nothing was persisted
	resp, w := a.ExecuteRequestAndParse(http.MethodGet, "/api/me/auctions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"], 0)
}

func TestOwnerOperations(t *testing.T) {
	app := SetupTestApp(t)
	a := app.NewClient(t).Register("alice")
	b := app.NewClient(t).Register("bob")
	anon := app.NewClient(t)

	id := a.CreateAuction("Desk lamp", "10", "100", 48*time.Hour)
	path := "/api/auctions/" + id
	edit := map[string]any{
		"title":          "Brass desk lamp",
		"description":    "Polished",
		"price":          "120",
		"starting_price": "20",
		"expire_at":      app.Now.Add(72 * time.Hour).Format(time.RFC3339),
	}

	for _, tt := range []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPut, path, edit},
		{http.MethodPut, path, `{"price": "broken"`},
		{http.MethodPost, path + "/finish", nil},
		{http.MethodDelete, path, nil},
	} {
		_, w := b.ExecuteRequestAndParse(tt.method, tt.path, tt.body)
		require.Equal(t, http.StatusForbidden, w.Code, "%s %s by non-owner", tt.method, tt.path)

		_, w = anon.ExecuteRequestAndParse(tt.method, tt.path, tt.body)
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s by anonymous", tt.method, tt.path)
	}

	resp, w := a.ExecuteRequestAndParse(http.MethodPut, path, edit)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Brass desk lamp", resp["data"].(map[string]any)["title"])
	require.Equal(t, "120.00", resp["data"].(map[string]any)["price"])

	edit["starting_price"] = "150"
	_, w = a.ExecuteRequestAndParse(http.MethodPut, path, edit)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp, w = a.ExecuteRequestAndParse(http.MethodPost, path+"/finish", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "finished", resp["data"].(map[string]any)["status"])

	_, w = a.ExecuteRequestAndParse(http.MethodPost, path+"/finish", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	_, w = a.ExecuteRequestAndParse(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, w = a.ExecuteRequestAndParse(http.MethodGet, path, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListingAndExpiry(t *testing.T) {
	app := SetupTestApp(t)
	a := app.NewClient(t).Register("alice")
	b := app.NewClient(t).Register("bob")

	short := a.CreateAuction("Short", "1", "10", 25*time.Hour)
	long := a.CreateAuction("Long", "1", "10", 72*time.Hour)

	resp, w := b.ExecuteRequestAndParse(http.MethodGet, "/api/auctions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].([]any)
	require.Len(t, data, 2)
	require.Equal(t, short, data[0].(map[string]any)["id"])

	app.Advance(26 * time.Hour)

	resp, _ = b.ExecuteRequestAndParse(http.MethodGet, "/api/auctions", nil)
	data = resp["data"].([]any)
	require.Len(t, data, 1)
	require.Equal(t, long, data[0].(map[string]any)["id"])

	_, w = b.ExecuteRequestAndParse(http.MethodPost, "/api/auctions/"+short+"/bids", map[string]any{"price": "5"})
	require.Equal(t, http.StatusConflict, w.Code)

	resp, w = b.ExecuteRequestAndParse(http.MethodGet, "/api/auctions/"+short, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "finished", resp["data"].(map[string]any)["status"])

	// the owner still sees both
	resp, _ = a.ExecuteRequestAndParse(http.MethodGet, "/api/me/auctions", nil)
	require.Len(t, resp["data"], 2)
}

func TestInvalidPayloads(t *testing.T) {
	app := SetupTestApp(t)
	a := app.NewClient(t).Register("alice")

	_, w := a.ExecuteRequestAndParse(http.MethodPost, "/api/auctions", "{title: 'missing quotes'}")
	require.Equal(t, http.StatusBadRequest, w.Code)

	_, w = a.ExecuteRequestAndParse(http.MethodPost, "/api/auctions/missing/bids", map[string]any{"price": "10"})
	require.Equal(t, http.StatusNotFound, w.Code)

	_, w = a.ExecuteRequestAndParse(http.MethodGet, "/api/auctions/missing/offers", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	resp, w := a.ExecuteRequestAndParse(http.MethodGet, "/api/auctions/missing/winning", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "no winning offer found", resp["message"])
}
