package helpers

import (
	"strings"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/rules"

	"github.com/shopspring/decimal"
)

// DateTimeLocal is the value format of an HTML datetime-local input
const DateTimeLocal = "2006-01-02T15:04"

// AuctionForm holds the raw values of the add/edit form so they can be shown
// again next to their errors
type AuctionForm struct {
	Title         string `form:"title"`
	Description   string `form:"description"`
	Price         string `form:"price"`
	StartingPrice string `form:"starting_price"`
	ExpireAt      string `form:"expire_at"`

	Errors map[string]string `form:"-"`
}

// AuctionFormOf prefills the form with the current attributes of a
func AuctionFormOf(a models.Auction) AuctionForm {
	return AuctionForm{
		Title:         a.Title,
		Description:   a.Description,
		Price:         a.Price.StringFixed(2),
		StartingPrice: a.StartingPrice.StringFixed(2),
		ExpireAt:      a.ExpireAt.UTC().Format(DateTimeLocal),
	}
}

// Fields parses the raw values. Times without a zone are read as UTC. Values
// that do not parse are reported as field errors; the remaining checks belong to
// the auction rules.
func (f AuctionForm) Fields() (rules.AuctionFields, error) {
	ve := &auctionerrors.ValidationError{}
	fields := rules.AuctionFields{
		Title:         f.Title,
		Description:   f.Description,
		Price:         ParseMoney(ve, "price", "Price", f.Price),
		StartingPrice: ParseMoney(ve, "starting_price", "Starting price", f.StartingPrice),
		ExpireAt:      parseExpiry(ve, f.ExpireAt),
	}
	if !ve.Empty() {
		return fields, ve
	}
	return fields, nil
}

// ParseMoney reads a decimal amount, recording a field error on failure. A blank
// value yields zero so the required rule reports it.
func ParseMoney(ve *auctionerrors.ValidationError, field, label, raw string) decimal.Decimal {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		ve.Add(field, label+" should be a number.")
		return decimal.Zero
	}
	return d
}

func parseExpiry(ve *auctionerrors.ValidationError, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{DateTimeLocal, "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC()
		}
	}
	ve.Add("expire_at", "Please enter a valid date and time.")
	return time.Time{}
}
