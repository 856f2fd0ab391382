package rules

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"auction-house/internal/auctionerrors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MinDuration is how far past creation an auction must be scheduled to expire
const MinDuration = 24 * time.Hour

// maxPrice fits decimal(10,2)
var maxPrice = decimal.RequireFromString("99999999.99")

// AuctionFields are the owner-editable attributes of an auction
type AuctionFields struct {
	Title         string          `json:"title" validate:"required,min=3,max=100"`
	Description   string          `json:"description" validate:"required,min=3,max=255"`
	Price         decimal.Decimal `json:"price" validate:"required,gt=0"`
	StartingPrice decimal.Decimal `json:"starting_price" validate:"required,gt=0"`
	ExpireAt      time.Time       `json:"expire_at" validate:"required"`
}

func (f AuctionFields) normalized() AuctionFields {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.ExpireAt = f.ExpireAt.UTC()
	return f
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var fieldMessages = map[string]map[string]string{
	"title": {
		"required": "Title should not be blank.",
		"min":      "Title should be at least 3 chars long.",
		"max":      "Title should not be longer than 100 chars.",
	},
	"description": {
		"required": "Description should not be blank.",
		"min":      "Description should be at least 3 chars long.",
		"max":      "Description should not be longer than 255 chars.",
	},
	"price": {
		"required": "Price should not be blank.",
		"gt":       "Price should be greater than 0.",
	},
	"starting_price": {
		"required": "Starting price should not be blank.",
		"gt":       "Starting price should be greater than 0.",
	},
	"expire_at": {
		"required": "You should give a date.",
	},
}

// validateFields checks f against the listing rules. The 24h expiry rule applies
// when checkExpiry is set.
func validateFields(f AuctionFields, now time.Time, checkExpiry bool) error {
	ve := &auctionerrors.ValidationError{}

	if err := validate.Struct(f); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate auction fields: %w", err)
		}
		for _, fe := range fieldErrs {
			msg, ok := fieldMessages[fe.Field()][fe.Tag()]
			if !ok {
				msg = fmt.Sprintf("%s is invalid.", fe.Field())
			}
			ve.Add(fe.Field(), msg)
		}
	}

	checkAmount(ve, "price", "Price", f.Price)
	checkAmount(ve, "starting_price", "Starting price", f.StartingPrice)

	if f.StartingPrice.GreaterThanOrEqual(f.Price) && f.Price.IsPositive() {
		ve.Add("starting_price", "Starting price must be lower than the buy now price.")
	}

	if checkExpiry && !f.ExpireAt.IsZero() && !f.ExpireAt.After(now.Add(MinDuration)) {
		ve.Add("expire_at", "Auction cannot finish before 24h.")
	}

	if ve.Empty() {
		return nil
	}
	return ve
}

func checkAmount(ve *auctionerrors.ValidationError, field, label string, d decimal.Decimal) {
	if !d.Equal(d.Round(2)) {
		ve.Add(field, label+" should have at most 2 decimal places.")
	}
	if d.GreaterThan(maxPrice) {
		ve.Add(field, label+" should not exceed "+maxPrice.StringFixed(2)+".")
	}
}
