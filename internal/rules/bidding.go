package rules

import (
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"

	"github.com/shopspring/decimal"
)

// HighestOffer returns the offer with the greatest price, the newest one on ties
func HighestOffer(offers []models.Offer) (models.Offer, bool) {
	if len(offers) == 0 {
		return models.Offer{}, false
	}

	highest := offers[0]
	for _, o := range offers[1:] {
		if o.Price.GreaterThan(highest.Price) ||
			(o.Price.Equal(highest.Price) && o.CreatedAt.After(highest.CreatedAt)) {
			highest = o
		}
	}
	return highest, true
}

// MinimumBid is the lowest acceptable bid and whether it must be exceeded
// strictly (true once any offer exists).
func MinimumBid(a models.Auction, highest *models.Offer) (decimal.Decimal, bool) {
	if highest != nil {
		return highest.Price, true
	}
	return a.StartingPrice, false
}

// bidStep is the smallest money increment
var bidStep = decimal.New(1, -2)

// LowestAcceptedBid is the smallest amount PlaceBid accepts: the starting price
// before any offer, one cent above the highest offer afterwards
func LowestAcceptedBid(a models.Auction, highest *models.Offer) decimal.Decimal {
	floor, strict := MinimumBid(a, highest)
	if strict {
		return floor.Add(bidStep)
	}
	return floor
}

// checkOfferPrice applies the price rule of kind against the current state
func checkOfferPrice(kind models.OfferKind, a models.Auction, highest *models.Offer, price decimal.Decimal) error {
	switch kind {
	case models.OfferBid:
		if !price.IsPositive() {
			return auctionerrors.NewValidationError("price", "Your bid should be greater than 0.")
		}
		if !price.Equal(price.Round(2)) {
			return auctionerrors.NewValidationError("price", "Your bid should have at most 2 decimal places.")
		}
		floor, strict := MinimumBid(a, highest)
		if strict && !price.GreaterThan(floor) {
			return auctionerrors.NewValidationError("price",
				fmt.Sprintf("Your bid has to be greater than %s.", floor.StringFixed(2)))
		}
		if !strict && price.LessThan(floor) {
			return auctionerrors.NewValidationError("price", "Your bid can't be smaller than the starting price.")
		}
		return nil
	case models.OfferBuy:
		if !price.Equal(a.Price) {
			return auctionerrors.NewValidationError("price", "Buy now price must equal the listed price.")
		}
		return nil
	default:
		return fmt.Errorf("unknown offer kind %q", kind)
	}
}

// PlaceBid validates a bid of price by bidder against the current highest offer
// (nil when none exists) and returns the offer to append. Auction status is left
// unchanged.
func PlaceBid(a models.Auction, bidder models.Identity, highest *models.Offer, price decimal.Decimal, now time.Time) (models.Offer, error) {
	if err := Authorize(bidder, &a, ActionBid); err != nil {
		return models.Offer{}, err
	}
	if err := requireActive(a, now); err != nil {
		return models.Offer{}, err
	}
	if err := checkOfferPrice(models.OfferBid, a, highest, price); err != nil {
		return models.Offer{}, err
	}

	return models.Offer{
		AuctionID: a.ID,
		BidderID:  bidder.UserID,
		Price:     price,
		Kind:      models.OfferBid,
		CreatedAt: now.UTC(),
	}, nil
}

// BuyNow returns a buy offer at the listed price and finishes the auction with now
// as its finish time.
func BuyNow(a *models.Auction, buyer models.Identity, now time.Time) (models.Offer, error) {
	if err := Authorize(buyer, a, ActionBuy); err != nil {
		return models.Offer{}, err
	}
	if err := requireActive(*a, now); err != nil {
		return models.Offer{}, err
	}
	if err := checkOfferPrice(models.OfferBuy, *a, nil, a.Price); err != nil {
		return models.Offer{}, err
	}

	now = now.UTC()
	a.Status = models.StatusFinished
	a.ExpireAt = now
	a.UpdatedAt = now

	return models.Offer{
		AuctionID: a.ID,
		BidderID:  buyer.UserID,
		Price:     a.Price,
		Kind:      models.OfferBuy,
		CreatedAt: now,
	}, nil
}
