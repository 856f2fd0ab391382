package rules

import (
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
)

// NewAuction validates fields and returns an active auction owned by owner.
// The caller assigns the identifier before persisting it.
func NewAuction(fields AuctionFields, owner models.Identity, now time.Time) (models.Auction, error) {
	if err := Authorize(owner, nil, ActionCreate); err != nil {
		return models.Auction{}, err
	}

	fields = fields.normalized()
	if err := validateFields(fields, now, true); err != nil {
		return models.Auction{}, err
	}

	now = now.UTC()
	return models.Auction{
		Title:         fields.Title,
		Description:   fields.Description,
		Price:         fields.Price,
		StartingPrice: fields.StartingPrice,
		Status:        models.StatusActive,
		OwnerID:       owner.UserID,
		ExpireAt:      fields.ExpireAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Expired reports whether an active auction has passed its scheduled expiry
func Expired(a models.Auction, now time.Time) bool {
	return a.Status == models.StatusActive && !a.ExpireAt.After(now)
}

// Expire moves an expired auction to finished, keeping its scheduled expiry as the
// finish time. It reports whether the auction changed.
func Expire(a *models.Auction, now time.Time) bool {
	if !Expired(*a, now) {
		return false
	}
	a.Status = models.StatusFinished
	a.UpdatedAt = now.UTC()
	return true
}

func requireActive(a models.Auction, now time.Time) error {
	if a.Status != models.StatusActive || Expired(a, now) {
		return fmt.Errorf("%w: auction %s is %s", auctionerrors.ErrInvalidState, a.ID, effectiveStatus(a, now))
	}
	return nil
}

func effectiveStatus(a models.Auction, now time.Time) models.AuctionStatus {
	if Expired(a, now) {
		return models.StatusFinished
	}
	return a.Status
}

// Finish terminates an active auction on behalf of its owner and records now as
// the actual finish time.
func Finish(a *models.Auction, actor models.Identity, now time.Time) error {
	if err := Authorize(actor, a, ActionFinish); err != nil {
		return err
	}
	if err := requireActive(*a, now); err != nil {
		return err
	}

	now = now.UTC()
	a.Status = models.StatusFinished
	a.ExpireAt = now
	a.UpdatedAt = now
	return nil
}

// Edit applies fields to an active auction owned by actor. The 24h expiry rule is
// checked only when the expiry changes at minute precision.
func Edit(a *models.Auction, actor models.Identity, fields AuctionFields, now time.Time) error {
	if err := Authorize(actor, a, ActionEdit); err != nil {
		return err
	}
	if err := requireActive(*a, now); err != nil {
		return err
	}

	fields = fields.normalized()
	// the edit form carries minutes only, so a stored expiry with seconds is
	// unchanged when it matches to the minute
	expiryChanged := !fields.ExpireAt.Truncate(time.Minute).Equal(a.ExpireAt.Truncate(time.Minute))
	if !expiryChanged {
		fields.ExpireAt = a.ExpireAt
	}
	if err := validateFields(fields, now, expiryChanged); err != nil {
		return err
	}

	a.Title = fields.Title
	a.Description = fields.Description
	a.Price = fields.Price
	a.StartingPrice = fields.StartingPrice
	a.ExpireAt = fields.ExpireAt
	a.UpdatedAt = now.UTC()
	return nil
}

// Delete checks that actor may remove the auction. Removal itself belongs to the
// repository.
func Delete(a models.Auction, actor models.Identity) error {
	return Authorize(actor, &a, ActionDelete)
}

// FieldsOf returns the editable attributes of a
func FieldsOf(a models.Auction) AuctionFields {
	return AuctionFields{
		Title:         a.Title,
		Description:   a.Description,
		Price:         a.Price,
		StartingPrice: a.StartingPrice,
		ExpireAt:      a.ExpireAt,
	}
}
