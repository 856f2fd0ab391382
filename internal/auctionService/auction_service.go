package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/metrics"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/internal/rules"
	"auction-house/utils"

	"github.com/shopspring/decimal"
)

// AuctionService defines the business logic for listing, bidding and finishing
// auctions. Every mutation runs inside one repository transaction.
type AuctionService struct {
	repo repository.AuctionDB
	now  func() time.Time
}

// Option configures an AuctionService
type Option func(*AuctionService)

// WithClock replaces the wall clock, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *AuctionService) {
		s.now = now
	}
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionDB, opts ...Option) *AuctionService {
	s := &AuctionService{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuctionService) clock() time.Time {
	return s.now().UTC()
}

// Create lists a new auction owned by actor
func (s *AuctionService) Create(ctx context.Context, actor models.Identity, fields rules.AuctionFields) (models.Auction, error) {
	a, err := rules.NewAuction(fields, actor, s.clock())
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: create auction: %w", err)
	}
	a.ID = utils.GenerateID()

	if err := s.repo.CreateAuction(ctx, &a); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction %q: %w", a.Title, err)
	}

	metrics.AuctionsCreated.Inc()
	return a, nil
}

// Get returns an auction for the public details view, finishing it first when it
// has expired
func (s *AuctionService) Get(ctx context.Context, id string) (models.Auction, error) {
	if id == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrAuctionNotFound)
	}

	a, err := s.repo.GetAuction(ctx, id)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", id, err)
	}

	if rules.Expired(a, s.clock()) {
		if err := s.expire(ctx, &a); err != nil {
			return models.Auction{}, err
		}
	}
	return a, nil
}

// GetOwn returns an auction for its owner's details view
func (s *AuctionService) GetOwn(ctx context.Context, actor models.Identity, id string) (models.Auction, error) {
	if err := rules.Authorize(actor, nil, rules.ActionListOwn); err != nil {
		return models.Auction{}, fmt.Errorf("service: view own auction: %w", err)
	}

	a, err := s.Get(ctx, id)
	if err != nil {
		return models.Auction{}, err
	}
	if err := rules.Authorize(actor, &a, rules.ActionViewOwn); err != nil {
		return models.Auction{}, fmt.Errorf("service: view own auction %s: %w", id, err)
	}
	return a, nil
}

// expire persists the finished state of an auction that passed its expiry.
// The row is reloaded inside the transaction so a concurrent transition wins.
func (s *AuctionService) expire(ctx context.Context, a *models.Auction) error {
	err := s.repo.Transaction(ctx, func(tx repository.AuctionDB) error {
		current, err := tx.GetAuction(ctx, a.ID)
		if err != nil {
			return err
		}
		if rules.Expire(&current, s.clock()) {
			if err := tx.UpdateAuction(ctx, &current); err != nil {
				return err
			}
			metrics.AuctionsFinished.WithLabelValues(metrics.FinishedByExpiry).Inc()
		}
		*a = current
		return nil
	})
	if err != nil {
		return fmt.Errorf("service: failed to expire auction %s: %w", a.ID, err)
	}
	return nil
}

// mutate loads the auction inside a transaction, persists a pending expiry and
// hands it to fn. A rule rejection caused by that expiry still commits it.
func (s *AuctionService) mutate(ctx context.Context, id string, fn func(tx repository.AuctionDB, a *models.Auction, now time.Time) error) (models.Auction, error) {
	var (
		result  models.Auction
		expired bool
		ruleErr error
	)

	err := s.repo.Transaction(ctx, func(tx repository.AuctionDB) error {
		a, err := tx.GetAuction(ctx, id)
		if err != nil {
			return err
		}

		now := s.clock()
		expired = rules.Expire(&a, now)
		if expired {
			if err := tx.UpdateAuction(ctx, &a); err != nil {
				return err
			}
		}

		if err := fn(tx, &a, now); err != nil {
			if expired && errors.Is(err, auctionerrors.ErrInvalidState) {
				ruleErr = err
				result = a
				return nil
			}
			return err
		}
		result = a
		return nil
	})
	if err != nil {
		return models.Auction{}, err
	}

	if expired {
		metrics.AuctionsFinished.WithLabelValues(metrics.FinishedByExpiry).Inc()
	}
	if ruleErr != nil {
		return result, ruleErr
	}
	return result, nil
}

// Edit applies new field values to an active auction owned by actor
func (s *AuctionService) Edit(ctx context.Context, actor models.Identity, id string, fields rules.AuctionFields) (models.Auction, error) {
	a, err := s.mutate(ctx, id, func(tx repository.AuctionDB, a *models.Auction, now time.Time) error {
		if err := rules.Edit(a, actor, fields, now); err != nil {
			return err
		}
		return tx.UpdateAuction(ctx, a)
	})
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to edit auction %s: %w", id, err)
	}
	return a, nil
}

// Delete removes an auction and its offers on behalf of its owner. The removed
// auction is returned for confirmation messages.
func (s *AuctionService) Delete(ctx context.Context, actor models.Identity, id string) (models.Auction, error) {
	a, err := s.mutate(ctx, id, func(tx repository.AuctionDB, a *models.Auction, _ time.Time) error {
		if err := rules.Delete(*a, actor); err != nil {
			return err
		}
		return tx.DeleteAuction(ctx, a.ID)
	})
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to delete auction %s: %w", id, err)
	}

	metrics.AuctionsDeleted.Inc()
	return a, nil
}

// Finish ends an active auction on behalf of its owner
func (s *AuctionService) Finish(ctx context.Context, actor models.Identity, id string) (models.Auction, error) {
	a, err := s.mutate(ctx, id, func(tx repository.AuctionDB, a *models.Auction, now time.Time) error {
		if err := rules.Finish(a, actor, now); err != nil {
			return err
		}
		return tx.UpdateAuction(ctx, a)
	})
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to finish auction %s: %w", id, err)
	}

	metrics.AuctionsFinished.WithLabelValues(metrics.FinishedByOwner).Inc()
	return a, nil
}

// PlaceBid validates and records a bid by actor on an active auction
func (s *AuctionService) PlaceBid(ctx context.Context, actor models.Identity, id string, price decimal.Decimal) (models.Auction, models.Offer, error) {
	if err := rules.Authorize(actor, nil, rules.ActionBid); err != nil {
		return models.Auction{}, models.Offer{}, fmt.Errorf("service: place bid on auction %s: %w", id, err)
	}

	var offer models.Offer
	a, err := s.mutate(ctx, id, func(tx repository.AuctionDB, a *models.Auction, now time.Time) error {
		var highest *models.Offer
		current, err := tx.GetHighestOffer(ctx, a.ID)
		switch {
		case err == nil:
			highest = &current
		case !errors.Is(err, auctionerrors.ErrNoOffers):
			return fmt.Errorf("failed to check highest offer: %w", err)
		}

		o, err := rules.PlaceBid(*a, actor, highest, price, now)
		if err != nil {
			return err
		}
		o.ID = utils.GenerateID()
		if err := tx.RecordOffer(ctx, &o); err != nil {
			return err
		}
		offer = o
		return nil
	})
	if err != nil {
		s.countRejected(models.OfferBid, err)
		return models.Auction{}, models.Offer{}, fmt.Errorf("service: failed to place bid on auction %s by user %s: %w", id, actor.UserID, err)
	}

	metrics.OffersAccepted.WithLabelValues(string(models.OfferBid)).Inc()
	return a, offer, nil
}

// BuyNow purchases an active auction at its listed price and finishes it
func (s *AuctionService) BuyNow(ctx context.Context, actor models.Identity, id string) (models.Auction, models.Offer, error) {
	if err := rules.Authorize(actor, nil, rules.ActionBuy); err != nil {
		return models.Auction{}, models.Offer{}, fmt.Errorf("service: buy auction %s: %w", id, err)
	}

	var offer models.Offer
	a, err := s.mutate(ctx, id, func(tx repository.AuctionDB, a *models.Auction, now time.Time) error {
		o, err := rules.BuyNow(a, actor, now)
		if err != nil {
			return err
		}
		o.ID = utils.GenerateID()
		if err := tx.RecordOffer(ctx, &o); err != nil {
			return err
		}
		if err := tx.UpdateAuction(ctx, a); err != nil {
			return err
		}
		offer = o
		return nil
	})
	if err != nil {
		s.countRejected(models.OfferBuy, err)
		return models.Auction{}, models.Offer{}, fmt.Errorf("service: failed to buy auction %s by user %s: %w", id, actor.UserID, err)
	}

	metrics.OffersAccepted.WithLabelValues(string(models.OfferBuy)).Inc()
	metrics.AuctionsFinished.WithLabelValues(metrics.FinishedByBuyNow).Inc()
	return a, offer, nil
}

func (s *AuctionService) countRejected(kind models.OfferKind, err error) {
	if errors.Is(err, auctionerrors.ErrValidation) || errors.Is(err, auctionerrors.ErrInvalidState) {
		metrics.OffersRejected.WithLabelValues(string(kind)).Inc()
	}
}

// ListActive returns the auctions still open for offers
func (s *AuctionService) ListActive(ctx context.Context) ([]models.Auction, error) {
	auctions, err := s.repo.ListActiveAuctions(ctx, s.clock())
	if err != nil {
		return nil, fmt.Errorf("service: failed to list active auctions: %w", err)
	}
	return auctions, nil
}

// ListOwn returns every auction owned by actor, whatever its status
func (s *AuctionService) ListOwn(ctx context.Context, actor models.Identity) ([]models.Auction, error) {
	if err := rules.Authorize(actor, nil, rules.ActionListOwn); err != nil {
		return nil, fmt.Errorf("service: list own auctions: %w", err)
	}

	auctions, err := s.repo.ListAuctionsByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions of user %s: %w", actor.UserID, err)
	}

	now := s.clock()
	for i := range auctions {
		if rules.Expired(auctions[i], now) {
			rules.Expire(&auctions[i], now)
		}
	}
	return auctions, nil
}

// GetOffers returns all offers for an auction, highest first
func (s *AuctionService) GetOffers(ctx context.Context, id string) ([]models.Offer, error) {
	if id == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrAuctionNotFound)
	}
	if _, err := s.repo.GetAuction(ctx, id); err != nil {
		return nil, fmt.Errorf("service: failed to get offers for auction %s: %w", id, err)
	}

	offers, err := s.repo.GetOffersByAuction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get offers for auction %s: %w", id, err)
	}
	return offers, nil
}

// GetWinningOffer returns the highest offer for an auction
func (s *AuctionService) GetWinningOffer(ctx context.Context, id string) (models.Offer, error) {
	if id == "" {
		return models.Offer{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrAuctionNotFound)
	}

	offer, err := s.repo.GetHighestOffer(ctx, id)
	if err != nil {
		return models.Offer{}, fmt.Errorf("service: failed to get winning offer for auction %s: %w", id, err)
	}
	return offer, nil
}

// GetAuctionsBidOnBy returns the auctions actor has made an offer on
func (s *AuctionService) GetAuctionsBidOnBy(ctx context.Context, actor models.Identity) ([]models.Auction, error) {
	if err := rules.Authorize(actor, nil, rules.ActionListOwn); err != nil {
		return nil, fmt.Errorf("service: list bid auctions: %w", err)
	}

	auctions, err := s.repo.ListAuctionsByBidder(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get auctions bid on by user %s: %w", actor.UserID, err)
	}
	return auctions, nil
}
