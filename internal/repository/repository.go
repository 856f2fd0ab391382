package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"

	"gorm.io/gorm"
)

// AuctionDB defines the auction and offer storage interface
type AuctionDB interface {
	// Transaction runs fn against a store bound to a single database transaction.
	// fn must only use the store it is given.
	Transaction(ctx context.Context, fn func(tx AuctionDB) error) error

	CreateAuction(ctx context.Context, a *models.Auction) error
	GetAuction(ctx context.Context, id string) (models.Auction, error)
	UpdateAuction(ctx context.Context, a *models.Auction) error
	DeleteAuction(ctx context.Context, id string) error
	ListActiveAuctions(ctx context.Context, now time.Time) ([]models.Auction, error)
	ListAuctionsByOwner(ctx context.Context, ownerID string) ([]models.Auction, error)

	RecordOffer(ctx context.Context, o *models.Offer) error
	GetOffersByAuction(ctx context.Context, auctionID string) ([]models.Offer, error)
	GetHighestOffer(ctx context.Context, auctionID string) (models.Offer, error)
	ListAuctionsByBidder(ctx context.Context, userID string) ([]models.Auction, error)
}

// UserDB defines the account storage interface
type UserDB interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// GormRepo implements AuctionDB and UserDB on top of gorm
type GormRepo struct {
	db     *gorm.DB
	txOpts []*sql.TxOptions
}

// NewGormRepo wraps an open gorm connection. Postgres connections run their
// transactions at SERIALIZABLE isolation.
func NewGormRepo(db *gorm.DB) *GormRepo {
	r := &GormRepo{db: db}
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		r.txOpts = []*sql.TxOptions{{Isolation: sql.LevelSerializable}}
	}
	return r
}

// Transaction runs fn inside one database transaction, rolling back when fn fails
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx AuctionDB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{db: tx, txOpts: r.txOpts})
	}, r.txOpts...)
}

// CreateAuction inserts a new auction row
func (r *GormRepo) CreateAuction(ctx context.Context, a *models.Auction) error {
	if err := r.db.WithContext(ctx).Omit("Owner", "Offers").Create(a).Error; err != nil {
		return fmt.Errorf("create auction %s: %w", a.ID, err)
	}
	return nil
}

// GetAuction returns the auction with the given id
func (r *GormRepo) GetAuction(ctx context.Context, id string) (models.Auction, error) {
	var a models.Auction
	err := r.db.WithContext(ctx).Preload("Owner").Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Auction{}, fmt.Errorf("get auction %s: %w", id, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return models.Auction{}, fmt.Errorf("get auction %s: %w", id, err)
	}
	return a, nil
}

// UpdateAuction saves every column of an existing auction
func (r *GormRepo) UpdateAuction(ctx context.Context, a *models.Auction) error {
	res := r.db.WithContext(ctx).Model(&models.Auction{}).Where("id = ?", a.ID).Updates(map[string]any{
		"title":          a.Title,
		"description":    a.Description,
		"price":          a.Price,
		"starting_price": a.StartingPrice,
		"status":         a.Status,
		"expire_at":      a.ExpireAt,
		"updated_at":     a.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("update auction %s: %w", a.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update auction %s: %w", a.ID, auctionerrors.ErrAuctionNotFound)
	}
	return nil
}

// DeleteAuction removes an auction together with its offers
func (r *GormRepo) DeleteAuction(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("auction_id = ?", id).Delete(&models.Offer{}).Error; err != nil {
		return fmt.Errorf("delete offers of auction %s: %w", id, err)
	}
	res := db.Where("id = ?", id).Delete(&models.Auction{})
	if res.Error != nil {
		return fmt.Errorf("delete auction %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete auction %s: %w", id, auctionerrors.ErrAuctionNotFound)
	}
	return nil
}

// ListActiveAuctions returns active auctions that have not yet expired at now,
// soonest to finish first
func (r *GormRepo) ListActiveAuctions(ctx context.Context, now time.Time) ([]models.Auction, error) {
	var auctions []models.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND expire_at > ?", models.StatusActive, now.UTC()).
		Order("expire_at ASC").Order("id ASC").
		Find(&auctions).Error
	if err != nil {
		return nil, fmt.Errorf("list active auctions: %w", err)
	}
	return auctions, nil
}

// ListAuctionsByOwner returns every auction of ownerID, newest first
func (r *GormRepo) ListAuctionsByOwner(ctx context.Context, ownerID string) ([]models.Auction, error) {
	var auctions []models.Auction
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").Order("id ASC").
		Find(&auctions).Error
	if err != nil {
		return nil, fmt.Errorf("list auctions of owner %s: %w", ownerID, err)
	}
	return auctions, nil
}

// RecordOffer appends an offer to an existing auction
func (r *GormRepo) RecordOffer(ctx context.Context, o *models.Offer) error {
	db := r.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Auction{}).Where("id = ?", o.AuctionID).Count(&count).Error; err != nil {
		return fmt.Errorf("record offer for auction %s: %w", o.AuctionID, err)
	}
	if count == 0 {
		return fmt.Errorf("record offer for auction %s: %w", o.AuctionID, auctionerrors.ErrAuctionNotFound)
	}

	if err := db.Omit("Bidder").Create(o).Error; err != nil {
		return fmt.Errorf("record offer for auction %s: %w", o.AuctionID, err)
	}
	return nil
}

// GetOffersByAuction returns all offers for an auction, highest first
func (r *GormRepo) GetOffersByAuction(ctx context.Context, auctionID string) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.WithContext(ctx).
		Preload("Bidder").
		Where("auction_id = ?", auctionID).
		Order("price DESC").Order("created_at DESC").
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("get offers for auction %s: %w", auctionID, err)
	}
	if len(offers) == 0 {
		return nil, fmt.Errorf("get offers for auction %s: %w", auctionID, auctionerrors.ErrNoOffers)
	}
	return offers, nil
}

// GetHighestOffer returns the offer with the greatest price, the newest on ties
func (r *GormRepo) GetHighestOffer(ctx context.Context, auctionID string) (models.Offer, error) {
	var o models.Offer
	err := r.db.WithContext(ctx).
		Preload("Bidder").
		Where("auction_id = ?", auctionID).
		Order("price DESC").Order("created_at DESC").Order("id DESC").
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Offer{}, fmt.Errorf("get highest offer for auction %s: %w", auctionID, auctionerrors.ErrNoOffers)
	}
	if err != nil {
		return models.Offer{}, fmt.Errorf("get highest offer for auction %s: %w", auctionID, err)
	}
	return o, nil
}

// ListAuctionsByBidder returns the auctions userID has made an offer on
func (r *GormRepo) ListAuctionsByBidder(ctx context.Context, userID string) ([]models.Auction, error) {
	var auctions []models.Auction
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.Offer{}).Select("auction_id").Where("bidder_id = ?", userID)).
		Order("created_at DESC").Order("id ASC").
		Find(&auctions).Error
	if err != nil {
		return nil, fmt.Errorf("list auctions bid on by user %s: %w", userID, err)
	}
	if len(auctions) == 0 {
		return nil, fmt.Errorf("list auctions bid on by user %s: %w", userID, auctionerrors.ErrNoOffers)
	}
	return auctions, nil
}

// CreateUser inserts a new account. A taken username yields ErrUserExists.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	db := r.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
		return fmt.Errorf("create user %s: %w", u.Username, err)
	}
	if count > 0 {
		return fmt.Errorf("create user %s: %w", u.Username, auctionerrors.ErrUserExists)
	}

	if err := db.Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create user %s: %w", u.Username, auctionerrors.ErrUserExists)
		}
		return fmt.Errorf("create user %s: %w", u.Username, err)
	}
	return nil
}

// GetUserByUsername looks an account up by its unique username
func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return r.getUser(ctx, "username = ?", username)
}

// GetUserByID looks an account up by id
func (r *GormRepo) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return r.getUser(ctx, "id = ?", id)
}

func (r *GormRepo) getUser(ctx context.Context, query string, arg string) (models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, fmt.Errorf("get user %s: %w", arg, auctionerrors.ErrUserNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user %s: %w", arg, err)
	}
	return u, nil
}
