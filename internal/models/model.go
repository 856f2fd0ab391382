package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the lifecycle state of an auction
type AuctionStatus string

const (
	StatusActive   AuctionStatus = "active"
	StatusFinished AuctionStatus = "finished"
	StatusCanceled AuctionStatus = "canceled"
)

// Terminal reports whether no further transition is possible from s
func (s AuctionStatus) Terminal() bool {
	return s == StatusFinished || s == StatusCanceled
}

// OfferKind tags an offer as a bid or an outright purchase
type OfferKind string

const (
	OfferBid OfferKind = "bid"
	OfferBuy OfferKind = "buy"
)

// User represents a registered participant
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:50;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// Auction represents a listing with a starting price and a buy-now price
type Auction struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title         string          `json:"title" gorm:"size:100;not null"`
	Description   string          `json:"description" gorm:"size:255;not null"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	StartingPrice decimal.Decimal `json:"starting_price" gorm:"type:decimal(10,2);not null"`
	Status        AuctionStatus   `json:"status" gorm:"size:10;index;not null"`
	OwnerID       string          `json:"owner_id" gorm:"type:varchar(36);index;not null"`
	ExpireAt      time.Time       `json:"expire_at" gorm:"index;not null"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Owner is only populated by reads that preload it; the auction refers to its
	// owner by OwnerID.
	Owner  *User   `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT"`
	Offers []Offer `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// OwnedBy reports whether userID owns the auction
func (a Auction) OwnedBy(userID string) bool {
	return userID != "" && a.OwnerID == userID
}

// Offer represents a bid or buy-now purchase against an auction
type Offer struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AuctionID string          `json:"auction_id" gorm:"type:varchar(36);index;not null"`
	BidderID  string          `json:"bidder_id" gorm:"type:varchar(36);index;not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Kind      OfferKind       `json:"type" gorm:"column:type;size:10;not null"`
	CreatedAt time.Time       `json:"created_at"`

	Bidder *User `json:"-" gorm:"foreignKey:BidderID;constraint:OnDelete:RESTRICT"`
}

// Identity is the acting user of a request. The zero value is anonymous.
type Identity struct {
	UserID   string
	Username string
}

// Anonymous reports whether no user is signed in
func (i Identity) Anonymous() bool {
	return i.UserID == ""
}
