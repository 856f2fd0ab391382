package helpers

import (
	"time"

	"auction-house/internal/models"
	"auction-house/internal/rules"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs
type AuctionRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	ExpireAt      time.Time       `json:"expire_at"`
}

// Fields converts the payload into the editable auction attributes
func (r AuctionRequest) Fields() rules.AuctionFields {
	return rules.AuctionFields{
		Title:         r.Title,
		Description:   r.Description,
		Price:         r.Price,
		StartingPrice: r.StartingPrice,
		ExpireAt:      r.ExpireAt,
	}
}

type PlaceBidRequest struct {
	Price decimal.Decimal `json:"price"`
}

type AuctionResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	StartingPrice string `json:"starting_price"`
	Status        string `json:"status"`
	OwnerID       string `json:"owner_id"`
	ExpireAt      string `json:"expire_at"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type OfferResponse struct {
	ID        string `json:"id"`
	AuctionID string `json:"auction_id"`
	BidderID  string `json:"bidder_id"`
	Price     string `json:"price"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
}

type PurchaseResponse struct {
	Auction AuctionResponse `json:"auction"`
	Offer   OfferResponse   `json:"offer"`
}

func NewAuctionResponse(a models.Auction) AuctionResponse {
	return AuctionResponse{
		ID:            a.ID,
		Title:         a.Title,
		Description:   a.Description,
		Price:         a.Price.StringFixed(2),
		StartingPrice: a.StartingPrice.StringFixed(2),
		Status:        string(a.Status),
		OwnerID:       a.OwnerID,
		ExpireAt:      a.ExpireAt.UTC().Format(time.RFC3339),
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func NewAuctionResponses(auctions []models.Auction) []AuctionResponse {
	resp := make([]AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		resp = append(resp, NewAuctionResponse(a))
	}
	return resp
}

func NewOfferResponse(o models.Offer) OfferResponse {
	return OfferResponse{
		ID:        o.ID,
		AuctionID: o.AuctionID,
		BidderID:  o.BidderID,
		Price:     o.Price.StringFixed(2),
		Type:      string(o.Kind),
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func NewOfferResponses(offers []models.Offer) []OfferResponse {
	resp := make([]OfferResponse, 0, len(offers))
	for _, o := range offers {
		resp = append(resp, NewOfferResponse(o))
	}
	return resp
}
