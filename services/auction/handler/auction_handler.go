package handler

import (
	"context"
	"errors"
	"net/http"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/rules"
	"auction-house/internal/session"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AuctionServiceInterface interface {
	Create(ctx context.Context, actor models.Identity, fields rules.AuctionFields) (models.Auction, error)
	Get(ctx context.Context, id string) (models.Auction, error)
	GetOwn(ctx context.Context, actor models.Identity, id string) (models.Auction, error)
	Edit(ctx context.Context, actor models.Identity, id string, fields rules.AuctionFields) (models.Auction, error)
	Delete(ctx context.Context, actor models.Identity, id string) (models.Auction, error)
	Finish(ctx context.Context, actor models.Identity, id string) (models.Auction, error)
	PlaceBid(ctx context.Context, actor models.Identity, id string, price decimal.Decimal) (models.Auction, models.Offer, error)
	BuyNow(ctx context.Context, actor models.Identity, id string) (models.Auction, models.Offer, error)
	ListActive(ctx context.Context) ([]models.Auction, error)
	ListOwn(ctx context.Context, actor models.Identity) ([]models.Auction, error)
	GetOffers(ctx context.Context, id string) ([]models.Offer, error)
	GetWinningOffer(ctx context.Context, id string) (models.Offer, error)
	GetAuctionsBidOnBy(ctx context.Context, actor models.Identity) ([]models.Auction, error)
}

// AuctionHandler serves the JSON API under /api
type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// ListAuctionsHandler handles GET /api/auctions
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	auctions, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "ListAuctionsHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponses(auctions), "auctions retrieved successfully")
	helpers.LogSuccess("ListAuctionsHandler", "auctions retrieved successfully", map[string]any{"count": len(auctions)})
}

// CreateAuctionHandler handles POST /api/auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	actor := session.Identity(c)
	if err := rules.Authorize(actor, nil, rules.ActionCreate); err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", err, nil)
		return
	}

	var req helpers.AuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	a, err := h.service.Create(c.Request.Context(), actor, req.Fields())
	if err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", err, map[string]any{"user_id": actor.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(a), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": a.ID,
		"user_id":    actor.UserID,
	})
}

// GetAuctionHandler handles GET /api/auctions/:id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	id := c.Param("id")
	a, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		helpers.RespondError(c, "GetAuctionHandler", err, map[string]any{"auction_id": id})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a), "auction retrieved successfully")
}

// UpdateAuctionHandler handles PUT /api/auctions/:id
func (h *AuctionHandler) UpdateAuctionHandler(c *gin.Context) {
	id := c.Param("id")
	actor := session.Identity(c)

	// ownership is settled before the payload is read
	current, err := h.service.Get(c.Request.Context(), id)
	if err == nil {
		err = rules.Authorize(actor, &current, rules.ActionEdit)
	}
	if err != nil {
		helpers.RespondError(c, "UpdateAuctionHandler", err, map[string]any{"auction_id": id, "user_id": actor.UserID})
		return
	}

	var req helpers.AuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateAuctionHandler", err)
		return
	}

	a, err := h.service.Edit(c.Request.Context(), actor, id, req.Fields())
	if err != nil {
		helpers.RespondError(c, "UpdateAuctionHandler", err, map[string]any{"auction_id": id, "user_id": actor.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a), "auction updated successfully")
	helpers.LogSuccess("UpdateAuctionHandler", "auction updated successfully", map[string]any{"auction_id": id})
}

// DeleteAuctionHandler handles DELETE /api/auctions/:id
func (h *AuctionHandler) DeleteAuctionHandler(c *gin.Context) {
	id := c.Param("id")
	actor := session.Identity(c)
	a, err := h.service.Delete(c.Request.Context(), actor, id)
	if err != nil {
		helpers.RespondError(c, "DeleteAuctionHandler", err, map[string]any{"auction_id": id, "user_id": actor.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a), "auction deleted successfully")
	helpers.LogSuccess("DeleteAuctionHandler", "auction deleted successfully", map[string]any{"auction_id": id})
}

// FinishAuctionHandler handles POST /api/auctions/:id/finish
func (h *AuctionHandler) FinishAuctionHandler(c *gin.Context) {
	id := c.Param("id")
	actor := session.Identity(c)
	a, err := h.service.Finish(c.Request.Context(), actor, id)
	if err != nil {
		helpers.RespondError(c, "FinishAuctionHandler", err, map[string]any{"auction_id": id, "user_id": actor.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a), "auction finished successfully")
	helpers.LogSuccess("FinishAuctionHandler", "auction finished successfully", map[string]any{"auction_id": id})
}

// PlaceBidHandler handles POST /api/auctions/:id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	id := c.Param("id")
	actor := session.Identity(c)
	if err := rules.Authorize(actor, nil, rules.ActionBid); err != nil {
		helpers.RespondError(c, "PlaceBidHandler", err, map[string]any{"auction_id": id})
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	_, offer, err := h.service.PlaceBid(c.Request.Context(), actor, id, req.Price)
	if err != nil {
		helpers.RespondError(c, "PlaceBidHandler", err, map[string]any{
			"auction_id": id,
			"user_id":    actor.UserID,
			"price":      req.Price.String(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewOfferResponse(offer), "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"offer_id":   offer.ID,
		"auction_id": id,
		"user_id":    actor.UserID,
		"price":      offer.Price.String(),
	})
}

// BuyNowHandler handles POST /api/auctions/:id/buy
func (h *AuctionHandler) BuyNowHandler(c *gin.Context) {
	id := c.Param("id")
	actor := session.Identity(c)
	a, offer, err := h.service.BuyNow(c.Request.Context(), actor, id)
	if err != nil {
		helpers.RespondError(c, "BuyNowHandler", err, map[string]any{"auction_id": id, "user_id": actor.UserID})
		return
	}

	resp := helpers.PurchaseResponse{
		Auction: helpers.NewAuctionResponse(a),
		Offer:   helpers.NewOfferResponse(offer),
	}
	utils.JSONResponse(c, http.StatusCreated, resp, "auction bought successfully")
	helpers.LogSuccess("BuyNowHandler", "auction bought successfully", map[string]any{
		"auction_id": id,
		"user_id":    actor.UserID,
		"price":      offer.Price.String(),
	})
}

// GetOffersHandler handles GET /api/auctions/:id/offers
func (h *AuctionHandler) GetOffersHandler(c *gin.Context) {
	id := c.Param("id")
	offers, err := h.service.GetOffers(c.Request.Context(), id)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoOffers) {
		helpers.RespondError(c, "GetOffersHandler", err, map[string]any{"auction_id": id})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewOfferResponses(offers), "offers retrieved successfully")
	helpers.LogSuccess("GetOffersHandler", "offers retrieved successfully", map[string]any{
		"auction_id": id,
		"count":      len(offers),
	})
}

// GetWinningOfferHandler handles GET /api/auctions/:id/winning
func (h *AuctionHandler) GetWinningOfferHandler(c *gin.Context) {
	id := c.Param("id")
	offer, err := h.service.GetWinningOffer(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrNoOffers) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning offer found")
			utils.Info("GetWinningOfferHandler: no winning offer found", map[string]any{"auction_id": id})
			return
		}
		helpers.RespondError(c, "GetWinningOfferHandler", err, map[string]any{"auction_id": id})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewOfferResponse(offer), "winning offer retrieved successfully")
}

// MyAuctionsHandler handles GET /api/me/auctions
func (h *AuctionHandler) MyAuctionsHandler(c *gin.Context) {
	actor := session.Identity(c)
	auctions, err := h.service.ListOwn(c.Request.Context(), actor)
	if err != nil {
		helpers.RespondError(c, "MyAuctionsHandler", err, map[string]any{"user_id": actor.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponses(auctions), "auctions retrieved successfully")
}

// MyBidsHandler handles GET /api/me/bids
func (h *AuctionHandler) MyBidsHandler(c *gin.Context) {
	actor := session.Identity(c)
	auctions, err := h.service.GetAuctionsBidOnBy(c.Request.Context(), actor)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoOffers) {
		helpers.RespondError(c, "MyBidsHandler", err, map[string]any{"user_id": actor.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponses(auctions), "auctions retrieved successfully")
	helpers.LogSuccess("MyBidsHandler", "auctions retrieved successfully", map[string]any{
		"user_id":        actor.UserID,
		"auctions_count": len(auctions),
	})
}
