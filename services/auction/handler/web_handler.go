package handler

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/rules"
	"auction-house/internal/session"
	"auction-house/internal/views"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// WebHandler serves the HTML pages. The same handler set is mounted twice: at
// the root for the public pages and under /my, where listing and details are
// restricted to the caller's own auctions. Mutations are owner-only either way.
type WebHandler struct {
	service AuctionServiceInterface
	base    string
}

// NewWebHandler returns the handlers for the public pages
func NewWebHandler(service AuctionServiceInterface) *WebHandler {
	return &WebHandler{service: service}
}

// NewMyWebHandler returns the handlers for the owner's pages under /my
func NewMyWebHandler(service AuctionServiceInterface) *WebHandler {
	return &WebHandler{service: service, base: "/my"}
}

func (h *WebHandler) own() bool {
	return h.base != ""
}

func (h *WebHandler) indexURL() string {
	if h.own() {
		return h.base
	}
	return "/"
}

func (h *WebHandler) detailsURL(id string) string {
	return h.base + "/auction/details/" + id
}

// fail turns a service error into the matching page. Anonymous callers are sent
// to the login page; rejected actions return to the auction with a notice.
func (h *WebHandler) fail(c *gin.Context, handlerName, id string, err error) {
	fields := map[string]any{"handler": handlerName, "auction_id": id, "error": err.Error()}

	switch {
	case errors.Is(err, auctionerrors.ErrAuthentication):
		session.AddFlash(c, session.FlashDanger, "Please log in to continue.")
		c.Redirect(http.StatusSeeOther, "/login")
		utils.Info(handlerName+": login required", fields)
	case errors.Is(err, auctionerrors.ErrInvalidState) && id != "":
		session.AddFlash(c, session.FlashDanger, "This auction is no longer active.")
		c.Redirect(http.StatusSeeOther, h.detailsURL(id))
		utils.Warn(handlerName+": auction not active", fields)
	case errors.Is(err, auctionerrors.ErrValidation) && id != "":
		for _, msg := range sortedMessages(auctionerrors.FieldErrors(err)) {
			session.AddFlash(c, session.FlashDanger, msg)
		}
		c.Redirect(http.StatusSeeOther, h.detailsURL(id))
		utils.Warn(handlerName+": offer rejected", fields)
	default:
		status, message := helpers.MapErrorToHTTP(err)
		views.RenderError(c, status, message)
		if status == http.StatusInternalServerError {
			utils.Error(handlerName+": request failed", fields)
			return
		}
		utils.Warn(handlerName+": request rejected", fields)
	}
}

func sortedMessages(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fields[k])
	}
	return msgs
}

// IndexHandler handles GET / and GET /my
func (h *WebHandler) IndexHandler(c *gin.Context) {
	var (
		auctions []models.Auction
		err      error
		title    = "Auctions"
	)
	if h.own() {
		title = "My auctions"
		auctions, err = h.service.ListOwn(c.Request.Context(), session.Identity(c))
	} else {
		auctions, err = h.service.ListActive(c.Request.Context())
	}
	if err != nil {
		h.fail(c, "IndexHandler", "", err)
		return
	}

	views.Render(c, http.StatusOK, views.PageIndex, views.Page{
		Title:    title,
		Base:     h.base,
		Own:      h.own(),
		Auctions: auctions,
	})
}

func (h *WebHandler) load(c *gin.Context, id string) (models.Auction, error) {
	if h.own() {
		return h.service.GetOwn(c.Request.Context(), session.Identity(c), id)
	}
	return h.service.Get(c.Request.Context(), id)
}

// DetailsHandler handles GET /auction/details/:id. Finished auctions get their
// own page showing the winning offer.
func (h *WebHandler) DetailsHandler(c *gin.Context) {
	id := c.Param("id")
	a, err := h.load(c, id)
	if err != nil {
		h.fail(c, "DetailsHandler", "", err)
		return
	}

	var highest *models.Offer
	offer, err := h.service.GetWinningOffer(c.Request.Context(), id)
	switch {
	case err == nil:
		highest = &offer
	case !errors.Is(err, auctionerrors.ErrNoOffers):
		h.fail(c, "DetailsHandler", "", err)
		return
	}

	page := views.Page{
		Title:   a.Title,
		Base:    h.base,
		Auction: &a,
		Highest: highest,
		IsOwner: a.OwnedBy(session.Identity(c).UserID),
	}
	if a.Status.Terminal() {
		views.Render(c, http.StatusOK, views.PageFinished, page)
		return
	}
	page.MinimumBid = rules.LowestAcceptedBid(a, highest)
	views.Render(c, http.StatusOK, views.PageDetails, page)
}

func (h *WebHandler) renderForm(c *gin.Context, status int, title, action string, form helpers.AuctionForm, notice string) {
	page := views.Page{Title: title, Base: h.base, Action: action, Form: form}
	if notice != "" {
		page.Flashes = []session.FlashMessage{{Type: session.FlashDanger, Message: notice}}
	}
	views.Render(c, status, views.PageForm, page)
}

// AddFormHandler handles GET /auction/add
func (h *WebHandler) AddFormHandler(c *gin.Context) {
	if err := rules.Authorize(session.Identity(c), nil, rules.ActionCreate); err != nil {
		h.fail(c, "AddFormHandler", "", err)
		return
	}
	h.renderForm(c, http.StatusOK, "Add auction", h.base+"/auction/add", helpers.AuctionForm{}, "")
}

// AddHandler handles POST /auction/add
func (h *WebHandler) AddHandler(c *gin.Context) {
	if err := rules.Authorize(session.Identity(c), nil, rules.ActionCreate); err != nil {
		h.fail(c, "AddHandler", "", err)
		return
	}

	var form helpers.AuctionForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, "AddHandler", "", fmt.Errorf("bind auction form: %w", err))
		return
	}

	action := h.base + "/auction/add"
	fields, err := form.Fields()
	if err == nil {
		var a models.Auction
		a, err = h.service.Create(c.Request.Context(), session.Identity(c), fields)
		if err == nil {
			session.AddFlash(c, session.FlashSuccess, fmt.Sprintf("Success! Added auction : %s.", a.Title))
			c.Redirect(http.StatusSeeOther, h.detailsURL(a.ID))
			helpers.LogSuccess("AddHandler", "auction created", map[string]any{"auction_id": a.ID})
			return
		}
	}

	if fe := auctionerrors.FieldErrors(err); fe != nil {
		form.Errors = fe
		h.renderForm(c, http.StatusBadRequest, "Add auction", action, form, "Error! Not added auction.")
		return
	}
	h.fail(c, "AddHandler", "", err)
}

// editable loads an auction the caller may edit right now
func (h *WebHandler) editable(c *gin.Context, id string) (models.Auction, error) {
	a, err := h.load(c, id)
	if err != nil {
		return models.Auction{}, err
	}
	if err := rules.Authorize(session.Identity(c), &a, rules.ActionEdit); err != nil {
		return models.Auction{}, err
	}
	if a.Status != models.StatusActive {
		return models.Auction{}, auctionerrors.ErrInvalidState
	}
	return a, nil
}

// EditFormHandler handles GET /auction/edit/:id
func (h *WebHandler) EditFormHandler(c *gin.Context) {
	id := c.Param("id")
	a, err := h.editable(c, id)
	if err != nil {
		h.fail(c, "EditFormHandler", id, err)
		return
	}

	h.renderForm(c, http.StatusOK, "Edit auction", h.base+"/auction/edit/"+id, helpers.AuctionFormOf(a), "")
}

// EditHandler handles POST /auction/edit/:id
func (h *WebHandler) EditHandler(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.editable(c, id); err != nil {
		h.fail(c, "EditHandler", id, err)
		return
	}

	var form helpers.AuctionForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, "EditHandler", "", fmt.Errorf("bind auction form: %w", err))
		return
	}

	actor := session.Identity(c)
	fields, err := form.Fields()
	if err == nil {
		var a models.Auction
		a, err = h.service.Edit(c.Request.Context(), actor, id, fields)
		if err == nil {
			session.AddFlash(c, session.FlashSuccess, fmt.Sprintf("Success! Edited auction : %s.", a.Title))
			c.Redirect(http.StatusSeeOther, h.detailsURL(a.ID))
			helpers.LogSuccess("EditHandler", "auction edited", map[string]any{"auction_id": a.ID})
			return
		}
	}

	if fe := auctionerrors.FieldErrors(err); fe != nil {
		form.Errors = fe
		h.renderForm(c, http.StatusBadRequest, "Edit auction", h.base+"/auction/edit/"+id, form, "Error! Not edited auction.")
		return
	}
	h.fail(c, "EditHandler", id, err)
}

// DeleteHandler handles DELETE and POST /auction/delete/:id
func (h *WebHandler) DeleteHandler(c *gin.Context) {
	id := c.Param("id")
	actor := session.Identity(c)
	a, err := h.service.Delete(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, "DeleteHandler", "", err)
		return
	}

	session.AddFlash(c, session.FlashSuccess, fmt.Sprintf("Success! Deleted auction : %s.", a.Title))
	c.Redirect(http.StatusSeeOther, h.indexURL())
	helpers.LogSuccess("DeleteHandler", "auction deleted", map[string]any{"auction_id": id})
}

// FinishHandler handles POST /auction/finish/:id
func (h *WebHandler) FinishHandler(c *gin.Context) {
	id := c.Param("id")
	actor := session.Identity(c)
	a, err := h.service.Finish(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, "FinishHandler", id, err)
		return
	}

	session.AddFlash(c, session.FlashSuccess, fmt.Sprintf("Finished auction : %s.", a.Title))
	c.Redirect(http.StatusSeeOther, h.detailsURL(a.ID))
	helpers.LogSuccess("FinishHandler", "auction finished", map[string]any{"auction_id": id})
}

// BidHandler handles POST /auction/bid/:id
func (h *WebHandler) BidHandler(c *gin.Context) {
	id := c.Param("id")
	if err := rules.Authorize(session.Identity(c), nil, rules.ActionBid); err != nil {
		h.fail(c, "BidHandler", id, err)
		return
	}

	ve := &auctionerrors.ValidationError{}
	price := helpers.ParseMoney(ve, "price", "Bid", c.PostForm("price"))
	if !ve.Empty() {
		h.fail(c, "BidHandler", id, ve)
		return
	}

	a, offer, err := h.service.PlaceBid(c.Request.Context(), session.Identity(c), id, price)
	if err != nil {
		h.fail(c, "BidHandler", id, err)
		return
	}

	session.AddFlash(c, session.FlashSuccess, fmt.Sprintf("Success! Added bid %s to auction : %s.", offer.Price.StringFixed(2), a.Title))
	c.Redirect(http.StatusSeeOther, h.detailsURL(a.ID))
	helpers.LogSuccess("BidHandler", "bid placed", map[string]any{"auction_id": id, "offer_id": offer.ID})
}

// BuyHandler handles POST /auction/buy/:id
func (h *WebHandler) BuyHandler(c *gin.Context) {
	id := c.Param("id")
	a, offer, err := h.service.BuyNow(c.Request.Context(), session.Identity(c), id)
	if err != nil {
		h.fail(c, "BuyHandler", id, err)
		return
	}

	session.AddFlash(c, session.FlashSuccess, fmt.Sprintf("Congratulations! You bought %s for %s", a.Title, offer.Price.StringFixed(2)))
	c.Redirect(http.StatusSeeOther, h.detailsURL(a.ID))
	helpers.LogSuccess("BuyHandler", "auction bought", map[string]any{"auction_id": id, "offer_id": offer.ID})
}
