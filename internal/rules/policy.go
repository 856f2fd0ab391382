package rules

import (
	"fmt"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
)

// Action is an operation a caller attempts on an auction
type Action int

const (
	ActionList Action = iota
	ActionView
	ActionCreate
	ActionEdit
	ActionDelete
	ActionFinish
	ActionBid
	ActionBuy
	ActionListOwn
	ActionViewOwn
)

func (a Action) String() string {
	switch a {
	case ActionList:
		return "list"
	case ActionView:
		return "view"
	case ActionCreate:
		return "create"
	case ActionEdit:
		return "edit"
	case ActionDelete:
		return "delete"
	case ActionFinish:
		return "finish"
	case ActionBid:
		return "bid"
	case ActionBuy:
		return "buy"
	case ActionListOwn:
		return "list own"
	case ActionViewOwn:
		return "view own"
	default:
		return "unknown"
	}
}

func (a Action) requiresUser() bool {
	switch a {
	case ActionList, ActionView:
		return false
	default:
		return true
	}
}

func (a Action) ownerOnly() bool {
	switch a {
	case ActionEdit, ActionDelete, ActionFinish, ActionViewOwn:
		return true
	default:
		return false
	}
}

// Authorize checks that actor may perform action on auction. Anonymous callers get
// ErrAuthentication for any action that needs a user; non-owners get
// ErrAuthorization for owner-only actions. auction may be nil for actions that are
// not tied to a single listing.
func Authorize(actor models.Identity, auction *models.Auction, action Action) error {
	if action.requiresUser() && actor.Anonymous() {
		return fmt.Errorf("%w: sign in to %s auctions", auctionerrors.ErrAuthentication, action)
	}
	if !action.ownerOnly() {
		return nil
	}
	if auction == nil || !auction.OwnedBy(actor.UserID) {
		return fmt.Errorf("%w: only the owner may %s this auction", auctionerrors.ErrAuthorization, action)
	}
	return nil
}
