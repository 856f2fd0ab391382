package server

import (
	"fmt"
	"net/http"

	account "auction-house/internal/accountService"
	auction "auction-house/internal/auctionService"
	"auction-house/internal/config"
	"auction-house/internal/repository"
	"auction-house/internal/session"
	"auction-house/internal/views"

	"gorm.io/gorm"
)

// NewApp builds the services over db and returns the CSRF-protected handler
func NewApp(cfg *config.Config, db *gorm.DB, opts ...auction.Option) (http.Handler, error) {
	repo := repository.NewGormRepo(db)
	auctions := auction.NewAuctionService(repo, opts...)
	accounts := account.NewAccountService(repo, cfg.Security.BcryptCost)

	renderer, err := views.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	router, err := SetupRouter(Dependencies{
		Auctions: auctions,
		Accounts: accounts,
		Identify: accounts.Identify,
		Sessions: session.NewManager(cfg.SessionKey(), cfg.Security.CookieSecure),
		Renderer: renderer,
		Limits:   cfg.Limits,

		TrustedProxies: cfg.Server.TrustedProxies,
	})
	if err != nil {
		return nil, err
	}
	return NewHandler(router, cfg.Security, cfg.CSRFKey()), nil
}
