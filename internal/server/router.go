package server

import (
	"fmt"
	"net/http"

	"auction-house/internal/config"
	"auction-house/internal/session"
	accountHandler "auction-house/services/account/handler"
	auctionHandler "auction-house/services/auction/handler"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the collaborators the router wires into its handlers
type Dependencies struct {
	Auctions auctionHandler.AuctionServiceInterface
	Accounts accountHandler.AccountServiceInterface
	Identify session.Resolver
	Sessions *session.Manager
	Renderer render.HTMLRender
	Limits   config.LimitsConfig

	// TrustedProxies may set X-Forwarded-For; nil trusts none, so rate limits
	// key on the socket address
	TrustedProxies []string
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	router := gin.New() // New router without default middleware for full control over middleware and logging
	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, fmt.Errorf("server: trusted proxies: %w", err)
	}

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(MetricsMiddleware)

	router.HTMLRender = deps.Renderer
	router.HandleMethodNotAllowed = true

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	app := router.Group("")
	app.Use(deps.Sessions.Middleware(deps.Identify))
	app.Use(CSRFTokenMiddleware)

	// logins and offers are the routes worth guessing or hammering
	limiter := NewRateLimiter(deps.Limits.RequestsPerSecond, deps.Limits.Burst).Middleware

	accounts := accountHandler.NewAccountHandler(deps.Accounts)
	{
		app.GET("/register", accounts.RegisterFormHandler)
		app.POST("/register", limiter, accounts.RegisterHandler)
		app.GET("/login", accounts.LoginFormHandler)
		app.POST("/login", limiter, accounts.LoginHandler)
		app.POST("/logout", accounts.LogoutHandler)
	}

	web := auctionHandler.NewWebHandler(deps.Auctions)
	{
		app.GET("/", web.IndexHandler)
		registerAuctionPages(app, web)
		app.POST("/auction/bid/:id", limiter, web.BidHandler)
		app.POST("/auction/buy/:id", limiter, web.BuyHandler)
	}

	my := auctionHandler.NewMyWebHandler(deps.Auctions)
	{
		g := app.Group("/my")
		g.GET("", my.IndexHandler)
		registerAuctionPages(g, my)
	}

	api := auctionHandler.NewAuctionHandler(deps.Auctions)
	apiGroup := app.Group("/api")
	{
		apiGroup.GET("/auctions", api.ListAuctionsHandler)
		apiGroup.POST("/auctions", api.CreateAuctionHandler)
		apiGroup.GET("/auctions/:id", api.GetAuctionHandler)
		apiGroup.PUT("/auctions/:id", api.UpdateAuctionHandler)
		apiGroup.DELETE("/auctions/:id", api.DeleteAuctionHandler)
		apiGroup.POST("/auctions/:id/finish", api.FinishAuctionHandler)
		apiGroup.POST("/auctions/:id/bids", limiter, api.PlaceBidHandler)
		apiGroup.POST("/auctions/:id/buy", limiter, api.BuyNowHandler)
		apiGroup.GET("/auctions/:id/offers", api.GetOffersHandler)
		apiGroup.GET("/auctions/:id/winning", api.GetWinningOfferHandler)
		apiGroup.GET("/me/auctions", api.MyAuctionsHandler)
		apiGroup.GET("/me/bids", api.MyBidsHandler)
	}

	router.NoRoute(deps.Sessions.Middleware(deps.Identify), NotFoundHandler)
	router.NoMethod(deps.Sessions.Middleware(deps.Identify), func(c *gin.Context) {
		abortWithStatus(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router, nil
}

// registerAuctionPages mounts the pages shared by the public and /my sections
func registerAuctionPages(g *gin.RouterGroup, h *auctionHandler.WebHandler) {
	g.GET("/auction/details/:id", h.DetailsHandler)
	g.GET("/auction/add", h.AddFormHandler)
	g.POST("/auction/add", h.AddHandler)
	g.GET("/auction/edit/:id", h.EditFormHandler)
	g.POST("/auction/edit/:id", h.EditHandler)
	g.DELETE("/auction/delete/:id", h.DeleteHandler)
	g.POST("/auction/delete/:id", h.DeleteHandler)
	g.POST("/auction/finish/:id", h.FinishHandler)
}
