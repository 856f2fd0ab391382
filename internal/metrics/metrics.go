package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Finish reasons for AuctionsFinished
const (
	FinishedByOwner  = "owner"
	FinishedByBuyNow = "buy_now"
	FinishedByExpiry = "expired"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auction",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "auction",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"method", "route"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auction",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter",
		},
		[]string{"route"},
	)

	// Auction domain metrics
	AuctionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "auction",
			Subsystem: "domain",
			Name:      "auctions_created_total",
			Help:      "Auctions listed",
		},
	)

	AuctionsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auction",
			Subsystem: "domain",
			Name:      "auctions_finished_total",
			Help:      "Auctions moved to finished, by reason",
		},
		[]string{"reason"},
	)

	AuctionsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "auction",
			Subsystem: "domain",
			Name:      "auctions_deleted_total",
			Help:      "Auctions removed by their owner",
		},
	)

	OffersAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auction",
			Subsystem: "domain",
			Name:      "offers_accepted_total",
			Help:      "Offers recorded, by kind",
		},
		[]string{"kind"},
	)

	OffersRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auction",
			Subsystem: "domain",
			Name:      "offers_rejected_total",
			Help:      "Offers refused by the bidding rules, by kind",
		},
		[]string{"kind"},
	)

	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auction",
			Subsystem: "account",
			Name:      "logins_total",
			Help:      "Login attempts, by result",
		},
		[]string{"result"},
	)
)
