package perftests

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	account "auction-house/internal/accountService"
	auction "auction-house/internal/auctionService"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/internal/rules"
	"auction-house/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	utils.SetOutput(io.Discard)
}

// fixture is a service over a file backed SQLite database, so concurrent
// goroutines really contend for the write lock
type fixture struct {
	svc      *auction.AuctionService
	owner    models.Identity
	bidders  []models.Identity
	auctions []string
}

func setup(b *testing.B, numAuctions, numBidders int) *fixture {
	b.Helper()

	db, err := repository.Open(repository.DriverSQLite, filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatalf("open database: %v", err)
	}
	b.Cleanup(func() { _ = repository.Close(db) })

	repo := repository.NewGormRepo(db)
	accounts := account.NewAccountService(repo, bcrypt.MinCost)
	f := &fixture{svc: auction.NewAuctionService(repo)}

	ctx := context.Background()
	register := func(name string) models.Identity {
		u, err := accounts.Register(ctx, account.Credentials{Username: name, Password: "benchmark-password"})
		if err != nil {
			b.Fatalf("register %s: %v", name, err)
		}
		return models.Identity{UserID: u.ID, Username: u.Username}
	}

	f.owner = register("seller")
	for i := 0; i < numBidders; i++ {
		f.bidders = append(f.bidders, register(fmt.Sprintf("bidder%d", i)))
	}
	for i := 0; i < numAuctions; i++ {
		a, err := f.svc.Create(ctx, f.owner, rules.AuctionFields{
			Title:         fmt.Sprintf("Benchmark item %d", i),
			Description:   "Load test item",
			Price:         decimal.NewFromInt(10_000_000),
			StartingPrice: decimal.NewFromInt(50),
			ExpireAt:      time.Now().Add(30 * 24 * time.Hour),
		})
		if err != nil {
			b.Fatalf("create auction: %v", err)
		}
		f.auctions = append(f.auctions, a.ID)
	}
	return f
}
