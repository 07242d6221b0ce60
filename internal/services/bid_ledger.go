package services

import (
	"context"
	"fmt"

	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/domain"
)

// BidLedger is the append-only record of bids per lot. It never judges an
// amount; that is the engine's job.
type BidLedger struct {
	repo  domain.BidRepository
	clock clock.Clock
}

func NewBidLedger(repo domain.BidRepository, clk clock.Clock) *BidLedger {
	return &BidLedger{repo: repo, clock: clk}
}

// Append stores bid, stamping it with the current time when Timestamp is
// zero. The stored bid, with its assigned ID, is returned.
func (l *BidLedger) Append(ctx context.Context, bid domain.Bid) (domain.Bid, error) {
	if bid.Timestamp.IsZero() {
		bid.Timestamp = l.clock.Now()
	}
	bid.Timestamp = bid.Timestamp.UTC()

	if err := l.repo.InsertBid(ctx, &bid); err != nil {
		return domain.Bid{}, fmt.Errorf("append bid: %w", err)
	}
	return bid, nil
}

// LastBid returns the most recent bid of the lot, or nil.
func (l *BidLedger) LastBid(ctx context.Context, auctionID, itemID int64) (*domain.Bid, error) {
	return l.repo.LastBid(ctx, auctionID, itemID)
}

// HighestBid returns the largest bid; ties go to the earlier one.
func (l *BidLedger) HighestBid(ctx context.Context, auctionID, itemID int64) (*domain.Bid, error) {
	return l.repo.HighestBid(ctx, auctionID, itemID)
}

func (l *BidLedger) AllBids(ctx context.Context, auctionID, itemID int64) ([]*domain.Bid, error) {
	return l.repo.ListBids(ctx, auctionID, itemID)
}

func (l *BidLedger) UserBid(ctx context.Context, auctionID, itemID, userID int64) (*domain.Bid, error) {
	return l.repo.LastUserBid(ctx, auctionID, itemID, userID)
}
