package domain

import (
	"context"
	"time"
)

// Repository interfaces
type AuctionRepository interface {
	// WithTx runs fn in a transaction attached to the returned context. Nested
	// calls reuse the outer transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateAuction(ctx context.Context, auction *Auction) error
	GetAuction(ctx context.Context, auctionID int64) (*Auction, error)
	UpdateAuction(ctx context.Context, auction *Auction) error
	DeleteAuction(ctx context.Context, auctionID int64) error
	SetAuctionFlags(ctx context.Context, auctionID int64, isActive, isClosed bool, updatedAt time.Time) error
	ListAuctionsBySeller(ctx context.Context, sellerID int64) ([]*Auction, error)
	ListUpcomingAuctions(ctx context.Context, now time.Time, limit int) ([]*Auction, error)
	ListLiveAuctions(ctx context.Context, now time.Time, limit int) ([]*Auction, error)
	ListOpenAuctions(ctx context.Context) ([]*Auction, error)

	CreateLotItem(ctx context.Context, item *LotItem) error
	GetLotItem(ctx context.Context, auctionID, itemID int64) (*LotItem, error)
	// GetLotItemForUpdate reads the lot and holds a row lock on it until the
	// surrounding transaction ends.
	GetLotItemForUpdate(ctx context.Context, auctionID, itemID int64) (*LotItem, error)
	ListLotItems(ctx context.Context, auctionID int64) ([]*LotItem, error)
	UpdateLotItemDetails(ctx context.Context, item *LotItem) error
	UpdateLotItemOutcome(ctx context.Context, item *LotItem) error
	DeleteLotItem(ctx context.Context, auctionID, itemID int64) error
	DeleteAllLotItems(ctx context.Context, auctionID int64) (int64, error)
}

// BidRepository is the storage behind the bid ledger. InsertBid returns
// ErrNotFound when the referenced auction/lot pair does not exist.
type BidRepository interface {
	InsertBid(ctx context.Context, bid *Bid) error
	LastBid(ctx context.Context, auctionID, itemID int64) (*Bid, error)
	HighestBid(ctx context.Context, auctionID, itemID int64) (*Bid, error)
	ListBids(ctx context.Context, auctionID, itemID int64) ([]*Bid, error)
	LastUserBid(ctx context.Context, auctionID, itemID, userID int64) (*Bid, error)
}

type UserRepository interface {
	GetBidderEligibility(ctx context.Context, userID int64) (BidderEligibility, error)
	SellerExists(ctx context.Context, sellerID int64) (bool, error)
}

type SchedulerRepository interface {
	CreateJob(ctx context.Context, job *ScheduledJob) error
	GetPendingJobs(ctx context.Context, before time.Time) ([]*ScheduledJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus) error
	CancelJobsForAuction(ctx context.Context, auctionID int64) error
}

type EventRepository interface {
	SaveBidEvent(ctx context.Context, event *BidEvent) error
	ListEvents(ctx context.Context, auctionID int64) ([]*BidEvent, error)
}
