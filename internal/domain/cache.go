package domain

import "context"

// LotSnapshotCache holds the latest bidding state of each lot for live clients.
// It is never consulted when validating bids.
type LotSnapshotCache interface {
	StoreSnapshot(ctx context.Context, snapshot *LotSnapshot) error
	GetSnapshot(ctx context.Context, auctionID, itemID int64) (*LotSnapshot, error)
}
