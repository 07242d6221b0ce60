package domain

import "context"

// Notification interfaces
type UserNotifier interface {
	NotifyUser(ctx context.Context, userID int64, message interface{}) error
}

type AuctionBroadcaster interface {
	BroadcastToAuction(ctx context.Context, auctionID int64, message interface{}) error
	BroadcastToLot(ctx context.Context, auctionID, itemID int64, message interface{}) error
}
