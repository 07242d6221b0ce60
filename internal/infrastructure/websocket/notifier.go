package websocket

import (
	"context"

	"auction-marketplace/internal/domain"
)

var (
	_ domain.UserNotifier       = (*WebSocketNotifier)(nil)
	_ domain.AuctionBroadcaster = (*WebSocketNotifier)(nil)
)

type WebSocketNotifier struct {
	connManager domain.ConnectionManager
}

func NewWebSocketNotifier(connManager domain.ConnectionManager) *WebSocketNotifier {
	return &WebSocketNotifier{connManager: connManager}
}

func (n *WebSocketNotifier) NotifyUser(ctx context.Context, userID int64, message interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.connManager.NotifyUser(userID, message)
}

func (n *WebSocketNotifier) BroadcastToAuction(ctx context.Context, auctionID int64, message interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.connManager.BroadcastToAuction(auctionID, message)
}

func (n *WebSocketNotifier) BroadcastToLot(ctx context.Context, auctionID, itemID int64, message interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.connManager.BroadcastToLot(auctionID, itemID, message)
}
