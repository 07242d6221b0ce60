package services

import (
	"context"
	"fmt"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// EventListener turns bid events from the bus into messages for the
// websocket clients connected to this instance.
type EventListener struct {
	broadcaster       domain.AuctionBroadcaster
	connectionManager domain.ConnectionManager
	log               logger.Logger
}

func NewEventListener(connectionManager domain.ConnectionManager,
	broadcaster domain.AuctionBroadcaster, log logger.Logger) *EventListener {
	return &EventListener{
		broadcaster:       broadcaster,
		connectionManager: connectionManager,
		log:               log,
	}
}

func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("Starting event listener")
	return subscriber.SubscribeToBidEvents(ctx, el.HandleBidEvent)
}

func (el *EventListener) HandleBidEvent(event *domain.BidEvent) error {
	el.log.Debug("Handling bid event", "type", event.Type, "auction_id", event.AuctionID, "item_id", event.ItemID)

	switch event.Type {
	case domain.BidAccepted:
		return el.handleBidAccepted(event)
	case domain.BidRejected:
		// The bidder already got the rejection as the reply to their request.
		return nil
	case domain.LotFinalized:
		return el.handleLotFinalized(event)
	case domain.AuctionActivated:
		return el.handleAuctionActivated(event)
	case domain.AuctionEnded:
		return el.handleAuctionEnded(event)
	}

	return fmt.Errorf("unknown event type %q", event.Type)
}

func (el *EventListener) handleBidAccepted(event *domain.BidEvent) error {
	return el.broadcaster.BroadcastToLot(context.Background(), event.AuctionID, event.ItemID, map[string]interface{}{
		"type":           "bid_update",
		"auction_id":     event.AuctionID,
		"item_id":        event.ItemID,
		"current_bid":    event.Amount.String(),
		"current_winner": event.UserID,
		"timestamp":      event.Timestamp,
	})
}

func (el *EventListener) handleLotFinalized(event *domain.BidEvent) error {
	msg := map[string]interface{}{
		"type":       "lot_finalized",
		"auction_id": event.AuctionID,
		"item_id":    event.ItemID,
		"sold":       event.UserID != 0,
		"timestamp":  event.Timestamp,
	}
	if event.UserID != 0 {
		msg["winner"] = event.UserID
		msg["winning_bid"] = event.Amount.String()
	}
	return el.broadcaster.BroadcastToLot(context.Background(), event.AuctionID, event.ItemID, msg)
}

func (el *EventListener) handleAuctionActivated(event *domain.BidEvent) error {
	return el.broadcaster.BroadcastToAuction(context.Background(), event.AuctionID, map[string]interface{}{
		"type":       "auction_started",
		"auction_id": event.AuctionID,
		"timestamp":  event.Timestamp,
	})
}

func (el *EventListener) handleAuctionEnded(event *domain.BidEvent) error {
	if err := el.broadcaster.BroadcastToAuction(context.Background(), event.AuctionID, map[string]interface{}{
		"type":       "auction_closed",
		"auction_id": event.AuctionID,
		"timestamp":  event.Timestamp,
	}); err != nil {
		el.log.Error("Failed to broadcast auction closed event", "error", err)
		return err
	}

	if err := el.connectionManager.CloseAndUnregisterConnections(event.AuctionID); err != nil {
		el.log.Error("Failed to finalize connections for auction", "auction_id",
			event.AuctionID, "error", err)
		return err
	}
	return nil
}
