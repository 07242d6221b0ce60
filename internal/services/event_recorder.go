package services

import (
	"context"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// EventRecorder persists every bid event it sees into the audit trail.
type EventRecorder struct {
	events domain.EventRepository
	log    logger.Logger
}

func NewEventRecorder(events domain.EventRepository, log logger.Logger) *EventRecorder {
	return &EventRecorder{events: events, log: log}
}

func (r *EventRecorder) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	r.log.Info("Starting event recorder")
	return subscriber.SubscribeToBidEvents(ctx, func(event *domain.BidEvent) error {
		return r.Record(ctx, event)
	})
}

func (r *EventRecorder) Record(ctx context.Context, event *domain.BidEvent) error {
	r.log.Debug("Storing bid event", "type", event.Type, "auction_id", event.AuctionID, "item_id", event.ItemID)
	return r.events.SaveBidEvent(ctx, event)
}
