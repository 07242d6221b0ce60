package domain

import (
	"context"
	"time"
)

// Scheduler interface
type AuctionScheduler interface {
	ScheduleAuctionStart(ctx context.Context, auctionID int64, startTime time.Time) error
	ScheduleAuctionEnd(ctx context.Context, auctionID int64, endTime time.Time) error
	Reschedule(ctx context.Context, auctionID int64, startTime, endTime time.Time) error
	CancelSchedule(ctx context.Context, auctionID int64) error
	Start(ctx context.Context) error
	Stop() error
}
