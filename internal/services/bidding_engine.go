package services

import (
	"context"
	"errors"
	"fmt"

	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/lotlock"
	"auction-marketplace/pkg/logger"

	"github.com/shopspring/decimal"
)

type PlaceBidInput struct {
	AuctionID int64
	ItemID    int64
	UserID    int64
	Amount    decimal.Decimal
}

// BiddingEngine accepts bids and finalizes lots. Every operation on a lot
// holds the in-process lot lock and runs in one transaction that row-locks
// the lot, so floor reads, appends and finalization never interleave.
type BiddingEngine struct {
	auctions  domain.AuctionRepository
	users     domain.UserRepository
	ledger    *BidLedger
	locks     *lotlock.Pool
	clock     clock.Clock
	lifecycle AuctionLifecycle
	eventPub  domain.EventPublisher
	snapshots domain.LotSnapshotCache
	log       logger.Logger
}

// NewBiddingEngine wires the engine. snapshots may be nil.
func NewBiddingEngine(
	auctions domain.AuctionRepository,
	users domain.UserRepository,
	ledger *BidLedger,
	locks *lotlock.Pool,
	clk clock.Clock,
	eventPub domain.EventPublisher,
	snapshots domain.LotSnapshotCache,
	log logger.Logger,
) *BiddingEngine {
	return &BiddingEngine{
		auctions:  auctions,
		users:     users,
		ledger:    ledger,
		locks:     locks,
		clock:     clk,
		eventPub:  eventPub,
		snapshots: snapshots,
		log:       log,
	}
}

func (e *BiddingEngine) PlaceBid(ctx context.Context, in PlaceBidInput) (domain.Bid, error) {
	unlock := e.locks.Lock(lotlock.Key{AuctionID: in.AuctionID, ItemID: in.ItemID})
	defer unlock()

	now := e.clock.Now()

	var (
		placed domain.Bid
		lot    *domain.LotItem
	)
	err := e.auctions.WithTx(ctx, func(ctx context.Context) error {
		auction, err := e.auctions.GetAuction(ctx, in.AuctionID)
		if err != nil {
			return err
		}
		lot, err = e.auctions.GetLotItemForUpdate(ctx, in.AuctionID, in.ItemID)
		if err != nil {
			return err
		}

		if e.lifecycle.Status(*auction, now) != domain.AuctionLive || !lot.IsBiddingActive {
			return domain.ErrBiddingClosed
		}

		eligibility, err := e.users.GetBidderEligibility(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !eligibility.Exists {
			return fmt.Errorf("user %d: %w", in.UserID, domain.ErrNotFound)
		}
		if !eligibility.IsClientBidder {
			return domain.ErrNotEligible
		}
		if err := validateAmount(in.Amount); err != nil {
			return err
		}

		floor, err := e.floor(ctx, lot)
		if err != nil {
			return err
		}
		if in.Amount.LessThan(floor) {
			return &domain.BidTooLowError{Amount: in.Amount, Floor: floor}
		}

		placed, err = e.ledger.Append(ctx, domain.Bid{
			AuctionID: in.AuctionID,
			ItemID:    in.ItemID,
			UserID:    in.UserID,
			Amount:    in.Amount,
			Timestamp: now,
		})
		return err
	})
	if err != nil {
		if isValidationError(err) {
			e.publish(ctx, &domain.BidEvent{
				Type:      domain.BidRejected,
				AuctionID: in.AuctionID,
				ItemID:    in.ItemID,
				UserID:    in.UserID,
				Amount:    in.Amount,
				Reason:    err.Error(),
				Timestamp: now,
			})
		}
		return domain.Bid{}, err
	}

	e.log.Info("Bid accepted",
		"auction_id", placed.AuctionID,
		"item_id", placed.ItemID,
		"user_id", placed.UserID,
		"amount", placed.Amount.String())

	e.publish(ctx, &domain.BidEvent{
		Type:      domain.BidAccepted,
		AuctionID: placed.AuctionID,
		ItemID:    placed.ItemID,
		UserID:    placed.UserID,
		Amount:    placed.Amount,
		Timestamp: placed.Timestamp,
	})
	e.storeSnapshot(ctx, &domain.LotSnapshot{
		AuctionID:  placed.AuctionID,
		ItemID:     placed.ItemID,
		LastAmount: placed.Amount,
		LastBidder: placed.UserID,
		Floor:      placed.Amount.Add(lot.Interval()),
		Open:       true,
		UpdatedAt:  placed.Timestamp,
	})

	return placed, nil
}

// FinalizeLot closes bidding on a lot and records the most recent bid as the
// winner. A lot can only be finalized once.
func (e *BiddingEngine) FinalizeLot(ctx context.Context, auctionID, itemID int64) (domain.FinalizationResult, error) {
	unlock := e.locks.Lock(lotlock.Key{AuctionID: auctionID, ItemID: itemID})
	defer unlock()

	result := domain.FinalizationResult{AuctionID: auctionID, ItemID: itemID}
	err := e.auctions.WithTx(ctx, func(ctx context.Context) error {
		lot, err := e.auctions.GetLotItemForUpdate(ctx, auctionID, itemID)
		if err != nil {
			return err
		}
		if !lot.IsBiddingActive {
			return domain.ErrAlreadyFinalized
		}

		last, err := e.ledger.LastBid(ctx, auctionID, itemID)
		if err != nil {
			return err
		}

		lot.IsBiddingActive = false
		lot.UpdatedAt = e.clock.Now()
		lot.IsSold = false
		lot.WinningBidderID = nil
		if last != nil {
			winner := last.UserID
			lot.IsSold = true
			lot.WinningBidderID = &winner
			result.Sold = true
			result.WinnerUserID = &winner
			result.WinningBid = last
		}

		return e.auctions.UpdateLotItemOutcome(ctx, lot)
	})
	if err != nil {
		return domain.FinalizationResult{}, err
	}

	now := e.clock.Now()
	event := &domain.BidEvent{
		Type:      domain.LotFinalized,
		AuctionID: auctionID,
		ItemID:    itemID,
		Timestamp: now,
	}
	snapshot := &domain.LotSnapshot{AuctionID: auctionID, ItemID: itemID, UpdatedAt: now}
	if result.WinningBid != nil {
		event.UserID = result.WinningBid.UserID
		event.Amount = result.WinningBid.Amount
		snapshot.LastBidder = result.WinningBid.UserID
		snapshot.LastAmount = result.WinningBid.Amount
	}

	e.log.Info("Lot finalized", "auction_id", auctionID, "item_id", itemID, "sold", result.Sold)
	e.publish(ctx, event)
	e.storeSnapshot(ctx, snapshot)

	return result, nil
}

// Floor returns the minimum amount the next bid on the lot must reach.
func (e *BiddingEngine) Floor(ctx context.Context, auctionID, itemID int64) (decimal.Decimal, error) {
	lot, err := e.auctions.GetLotItem(ctx, auctionID, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	return e.floor(ctx, lot)
}

func (e *BiddingEngine) floor(ctx context.Context, lot *domain.LotItem) (decimal.Decimal, error) {
	last, err := e.ledger.LastBid(ctx, lot.AuctionID, lot.ID)
	if err != nil {
		return decimal.Zero, err
	}
	base := lot.EstimateBidStartPrice
	if last != nil {
		base = last.Amount
	}
	return base.Add(lot.Interval()), nil
}

func (e *BiddingEngine) publish(ctx context.Context, event *domain.BidEvent) {
	if e.eventPub == nil {
		return
	}
	if err := e.eventPub.PublishBidEvent(ctx, event); err != nil {
		e.log.Warn("Failed to publish bid event",
			"type", event.Type, "auction_id", event.AuctionID, "item_id", event.ItemID, "error", err)
	}
}

func (e *BiddingEngine) storeSnapshot(ctx context.Context, snapshot *domain.LotSnapshot) {
	if e.snapshots == nil {
		return
	}
	if err := e.snapshots.StoreSnapshot(ctx, snapshot); err != nil {
		e.log.Warn("Failed to store lot snapshot",
			"auction_id", snapshot.AuctionID, "item_id", snapshot.ItemID, "error", err)
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrBiddingClosed) ||
		errors.Is(err, domain.ErrNotEligible) ||
		errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrBidTooLow)
}

// amountLimit is the first value too wide for the DECIMAL(18,2) amount column.
var amountLimit = decimal.New(1, 16)

// validateAmount accepts positive amounts the ledger stores exactly: at most
// two decimal places and below amountLimit.
func validateAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return fmt.Errorf("amount %s must be positive: %w", amount.String(), domain.ErrInvalidAmount)
	case !amount.Equal(amount.Truncate(2)):
		return fmt.Errorf("amount %s has more than two decimal places: %w", amount.String(), domain.ErrInvalidAmount)
	case amount.GreaterThanOrEqual(amountLimit):
		return fmt.Errorf("amount %s is too large: %w", amount.String(), domain.ErrInvalidAmount)
	}
	return nil
}
