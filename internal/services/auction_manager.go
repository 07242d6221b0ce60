package services

import (
	"context"
	"errors"
	"fmt"

	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

const (
	upcomingAuctionsLimit = 6
	liveAuctionsLimit     = 10
)

type AuctionManager struct {
	auctionRepo    domain.AuctionRepository
	userRepo       domain.UserRepository
	engine         *BiddingEngine
	eventPub       domain.EventPublisher
	scheduler      domain.AuctionScheduler
	leaderElection domain.LeaderElection
	clock          clock.Clock
	lifecycle      AuctionLifecycle
	instanceID     string
	log            logger.Logger
}

func NewAuctionManager(
	auctionRepo domain.AuctionRepository,
	userRepo domain.UserRepository,
	engine *BiddingEngine,
	eventPub domain.EventPublisher,
	leaderElection domain.LeaderElection,
	clk clock.Clock,
	instanceID string,
	log logger.Logger,
) *AuctionManager {
	return &AuctionManager{
		auctionRepo:    auctionRepo,
		userRepo:       userRepo,
		engine:         engine,
		eventPub:       eventPub,
		leaderElection: leaderElection,
		clock:          clk,
		instanceID:     instanceID,
		log:            log,
	}
}

// SetScheduler breaks the construction cycle between the manager and the
// scheduler that drives it.
func (am *AuctionManager) SetScheduler(scheduler domain.AuctionScheduler) {
	am.scheduler = scheduler
}

// IsLeader reports whether this instance currently owns the scheduled
// lifecycle work. Without a leader election every instance is the leader.
func (am *AuctionManager) IsLeader(ctx context.Context) (bool, error) {
	if am.leaderElection == nil {
		return true, nil
	}
	return am.leaderElection.IsLeader(ctx, am.instanceID)
}

func (am *AuctionManager) CreateAuction(ctx context.Context, auction domain.Auction) (*domain.Auction, error) {
	if !auction.ValidSchedule() {
		return nil, domain.ErrInvalidSchedule
	}
	ok, err := am.userRepo.SellerExists(ctx, auction.SellerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("seller %d: %w", auction.SellerID, domain.ErrNotFound)
	}

	now := am.clock.Now()
	auction.ID = 0
	auction.IsActive = false
	auction.IsClosed = false
	auction.CreatedAt = now
	auction.UpdatedAt = now

	err = am.auctionRepo.WithTx(ctx, func(ctx context.Context) error {
		if err := am.auctionRepo.CreateAuction(ctx, &auction); err != nil {
			return err
		}
		return am.schedule(ctx, &auction)
	})
	if err != nil {
		return nil, err
	}

	am.log.Info("Auction created", "auction_id", auction.ID, "seller_id", auction.SellerID,
		"live_start", auction.LiveStart, "closing", auction.Closing)
	return &auction, nil
}

func (am *AuctionManager) schedule(ctx context.Context, auction *domain.Auction) error {
	if am.scheduler == nil {
		return nil
	}
	if err := am.scheduler.ScheduleAuctionStart(ctx, auction.ID, auction.LiveStart); err != nil {
		return err
	}
	return am.scheduler.ScheduleAuctionEnd(ctx, auction.ID, auction.Closing)
}

// UpdateAuction replaces the descriptive fields and schedule of an auction.
// Lifecycle flags, seller and creation time are kept from the stored row.
// Closed auctions are frozen, and a live auction cannot be rescheduled out
// of its live window.
func (am *AuctionManager) UpdateAuction(ctx context.Context, auction domain.Auction) (*domain.Auction, error) {
	if !auction.ValidSchedule() {
		return nil, domain.ErrInvalidSchedule
	}

	var updated domain.Auction
	err := am.auctionRepo.WithTx(ctx, func(ctx context.Context) error {
		current, err := am.auctionRepo.GetAuction(ctx, auction.ID)
		if err != nil {
			return err
		}
		now := am.clock.Now()
		status := am.lifecycle.Status(*current, now)
		if current.IsClosed || status == domain.AuctionClosed {
			return domain.ErrBiddingClosed
		}
		// A live auction must still be live under the new schedule.
		if (current.IsActive || status == domain.AuctionLive) && am.lifecycle.Status(auction, now) != domain.AuctionLive {
			return fmt.Errorf("auction %d is live: %w", auction.ID, domain.ErrInvalidSchedule)
		}

		auction.SellerID = current.SellerID
		auction.IsActive = current.IsActive
		auction.IsClosed = current.IsClosed
		auction.CreatedAt = current.CreatedAt
		auction.UpdatedAt = now
		if err := am.auctionRepo.UpdateAuction(ctx, &auction); err != nil {
			return err
		}

		if am.scheduler != nil && (!current.LiveStart.Equal(auction.LiveStart) || !current.Closing.Equal(auction.Closing)) {
			if err := am.scheduler.Reschedule(ctx, auction.ID, auction.LiveStart, auction.Closing); err != nil {
				return err
			}
		}
		updated = auction
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (am *AuctionManager) GetAuction(ctx context.Context, auctionID int64) (*domain.Auction, error) {
	return am.auctionRepo.GetAuction(ctx, auctionID)
}

func (am *AuctionManager) ListBySeller(ctx context.Context, sellerID int64) ([]*domain.Auction, error) {
	return am.auctionRepo.ListAuctionsBySeller(ctx, sellerID)
}

func (am *AuctionManager) ListUpcoming(ctx context.Context) ([]*domain.Auction, error) {
	return am.auctionRepo.ListUpcomingAuctions(ctx, am.clock.Now(), upcomingAuctionsLimit)
}

func (am *AuctionManager) ListLive(ctx context.Context) ([]*domain.Auction, error) {
	return am.auctionRepo.ListLiveAuctions(ctx, am.clock.Now(), liveAuctionsLimit)
}

// DeleteAuction removes the auction with its lots and cancels its pending jobs.
func (am *AuctionManager) DeleteAuction(ctx context.Context, auctionID int64) error {
	return am.auctionRepo.WithTx(ctx, func(ctx context.Context) error {
		if am.scheduler != nil {
			if err := am.scheduler.CancelSchedule(ctx, auctionID); err != nil {
				return err
			}
		}
		return am.auctionRepo.DeleteAuction(ctx, auctionID)
	})
}

func (am *AuctionManager) GetAuctionStatus(ctx context.Context, auctionID int64) (domain.AuctionStatus, error) {
	auction, err := am.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		return domain.AuctionUpcoming, err
	}
	return am.lifecycle.Status(*auction, am.clock.Now()), nil
}

func validateLotItem(item *domain.LotItem) error {
	switch {
	case item.BidInterval <= 0:
		return fmt.Errorf("bid interval must be positive: %w", domain.ErrInvalidLotItem)
	case item.EstimateBidStartPrice.IsNegative():
		return fmt.Errorf("start price must not be negative: %w", domain.ErrInvalidLotItem)
	case item.EstimateBidEndPrice.IsPositive() && item.EstimateBidEndPrice.LessThan(item.EstimateBidStartPrice):
		return fmt.Errorf("estimated end price is below the start price: %w", domain.ErrInvalidLotItem)
	}
	return nil
}

// AddLotItem creates a lot open for bidding.
func (am *AuctionManager) AddLotItem(ctx context.Context, item domain.LotItem) (*domain.LotItem, error) {
	if err := validateLotItem(&item); err != nil {
		return nil, err
	}
	auction, err := am.auctionRepo.GetAuction(ctx, item.AuctionID)
	if err != nil {
		return nil, err
	}
	if auction.IsClosed {
		return nil, domain.ErrBiddingClosed
	}

	now := am.clock.Now()
	item.ID = 0
	item.IsBiddingActive = true
	item.IsSold = false
	item.WinningBidderID = nil
	item.CreatedAt = now
	item.UpdatedAt = now
	if err := am.auctionRepo.CreateLotItem(ctx, &item); err != nil {
		return nil, err
	}

	am.log.Info("Lot item created", "auction_id", item.AuctionID, "item_id", item.ID)
	return &item, nil
}

// UpdateLotItem changes a lot's description and pricing. Bidding state is
// owned by the engine and cannot be changed here.
func (am *AuctionManager) UpdateLotItem(ctx context.Context, item domain.LotItem) (*domain.LotItem, error) {
	if err := validateLotItem(&item); err != nil {
		return nil, err
	}
	item.UpdatedAt = am.clock.Now()
	if err := am.auctionRepo.UpdateLotItemDetails(ctx, &item); err != nil {
		return nil, err
	}
	return am.auctionRepo.GetLotItem(ctx, item.AuctionID, item.ID)
}

func (am *AuctionManager) GetLotItem(ctx context.Context, auctionID, itemID int64) (*domain.LotItem, error) {
	return am.auctionRepo.GetLotItem(ctx, auctionID, itemID)
}

func (am *AuctionManager) ListLotItems(ctx context.Context, auctionID int64) ([]*domain.LotItem, error) {
	if _, err := am.auctionRepo.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	return am.auctionRepo.ListLotItems(ctx, auctionID)
}

func (am *AuctionManager) DeleteLotItem(ctx context.Context, auctionID, itemID int64) error {
	return am.auctionRepo.DeleteLotItem(ctx, auctionID, itemID)
}

func (am *AuctionManager) DeleteAllLotItems(ctx context.Context, auctionID int64) (int64, error) {
	if _, err := am.auctionRepo.GetAuction(ctx, auctionID); err != nil {
		return 0, err
	}
	return am.auctionRepo.DeleteAllLotItems(ctx, auctionID)
}

// StartAuction marks a live auction active. Calling it on an active auction
// is a no-op; calling it outside the live window fails with ErrNotDue.
func (am *AuctionManager) StartAuction(ctx context.Context, auctionID int64) (*domain.Auction, error) {
	auction, err := am.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	now := am.clock.Now()
	activated, changed := am.lifecycle.ActivateIfDue(*auction, now)
	if !changed {
		if auction.IsActive && !auction.IsClosed {
			return auction, nil
		}
		return nil, fmt.Errorf("auction %d is %s: %w", auctionID, am.lifecycle.Status(*auction, now), domain.ErrNotDue)
	}

	if err := am.auctionRepo.SetAuctionFlags(ctx, auctionID, activated.IsActive, activated.IsClosed, now); err != nil {
		return nil, err
	}

	am.log.Info("Auction started", "auction_id", auctionID)
	am.publish(ctx, &domain.BidEvent{Type: domain.AuctionActivated, AuctionID: auctionID, Timestamp: now})
	return &activated, nil
}

// EndAuction finalizes every lot still open for bidding and marks the
// auction closed. Lots finalized by an earlier, interrupted run are skipped,
// so the call can be retried.
func (am *AuctionManager) EndAuction(ctx context.Context, auctionID int64) ([]domain.FinalizationResult, error) {
	auction, err := am.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.IsClosed {
		return nil, nil
	}

	now := am.clock.Now()
	closed, changed := am.lifecycle.CloseIfDue(*auction, now)
	if !changed {
		return nil, fmt.Errorf("auction %d is %s: %w", auctionID, am.lifecycle.Status(*auction, now), domain.ErrNotDue)
	}

	lots, err := am.auctionRepo.ListLotItems(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	var results []domain.FinalizationResult
	for _, lot := range lots {
		if !lot.IsBiddingActive {
			continue
		}
		res, err := am.engine.FinalizeLot(ctx, auctionID, lot.ID)
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			continue
		}
		if err != nil {
			return results, fmt.Errorf("finalize lot %d: %w", lot.ID, err)
		}
		results = append(results, res)
	}

	if err := am.auctionRepo.SetAuctionFlags(ctx, auctionID, closed.IsActive, closed.IsClosed, now); err != nil {
		return results, err
	}

	am.log.Info("Auction ended", "auction_id", auctionID, "lots_finalized", len(results))
	am.publish(ctx, &domain.BidEvent{Type: domain.AuctionEnded, AuctionID: auctionID, Timestamp: now})
	return results, nil
}

// SweepDue activates auctions whose live window has opened and ends those
// past closing. It catches up on anything the job table missed.
func (am *AuctionManager) SweepDue(ctx context.Context) error {
	auctions, err := am.auctionRepo.ListOpenAuctions(ctx)
	if err != nil {
		return err
	}

	now := am.clock.Now()
	var errs []error
	for _, a := range auctions {
		switch am.lifecycle.Status(*a, now) {
		case domain.AuctionLive:
			if a.IsActive {
				continue
			}
			if _, err := am.StartAuction(ctx, a.ID); err != nil {
				errs = append(errs, fmt.Errorf("start auction %d: %w", a.ID, err))
			}
		case domain.AuctionClosed:
			if _, err := am.EndAuction(ctx, a.ID); err != nil {
				errs = append(errs, fmt.Errorf("end auction %d: %w", a.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (am *AuctionManager) publish(ctx context.Context, event *domain.BidEvent) {
	if am.eventPub == nil {
		return
	}
	if err := am.eventPub.PublishBidEvent(ctx, event); err != nil {
		am.log.Warn("Failed to publish auction event", "type", event.Type, "auction_id", event.AuctionID, "error", err)
	}
}
