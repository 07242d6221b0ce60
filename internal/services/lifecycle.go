package services

import (
	"time"

	"auction-marketplace/internal/domain"
)

// AuctionLifecycle derives an auction's status from its schedule. The zero
// value is ready to use; nothing here touches storage.
type AuctionLifecycle struct{}

// Status reports Upcoming before LiveStart, Live within [LiveStart, Closing]
// and Closed after Closing. All comparisons happen in UTC.
func (AuctionLifecycle) Status(a domain.Auction, now time.Time) domain.AuctionStatus {
	now = now.UTC()
	switch {
	case now.Before(a.LiveStart.UTC()):
		return domain.AuctionUpcoming
	case now.After(a.Closing.UTC()):
		return domain.AuctionClosed
	default:
		return domain.AuctionLive
	}
}

// ActivateIfDue returns a copy of a with IsActive set when the auction is
// Live and not yet active. The bool reports whether anything changed.
func (l AuctionLifecycle) ActivateIfDue(a domain.Auction, now time.Time) (domain.Auction, bool) {
	if a.IsActive || l.Status(a, now) != domain.AuctionLive {
		return a, false
	}
	a.IsActive = true
	return a, true
}

// CloseIfDue returns a copy of a marked closed and inactive once its closing
// time has passed.
func (l AuctionLifecycle) CloseIfDue(a domain.Auction, now time.Time) (domain.Auction, bool) {
	if a.IsClosed || l.Status(a, now) != domain.AuctionClosed {
		return a, false
	}
	a.IsClosed = true
	a.IsActive = false
	return a, true
}
