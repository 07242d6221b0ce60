package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Auction struct {
	ID                   int64
	RegisterID           string
	SellerID             int64
	Name                 string
	Title                string
	Description          string
	CoverImageURL        string
	VenueAddress         string
	Location             string
	TermsAndConditions   string
	ImportantInformation string
	BiddingStart         time.Time
	LiveStart            time.Time
	Closing              time.Time
	IsVerified           bool
	IsActive             bool
	IsClosed             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ValidSchedule reports whether BiddingStart <= LiveStart <= Closing.
func (a Auction) ValidSchedule() bool {
	return !a.LiveStart.Before(a.BiddingStart) && !a.Closing.Before(a.LiveStart)
}

type AuctionStatus int

const (
	AuctionUpcoming AuctionStatus = iota
	AuctionLive
	AuctionClosed
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionUpcoming:
		return "Upcoming"
	case AuctionLive:
		return "Live"
	case AuctionClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// CombineDateTime joins the calendar day of date with the time of day of
// timeOfDay, interpreting both in UTC.
func CombineDateTime(date, timeOfDay time.Time) time.Time {
	d := date.UTC()
	t := timeOfDay.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

type LotItem struct {
	ID                    int64
	AuctionID             int64
	FieldID               int64
	CategoryID            int64
	SubCategoryID         int64
	Name                  string
	Description           string
	ImageURL              string
	Condition             string
	EstimateBidStartPrice decimal.Decimal
	EstimateBidEndPrice   decimal.Decimal
	AdditionalFees        decimal.Decimal
	ShippingCost          decimal.Decimal
	BidInterval           int64
	IsBiddingActive       bool
	IsSold                bool
	WinningBidderID       *int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Interval returns BidInterval as a decimal amount.
func (l LotItem) Interval() decimal.Decimal {
	return decimal.NewFromInt(l.BidInterval)
}

type Bid struct {
	ID        int64
	AuctionID int64
	ItemID    int64
	UserID    int64
	Amount    decimal.Decimal
	Timestamp time.Time
}

type BidderEligibility struct {
	Exists         bool
	IsClientBidder bool
}

type FinalizationResult struct {
	AuctionID    int64
	ItemID       int64
	Sold         bool
	WinnerUserID *int64
	WinningBid   *Bid
}

// LotSnapshot is the cached view of a lot's bidding state pushed to live clients.
type LotSnapshot struct {
	AuctionID  int64           `json:"auction_id"`
	ItemID     int64           `json:"item_id"`
	LastAmount decimal.Decimal `json:"last_amount"`
	LastBidder int64           `json:"last_bidder"`
	Floor      decimal.Decimal `json:"floor"`
	Open       bool            `json:"open"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type BidEvent struct {
	Type      BidEventType    `json:"type"`
	AuctionID int64           `json:"auction_id"`
	ItemID    int64           `json:"item_id,omitempty"`
	UserID    int64           `json:"user_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type BidEventType string

const (
	BidAccepted      BidEventType = "bid_accepted"
	BidRejected      BidEventType = "bid_rejected"
	LotFinalized     BidEventType = "lot_finalized"
	AuctionActivated BidEventType = "auction_activated"
	AuctionEnded     BidEventType = "auction_closed"
)

type ScheduledJob struct {
	ID        string
	AuctionID int64
	JobType   JobType
	RunAt     time.Time
	Status    JobStatus
	CreatedAt time.Time
}

type JobType string

const (
	JobStartAuction JobType = "start_auction"
	JobEndAuction   JobType = "end_auction"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobExecuted  JobStatus = "executed"
	JobCancelled JobStatus = "cancelled"
)
