package handlers

import (
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"

	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type AuctionRequest struct {
	SellerID             int64  `json:"seller_id" validate:"omitempty,gt=0"`
	RegisterID           string `json:"register_id" validate:"max=64"`
	Name                 string `json:"name" validate:"required,max=255"`
	Title                string `json:"title" validate:"max=255"`
	Description          string `json:"description"`
	CoverImageURL        string `json:"cover_image_url" validate:"omitempty,url"`
	VenueAddress         string `json:"venue_address" validate:"max=512"`
	Location             string `json:"location" validate:"max=255"`
	TermsAndConditions   string `json:"terms_and_conditions"`
	ImportantInformation string `json:"important_information"`
	BiddingStartDate     string `json:"bidding_start_date" validate:"required,datetime=2006-01-02"`
	BiddingStartTime     string `json:"bidding_start_time" validate:"required,datetime=15:04"`
	LiveStartDate        string `json:"live_auction_start_date" validate:"required,datetime=2006-01-02"`
	LiveStartTime        string `json:"live_auction_start_time" validate:"required,datetime=15:04"`
	ClosingDate          string `json:"closing_date" validate:"required,datetime=2006-01-02"`
	ClosingTime          string `json:"closing_time" validate:"required,datetime=15:04"`
	IsVerified           bool   `json:"is_verified"`
}

func (r *AuctionRequest) toDomain() (domain.Auction, error) {
	biddingStart, err := combine(r.BiddingStartDate, r.BiddingStartTime)
	if err != nil {
		return domain.Auction{}, err
	}
	liveStart, err := combine(r.LiveStartDate, r.LiveStartTime)
	if err != nil {
		return domain.Auction{}, err
	}
	closing, err := combine(r.ClosingDate, r.ClosingTime)
	if err != nil {
		return domain.Auction{}, err
	}

	return domain.Auction{
		RegisterID:           r.RegisterID,
		SellerID:             r.SellerID,
		Name:                 r.Name,
		Title:                r.Title,
		Description:          r.Description,
		CoverImageURL:        r.CoverImageURL,
		VenueAddress:         r.VenueAddress,
		Location:             r.Location,
		TermsAndConditions:   r.TermsAndConditions,
		ImportantInformation: r.ImportantInformation,
		BiddingStart:         biddingStart,
		LiveStart:            liveStart,
		Closing:              closing,
		IsVerified:           r.IsVerified,
	}, nil
}

func combine(date, timeOfDay string) (time.Time, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", domain.ErrBadRequest, date)
	}
	t, err := time.Parse(timeLayout, timeOfDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid time %q", domain.ErrBadRequest, timeOfDay)
	}
	return domain.CombineDateTime(d, t), nil
}

type AuctionResponse struct {
	ID                   int64     `json:"id"`
	RegisterID           string    `json:"register_id"`
	SellerID             int64     `json:"seller_id"`
	Name                 string    `json:"name"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	CoverImageURL        string    `json:"cover_image_url"`
	VenueAddress         string    `json:"venue_address"`
	Location             string    `json:"location"`
	TermsAndConditions   string    `json:"terms_and_conditions"`
	ImportantInformation string    `json:"important_information"`
	BiddingStart         time.Time `json:"bidding_start"`
	LiveStart            time.Time `json:"live_auction_start"`
	Closing              time.Time `json:"closing"`
	IsVerified           bool      `json:"is_verified"`
	IsActive             bool      `json:"is_active"`
	IsClosed             bool      `json:"is_closed"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toAuctionResponse(a *domain.Auction, now time.Time) AuctionResponse {
	return AuctionResponse{
		ID:                   a.ID,
		RegisterID:           a.RegisterID,
		SellerID:             a.SellerID,
		Name:                 a.Name,
		Title:                a.Title,
		Description:          a.Description,
		CoverImageURL:        a.CoverImageURL,
		VenueAddress:         a.VenueAddress,
		Location:             a.Location,
		TermsAndConditions:   a.TermsAndConditions,
		ImportantInformation: a.ImportantInformation,
		BiddingStart:         a.BiddingStart,
		LiveStart:            a.LiveStart,
		Closing:              a.Closing,
		IsVerified:           a.IsVerified,
		IsActive:             a.IsActive,
		IsClosed:             a.IsClosed,
		Status:               services.AuctionLifecycle{}.Status(*a, now).String(),
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func toAuctionResponses(auctions []*domain.Auction, now time.Time) []AuctionResponse {
	out := make([]AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, toAuctionResponse(a, now))
	}
	return out
}

type StatusResponse struct {
	AuctionID int64  `json:"auction_id"`
	Status    string `json:"status"`
}

type LotItemRequest struct {
	FieldID               int64           `json:"field_id" validate:"gte=0"`
	CategoryID            int64           `json:"category_id" validate:"gte=0"`
	SubCategoryID         int64           `json:"sub_category_id" validate:"gte=0"`
	Name                  string          `json:"name" validate:"required,max=255"`
	Description           string          `json:"description"`
	ImageURL              string          `json:"image_url" validate:"omitempty,url"`
	Condition             string          `json:"condition" validate:"max=64"`
	EstimateBidStartPrice decimal.Decimal `json:"estimate_bid_start_price"`
	EstimateBidEndPrice   decimal.Decimal `json:"estimate_bid_end_price"`
	AdditionalFees        decimal.Decimal `json:"additional_fees"`
	ShippingCost          decimal.Decimal `json:"shipping_cost"`
	BidInterval           int64           `json:"bid_interval" validate:"required,gt=0"`
}

func (r *LotItemRequest) toDomain(auctionID, itemID int64) domain.LotItem {
	return domain.LotItem{
		ID:                    itemID,
		AuctionID:             auctionID,
		FieldID:               r.FieldID,
		CategoryID:            r.CategoryID,
		SubCategoryID:         r.SubCategoryID,
		Name:                  r.Name,
		Description:           r.Description,
		ImageURL:              r.ImageURL,
		Condition:             r.Condition,
		EstimateBidStartPrice: r.EstimateBidStartPrice,
		EstimateBidEndPrice:   r.EstimateBidEndPrice,
		AdditionalFees:        r.AdditionalFees,
		ShippingCost:          r.ShippingCost,
		BidInterval:           r.BidInterval,
	}
}

type LotItemResponse struct {
	ID                    int64           `json:"id"`
	AuctionID             int64           `json:"auction_id"`
	FieldID               int64           `json:"field_id"`
	CategoryID            int64           `json:"category_id"`
	SubCategoryID         int64           `json:"sub_category_id"`
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	ImageURL              string          `json:"image_url"`
	Condition             string          `json:"condition"`
	EstimateBidStartPrice decimal.Decimal `json:"estimate_bid_start_price"`
	EstimateBidEndPrice   decimal.Decimal `json:"estimate_bid_end_price"`
	AdditionalFees        decimal.Decimal `json:"additional_fees"`
	ShippingCost          decimal.Decimal `json:"shipping_cost"`
	BidInterval           int64           `json:"bid_interval"`
	IsBiddingActive       bool            `json:"is_bidding_active"`
	IsSold                bool            `json:"is_sold"`
	WinningBidderID       *int64          `json:"winning_bidder_id"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func toLotItemResponse(l *domain.LotItem) LotItemResponse {
	return LotItemResponse{
		ID:                    l.ID,
		AuctionID:             l.AuctionID,
		FieldID:               l.FieldID,
		CategoryID:            l.CategoryID,
		SubCategoryID:         l.SubCategoryID,
		Name:                  l.Name,
		Description:           l.Description,
		ImageURL:              l.ImageURL,
		Condition:             l.Condition,
		EstimateBidStartPrice: l.EstimateBidStartPrice,
		EstimateBidEndPrice:   l.EstimateBidEndPrice,
		AdditionalFees:        l.AdditionalFees,
		ShippingCost:          l.ShippingCost,
		BidInterval:           l.BidInterval,
		IsBiddingActive:       l.IsBiddingActive,
		IsSold:                l.IsSold,
		WinningBidderID:       l.WinningBidderID,
		CreatedAt:             l.CreatedAt,
		UpdatedAt:             l.UpdatedAt,
	}
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type BidResponse struct {
	ID        int64           `json:"id"`
	AuctionID int64           `json:"auction_id"`
	ItemID    int64           `json:"item_id"`
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

func toBidResponse(b *domain.Bid) BidResponse {
	return BidResponse{
		ID:        b.ID,
		AuctionID: b.AuctionID,
		ItemID:    b.ItemID,
		UserID:    b.UserID,
		Amount:    b.Amount,
		Timestamp: b.Timestamp,
	}
}

type FloorResponse struct {
	AuctionID int64           `json:"auction_id"`
	ItemID    int64           `json:"item_id"`
	Floor     decimal.Decimal `json:"floor"`
}

type FinalizationResponse struct {
	AuctionID    int64        `json:"auction_id"`
	ItemID       int64        `json:"item_id"`
	Sold         bool         `json:"sold"`
	WinnerUserID *int64       `json:"winner_user_id"`
	WinningBid   *BidResponse `json:"winning_bid"`
}

func toFinalizationResponse(r domain.FinalizationResult) FinalizationResponse {
	out := FinalizationResponse{
		AuctionID:    r.AuctionID,
		ItemID:       r.ItemID,
		Sold:         r.Sold,
		WinnerUserID: r.WinnerUserID,
	}
	if r.WinningBid != nil {
		bid := toBidResponse(r.WinningBid)
		out.WinningBid = &bid
	}
	return out
}

type SendOTPRequest struct {
	Mobile string `json:"mobile" validate:"required,min=6,max=20"`
}

type VerifyOTPRequest struct {
	Mobile string `json:"mobile" validate:"required,min=6,max=20"`
	Code   string `json:"code" validate:"required,len=6,numeric"`
}
