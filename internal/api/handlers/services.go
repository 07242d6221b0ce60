package handlers

import (
	"context"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"

	"github.com/shopspring/decimal"
)

type AuctionService interface {
	CreateAuction(ctx context.Context, auction domain.Auction) (*domain.Auction, error)
	UpdateAuction(ctx context.Context, auction domain.Auction) (*domain.Auction, error)
	GetAuction(ctx context.Context, auctionID int64) (*domain.Auction, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]*domain.Auction, error)
	ListUpcoming(ctx context.Context) ([]*domain.Auction, error)
	ListLive(ctx context.Context) ([]*domain.Auction, error)
	DeleteAuction(ctx context.Context, auctionID int64) error
	GetAuctionStatus(ctx context.Context, auctionID int64) (domain.AuctionStatus, error)
	StartAuction(ctx context.Context, auctionID int64) (*domain.Auction, error)
	EndAuction(ctx context.Context, auctionID int64) ([]domain.FinalizationResult, error)

	AddLotItem(ctx context.Context, item domain.LotItem) (*domain.LotItem, error)
	UpdateLotItem(ctx context.Context, item domain.LotItem) (*domain.LotItem, error)
	GetLotItem(ctx context.Context, auctionID, itemID int64) (*domain.LotItem, error)
	ListLotItems(ctx context.Context, auctionID int64) ([]*domain.LotItem, error)
	DeleteLotItem(ctx context.Context, auctionID, itemID int64) error
	DeleteAllLotItems(ctx context.Context, auctionID int64) (int64, error)
}

type BiddingService interface {
	PlaceBid(ctx context.Context, in services.PlaceBidInput) (domain.Bid, error)
	FinalizeLot(ctx context.Context, auctionID, itemID int64) (domain.FinalizationResult, error)
	Floor(ctx context.Context, auctionID, itemID int64) (decimal.Decimal, error)
}

type BidQueries interface {
	LastBid(ctx context.Context, auctionID, itemID int64) (*domain.Bid, error)
	HighestBid(ctx context.Context, auctionID, itemID int64) (*domain.Bid, error)
	AllBids(ctx context.Context, auctionID, itemID int64) ([]*domain.Bid, error)
}

type OTPService interface {
	SendOTP(ctx context.Context, mobile string) error
	VerifyOTP(ctx context.Context, mobile, code string) (bool, error)
}

var (
	_ AuctionService = (*services.AuctionManager)(nil)
	_ BiddingService = (*services.BiddingEngine)(nil)
	_ BidQueries     = (*services.BidLedger)(nil)
	_ OTPService     = (*services.VerificationService)(nil)
)
