package handlers

import (
	"context"

	"auction-marketplace/internal/auth"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type stubTokens map[string]auth.Caller

func (s stubTokens) Parse(raw string) (auth.Caller, error) {
	if c, ok := s[raw]; ok {
		return c, nil
	}
	return auth.Caller{}, domain.ErrUnauthorized
}

type mockAuctions struct{ mock.Mock }

func auctionOrNil(args mock.Arguments) (*domain.Auction, error) {
	a, _ := args.Get(0).(*domain.Auction)
	return a, args.Error(1)
}

func lotOrNil(args mock.Arguments) (*domain.LotItem, error) {
	l, _ := args.Get(0).(*domain.LotItem)
	return l, args.Error(1)
}

func (m *mockAuctions) CreateAuction(ctx context.Context, a domain.Auction) (*domain.Auction, error) {
	return auctionOrNil(m.Called(ctx, a))
}

func (m *mockAuctions) UpdateAuction(ctx context.Context, a domain.Auction) (*domain.Auction, error) {
	return auctionOrNil(m.Called(ctx, a))
}

func (m *mockAuctions) GetAuction(ctx context.Context, id int64) (*domain.Auction, error) {
	return auctionOrNil(m.Called(ctx, id))
}

func (m *mockAuctions) ListBySeller(ctx context.Context, sellerID int64) ([]*domain.Auction, error) {
	args := m.Called(ctx, sellerID)
	return args.Get(0).([]*domain.Auction), args.Error(1)
}

func (m *mockAuctions) ListUpcoming(ctx context.Context) ([]*domain.Auction, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Auction), args.Error(1)
}

func (m *mockAuctions) ListLive(ctx context.Context) ([]*domain.Auction, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Auction), args.Error(1)
}

func (m *mockAuctions) DeleteAuction(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAuctions) GetAuctionStatus(ctx context.Context, id int64) (domain.AuctionStatus, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.AuctionStatus), args.Error(1)
}

func (m *mockAuctions) StartAuction(ctx context.Context, id int64) (*domain.Auction, error) {
	return auctionOrNil(m.Called(ctx, id))
}

func (m *mockAuctions) EndAuction(ctx context.Context, id int64) ([]domain.FinalizationResult, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).([]domain.FinalizationResult)
	return r, args.Error(1)
}

func (m *mockAuctions) AddLotItem(ctx context.Context, item domain.LotItem) (*domain.LotItem, error) {
	return lotOrNil(m.Called(ctx, item))
}

func (m *mockAuctions) UpdateLotItem(ctx context.Context, item domain.LotItem) (*domain.LotItem, error) {
	return lotOrNil(m.Called(ctx, item))
}

func (m *mockAuctions) GetLotItem(ctx context.Context, auctionID, itemID int64) (*domain.LotItem, error) {
	return lotOrNil(m.Called(ctx, auctionID, itemID))
}

func (m *mockAuctions) ListLotItems(ctx context.Context, auctionID int64) ([]*domain.LotItem, error) {
	args := m.Called(ctx, auctionID)
	return args.Get(0).([]*domain.LotItem), args.Error(1)
}

func (m *mockAuctions) DeleteLotItem(ctx context.Context, auctionID, itemID int64) error {
	return m.Called(ctx, auctionID, itemID).Error(0)
}

func (m *mockAuctions) DeleteAllLotItems(ctx context.Context, auctionID int64) (int64, error) {
	args := m.Called(ctx, auctionID)
	return args.Get(0).(int64), args.Error(1)
}

type mockEngine struct{ mock.Mock }

func (m *mockEngine) PlaceBid(ctx context.Context, in services.PlaceBidInput) (domain.Bid, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.Bid), args.Error(1)
}

func (m *mockEngine) FinalizeLot(ctx context.Context, auctionID, itemID int64) (domain.FinalizationResult, error) {
	args := m.Called(ctx, auctionID, itemID)
	return args.Get(0).(domain.FinalizationResult), args.Error(1)
}

func (m *mockEngine) Floor(ctx context.Context, auctionID, itemID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, auctionID, itemID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockBids struct{ mock.Mock }

func bidOrNil(args mock.Arguments) (*domain.Bid, error) {
	b, _ := args.Get(0).(*domain.Bid)
	return b, args.Error(1)
}

func (m *mockBids) LastBid(ctx context.Context, auctionID, itemID int64) (*domain.Bid, error) {
	return bidOrNil(m.Called(ctx, auctionID, itemID))
}

func (m *mockBids) HighestBid(ctx context.Context, auctionID, itemID int64) (*domain.Bid, error) {
	return bidOrNil(m.Called(ctx, auctionID, itemID))
}

func (m *mockBids) AllBids(ctx context.Context, auctionID, itemID int64) ([]*domain.Bid, error) {
	args := m.Called(ctx, auctionID, itemID)
	return args.Get(0).([]*domain.Bid), args.Error(1)
}

type mockOTP struct{ mock.Mock }

func (m *mockOTP) SendOTP(ctx context.Context, mobile string) error {
	return m.Called(ctx, mobile).Error(0)
}

func (m *mockOTP) VerifyOTP(ctx context.Context, mobile, code string) (bool, error) {
	args := m.Called(ctx, mobile, code)
	return args.Bool(0), args.Error(1)
}
