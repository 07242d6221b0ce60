package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/auth"
	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	e        *echo.Echo
	auctions *mockAuctions
	engine   *mockEngine
	bids     *mockBids
	otp      *mockOTP
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		auctions: &mockAuctions{},
		engine:   &mockEngine{},
		bids:     &mockBids{},
		otp:      &mockOTP{},
	}

	log := logger.NewNop()
	clk := clock.NewFixed(testNow)

	e := echo.New()
	e.Validator = middleware.NewCustomValidator(validator.New())
	e.HTTPErrorHandler = HTTPErrorHandler(log)
	RegisterRoutes(e, Handlers{
		Auctions:     NewAuctionHandler(f.auctions, clk, log),
		Lots:         NewLotHandler(f.auctions, log),
		Bids:         NewBidHandler(f.engine, f.bids, f.auctions, log),
		Verification: NewVerificationHandler(f.otp, log),
	}, stubTokens{
		"admin":        {UserID: 1, Role: auth.RoleAdmin},
		"seller":       {UserID: 5, Role: auth.RoleSeller},
		"other-seller": {UserID: 6, Role: auth.RoleSeller},
		"bidder":       {UserID: 9, Role: auth.RoleBidder},
	})
	f.e = e

	t.Cleanup(func() {
		f.auctions.AssertExpectations(t)
		f.engine.AssertExpectations(t)
		f.bids.AssertExpectations(t)
		f.otp.AssertExpectations(t)
	})
	return f
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env struct {
		Data   json.RawMessage `json:"data"`
		Status string          `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "success", env.Status)
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sellerAuction(id, sellerID int64) *domain.Auction {
	return &domain.Auction{
		ID:           id,
		SellerID:     sellerID,
		Name:         "Estate sale",
		BiddingStart: testNow.Add(-2 * time.Hour),
		LiveStart:    testNow.Add(-time.Hour),
		Closing:      testNow.Add(time.Hour),
	}
}

const auctionBody = `{
	"name": "Estate sale",
	"bidding_start_date": "2025-06-02", "bidding_start_time": "09:00",
	"live_auction_start_date": "2025-06-02", "live_auction_start_time": "10:00",
	"closing_date": "2025-06-02", "closing_time": "18:30"
}`

func TestCreateAuctionAsSeller(t *testing.T) {
	f := newFixture(t)
	liveStart := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	f.auctions.On("CreateAuction", mock.Anything, mock.MatchedBy(func(a domain.Auction) bool {
		return a.SellerID == 5 && a.LiveStart.Equal(liveStart) &&
			a.Closing.Equal(time.Date(2025, 6, 2, 18, 30, 0, 0, time.UTC))
	})).Return(func() *domain.Auction {
		a := sellerAuction(11, 5)
		a.BiddingStart = liveStart.Add(-time.Hour)
		a.LiveStart = liveStart
		a.Closing = liveStart.Add(8 * time.Hour)
		return a
	}(), nil)

	rec := f.do(http.MethodPost, "/api/v1/auctions", "seller", auctionBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got AuctionResponse
	decodeData(t, rec, &got)
	assert.Equal(t, int64(11), got.ID)
	assert.Equal(t, "Upcoming", got.Status)
}

func TestCreateAuctionRejections(t *testing.T) {
	f := newFixture(t)
	f.auctions.On("CreateAuction", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidSchedule).Once()

	tests := []struct {
		name   string
		token  string
		body   string
		status int
		code   string
	}{
		{"no token", "", auctionBody, http.StatusUnauthorized, "unauthorized"},
		{"bidder", "bidder", auctionBody, http.StatusForbidden, "forbidden"},
		{"missing name", "seller", `{"bidding_start_date":"2025-06-02"}`, http.StatusBadRequest, "bad_request"},
		{"malformed json", "seller", `{`, http.StatusBadRequest, "bad_request"},
		{"admin without seller", "admin", auctionBody, http.StatusBadRequest, "bad_request"},
		{"invalid schedule", "seller", auctionBody, http.StatusBadRequest, "invalid_schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/v1/auctions", tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestGetAuctionErrors(t *testing.T) {
	f := newFixture(t)
	f.auctions.On("GetAuction", mock.Anything, int64(404)).Return(nil, domain.ErrNotFound)
	f.auctions.On("GetAuction", mock.Anything, int64(503)).Return(nil, domain.ErrStorageUnavailable)

	rec := f.do(http.MethodGet, "/api/v1/auctions/404", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)

	rec = f.do(http.MethodGet, "/api/v1/auctions/503", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, ErrorResponse{Error: "Service Unavailable", Code: "storage_unavailable"}, decodeError(t, rec))

	rec = f.do(http.MethodGet, "/api/v1/auctions/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestListRoutes(t *testing.T) {
	f := newFixture(t)
	f.auctions.On("ListUpcoming", mock.Anything).Return([]*domain.Auction{}, nil)
	f.auctions.On("ListLive", mock.Anything).Return([]*domain.Auction{sellerAuction(1, 5)}, nil)
	f.auctions.On("ListBySeller", mock.Anything, int64(5)).Return([]*domain.Auction{sellerAuction(1, 5), sellerAuction(2, 5)}, nil)

	var list []AuctionResponse
	rec := f.do(http.MethodGet, "/api/v1/auctions/upcoming", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &list)
	assert.Empty(t, list)

	rec = f.do(http.MethodGet, "/api/v1/auctions/live", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Live", list[0].Status)

	rec = f.do(http.MethodGet, "/api/v1/sellers/5/auctions", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &list)
	assert.Len(t, list, 2)
}

func TestUpdateAuctionOwnership(t *testing.T) {
	f := newFixture(t)
	f.auctions.On("GetAuction", mock.Anything, int64(3)).Return(sellerAuction(3, 5), nil)
	f.auctions.On("UpdateAuction", mock.Anything, mock.MatchedBy(func(a domain.Auction) bool {
		return a.ID == 3
	})).Return(sellerAuction(3, 5), nil).Once()

	rec := f.do(http.MethodPut, "/api/v1/auctions/3", "other-seller", auctionBody)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPut, "/api/v1/auctions/3", "seller", auctionBody)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAuctionStatusAndStart(t *testing.T) {
	f := newFixture(t)
	f.auctions.On("GetAuctionStatus", mock.Anything, int64(3)).Return(domain.AuctionLive, nil)
	f.auctions.On("StartAuction", mock.Anything, int64(4)).Return(nil, domain.ErrNotDue)
	f.auctions.On("DeleteAuction", mock.Anything, int64(3)).Return(nil)

	rec := f.do(http.MethodGet, "/api/v1/auctions/3/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	decodeData(t, rec, &status)
	assert.Equal(t, StatusResponse{AuctionID: 3, Status: "Live"}, status)

	rec = f.do(http.MethodPost, "/api/v1/auctions/4/start", "seller", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/auctions/4/start", "admin", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_due", decodeError(t, rec).Code)

	rec = f.do(http.MethodDelete, "/api/v1/auctions/3", "admin", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLotRoutes(t *testing.T) {
	f := newFixture(t)
	f.auctions.On("GetAuction", mock.Anything, int64(3)).Return(sellerAuction(3, 5), nil)
	f.auctions.On("AddLotItem", mock.Anything, mock.MatchedBy(func(l domain.LotItem) bool {
		return l.AuctionID == 3 && l.BidInterval == 10 && l.EstimateBidStartPrice.Equal(decimal.NewFromInt(100))
	})).Return(&domain.LotItem{ID: 8, AuctionID: 3, Name: "Clock", BidInterval: 10, IsBiddingActive: true}, nil)
	f.auctions.On("DeleteAllLotItems", mock.Anything, int64(3)).Return(int64(2), nil)

	rec := f.do(http.MethodPost, "/api/v1/auctions/3/items", "seller",
		`{"name":"Clock","estimate_bid_start_price":"100","bid_interval":10}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item LotItemResponse
	decodeData(t, rec, &item)
	assert.Equal(t, int64(8), item.ID)
	assert.True(t, item.IsBiddingActive)

	rec = f.do(http.MethodPost, "/api/v1/auctions/3/items", "seller", `{"name":"Clock","bid_interval":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodDelete, "/api/v1/auctions/3/items", "seller", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted map[string]int64
	decodeData(t, rec, &deleted)
	assert.Equal(t, int64(2), deleted["deleted"])
}

func TestPlaceBid(t *testing.T) {
	f := newFixture(t)
	amount := decimal.RequireFromString("120.50")

	f.engine.On("PlaceBid", mock.Anything, mock.MatchedBy(func(in services.PlaceBidInput) bool {
		return in.UserID == 9 && in.AuctionID == 3 && in.ItemID == 8 && in.Amount.Equal(amount)
	})).Return(domain.Bid{ID: 77, AuctionID: 3, ItemID: 8, UserID: 9, Amount: amount, Timestamp: testNow}, nil).Once()
	f.engine.On("PlaceBid", mock.Anything, mock.MatchedBy(func(in services.PlaceBidInput) bool {
		return in.Amount.Equal(decimal.NewFromInt(50))
	})).Return(domain.Bid{}, &domain.BidTooLowError{Amount: decimal.NewFromInt(50), Floor: decimal.NewFromInt(130)}).Once()

	rec := f.do(http.MethodPost, "/api/v1/auctions/3/items/8/bids", "bidder", `{"amount":"120.50"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var bid BidResponse
	decodeData(t, rec, &bid)
	assert.Equal(t, int64(77), bid.ID)
	assert.True(t, bid.Amount.Equal(amount))

	rec = f.do(http.MethodPost, "/api/v1/auctions/3/items/8/bids", "bidder", `{"amount":50}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "bid_too_low", body.Code)
	assert.Contains(t, body.Error, "130")

	rec = f.do(http.MethodPost, "/api/v1/auctions/3/items/8/bids", "seller", `{"amount":"200"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPlaceBidErrorStatuses(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrBiddingClosed, http.StatusConflict},
		{domain.ErrNotEligible, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			f := newFixture(t)
			f.engine.On("PlaceBid", mock.Anything, mock.Anything).Return(domain.Bid{}, tt.err).Once()

			rec := f.do(http.MethodPost, "/api/v1/auctions/3/items/8/bids", "bidder", `{"amount":"200"}`)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

// Amount checks happen in the engine after existence, open state and
// eligibility, so a zero bid reports whichever of those fails first.
func TestPlaceBidZeroAmountFollowsEngineOrder(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing lot", fmt.Errorf("lot item 8: %w", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{"closed lot", domain.ErrBiddingClosed, http.StatusConflict, "bidding_closed"},
		{"not a client bidder", domain.ErrNotEligible, http.StatusForbidden, "not_eligible"},
		{"open lot", fmt.Errorf("amount 0 must be positive: %w", domain.ErrInvalidAmount), http.StatusBadRequest, "invalid_amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.engine.On("PlaceBid", mock.Anything, mock.MatchedBy(func(in services.PlaceBidInput) bool {
				return in.Amount.IsZero()
			})).Return(domain.Bid{}, tt.err).Once()

			rec := f.do(http.MethodPost, "/api/v1/auctions/3/items/8/bids", "bidder", `{"amount":"0"}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
			f.engine.AssertExpectations(t)
		})
	}
}

func TestFinalizeAndBidQueries(t *testing.T) {
	f := newFixture(t)
	winner := int64(9)
	winning := &domain.Bid{ID: 2, AuctionID: 3, ItemID: 8, UserID: 9, Amount: decimal.NewFromInt(140), Timestamp: testNow}

	f.auctions.On("GetAuction", mock.Anything, int64(3)).Return(sellerAuction(3, 5), nil)
	f.engine.On("FinalizeLot", mock.Anything, int64(3), int64(8)).
		Return(domain.FinalizationResult{AuctionID: 3, ItemID: 8, Sold: true, WinnerUserID: &winner, WinningBid: winning}, nil).Once()
	f.engine.On("FinalizeLot", mock.Anything, int64(3), int64(8)).
		Return(domain.FinalizationResult{}, domain.ErrAlreadyFinalized).Once()
	f.engine.On("Floor", mock.Anything, int64(3), int64(8)).Return(decimal.NewFromInt(150), nil)
	f.bids.On("LastBid", mock.Anything, int64(3), int64(8)).Return(winning, nil)
	f.bids.On("HighestBid", mock.Anything, int64(3), int64(9)).Return(nil, nil)
	f.bids.On("AllBids", mock.Anything, int64(3), int64(8)).Return([]*domain.Bid{winning}, nil)

	rec := f.do(http.MethodPost, "/api/v1/auctions/3/items/8/finalize", "seller", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result FinalizationResponse
	decodeData(t, rec, &result)
	assert.True(t, result.Sold)
	require.NotNil(t, result.WinnerUserID)
	assert.Equal(t, int64(9), *result.WinnerUserID)
	require.NotNil(t, result.WinningBid)
	assert.Equal(t, int64(2), result.WinningBid.ID)

	rec = f.do(http.MethodPost, "/api/v1/auctions/3/items/8/finalize", "admin", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_finalized", decodeError(t, rec).Code)

	rec = f.do(http.MethodGet, "/api/v1/auctions/3/items/8/bids/floor", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var floor FloorResponse
	decodeData(t, rec, &floor)
	assert.True(t, floor.Floor.Equal(decimal.NewFromInt(150)))

	rec = f.do(http.MethodGet, "/api/v1/auctions/3/items/8/bids/last", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var last BidResponse
	decodeData(t, rec, &last)
	assert.Equal(t, int64(2), last.ID)

	rec = f.do(http.MethodGet, "/api/v1/auctions/3/items/9/bids/highest", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":null,"status":"success"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/auctions/3/items/8/bids", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []BidResponse
	decodeData(t, rec, &all)
	assert.Len(t, all, 1)
}

func TestVerificationRoutes(t *testing.T) {
	f := newFixture(t)
	f.otp.On("SendOTP", mock.Anything, "+15551234567").Return(nil)
	f.otp.On("VerifyOTP", mock.Anything, "+15551234567", "123456").Return(false, nil).Once()
	f.otp.On("VerifyOTP", mock.Anything, "+15551234567", "654321").Return(true, nil).Once()

	rec := f.do(http.MethodPost, "/api/v1/verification/mobile/send", "", `{"mobile":"+15551234567"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/verification/mobile/verify", "", `{"mobile":"+15551234567","code":"123456"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/verification/mobile/verify", "", `{"mobile":"+15551234567","code":"654321"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/verification/mobile/verify", "", `{"mobile":"+15551234567","code":"12ab"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
