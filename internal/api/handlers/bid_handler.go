package handlers

import (
	"fmt"
	"net/http"

	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

type BidHandler struct {
	engine   BiddingService
	bids     BidQueries
	auctions auctionGetter
	log      logger.Logger
}

func NewBidHandler(engine BiddingService, bids BidQueries, auctions AuctionService, log logger.Logger) *BidHandler {
	return &BidHandler{
		engine:   engine,
		bids:     bids,
		auctions: auctions,
		log:      log,
	}
}

func lotIDs(c echo.Context) (int64, int64, error) {
	auctionID, err := pathID(c, "auctionId")
	if err != nil {
		return 0, 0, err
	}
	itemID, err := pathID(c, "itemId")
	if err != nil {
		return 0, 0, err
	}
	return auctionID, itemID, nil
}

// PlaceBid places a bid on behalf of the authenticated caller.
func (h *BidHandler) PlaceBid(c echo.Context) error {
	auctionID, itemID, err := lotIDs(c)
	if err != nil {
		return err
	}
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrBadRequest)
	}

	bid, err := h.engine.PlaceBid(c.Request().Context(), services.PlaceBidInput{
		AuctionID: auctionID,
		ItemID:    itemID,
		UserID:    caller.UserID,
		Amount:    req.Amount,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, toBidResponse(&bid))
}

func (h *BidHandler) FinalizeLot(c echo.Context) error {
	auctionID, itemID, err := lotIDs(c)
	if err != nil {
		return err
	}
	if _, err := authorizeOwner(c, h.auctions, auctionID); err != nil {
		return err
	}

	result, err := h.engine.FinalizeLot(c.Request().Context(), auctionID, itemID)
	if err != nil {
		return err
	}
	h.log.Info("Lot finalized", "auction_id", auctionID, "item_id", itemID, "sold", result.Sold)
	return respond(c, http.StatusOK, toFinalizationResponse(result))
}

func (h *BidHandler) ListBids(c echo.Context) error {
	auctionID, itemID, err := lotIDs(c)
	if err != nil {
		return err
	}
	bids, err := h.bids.AllBids(c.Request().Context(), auctionID, itemID)
	if err != nil {
		return err
	}
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, toBidResponse(b))
	}
	return respond(c, http.StatusOK, out)
}

// LastBid and HighestBid respond with null data when the lot has no bids.
func (h *BidHandler) LastBid(c echo.Context) error {
	auctionID, itemID, err := lotIDs(c)
	if err != nil {
		return err
	}
	bid, err := h.bids.LastBid(c.Request().Context(), auctionID, itemID)
	if err != nil {
		return err
	}
	return respondBid(c, bid)
}

func (h *BidHandler) HighestBid(c echo.Context) error {
	auctionID, itemID, err := lotIDs(c)
	if err != nil {
		return err
	}
	bid, err := h.bids.HighestBid(c.Request().Context(), auctionID, itemID)
	if err != nil {
		return err
	}
	return respondBid(c, bid)
}

func respondBid(c echo.Context, bid *domain.Bid) error {
	if bid == nil {
		return respond(c, http.StatusOK, nil)
	}
	return respond(c, http.StatusOK, toBidResponse(bid))
}

func (h *BidHandler) Floor(c echo.Context) error {
	auctionID, itemID, err := lotIDs(c)
	if err != nil {
		return err
	}
	floor, err := h.engine.Floor(c.Request().Context(), auctionID, itemID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, FloorResponse{AuctionID: auctionID, ItemID: itemID, Floor: floor})
}
