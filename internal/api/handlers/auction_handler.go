package handlers

import (
	"context"
	"fmt"
	"net/http"

	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/auth"
	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

type AuctionHandler struct {
	auctions AuctionService
	clock    clock.Clock
	log      logger.Logger
}

func NewAuctionHandler(auctions AuctionService, clk clock.Clock, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		auctions: auctions,
		clock:    clk,
		log:      log,
	}
}

func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	caller, _ := middleware.CallerFrom(c)

	var req AuctionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	auction, err := req.toDomain()
	if err != nil {
		return err
	}

	switch caller.Role {
	case auth.RoleSeller:
		auction.SellerID = caller.UserID
	case auth.RoleAdmin:
		if auction.SellerID == 0 {
			return fmt.Errorf("%w: seller_id is required", domain.ErrBadRequest)
		}
	}

	created, err := h.auctions.CreateAuction(c.Request().Context(), auction)
	if err != nil {
		return err
	}

	h.log.Info("Auction created successfully", "auction_id", created.ID, "seller_id", created.SellerID)
	return respond(c, http.StatusCreated, toAuctionResponse(created, h.clock.Now()))
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	id, err := pathID(c, "auctionId")
	if err != nil {
		return err
	}
	auction, err := h.auctions.GetAuction(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toAuctionResponse(auction, h.clock.Now()))
}

func (h *AuctionHandler) UpdateAuction(c echo.Context) error {
	id, err := pathID(c, "auctionId")
	if err != nil {
		return err
	}
	if _, err := authorizeOwner(c, h.auctions, id); err != nil {
		return err
	}

	var req AuctionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	auction, err := req.toDomain()
	if err != nil {
		return err
	}
	auction.ID = id

	updated, err := h.auctions.UpdateAuction(c.Request().Context(), auction)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toAuctionResponse(updated, h.clock.Now()))
}

func (h *AuctionHandler) DeleteAuction(c echo.Context) error {
	id, err := pathID(c, "auctionId")
	if err != nil {
		return err
	}
	if err := h.auctions.DeleteAuction(c.Request().Context(), id); err != nil {
		return err
	}
	h.log.Info("Auction deleted", "auction_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuctionHandler) ListUpcoming(c echo.Context) error {
	auctions, err := h.auctions.ListUpcoming(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toAuctionResponses(auctions, h.clock.Now()))
}

func (h *AuctionHandler) ListLive(c echo.Context) error {
	auctions, err := h.auctions.ListLive(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toAuctionResponses(auctions, h.clock.Now()))
}

func (h *AuctionHandler) ListBySeller(c echo.Context) error {
	sellerID, err := pathID(c, "sellerId")
	if err != nil {
		return err
	}
	auctions, err := h.auctions.ListBySeller(c.Request().Context(), sellerID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toAuctionResponses(auctions, h.clock.Now()))
}

func (h *AuctionHandler) GetStatus(c echo.Context) error {
	id, err := pathID(c, "auctionId")
	if err != nil {
		return err
	}
	status, err := h.auctions.GetAuctionStatus(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, StatusResponse{AuctionID: id, Status: status.String()})
}

// StartAuction activates a live auction ahead of the scheduler.
func (h *AuctionHandler) StartAuction(c echo.Context) error {
	id, err := pathID(c, "auctionId")
	if err != nil {
		return err
	}
	auction, err := h.auctions.StartAuction(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toAuctionResponse(auction, h.clock.Now()))
}

func (h *AuctionHandler) EndAuction(c echo.Context) error {
	id, err := pathID(c, "auctionId")
	if err != nil {
		return err
	}
	results, err := h.auctions.EndAuction(c.Request().Context(), id)
	if err != nil {
		return err
	}
	out := make([]FinalizationResponse, 0, len(results))
	for _, r := range results {
		out = append(out, toFinalizationResponse(r))
	}
	return respond(c, http.StatusOK, out)
}

type auctionGetter interface {
	GetAuction(ctx context.Context, auctionID int64) (*domain.Auction, error)
}

// authorizeOwner loads the auction and allows admins and the selling seller.
func authorizeOwner(c echo.Context, auctions auctionGetter, auctionID int64) (*domain.Auction, error) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	auction, err := auctions.GetAuction(c.Request().Context(), auctionID)
	if err != nil {
		return nil, err
	}
	if caller.Role == auth.RoleAdmin {
		return auction, nil
	}
	if caller.Role == auth.RoleSeller && auction.SellerID == caller.UserID {
		return auction, nil
	}
	return nil, fmt.Errorf("%w: auction %d belongs to another seller", domain.ErrForbidden, auctionID)
}
