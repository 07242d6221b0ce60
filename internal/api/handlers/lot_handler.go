package handlers

import (
	"net/http"

	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

type LotHandler struct {
	auctions AuctionService
	log      logger.Logger
}

func NewLotHandler(auctions AuctionService, log logger.Logger) *LotHandler {
	return &LotHandler{auctions: auctions, log: log}
}

func (h *LotHandler) AddLotItem(c echo.Context) error {
	auctionID, err := pathID(c, "auctionId")
	if err != nil {
		return err
	}
	if _, err := authorizeOwner(c, h.auctions, auctionID); err != nil {
		return err
	}

	var req LotItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.auctions.AddLotItem(c.Request().Context(), req.toDomain(auctionID, 0))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, toLotItemResponse(item))
}

func (h *LotHandler) ListLotItems(c echo.Context) error {
	auctionID, err := pathID(c, "auctionId")
	if err != nil {
		return err
	}
	items, err := h.auctions.ListLotItems(c.Request().Context(), auctionID)
	if err != nil {
		return err
	}
	out := make([]LotItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toLotItemResponse(item))
	}
	return respond(c, http.StatusOK, out)
}

func (h *LotHandler) GetLotItem(c echo.Context) error {
	auctionID, err := pathID(c, "auctionId")
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "itemId")
	if err != nil {
		return err
	}
	item, err := h.auctions.GetLotItem(c.Request().Context(), auctionID, itemID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toLotItemResponse(item))
}

func (h *LotHandler) UpdateLotItem(c echo.Context) error {
	auctionID, err := pathID(c, "auctionId")
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "itemId")
	if err != nil {
		return err
	}
	if _, err := authorizeOwner(c, h.auctions, auctionID); err != nil {
		return err
	}

	var req LotItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.auctions.UpdateLotItem(c.Request().Context(), req.toDomain(auctionID, itemID))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toLotItemResponse(item))
}

func (h *LotHandler) DeleteLotItem(c echo.Context) error {
	auctionID, err := pathID(c, "auctionId")
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "itemId")
	if err != nil {
		return err
	}
	if _, err := authorizeOwner(c, h.auctions, auctionID); err != nil {
		return err
	}
	if err := h.auctions.DeleteLotItem(c.Request().Context(), auctionID, itemID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LotHandler) DeleteAllLotItems(c echo.Context) error {
	auctionID, err := pathID(c, "auctionId")
	if err != nil {
		return err
	}
	if _, err := authorizeOwner(c, h.auctions, auctionID); err != nil {
		return err
	}
	deleted, err := h.auctions.DeleteAllLotItems(c.Request().Context(), auctionID)
	if err != nil {
		return err
	}
	h.log.Info("Lot items deleted", "auction_id", auctionID, "count", deleted)
	return respond(c, http.StatusOK, map[string]int64{"deleted": deleted})
}
