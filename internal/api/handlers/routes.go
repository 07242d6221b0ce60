package handlers

import (
	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/auth"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auctions     *AuctionHandler
	Lots         *LotHandler
	Bids         *BidHandler
	Verification *VerificationHandler
}

// RegisterRoutes mounts the /api/v1 routes. Reads are public; writes
// require a bearer token.
func RegisterRoutes(e *echo.Echo, h Handlers, tokens middleware.TokenParser) {
	authn := middleware.JWT(tokens)
	sellerOrAdmin := middleware.RequireRole(auth.RoleSeller, auth.RoleAdmin)
	adminOnly := middleware.RequireRole(auth.RoleAdmin)
	bidder := middleware.RequireRole(auth.RoleBidder)

	api := e.Group("/api/v1")

	api.GET("/auctions/upcoming", h.Auctions.ListUpcoming)
	api.GET("/auctions/live", h.Auctions.ListLive)
	api.GET("/sellers/:sellerId/auctions", h.Auctions.ListBySeller)
	api.POST("/auctions", h.Auctions.CreateAuction, authn, sellerOrAdmin)
	api.GET("/auctions/:auctionId", h.Auctions.GetAuction)
	api.PUT("/auctions/:auctionId", h.Auctions.UpdateAuction, authn, sellerOrAdmin)
	api.DELETE("/auctions/:auctionId", h.Auctions.DeleteAuction, authn, adminOnly)
	api.GET("/auctions/:auctionId/status", h.Auctions.GetStatus)
	api.POST("/auctions/:auctionId/start", h.Auctions.StartAuction, authn, adminOnly)
	api.POST("/auctions/:auctionId/end", h.Auctions.EndAuction, authn, adminOnly)

	api.POST("/auctions/:auctionId/items", h.Lots.AddLotItem, authn, sellerOrAdmin)
	api.GET("/auctions/:auctionId/items", h.Lots.ListLotItems)
	api.DELETE("/auctions/:auctionId/items", h.Lots.DeleteAllLotItems, authn, sellerOrAdmin)
	api.GET("/auctions/:auctionId/items/:itemId", h.Lots.GetLotItem)
	api.PUT("/auctions/:auctionId/items/:itemId", h.Lots.UpdateLotItem, authn, sellerOrAdmin)
	api.DELETE("/auctions/:auctionId/items/:itemId", h.Lots.DeleteLotItem, authn, sellerOrAdmin)

	api.POST("/auctions/:auctionId/items/:itemId/finalize", h.Bids.FinalizeLot, authn, sellerOrAdmin)
	api.POST("/auctions/:auctionId/items/:itemId/bids", h.Bids.PlaceBid, authn, bidder)
	api.GET("/auctions/:auctionId/items/:itemId/bids", h.Bids.ListBids)
	api.GET("/auctions/:auctionId/items/:itemId/bids/last", h.Bids.LastBid)
	api.GET("/auctions/:auctionId/items/:itemId/bids/highest", h.Bids.HighestBid)
	api.GET("/auctions/:auctionId/items/:itemId/bids/floor", h.Bids.Floor)

	api.POST("/verification/mobile/send", h.Verification.SendOTP)
	api.POST("/verification/mobile/verify", h.Verification.VerifyOTP)
}
