package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"auction-marketplace/internal/auth"
	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const bidTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type TokenParser interface {
	Parse(raw string) (auth.Caller, error)
}

type LotReader interface {
	GetAuction(ctx context.Context, auctionID int64) (*domain.Auction, error)
	GetLotItem(ctx context.Context, auctionID, itemID int64) (*domain.LotItem, error)
}

type Bidder interface {
	PlaceBid(ctx context.Context, in services.PlaceBidInput) (domain.Bid, error)
	Floor(ctx context.Context, auctionID, itemID int64) (decimal.Decimal, error)
}

type clientMessage struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

type WebSocketHandler struct {
	bids        Bidder
	lots        LotReader
	tokens      TokenParser
	connManager domain.ConnectionManager
	clock       clock.Clock
	lifecycle   services.AuctionLifecycle
	log         logger.Logger
}

func NewWebSocketHandler(bids Bidder, lots LotReader, tokens TokenParser,
	connManager domain.ConnectionManager, clk clock.Clock, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		bids:        bids,
		lots:        lots,
		tokens:      tokens,
		connManager: connManager,
		clock:       clk,
		log:         log,
	}
}

func (h *WebSocketHandler) Register(router *mux.Router) {
	router.HandleFunc("/ws/auctions/{auctionID:[0-9]+}/items/{itemID:[0-9]+}", h.HandleConnection).
		Methods(http.MethodGet)
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	auctionID, err := strconv.ParseInt(vars["auctionID"], 10, 64)
	if err != nil {
		http.Error(w, "invalid auction id", http.StatusBadRequest)
		return
	}
	itemID, err := strconv.ParseInt(vars["itemID"], 10, 64)
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	caller, err := h.tokens.Parse(bearerToken(r))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	auction, err := h.lots.GetAuction(r.Context(), auctionID)
	if err != nil {
		h.writeLookupError(w, err, "auction", auctionID)
		return
	}
	if auction.IsClosed || h.lifecycle.Status(*auction, h.clock.Now()) == domain.AuctionClosed {
		h.log.Info("Rejected connection - auction has ended", "auction_id", auctionID)
		http.Error(w, "auction has already ended", http.StatusForbidden)
		return
	}

	lot, err := h.lots.GetLotItem(r.Context(), auctionID, itemID)
	if err != nil {
		h.writeLookupError(w, err, "lot item", itemID)
		return
	}
	if !lot.IsBiddingActive {
		http.Error(w, "lot is closed", http.StatusForbidden)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := NewConnection(ws, caller.UserID, auctionID, itemID)
	if err := h.connManager.RegisterConnection(conn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		_ = conn.Close()
		return
	}

	h.sendLotState(conn)
	go h.handleMessages(conn, ws)
}

func (h *WebSocketHandler) writeLookupError(w http.ResponseWriter, err error, what string, id int64) {
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, what+" not found", http.StatusNotFound)
		return
	}
	h.log.Error("Failed to load "+what, "id", id, "error", err)
	if errors.Is(err, domain.ErrStorageUnavailable) {
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (h *WebSocketHandler) sendLotState(conn *Connection) {
	ctx, cancel := context.WithTimeout(context.Background(), bidTimeout)
	defer cancel()

	floor, err := h.bids.Floor(ctx, conn.AuctionID(), conn.ItemID())
	if err != nil {
		h.log.Warn("Failed to read lot floor", "auction_id", conn.AuctionID(), "item_id", conn.ItemID(), "error", err)
		return
	}
	h.reply(conn, map[string]interface{}{
		"type":       "lot_state",
		"auction_id": conn.AuctionID(),
		"item_id":    conn.ItemID(),
		"floor":      floor.String(),
	})
}

func (h *WebSocketHandler) handleMessages(conn *Connection, ws *websocket.Conn) {
	done := make(chan struct{})
	defer func() {
		close(done)
		_ = h.connManager.UnregisterConnection(conn)
		_ = conn.Close()
	}()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	go h.keepAlive(conn, done)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("Connection closed unexpectedly", "conn_id", conn.ID(), "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.replyError(conn, domain.ErrBadRequest, "malformed message")
			continue
		}

		switch msg.Type {
		case "place_bid":
			h.handleBidMessage(conn, msg)
		case "ping":
			h.reply(conn, map[string]string{"type": "pong"})
		default:
			h.replyError(conn, domain.ErrBadRequest, "unknown message type")
		}
	}
}

func (h *WebSocketHandler) keepAlive(conn *Connection, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) handleBidMessage(conn *Connection, msg clientMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), bidTimeout)
	defer cancel()

	bid, err := h.bids.PlaceBid(ctx, services.PlaceBidInput{
		AuctionID: conn.AuctionID(),
		ItemID:    conn.ItemID(),
		UserID:    conn.UserID(),
		Amount:    msg.Amount,
	})
	if err != nil {
		var tooLow *domain.BidTooLowError
		if errors.As(err, &tooLow) {
			h.reply(conn, map[string]string{
				"type":    "error",
				"code":    domain.ErrorCode(err),
				"message": tooLow.Error(),
				"minimum": tooLow.Floor.String(),
			})
			return
		}
		h.log.Info("Bid rejected", "conn_id", conn.ID(), "user_id", conn.UserID(), "error", err)
		h.replyError(conn, err, "")
		return
	}

	h.reply(conn, map[string]interface{}{
		"type":      "bid_accepted",
		"bid_id":    bid.ID,
		"amount":    bid.Amount.String(),
		"timestamp": bid.Timestamp,
	})
}

// replyError reports err to the client. Internal failures are not echoed.
func (h *WebSocketHandler) replyError(conn *Connection, err error, message string) {
	code := domain.ErrorCode(err)
	if message == "" {
		message = err.Error()
		if code == "internal" || code == "storage_unavailable" {
			message = "failed to place bid"
		}
	}
	h.reply(conn, map[string]string{"type": "error", "code": code, "message": message})
}

func (h *WebSocketHandler) reply(conn *Connection, message interface{}) {
	if err := conn.Send(message); err != nil {
		h.log.Error("Failed to send reply", "conn_id", conn.ID(), "error", err)
	}
}

func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
