package websocket

import (
	"encoding/json"
	"errors"
	"sync"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

var _ domain.ConnectionManager = (*ConnectionManager)(nil)

type connSet map[string]domain.WebSocketConnection

type ConnectionManager struct {
	connections map[string]domain.WebSocketConnection // connID -> connection
	byAuction   map[int64]connSet                     // auctionID -> connID -> connection
	byUser      map[int64]connSet                     // userID -> connID -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]domain.WebSocketConnection),
		byAuction:   make(map[int64]connSet),
		byUser:      make(map[int64]connSet),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(conn domain.WebSocketConnection) error {
	if conn == nil {
		return errors.New("nil connection")
	}

	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.connections[conn.ID()] = conn
	add(cm.byAuction, conn.AuctionID(), conn)
	add(cm.byUser, conn.UserID(), conn)

	cm.log.Info("Connection registered",
		"conn_id", conn.ID(),
		"user_id", conn.UserID(),
		"auction_id", conn.AuctionID(),
		"item_id", conn.ItemID())
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if _, ok := cm.connections[conn.ID()]; !ok {
		return nil
	}
	cm.remove(conn)

	cm.log.Info("Connection unregistered", "conn_id", conn.ID(), "user_id", conn.UserID(), "auction_id", conn.AuctionID())
	return nil
}

// remove drops conn from every index. The caller holds the write lock.
func (cm *ConnectionManager) remove(conn domain.WebSocketConnection) {
	delete(cm.connections, conn.ID())
	drop(cm.byAuction, conn.AuctionID(), conn.ID())
	drop(cm.byUser, conn.UserID(), conn.ID())
}

func (cm *ConnectionManager) CloseAndUnregisterConnections(auctionID int64) error {
	cm.mutex.Lock()
	conns := values(cm.byAuction[auctionID])
	for _, conn := range conns {
		cm.remove(conn)
	}
	cm.mutex.Unlock()

	for _, conn := range conns {
		if err := conn.Close(); err != nil {
			cm.log.Error("Failed to close connection", "conn_id", conn.ID(), "user_id", conn.UserID(),
				"auction_id", auctionID, "error", err)
		}
	}

	cm.log.Info("Connections closed for auction", "auction_id", auctionID, "count", len(conns))
	return nil
}

func (cm *ConnectionManager) GetConnectionsForAuction(auctionID int64) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return values(cm.byAuction[auctionID])
}

func (cm *ConnectionManager) GetConnectionsForUser(userID int64) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return values(cm.byUser[userID])
}

func (cm *ConnectionManager) Len() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.connections)
}

func (cm *ConnectionManager) BroadcastToAuction(auctionID int64, message interface{}) error {
	return cm.send(cm.GetConnectionsForAuction(auctionID), message)
}

func (cm *ConnectionManager) BroadcastToLot(auctionID, itemID int64, message interface{}) error {
	var lot []domain.WebSocketConnection
	for _, conn := range cm.GetConnectionsForAuction(auctionID) {
		if conn.ItemID() == itemID {
			lot = append(lot, conn)
		}
	}
	return cm.send(lot, message)
}

func (cm *ConnectionManager) NotifyUser(userID int64, message interface{}) error {
	return cm.send(cm.GetConnectionsForUser(userID), message)
}

// send encodes message once and delivers it to every connection. A failed
// delivery is logged and does not stop the others.
func (cm *ConnectionManager) send(conns []domain.WebSocketConnection, message interface{}) error {
	if len(conns) == 0 {
		return nil
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	for _, conn := range conns {
		if err := conn.Send(json.RawMessage(payload)); err != nil {
			cm.log.Error("Failed to send message", "conn_id", conn.ID(), "user_id", conn.UserID(), "error", err)
		}
	}
	return nil
}

func add(index map[int64]connSet, key int64, conn domain.WebSocketConnection) {
	set, ok := index[key]
	if !ok {
		set = make(connSet)
		index[key] = set
	}
	set[conn.ID()] = conn
}

func drop(index map[int64]connSet, key int64, connID string) {
	if set, ok := index[key]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(index, key)
		}
	}
}

func values(set connSet) []domain.WebSocketConnection {
	out := make([]domain.WebSocketConnection, 0, len(set))
	for _, conn := range set {
		out = append(out, conn)
	}
	return out
}
