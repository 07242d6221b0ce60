package domain

// WebSocket interfaces
type WebSocketConnection interface {
	ID() string
	Send(message interface{}) error
	Close() error
	UserID() int64
	AuctionID() int64
	ItemID() int64
}

type ConnectionManager interface {
	RegisterConnection(conn WebSocketConnection) error
	UnregisterConnection(conn WebSocketConnection) error
	GetConnectionsForAuction(auctionID int64) []WebSocketConnection
	GetConnectionsForUser(userID int64) []WebSocketConnection
	BroadcastToAuction(auctionID int64, message interface{}) error
	BroadcastToLot(auctionID, itemID int64, message interface{}) error
	NotifyUser(userID int64, message interface{}) error
	CloseAndUnregisterConnections(auctionID int64) error
}
