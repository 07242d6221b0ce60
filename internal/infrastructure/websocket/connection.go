package websocket

import (
	"sync"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/utils"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var _ domain.WebSocketConnection = (*Connection)(nil)

// Connection is one client socket watching a single lot. Writes are
// serialized so broadcasts and replies can share it.
type Connection struct {
	id        string
	conn      *websocket.Conn
	userID    int64
	auctionID int64
	itemID    int64

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewConnection(conn *websocket.Conn, userID, auctionID, itemID int64) *Connection {
	return &Connection{
		id:        utils.GenerateID("conn"),
		conn:      conn,
		userID:    userID,
		auctionID: auctionID,
		itemID:    itemID,
	}
}

func (c *Connection) ID() string       { return c.id }
func (c *Connection) UserID() int64    { return c.userID }
func (c *Connection) AuctionID() int64 { return c.auctionID }
func (c *Connection) ItemID() int64    { return c.itemID }

func (c *Connection) Send(message interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(message)
}

func (c *Connection) ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close sends a normal close frame and closes the socket. Repeated calls
// return the first result.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
