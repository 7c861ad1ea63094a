package network

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// Connection represents an authenticated WebSocket connection.
type Connection struct {
	ID     string
	UserID string
	Name   string
	Slug   string
	RoomID string

	conn      *websocket.Conn
	writeLock sync.Mutex
}

// Send marshals v as JSON and writes it as a single text frame.
// It is safe for concurrent use.
func (c *Connection) Send(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %v", err)
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}

	return nil
}

// Close closes the underlying WebSocket connection.
func (c *Connection) Close() error {
	return c.conn.Close()
}
