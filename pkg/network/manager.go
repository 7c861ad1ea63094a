package network

import (
	"sync"

	"github.com/duelist-dev/duelcore/pkg/log"
)

// ConnectionManager tracks connected clients and implements Broadcaster.
type ConnectionManager struct {
	connections     map[string]*Connection
	connectionsLock sync.RWMutex
}

var _ Broadcaster = &ConnectionManager{}

// NewConnectionManager creates a new ConnectionManager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
	}
}

// AddConnection adds a connection to the manager.
func (m *ConnectionManager) AddConnection(conn *Connection) {
	m.connectionsLock.Lock()
	defer m.connectionsLock.Unlock()
	m.connections[conn.ID] = conn
}

// RemoveConnection removes a connection from the manager.
func (m *ConnectionManager) RemoveConnection(connectionID string) {
	m.connectionsLock.Lock()
	defer m.connectionsLock.Unlock()
	delete(m.connections, connectionID)
}

// GetConnection retrieves a connection by its ID.
func (m *ConnectionManager) GetConnection(connectionID string) *Connection {
	m.connectionsLock.RLock()
	defer m.connectionsLock.RUnlock()
	return m.connections[connectionID]
}

func (m *ConnectionManager) SendToRoom(roomID string, v interface{}) {
	m.connectionsLock.RLock()
	targets := make([]*Connection, 0, 2)
	for _, conn := range m.connections {
		if conn.RoomID == roomID {
			targets = append(targets, conn)
		}
	}
	m.connectionsLock.RUnlock()

	for _, conn := range targets {
		if err := conn.Send(v); err != nil {
			log.Error("Failed to send message to connection %s: %v", conn.ID, err)
		}
	}
}

func (m *ConnectionManager) SendToConnection(connectionID string, v interface{}) {
	conn := m.GetConnection(connectionID)
	if conn == nil {
		log.Debug("Connection %s not found, dropping message", connectionID)
		return
	}
	if err := conn.Send(v); err != nil {
		log.Error("Failed to send message to connection %s: %v", connectionID, err)
	}
}
