package network

// Broadcaster delivers messages to connected clients.
type Broadcaster interface {
	// SendToRoom sends v to every connection attached to the room.
	SendToRoom(roomID string, v interface{})
	// SendToConnection sends v to a single connection.
	SendToConnection(connectionID string, v interface{})
}
