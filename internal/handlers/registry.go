// internal/handlers/registry.go
package handlers

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mpetras/castdraft/internal/room"
)

// RoomConnection is a single client's live presence in a room.
type RoomConnection struct {
	// PlayerID is set once the connection completes a room:join.
	PlayerID uuid.UUID
	Bound    bool

	OutChan chan []byte
	Cancel  func()

	logger *logrus.Logger
}

// Write pushes serialized bytes onto the connection's out channel without
// blocking. Logs if the channel is full or closed and drops the message.
func (conn *RoomConnection) Write(data []byte) {
	select {
	case conn.OutChan <- data:
	default:
		if conn.logger != nil {
			conn.logger.Warnf("RoomConnection: OutChan full or closed for player %s, dropping message", conn.PlayerID)
		}
	}
}

// WriteEvent serializes ev and queues it for this connection only.
func (conn *RoomConnection) WriteEvent(ev room.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		if conn.logger != nil {
			conn.logger.Warnf("RoomConnection: failed to marshal event: %v", err)
		}
		return
	}
	conn.Write(data)
}

// WriteError sends a transient error event to this connection.
func (conn *RoomConnection) WriteError(msg string) {
	conn.WriteEvent(room.ErrorEvent(msg))
}

// ConnRegistry tracks which connections are bound to which room and fans
// broadcasts out to them. It implements the engine's BroadcastFn contract:
// Broadcast serializes the event exactly once, synchronously, before
// queueing bytes to the connections.
type ConnRegistry struct {
	mu    sync.Mutex
	rooms map[string]map[*RoomConnection]struct{}
	log   *logrus.Logger
}

// NewConnRegistry returns an empty registry.
func NewConnRegistry(logger *logrus.Logger) *ConnRegistry {
	return &ConnRegistry{
		rooms: make(map[string]map[*RoomConnection]struct{}),
		log:   logger,
	}
}

// Add binds conn to roomID.
func (cr *ConnRegistry) Add(roomID string, conn *RoomConnection) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	conns, ok := cr.rooms[roomID]
	if !ok {
		conns = make(map[*RoomConnection]struct{})
		cr.rooms[roomID] = conns
	}
	conns[conn] = struct{}{}
}

// Remove unbinds conn from roomID.
func (cr *ConnRegistry) Remove(roomID string, conn *RoomConnection) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	if conns, ok := cr.rooms[roomID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(cr.rooms, roomID)
		}
	}
}

// Broadcast sends ev to every connection bound to roomID.
func (cr *ConnRegistry) Broadcast(roomID string, ev room.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		cr.log.Warnf("room %s: failed to marshal broadcast event: %v", roomID, err)
		return
	}

	cr.mu.Lock()
	defer cr.mu.Unlock()
	for conn := range cr.rooms[roomID] {
		conn.Write(data)
	}
}
