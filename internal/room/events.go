// internal/room/events.go
package room

import (
	"github.com/mpetras/castdraft/internal/models"
)

// Outbound event types. Clients rely on ordering, not deltas: every accepted
// mutation retransmits the full room snapshot and the latest snapshot always
// supersedes the previous one.
const (
	EventRoomState   = "room:state"
	EventRoomJoined  = "room:joined"
	EventAuctionTick = "auction:tick"
	EventError       = "error"
)

// Event is a single outbound message to one or all connections in a room.
//
// BroadcastFn implementations receive the event synchronously while the room
// lock is held and must serialize it before returning; the State pointer is
// not safe to marshal after the lock is released.
type Event struct {
	Type          string       `json:"type"`
	State         *models.Room `json:"state,omitempty"`
	TimeRemaining *int         `json:"timeRemaining,omitempty"`
	Message       string       `json:"message,omitempty"`
	PlayerID      string       `json:"playerId,omitempty"`
	Token         string       `json:"token,omitempty"`
}

// StateEvent wraps the full room snapshot.
func StateEvent(r *models.Room) Event {
	return Event{Type: EventRoomState, State: r}
}

// TickEvent reports the remaining auction time in whole seconds.
func TickEvent(remaining int) Event {
	return Event{Type: EventAuctionTick, TimeRemaining: &remaining}
}

// ErrorEvent carries a transient error to a single connection.
func ErrorEvent(msg string) Event {
	return Event{Type: EventError, Message: msg}
}

// JoinedEvent acknowledges a join with the caller's player id and session
// token.
func JoinedEvent(playerID, token string) Event {
	return Event{Type: EventRoomJoined, PlayerID: playerID, Token: token}
}
