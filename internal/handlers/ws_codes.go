// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room handler. These provide more
// specific reasons for closure than standard codes.
const (
	BadSubprotocolError      = 3000 // Client connected with an unsupported subprotocol.
	InvalidSessionTokenError = 3001 // Provided session token was invalid or expired.
	InvalidRoomCodeError     = 3002 // Target room code in the WS URL was malformed.
)
