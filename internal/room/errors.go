// internal/room/errors.go
package room

import "errors"

// Sentinel errors surfaced by the engine. The transport layer reports these
// to the originating connection only; they are never broadcast.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// InvalidStateError rejects an operation that is not listed in the room or
// auction transition tables, e.g. starting an auction that is already
// running.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string { return e.Reason }

// ValidationError rejects a structurally valid request whose values fail a
// check, e.g. a bid below the current minimum. Reason carries the specific
// numeric requirement where one exists.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// errNoop signals a handler body that the triggering entity was not found
// and the event should be silently dropped: no mutation, no save, no
// broadcast, no error to the caller.
var errNoop = errors.New("no-op")
