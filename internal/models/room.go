// internal/models/room.go
package models

import (
	"sync"

	"github.com/google/uuid"
)

// RoomPhase describes the lifecycle stage of a draft room.
type RoomPhase string

const (
	PhaseLobby    RoomPhase = "LOBBY"
	PhaseAuction  RoomPhase = "AUCTION"
	PhaseComplete RoomPhase = "COMPLETE"
)

// CanTransitionTo reports whether the phase may legally advance to next.
// Phases only ever move forward: LOBBY -> AUCTION -> COMPLETE.
func (p RoomPhase) CanTransitionTo(next RoomPhase) bool {
	switch p {
	case PhaseLobby:
		return next == PhaseAuction
	case PhaseAuction:
		return next == PhaseComplete
	default:
		return false
	}
}

// RoomSettings holds the economic and timing parameters of a room.
// All fields are positive integers.
type RoomSettings struct {
	StartingBudget int `json:"startingBudget"`
	MinIncrement   int `json:"minIncrement"`
	TimerSeconds   int `json:"timerSeconds"`
}

// DefaultSettings matches the values a freshly created room starts with.
func DefaultSettings() RoomSettings {
	return RoomSettings{
		StartingBudget: 100,
		MinIncrement:   1,
		TimerSeconds:   30,
	}
}

// SettingsPatch is a partial settings update. Nil fields are left untouched.
type SettingsPatch struct {
	StartingBudget *int `json:"startingBudget,omitempty"`
	MinIncrement   *int `json:"minIncrement,omitempty"`
	TimerSeconds   *int `json:"timerSeconds,omitempty"`
}

// Apply merges the patch into s field by field.
func (p SettingsPatch) Apply(s *RoomSettings) {
	if p.StartingBudget != nil {
		s.StartingBudget = *p.StartingBudget
	}
	if p.MinIncrement != nil {
		s.MinIncrement = *p.MinIncrement
	}
	if p.TimerSeconds != nil {
		s.TimerSeconds = *p.TimerSeconds
	}
}

// Room is the canonical state of one draft session. The Mu mutex serializes
// every load-mutate-save cycle against the room; handlers and the auction
// timer must hold it for the full cycle so concurrent events cannot
// interleave.
type Room struct {
	ID          string                     `json:"id"`
	Phase       RoomPhase                  `json:"phase"`
	Settings    RoomSettings               `json:"settings"`
	Players     map[uuid.UUID]*Player      `json:"players"`
	Contestants map[uuid.UUID]*Contestant  `json:"contestants"`

	CurrentAuction    CurrentAuction `json:"currentAuction"`
	NominatorPlayerID *uuid.UUID     `json:"nominatorPlayerId,omitempty"`

	// AdminKeyHash is the argon2id hash of the host's admin key. Never
	// serialized to clients.
	AdminKeyHash string `json:"-"`

	Mu sync.Mutex `json:"-"`
}

// NewRoom builds an empty LOBBY room with default settings.
func NewRoom(id, adminKeyHash string) *Room {
	return &Room{
		ID:           id,
		Phase:        PhaseLobby,
		Settings:     DefaultSettings(),
		Players:      make(map[uuid.UUID]*Player),
		Contestants:  make(map[uuid.UUID]*Contestant),
		AdminKeyHash: adminKeyHash,
		CurrentAuction: CurrentAuction{
			Status:     AuctionIdle,
			CurrentBid: 0,
		},
	}
}

// DraftedCount returns how many contestants have been drafted so far.
func (r *Room) DraftedCount() int {
	n := 0
	for _, c := range r.Contestants {
		if c.Status == ContestantDrafted {
			n++
		}
	}
	return n
}

// AvailableCount returns how many contestants are still up for nomination.
func (r *Room) AvailableCount() int {
	n := 0
	for _, c := range r.Contestants {
		if c.Status == ContestantAvailable {
			n++
		}
	}
	return n
}
