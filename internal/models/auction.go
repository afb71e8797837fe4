// internal/models/auction.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// AuctionStatus is the state of the room's single current auction.
type AuctionStatus string

const (
	AuctionIdle    AuctionStatus = "IDLE"
	AuctionRunning AuctionStatus = "RUNNING"
	AuctionEnded   AuctionStatus = "ENDED"
)

// CurrentAuction tracks the auction in flight, if any. Invariants:
// CurrentBidderPlayerID is set only when CurrentBid > 0, and EndTime is set
// only while Status is RUNNING.
type CurrentAuction struct {
	ContestantID          *uuid.UUID    `json:"contestantId,omitempty"`
	Status                AuctionStatus `json:"status"`
	CurrentBid            int           `json:"currentBid"`
	CurrentBidderPlayerID *uuid.UUID    `json:"currentBidderPlayerId,omitempty"`
	EndTime               *time.Time    `json:"endTime,omitempty"`
}

// ResetIdle clears the auction back to its between-lots state.
func (a *CurrentAuction) ResetIdle() {
	*a = CurrentAuction{
		Status:     AuctionIdle,
		CurrentBid: 0,
	}
}
