// internal/room/bid.go
package room

import (
	"fmt"
	"time"

	"github.com/mpetras/castdraft/internal/models"
)

// ValidateBid decides whether a proposed bid is acceptable against the
// current auction state. It is a pure function: callers apply the bid
// themselves on nil. The deadline check closes the race window between timer
// expiry and an in-flight bid; a bid that arrives after the logical deadline
// is rejected even if the timer has not fired yet.
func ValidateBid(a *models.CurrentAuction, p *models.Player, amount, minIncrement int, now time.Time) error {
	if a.Status != models.AuctionRunning {
		return &InvalidStateError{Reason: "no active auction"}
	}
	minBid := a.CurrentBid + minIncrement
	if amount < minBid {
		return &ValidationError{Reason: fmt.Sprintf("bid must be at least %d", minBid)}
	}
	if amount > p.BudgetRemaining {
		return &ValidationError{Reason: "insufficient budget"}
	}
	if a.EndTime != nil && !now.Before(*a.EndTime) {
		return &ValidationError{Reason: "auction has ended"}
	}
	return nil
}
