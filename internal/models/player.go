// internal/models/player.go
package models

import "github.com/google/uuid"

// Player is one participant in a draft room. Players are created on first
// join and never deleted while the room exists; disconnects only flip the
// Connected flag.
type Player struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	BudgetRemaining int       `json:"budgetRemaining"`
	Connected       bool      `json:"connected"`

	// Roster holds drafted contestant ids in draft order.
	Roster []uuid.UUID `json:"roster"`
}

// NewPlayer builds a connected player with a fresh id, an empty roster, and
// the given starting budget.
func NewPlayer(name string, startingBudget int) *Player {
	return &Player{
		ID:              uuid.New(),
		Name:            name,
		BudgetRemaining: startingBudget,
		Connected:       true,
		Roster:          []uuid.UUID{},
	}
}
