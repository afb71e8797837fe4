// internal/models/contestant.go
package models

import "github.com/google/uuid"

// ContestantStatus is the auction lifecycle state of a contestant.
type ContestantStatus string

const (
	ContestantAvailable ContestantStatus = "AVAILABLE"
	ContestantNominated ContestantStatus = "NOMINATED"
	ContestantDrafted   ContestantStatus = "DRAFTED"
)

// Contestant is one entry in the room's auction pool.
type Contestant struct {
	ID       uuid.UUID        `json:"id"`
	Name     string           `json:"name"`
	Bio      string           `json:"bio"`
	ImageURL string           `json:"imageUrl,omitempty"`
	Star     bool             `json:"star,omitempty"`
	Status   ContestantStatus `json:"status"`

	// Set once the contestant has been DRAFTED.
	DraftedByPlayerID *uuid.UUID `json:"draftedByPlayerId,omitempty"`
	DraftedPrice      *int       `json:"draftedPrice,omitempty"`
	DraftOrder        *int       `json:"draftOrder,omitempty"`
}

// ContestantDraft carries the caller-supplied fields for a new contestant.
type ContestantDraft struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	ImageURL string `json:"imageUrl,omitempty"`
	Star     bool   `json:"star,omitempty"`
}

// NewContestant builds an AVAILABLE contestant with a fresh id.
func NewContestant(d ContestantDraft) *Contestant {
	return &Contestant{
		ID:       uuid.New(),
		Name:     d.Name,
		Bio:      d.Bio,
		ImageURL: d.ImageURL,
		Star:     d.Star,
		Status:   ContestantAvailable,
	}
}

// ContestantPatch is a partial edit of a contestant's descriptive fields.
// Status and draft bookkeeping are owned by the engine and cannot be patched.
type ContestantPatch struct {
	Name     *string `json:"name,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
	Star     *bool   `json:"star,omitempty"`
}

// Apply merges the patch into c field by field.
func (p ContestantPatch) Apply(c *Contestant) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Bio != nil {
		c.Bio = *p.Bio
	}
	if p.ImageURL != nil {
		c.ImageURL = *p.ImageURL
	}
	if p.Star != nil {
		c.Star = *p.Star
	}
}
