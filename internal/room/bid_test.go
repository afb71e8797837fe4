// internal/room/bid_test.go
package room

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mpetras/castdraft/internal/models"
)

func TestValidateBid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(20 * time.Second)
	cid := uuid.New()

	runningAuction := func() *models.CurrentAuction {
		return &models.CurrentAuction{
			ContestantID: &cid,
			Status:       models.AuctionRunning,
			CurrentBid:   10,
			EndTime:      &end,
		}
	}

	tests := []struct {
		name    string
		auction func() *models.CurrentAuction
		budget  int
		amount  int
		wantErr string
	}{
		{
			name:    "valid bid at exact minimum",
			auction: runningAuction,
			budget:  50,
			amount:  11,
		},
		{
			name:    "valid bid well above minimum",
			auction: runningAuction,
			budget:  50,
			amount:  40,
		},
		{
			name: "no auction running",
			auction: func() *models.CurrentAuction {
				a := runningAuction()
				a.Status = models.AuctionIdle
				return a
			},
			budget:  50,
			amount:  11,
			wantErr: "no active auction",
		},
		{
			name: "auction already ended",
			auction: func() *models.CurrentAuction {
				a := runningAuction()
				a.Status = models.AuctionEnded
				return a
			},
			budget:  50,
			amount:  11,
			wantErr: "no active auction",
		},
		{
			name:    "bid below current plus increment",
			auction: runningAuction,
			budget:  50,
			amount:  10,
			wantErr: "bid must be at least 11",
		},
		{
			name:    "bid exceeds budget",
			auction: runningAuction,
			budget:  11,
			amount:  12,
			wantErr: "insufficient budget",
		},
		{
			name:    "bid equal to full budget is allowed",
			auction: runningAuction,
			budget:  11,
			amount:  11,
		},
		{
			name: "bid at the deadline is rejected",
			auction: func() *models.CurrentAuction {
				a := runningAuction()
				e := now
				a.EndTime = &e
				return a
			},
			budget:  50,
			amount:  11,
			wantErr: "auction has ended",
		},
		{
			name: "bid after the deadline is rejected",
			auction: func() *models.CurrentAuction {
				a := runningAuction()
				e := now.Add(-time.Second)
				a.EndTime = &e
				return a
			},
			budget:  50,
			amount:  11,
			wantErr: "auction has ended",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Player{ID: uuid.New(), Name: "bidder", BudgetRemaining: tt.budget}
			err := ValidateBid(tt.auction(), p, tt.amount, 1, now)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateBidRespectsMinIncrement(t *testing.T) {
	now := time.Now()
	end := now.Add(30 * time.Second)
	a := &models.CurrentAuction{Status: models.AuctionRunning, CurrentBid: 20, EndTime: &end}
	p := &models.Player{ID: uuid.New(), BudgetRemaining: 100}

	assert.EqualError(t, ValidateBid(a, p, 24, 5, now), "bid must be at least 25")
	assert.NoError(t, ValidateBid(a, p, 25, 5, now))
}
