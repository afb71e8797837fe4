// internal/room/auction.go
package room

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mpetras/castdraft/internal/cache"
	"github.com/mpetras/castdraft/internal/models"
)

// Extension rule: a bid accepted with fewer than snipeWindow remaining
// pushes the deadline back by snipeExtension.
const (
	snipeWindow    = 10 * time.Second
	snipeExtension = 5 * time.Second
)

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// Nominate puts an AVAILABLE contestant on the block. Permitted for the
// admin or the player currently holding nomination rights.
func (e *Engine) Nominate(ctx context.Context, roomID, adminKey string, callerID uuid.UUID, contestantID uuid.UUID) error {
	return e.withRoom(ctx, roomID, func(r *models.Room) error {
		if !IsAdmin(r, adminKey) && !IsNominator(r, callerID) {
			return ErrUnauthorized
		}
		if r.Phase != models.PhaseAuction {
			return &InvalidStateError{Reason: "draft is not in progress"}
		}
		if r.CurrentAuction.Status == models.AuctionRunning {
			return &InvalidStateError{Reason: "auction already running"}
		}
		c, ok := r.Contestants[contestantID]
		if !ok {
			return errNoop
		}
		if c.Status != models.ContestantAvailable {
			return &InvalidStateError{Reason: "contestant is not available"}
		}

		// At most one contestant may be NOMINATED at a time; a previous
		// nomination that never went to auction returns to the pool.
		if prev := r.CurrentAuction.ContestantID; prev != nil {
			if pc, ok := r.Contestants[*prev]; ok && pc.Status == models.ContestantNominated {
				pc.Status = models.ContestantAvailable
			}
		}

		c.Status = models.ContestantNominated
		r.CurrentAuction = models.CurrentAuction{
			ContestantID: &c.ID,
			Status:       models.AuctionIdle,
			CurrentBid:   0,
		}
		e.log.Infof("room %s: contestant %s nominated", roomID, c.ID)
		return nil
	})
}

// StartAuction arms the countdown for the nominated contestant. Admin only.
func (e *Engine) StartAuction(ctx context.Context, roomID, adminKey string) error {
	r, err := e.store.Load(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil
		}
		return err
	}

	r.Mu.Lock()
	defer r.Mu.Unlock()

	if !IsAdmin(r, adminKey) {
		return ErrUnauthorized
	}
	if r.Phase != models.PhaseAuction {
		return &InvalidStateError{Reason: "draft is not in progress"}
	}
	a := &r.CurrentAuction
	if a.ContestantID == nil {
		return &InvalidStateError{Reason: "no contestant nominated"}
	}
	if a.Status == models.AuctionRunning {
		return &InvalidStateError{Reason: "auction already running"}
	}

	endTime := e.clock.Now().Add(time.Duration(r.Settings.TimerSeconds) * time.Second)
	a.Status = models.AuctionRunning
	a.EndTime = &endTime
	a.CurrentBid = 0
	a.CurrentBidderPlayerID = nil

	if err := e.store.Save(ctx, r); err != nil {
		return fmt.Errorf("save room %s: %w", roomID, err)
	}
	e.timers.Start(roomID, r.Settings.TimerSeconds)
	e.log.Infof("room %s: auction started for contestant %s (%ds)", roomID, *a.ContestantID, r.Settings.TimerSeconds)
	e.broadcast(roomID, StateEvent(r))
	return nil
}

// PlaceBid validates and applies a bid from a joined player. An accepted bid
// inside the snipe window extends the absolute deadline by snipeExtension
// and restarts the countdown with the remaining time re-derived from the new
// deadline, never from a stale counter.
func (e *Engine) PlaceBid(ctx context.Context, roomID string, playerID uuid.UUID, amount int) error {
	r, err := e.store.Load(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil
		}
		return err
	}

	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, ok := r.Players[playerID]
	if !ok {
		return nil
	}

	now := e.clock.Now()
	if err := ValidateBid(&r.CurrentAuction, p, amount, r.Settings.MinIncrement, now); err != nil {
		return err
	}

	a := &r.CurrentAuction
	a.CurrentBid = amount
	bidder := playerID
	a.CurrentBidderPlayerID = &bidder

	extended := false
	newRemaining := 0
	if a.EndTime != nil && a.EndTime.Sub(now) < snipeWindow {
		end := a.EndTime.Add(snipeExtension)
		a.EndTime = &end
		newRemaining = ceilSeconds(end.Sub(now))
		extended = true
	}

	if err := e.store.Save(ctx, r); err != nil {
		return fmt.Errorf("save room %s: %w", roomID, err)
	}
	if extended {
		e.timers.Start(roomID, newRemaining)
		e.log.Infof("room %s: deadline extended to %s after late bid", roomID, a.EndTime.Format(time.RFC3339))
	}
	e.broadcast(roomID, StateEvent(r))

	cid := a.ContestantID
	e.publishAction(cache.ActionRecord{
		RoomID:       roomID,
		ActionType:   cache.ActionBidAccepted,
		PlayerID:     &bidder,
		ContestantID: cid,
		Amount:       amount,
		Timestamp:    now.UnixMilli(),
	})
	return nil
}

// resolveAuction computes the outcome of an expired auction: winner
// assignment or no-sale, auction reset, and the COMPLETE check. It runs the
// same load-mutate-save cycle as the request handlers, so it can never
// interleave with an in-flight bid. On persistence failure the resolution is
// logged and aborted with no broadcast; the timer stays cleared.
func (e *Engine) resolveAuction(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r, err := e.store.Load(ctx, roomID)
	if err != nil {
		e.log.Errorf("room %s: cannot resolve auction: %v", roomID, err)
		return
	}

	r.Mu.Lock()
	defer r.Mu.Unlock()

	a := &r.CurrentAuction
	if a.Status != models.AuctionRunning {
		// Superseded before the expiry callback ran.
		return
	}
	a.Status = models.AuctionEnded

	rec := cache.ActionRecord{
		RoomID:       roomID,
		ContestantID: a.ContestantID,
		Timestamp:    e.clock.Now().UnixMilli(),
	}

	if a.CurrentBidderPlayerID != nil && a.ContestantID != nil {
		winnerID := *a.CurrentBidderPlayerID
		contestantID := *a.ContestantID
		price := a.CurrentBid

		winner, wok := r.Players[winnerID]
		c, cok := r.Contestants[contestantID]
		if wok && cok {
			winner.BudgetRemaining -= price
			winner.Roster = append(winner.Roster, contestantID)

			c.Status = models.ContestantDrafted
			c.DraftedByPlayerID = &winnerID
			c.DraftedPrice = &price
			order := r.DraftedCount()
			c.DraftOrder = &order

			// Winner nominates next.
			r.NominatorPlayerID = &winnerID

			rec.ActionType = cache.ActionContestantDrafted
			rec.PlayerID = &winnerID
			rec.Amount = price
			e.log.Infof("room %s: contestant %s drafted by %s for %d (pick %d)", roomID, contestantID, winnerID, price, order)
		}
	} else if a.ContestantID != nil {
		// No bids: the contestant returns to the pool and nomination
		// rights stay where they were.
		if c, ok := r.Contestants[*a.ContestantID]; ok {
			c.Status = models.ContestantAvailable
		}
		rec.ActionType = cache.ActionAuctionPassed
		e.log.Infof("room %s: no bids for contestant %s, returned to pool", roomID, *a.ContestantID)
	}

	a.ResetIdle()

	if r.AvailableCount() == 0 && r.Phase.CanTransitionTo(models.PhaseComplete) {
		r.Phase = models.PhaseComplete
		e.log.Infof("room %s: draft complete", roomID)
	}

	if err := e.store.Save(ctx, r); err != nil {
		e.log.Errorf("room %s: failed to persist auction resolution: %v", roomID, err)
		return
	}
	e.broadcast(roomID, StateEvent(r))
	if rec.ActionType != "" {
		e.publishAction(rec)
	}
}
