// internal/room/engine.go
package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/mpetras/castdraft/internal/cache"
	"github.com/mpetras/castdraft/internal/models"
)

// Engine hosts the event handlers for every inbound room event. Each handler
// runs a single load-mutate-save cycle under the room's mutex, so concurrent
// events on one room are serialized while independent rooms proceed in
// parallel. Accepted mutations persist first and broadcast second; a
// persistence failure aborts the event with no broadcast.
type Engine struct {
	store  *Store
	timers *TimerRegistry
	clock  clockwork.Clock
	log    *logrus.Logger

	// BroadcastFn sends an event to every connection bound to the room.
	// It is called with the room lock held and must serialize the event
	// before returning. If nil, no broadcast is done.
	BroadcastFn func(roomID string, ev Event)
}

// NewEngine wires an engine over store. The clock drives auction deadlines
// and countdown ticks.
func NewEngine(store *Store, clock clockwork.Clock, logger *logrus.Logger) *Engine {
	e := &Engine{
		store: store,
		clock: clock,
		log:   logger,
	}
	e.timers = NewTimerRegistry(clock, logger, e.handleTick, e.resolveAuction)
	return e
}

func (e *Engine) broadcast(roomID string, ev Event) {
	if e.BroadcastFn != nil {
		e.BroadcastFn(roomID, ev)
	}
}

func (e *Engine) handleTick(roomID string, remaining int) {
	e.broadcast(roomID, TickEvent(remaining))
}

// publishAction queues an audit record for the historian. Best effort; a
// publish failure never affects the triggering event.
func (e *Engine) publishAction(rec cache.ActionRecord) {
	if cache.Rdb == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := cache.PublishDraftAction(ctx, rec); err != nil {
			e.log.Warnf("room %s: failed to publish %s action: %v", rec.RoomID, rec.ActionType, err)
		}
	}()
}

// withRoom runs fn against the canonical room under its mutex, then persists
// and broadcasts. fn must finish all validation before its first mutation:
// the room value is shared, so a partially mutated room must never be left
// behind on error. Returning errNoop drops the event silently.
func (e *Engine) withRoom(ctx context.Context, roomID string, fn func(r *models.Room) error) error {
	r, err := e.store.Load(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil
		}
		return err
	}

	r.Mu.Lock()
	defer r.Mu.Unlock()

	if err := fn(r); err != nil {
		if err == errNoop {
			return nil
		}
		return err
	}
	if err := e.store.Save(ctx, r); err != nil {
		return fmt.Errorf("save room %s: %w", roomID, err)
	}
	e.broadcast(roomID, StateEvent(r))
	return nil
}

// Join adds a new player to the room, or reconnects an existing one when
// playerID matches. A reconnect refreshes the name and Connected flag but
// never resets budget or roster. Unlike the internal handlers, an unknown
// room is surfaced as ErrRoomNotFound so the caller can be told.
func (e *Engine) Join(ctx context.Context, roomID, playerName string, playerID *uuid.UUID) (*models.Player, error) {
	r, err := e.store.Load(ctx, roomID)
	if err != nil {
		return nil, err
	}

	r.Mu.Lock()
	defer r.Mu.Unlock()

	var p *models.Player
	if playerID != nil {
		if existing, ok := r.Players[*playerID]; ok {
			existing.Connected = true
			if playerName != "" {
				existing.Name = playerName
			}
			p = existing
		}
	}
	if p == nil {
		p = models.NewPlayer(playerName, r.Settings.StartingBudget)
		r.Players[p.ID] = p
	}

	if err := e.store.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save room %s: %w", roomID, err)
	}
	e.log.Infof("room %s: player %s (%s) joined", roomID, p.Name, p.ID)
	e.broadcast(roomID, StateEvent(r))
	return p, nil
}

// UpdateName renames the calling player.
func (e *Engine) UpdateName(ctx context.Context, roomID string, playerID uuid.UUID, name string) error {
	return e.withRoom(ctx, roomID, func(r *models.Room) error {
		p, ok := r.Players[playerID]
		if !ok {
			return errNoop
		}
		p.Name = name
		return nil
	})
}

// Disconnect marks the player as disconnected. Budget, roster, and
// nomination rights are untouched; the player may reconnect with their saved
// id.
func (e *Engine) Disconnect(ctx context.Context, roomID string, playerID uuid.UUID) error {
	return e.withRoom(ctx, roomID, func(r *models.Room) error {
		p, ok := r.Players[playerID]
		if !ok {
			return errNoop
		}
		p.Connected = false
		e.log.Infof("room %s: player %s disconnected", roomID, playerID)
		return nil
	})
}

// AddContestant inserts a new AVAILABLE contestant. Admin only.
func (e *Engine) AddContestant(ctx context.Context, roomID, adminKey string, draft models.ContestantDraft) error {
	return e.withRoom(ctx, roomID, func(r *models.Room) error {
		if !IsAdmin(r, adminKey) {
			return ErrUnauthorized
		}
		c := models.NewContestant(draft)
		r.Contestants[c.ID] = c
		return nil
	})
}

// EditContestant merges a partial edit into a contestant's descriptive
// fields. Admin only.
func (e *Engine) EditContestant(ctx context.Context, roomID, adminKey string, contestantID uuid.UUID, patch models.ContestantPatch) error {
	return e.withRoom(ctx, roomID, func(r *models.Room) error {
		if !IsAdmin(r, adminKey) {
			return ErrUnauthorized
		}
		c, ok := r.Contestants[contestantID]
		if !ok {
			return errNoop
		}
		patch.Apply(c)
		return nil
	})
}

// DeleteContestant removes a contestant from the pool. Admin only. The
// contestant currently on the block cannot be deleted while its auction is
// running.
func (e *Engine) DeleteContestant(ctx context.Context, roomID, adminKey string, contestantID uuid.UUID) error {
	return e.withRoom(ctx, roomID, func(r *models.Room) error {
		if !IsAdmin(r, adminKey) {
			return ErrUnauthorized
		}
		if _, ok := r.Contestants[contestantID]; !ok {
			return errNoop
		}
		a := &r.CurrentAuction
		if a.Status == models.AuctionRunning && a.ContestantID != nil && *a.ContestantID == contestantID {
			return &InvalidStateError{Reason: "contestant is currently up for auction"}
		}
		delete(r.Contestants, contestantID)
		return nil
	})
}

// UpdateSettings merges a partial settings update. Admin only. When the
// starting budget changes, every player's remaining budget is recomputed so
// that amounts already spent are preserved and only the cap shifts.
func (e *Engine) UpdateSettings(ctx context.Context, roomID, adminKey string, patch models.SettingsPatch) error {
	return e.withRoom(ctx, roomID, func(r *models.Room) error {
		if !IsAdmin(r, adminKey) {
			return ErrUnauthorized
		}
		if err := validateSettingsPatch(patch); err != nil {
			return err
		}
		if patch.StartingBudget != nil && *patch.StartingBudget != r.Settings.StartingBudget {
			oldBudget := r.Settings.StartingBudget
			newBudget := *patch.StartingBudget
			for _, p := range r.Players {
				spent := oldBudget - p.BudgetRemaining
				p.BudgetRemaining = newBudget - spent
			}
		}
		patch.Apply(&r.Settings)
		return nil
	})
}

func validateSettingsPatch(patch models.SettingsPatch) error {
	if patch.StartingBudget != nil && *patch.StartingBudget <= 0 {
		return &ValidationError{Reason: "startingBudget must be positive"}
	}
	if patch.MinIncrement != nil && *patch.MinIncrement <= 0 {
		return &ValidationError{Reason: "minIncrement must be positive"}
	}
	if patch.TimerSeconds != nil && *patch.TimerSeconds <= 0 {
		return &ValidationError{Reason: "timerSeconds must be positive"}
	}
	return nil
}

// StartDraft advances the room from LOBBY to AUCTION. Admin only; requires
// at least one contestant and one player.
func (e *Engine) StartDraft(ctx context.Context, roomID, adminKey string) error {
	return e.withRoom(ctx, roomID, func(r *models.Room) error {
		if !IsAdmin(r, adminKey) {
			return ErrUnauthorized
		}
		if !r.Phase.CanTransitionTo(models.PhaseAuction) {
			return &InvalidStateError{Reason: "draft already started"}
		}
		if len(r.Contestants) == 0 {
			return &InvalidStateError{Reason: "cannot start draft with no contestants"}
		}
		if len(r.Players) == 0 {
			return &InvalidStateError{Reason: "cannot start draft with no players"}
		}
		r.Phase = models.PhaseAuction
		e.log.Infof("room %s: draft started with %d contestants, %d players", roomID, len(r.Contestants), len(r.Players))
		return nil
	})
}

// Snapshot serializes the current room state as a room:state event, for
// delivery to a single connection (e.g. right after a join). The event is
// marshaled under the room lock so the bytes are a consistent view.
func (e *Engine) Snapshot(ctx context.Context, roomID string) ([]byte, error) {
	r, err := e.store.Load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return json.Marshal(StateEvent(r))
}
