// internal/room/timer.go
package room

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// TickFunc receives the remaining whole seconds after each one-second tick.
type TickFunc func(roomID string, remaining int)

// ExpireFunc runs the auction resolution when a countdown reaches zero.
type ExpireFunc func(roomID string)

// TimerRegistry owns at most one live countdown per room. Start always
// cancels any existing handle for the id before installing a new one, so a
// room can never accumulate duplicate tickers or double-resolve.
type TimerRegistry struct {
	mu     sync.Mutex
	timers map[string]*roomTimer

	clock    clockwork.Clock
	onTick   TickFunc
	onExpire ExpireFunc
	log      *logrus.Logger
}

type roomTimer struct {
	stop chan struct{}
	once sync.Once
}

func (t *roomTimer) cancel() {
	t.once.Do(func() { close(t.stop) })
}

// NewTimerRegistry builds a registry ticking on clock. onTick and onExpire
// are invoked from the timer goroutine.
func NewTimerRegistry(clock clockwork.Clock, logger *logrus.Logger, onTick TickFunc, onExpire ExpireFunc) *TimerRegistry {
	return &TimerRegistry{
		timers:   make(map[string]*roomTimer),
		clock:    clock,
		onTick:   onTick,
		onExpire: onExpire,
		log:      logger,
	}
}

// Start installs a fresh countdown of durationSeconds for roomID, replacing
// any timer already running for that room.
func (tr *TimerRegistry) Start(roomID string, durationSeconds int) {
	t := &roomTimer{stop: make(chan struct{})}

	tr.mu.Lock()
	if old, ok := tr.timers[roomID]; ok {
		old.cancel()
	}
	tr.timers[roomID] = t
	tr.mu.Unlock()

	go tr.run(roomID, durationSeconds, t)
}

// Cancel stops the live timer for roomID, if any, without resolving.
func (tr *TimerRegistry) Cancel(roomID string) {
	tr.mu.Lock()
	if t, ok := tr.timers[roomID]; ok {
		t.cancel()
		delete(tr.timers, roomID)
	}
	tr.mu.Unlock()
}

// remove clears the registry entry, but only if it still points at t; a
// restart may have replaced it already.
func (tr *TimerRegistry) remove(roomID string, t *roomTimer) {
	tr.mu.Lock()
	if cur, ok := tr.timers[roomID]; ok && cur == t {
		delete(tr.timers, roomID)
	}
	tr.mu.Unlock()
}

func (tr *TimerRegistry) run(roomID string, durationSeconds int, t *roomTimer) {
	ticker := tr.clock.NewTicker(time.Second)
	defer ticker.Stop()

	remaining := durationSeconds
	for {
		select {
		case <-t.stop:
			tr.remove(roomID, t)
			return
		case <-ticker.Chan():
			remaining--
			tr.onTick(roomID, remaining)
			if remaining <= 0 {
				t.cancel()
				tr.remove(roomID, t)
				tr.log.Infof("room %s: auction timer expired", roomID)
				tr.onExpire(roomID)
				return
			}
		}
	}
}
