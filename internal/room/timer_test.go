// internal/room/timer_test.go
package room

import (
	"io"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// tickRecorder collects tick and expiry callbacks for assertions.
type tickRecorder struct {
	ticks   chan int
	expired chan string
}

func newTickRecorder() *tickRecorder {
	return &tickRecorder{
		ticks:   make(chan int, 64),
		expired: make(chan string, 8),
	}
}

func (tr *tickRecorder) onTick(roomID string, remaining int) {
	tr.ticks <- remaining
}

func (tr *tickRecorder) onExpire(roomID string) {
	tr.expired <- roomID
}

func TestTimerCountdownAndExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newTickRecorder()
	reg := NewTimerRegistry(clock, testLogger(), rec.onTick, rec.onExpire)

	reg.Start("ABCDEF", 3)
	clock.BlockUntil(1)

	// Each advance fires one tick; consuming it guarantees the goroutine has
	// processed the previous second before the clock moves again.
	clock.Advance(time.Second)
	require.Equal(t, 2, <-rec.ticks)
	clock.Advance(time.Second)
	require.Equal(t, 1, <-rec.ticks)
	clock.Advance(time.Second)
	require.Equal(t, 0, <-rec.ticks)

	require.Equal(t, "ABCDEF", <-rec.expired)

	reg.mu.Lock()
	require.Empty(t, reg.timers)
	reg.mu.Unlock()
}

func TestTimerCancelStopsCountdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newTickRecorder()
	reg := NewTimerRegistry(clock, testLogger(), rec.onTick, rec.onExpire)

	reg.Start("ABCDEF", 2)
	clock.BlockUntil(1)
	reg.Cancel("ABCDEF")

	clock.Advance(5 * time.Second)

	select {
	case room := <-rec.expired:
		t.Fatalf("canceled timer expired for room %s", room)
	default:
	}

	reg.mu.Lock()
	require.Empty(t, reg.timers)
	reg.mu.Unlock()
}

func TestTimerRestartReplacesExisting(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newTickRecorder()
	reg := NewTimerRegistry(clock, testLogger(), rec.onTick, rec.onExpire)

	// A restart must supersede the previous countdown: only one expiry may
	// ever fire, from the most recent Start.
	reg.Start("ABCDEF", 1000)
	clock.BlockUntil(1)
	reg.Start("ABCDEF", 3)

	require.Eventually(t, func() bool {
		clock.Advance(time.Second)
		select {
		case <-rec.expired:
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond, "restarted timer never expired")

	// No second expiry arrives no matter how far the clock advances.
	clock.Advance(30 * time.Second)
	select {
	case <-rec.expired:
		t.Fatal("timer expired twice after restart")
	default:
	}
}

func TestIndependentRoomTimers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newTickRecorder()
	reg := NewTimerRegistry(clock, testLogger(), rec.onTick, rec.onExpire)

	reg.Start("ROOM01", 1)
	reg.Start("ROOM02", 1)
	clock.BlockUntil(2)

	clock.Advance(time.Second)

	got := map[string]bool{}
	got[<-rec.expired] = true
	got[<-rec.expired] = true
	require.True(t, got["ROOM01"])
	require.True(t, got["ROOM02"])
}
