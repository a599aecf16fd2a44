package led

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockOutput records every level written.
type mockOutput struct {
	mu           sync.Mutex
	configureErr error
	setErr       error
	configured   []Pin
	levels       []Level
}

func (m *mockOutput) Configure(pin Pin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.configureErr != nil {
		return m.configureErr
	}
	m.configured = append(m.configured, pin)
	return nil
}

func (m *mockOutput) SetLevel(_ Pin, level Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels = append(m.levels, level)
	return m.setErr
}

func (m *mockOutput) writes() []Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Level, len(m.levels))
	copy(out, m.levels)
	return out
}

func (m *mockOutput) last() (Level, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.levels) == 0 {
		return Low, false
	}
	return m.levels[len(m.levels)-1], true
}

// fakeTimerService hands out fakeTimers that only fire when the test says so.
type fakeTimerService struct {
	err   error
	timer *fakeTimer
}

func (f *fakeTimerService) NewTimer(_ string, owner any, expired ExpiryFunc) (Timer, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.timer = &fakeTimer{owner: owner, expired: expired}
	return f.timer, nil
}

type fakeTimer struct {
	owner   any
	expired ExpiryFunc

	mu     sync.Mutex
	ticket uint64
	armed  bool
	arms   []time.Duration
	stops  int
}

func (t *fakeTimer) Arm(d time.Duration) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ticket++
	t.armed = true
	t.arms = append(t.arms, d)
	return t.ticket
}

func (t *fakeTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = false
	t.stops++
}

func (t *fakeTimer) Owner() any {
	return t.owner
}

// Fire delivers the pending expiry, if any.
func (t *fakeTimer) Fire() bool {
	t.mu.Lock()
	if !t.armed {
		t.mu.Unlock()
		return false
	}
	t.armed = false
	ticket := t.ticket
	t.mu.Unlock()

	t.expired(t, ticket)
	return true
}

// FireTicket delivers an expiry for an arbitrary ticket, as a late
// callback racing a cancel would.
func (t *fakeTimer) FireTicket(ticket uint64) {
	t.expired(t, ticket)
}

func (t *fakeTimer) isArmed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

func (t *fakeTimer) currentTicket() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticket
}

func (t *fakeTimer) lastArm() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.arms) == 0 {
		return 0
	}
	return t.arms[len(t.arms)-1]
}

func newTestDriver(name string, polarity LogicLevel) (*Driver, *mockOutput, *fakeTimerService) {
	out := &mockOutput{}
	timers := &fakeTimerService{}
	d := NewDriver(Pin(name+"_pin"), polarity, out, timers, WithName(name), WithLogger(testLogger()))
	return d, out, timers
}
