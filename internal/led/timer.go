package led

import (
	"sync"
	"time"
)

// ExpiryFunc is invoked once per arm, on the timer's own goroutine. ticket
// identifies the arm that expired.
type ExpiryFunc func(t Timer, ticket uint64)

// Timer is a one-shot timer that must be re-armed for every firing.
type Timer interface {
	// Arm cancels any pending expiry and schedules a fresh one after d.
	// It returns a ticket that is passed to the expiry callback.
	Arm(d time.Duration) uint64
	// Stop cancels any pending expiry.
	Stop()
	// Owner returns the context registered when the timer was created.
	Owner() any
}

// TimerService creates timers. The owner is an opaque context handed back
// to the callback through Timer.Owner.
type TimerService interface {
	NewTimer(name string, owner any, expired ExpiryFunc) (Timer, error)
}

type hostTimerService struct{}

// NewTimerService returns a TimerService backed by time.AfterFunc.
func NewTimerService() TimerService {
	return hostTimerService{}
}

func (hostTimerService) NewTimer(name string, owner any, expired ExpiryFunc) (Timer, error) {
	return &hostTimer{name: name, owner: owner, expired: expired}, nil
}

type hostTimer struct {
	name    string
	owner   any
	expired ExpiryFunc

	mu     sync.Mutex
	timer  *time.Timer
	ticket uint64
	armed  bool
}

func (t *hostTimer) Arm(d time.Duration) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.ticket++
	ticket := t.ticket
	t.armed = true
	t.timer = time.AfterFunc(d, func() { t.fire(ticket) })
	return ticket
}

func (t *hostTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.armed = false
}

func (t *hostTimer) Owner() any {
	return t.owner
}

// fire drops expiries of superseded or stopped arms. The callback runs
// without t.mu held so it may re-arm.
func (t *hostTimer) fire(ticket uint64) {
	t.mu.Lock()
	if !t.armed || ticket != t.ticket {
		t.mu.Unlock()
		return
	}
	t.armed = false
	t.mu.Unlock()

	if t.expired != nil {
		t.expired(t, ticket)
	}
}
