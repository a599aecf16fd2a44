package led

import (
	"fmt"
	"log/slog"
	"sync"
)

const patternTimerName = "led-pattern"

// Driver plays blink patterns on a single output pin.
//
// All mutable state ({state, pattern, index, ticket, timer}) is guarded by mu.
// Timer and output calls are made while holding mu; neither calls back into
// the driver synchronously. The critical section is only as short as the
// Output's SetLevel: local backends return at once, the modbus backend can
// hold mu for up to its request timeout.
type Driver struct {
	name     string
	pin      Pin
	polarity LogicLevel
	output   Output
	timers   TimerService
	logger   *slog.Logger

	mu          sync.Mutex
	initialized bool
	state       State
	pattern     *Pattern
	index       int
	ticket      uint64 // ticket of the pending pattern arm, 0 when none
	timer       Timer
}

// Option configures a Driver.
type Option func(*Driver)

// WithName sets the name used in logs and metrics. Defaults to the pin.
func WithName(name string) Option {
	return func(d *Driver) {
		d.name = name
	}
}

// WithLogger sets the driver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// NewDriver creates a driver for pin. It has no side effects until Init.
func NewDriver(pin Pin, polarity LogicLevel, output Output, timers TimerService, opts ...Option) *Driver {
	d := &Driver{
		name:     string(pin),
		pin:      pin,
		polarity: polarity,
		output:   output,
		timers:   timers,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.logger = d.logger.With("led", d.name)
	return d
}

// Name returns the driver name.
func (d *Driver) Name() string {
	return d.name
}

// Init configures the pin, drives it OFF and creates the pattern timer.
// A second call returns ErrAlreadyInitialized and changes nothing.
func (d *Driver) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		d.logger.Warn("LED already initialized")
		return ErrAlreadyInitialized
	}

	if err := d.output.Configure(d.pin); err != nil {
		d.logger.Error("Failed to configure LED pin", "pin", d.pin, "error", err)
		return newError(ErrCodeInvalidPinConfiguration, fmt.Sprintf("configure pin %s", d.pin), err)
	}

	d.drive(Off)

	timer, err := d.timers.NewTimer(patternTimerName, d, handleExpiry)
	if err == nil && timer == nil {
		err = fmt.Errorf("timer service returned no timer")
	}
	if err != nil {
		d.logger.Error("Failed to create pattern timer", "error", err)
		return newError(ErrCodeTimerAllocationFailed, "create pattern timer", err)
	}

	d.timer = timer
	d.pattern = nil
	d.index = 0
	d.ticket = 0
	d.initialized = true

	d.logger.Info("LED initialized", "pin", d.pin, "polarity", d.polarity.String())
	return nil
}

// TurnOn cancels any pattern and drives the LED ON.
func (d *Driver) TurnOn() error {
	return d.set(On)
}

// TurnOff cancels any pattern and drives the LED OFF.
func (d *Driver) TurnOff() error {
	return d.set(Off)
}

// Toggle flips the logical state and cancels any pattern.
func (d *Driver) Toggle() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return ErrNotInitialized
	}
	if d.state == On {
		d.setLocked(Off)
	} else {
		d.setLocked(On)
	}
	return nil
}

func (d *Driver) set(state State) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return ErrNotInitialized
	}
	d.setLocked(state)
	return nil
}

// setLocked is the manual override path: pattern playback always stops.
func (d *Driver) setLocked(state State) {
	d.stopPatternLocked()
	d.drive(state)
}

func (d *Driver) stopPatternLocked() {
	d.timer.Stop()
	d.pattern = nil
	d.index = 0
	d.ticket = 0
}

// SetPattern starts looping p from OFF. A nil pattern stops playback and is
// equivalent to TurnOff. An empty pattern is rejected and leaves the current
// playback untouched.
func (d *Driver) SetPattern(p *Pattern) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return ErrNotInitialized
	}
	if p == nil {
		d.setLocked(Off)
		return nil
	}
	if !p.Valid() {
		return ErrInvalidPattern
	}

	d.timer.Stop()
	d.drive(Off)

	d.pattern = p
	d.index = 0
	d.ticket = d.timer.Arm(p.Interval(0))

	ledPatternChanges.WithLabelValues(d.name, p.String()).Inc()
	d.logger.Debug("LED pattern started", "pattern", p.String(), "intervals", p.Len())
	return nil
}

// replacePattern swaps old for p and restarts playback, but only while old
// is still the pattern being played. It reports whether the swap happened.
func (d *Driver) replacePattern(old, p *Pattern) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return false, ErrNotInitialized
	}
	if old == nil || d.pattern != old {
		return false, nil
	}
	if !p.Valid() {
		return false, ErrInvalidPattern
	}

	d.timer.Stop()
	d.drive(Off)

	d.pattern = p
	d.index = 0
	d.ticket = d.timer.Arm(p.Interval(0))

	ledPatternChanges.WithLabelValues(d.name, p.String()).Inc()
	d.logger.Debug("LED pattern redefined", "pattern", p.String(), "intervals", p.Len())
	return true, nil
}

// State returns the current logical state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// ActivePattern returns the pattern being played, or nil in manual mode.
func (d *Driver) ActivePattern() *Pattern {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pattern
}

// Status is a point-in-time view of a driver.
type Status struct {
	Name        string
	Pin         Pin
	Polarity    LogicLevel
	Initialized bool
	State       State
	Pattern     string
	Index       int
}

// Status returns a consistent snapshot of the driver.
func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Status{
		Name:        d.name,
		Pin:         d.pin,
		Polarity:    d.polarity,
		Initialized: d.initialized,
		State:       d.state,
		Index:       d.index,
	}
	if d.pattern != nil {
		s.Pattern = d.pattern.String()
	}
	return s
}

// Close stops playback and forces the LED OFF. The driver must be
// initialized again before further use.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil
	}
	d.setLocked(Off)
	d.timer = nil
	d.initialized = false
	d.logger.Debug("LED released")
	return nil
}

// handleExpiry resolves the driver that owns t and advances its pattern.
func handleExpiry(t Timer, ticket uint64) {
	if t == nil {
		return
	}
	if d, ok := t.Owner().(*Driver); ok && d != nil {
		d.advance(t, ticket)
	}
}

// advance toggles the output and re-arms the timer for the next interval.
// The interval read is the one at the current index; the index then moves
// on, wrapping to loop forever.
func (d *Driver) advance(t Timer, ticket uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Expiry of an arm that was cancelled or replaced while in flight, or of
	// a timer released by Close. Tickets restart with every timer.
	if !d.initialized || t != d.timer || ticket == 0 || ticket != d.ticket {
		return
	}

	if d.state == On {
		d.drive(Off)
	} else {
		d.drive(On)
	}

	if !d.pattern.Valid() {
		d.timer.Stop()
		d.ticket = 0
		return
	}

	next := d.pattern.Interval(d.index)
	d.index = (d.index + 1) % d.pattern.Len()
	d.ticket = d.timer.Arm(next)
}

// drive is the single physical write path. Write failures are logged and
// counted; the logical state still follows the request.
func (d *Driver) drive(state State) {
	level := PhysicalLevel(state, d.polarity)
	if err := d.output.SetLevel(d.pin, level); err != nil {
		ledOutputErrors.WithLabelValues(d.name).Inc()
		d.logger.Warn("Failed to set LED level", "pin", d.pin, "level", level, "error", err)
	}

	if d.state != state {
		ledToggles.WithLabelValues(d.name).Inc()
	}
	d.state = state
	ledState.WithLabelValues(d.name).Set(stateValue(state))
}

func stateValue(s State) float64 {
	if s == On {
		return 1
	}
	return 0
}
