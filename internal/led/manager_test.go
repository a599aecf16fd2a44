package led

import (
	"errors"
	"testing"
	"time"

	"github.com/smazurov/statusled/internal/events"
)

func newTestManager(t *testing.T, bus *events.Bus, names ...string) (*Manager, map[string]*fakeTimerService) {
	t.Helper()
	m := NewManager(nil, bus, testLogger())
	timers := make(map[string]*fakeTimerService, len(names))
	for _, name := range names {
		d, _, ts := newTestDriver(name, ActiveHigh)
		if err := d.Init(); err != nil {
			t.Fatalf("Init(%s) error = %v", name, err)
		}
		if err := m.Add(d); err != nil {
			t.Fatalf("Add(%s) error = %v", name, err)
		}
		timers[name] = ts
	}
	return m, timers
}

func waitEvent[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		var zero T
		t.Fatalf("Timed out waiting for %T", zero)
		return zero
	}
}

func TestManager_Registry(t *testing.T) {
	m, _ := newTestManager(t, nil, "user", "system")

	if names := m.Names(); len(names) != 2 || names[0] != "system" || names[1] != "user" {
		t.Errorf("Names() = %v", names)
	}

	dup, _, _ := newTestDriver("user", ActiveHigh)
	if err := m.Add(dup); err == nil {
		t.Error("Add() should reject duplicate names")
	}

	if _, err := m.Get("nope"); !errors.Is(err, ErrUnknownLED) {
		t.Errorf("Get(unknown) error = %v, want ErrUnknownLED", err)
	}
	if err := m.TurnOn("nope"); !errors.Is(err, ErrUnknownLED) {
		t.Errorf("TurnOn(unknown) error = %v, want ErrUnknownLED", err)
	}

	snap := m.Snapshot()
	if len(snap) != 2 || snap[0].Name != "system" {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestManager_Commands(t *testing.T) {
	bus := events.New()
	changes := make(chan events.LEDStateChangedEvent, 8)
	unsub := bus.Subscribe(func(e events.LEDStateChangedEvent) { changes <- e })
	defer unsub()

	m, timers := newTestManager(t, bus, "status")

	if err := m.TurnOn("status"); err != nil {
		t.Fatalf("TurnOn() error = %v", err)
	}
	e := waitEvent(t, changes)
	if e.LED != "status" || e.State != "on" || e.Action != ActionOn {
		t.Errorf("unexpected event %+v", e)
	}

	if err := m.SetPattern("status", "sos"); err != nil {
		t.Fatalf("SetPattern() error = %v", err)
	}
	e = waitEvent(t, changes)
	if e.Pattern != "SOS" || e.Action != "pattern" {
		t.Errorf("unexpected event %+v", e)
	}
	if !timers["status"].timer.isArmed() {
		t.Error("pattern did not start")
	}

	if err := m.SetPattern("status", "morse"); !errors.Is(err, ErrUnknownPattern) {
		t.Errorf("SetPattern(unknown) error = %v, want ErrUnknownPattern", err)
	}

	if err := m.SetPattern("status", ""); err != nil {
		t.Fatalf("SetPattern(\"\") error = %v", err)
	}
	waitEvent(t, changes)
	if state, _ := m.State("status"); state != Off {
		t.Errorf("State() = %v, want off", state)
	}

	if err := m.Toggle("status"); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if state, _ := m.State("status"); state != On {
		t.Errorf("State() = %v, want on", state)
	}
	if err := m.TurnOff("status"); err != nil {
		t.Fatalf("TurnOff() error = %v", err)
	}
	if state, _ := m.State("status"); state != Off {
		t.Errorf("State() = %v, want off", state)
	}
}

func TestManager_ApplyStatus(t *testing.T) {
	m, _ := newTestManager(t, nil, "status")
	m.SetStatusMapping("status", map[string]string{
		"Online":     "on",
		"offline":    "off",
		"connecting": "CONNECTING",
		"error":      "sos",
		"broken":     "no_such_pattern",
	})

	tests := []struct {
		status      string
		wantState   State
		wantPattern string
		wantErr     error
	}{
		{"online", On, "", nil},
		{"connecting", Off, "CONNECTING", nil},
		{"ERROR", Off, "SOS", nil},
		{"offline", Off, "", nil},
		{"unmapped", Off, "", nil},
		{"broken", Off, "", ErrUnknownPattern},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			err := m.ApplyStatus("test", tt.status)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ApplyStatus() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyStatus() error = %v", err)
			}
			d, _ := m.Get("status")
			s := d.Status()
			if s.State != tt.wantState || s.Pattern != tt.wantPattern {
				t.Errorf("status = %v/%q, want %v/%q", s.State, s.Pattern, tt.wantState, tt.wantPattern)
			}
		})
	}
}

func TestManager_ApplyStatusWithoutIndicator(t *testing.T) {
	m, _ := newTestManager(t, nil, "status")
	if err := m.ApplyStatus("test", "online"); err != nil {
		t.Errorf("ApplyStatus() without mapping error = %v", err)
	}
}

func TestManager_StatusEvents(t *testing.T) {
	bus := events.New()
	changes := make(chan events.LEDStateChangedEvent, 4)
	unsub := bus.Subscribe(func(e events.LEDStateChangedEvent) { changes <- e })
	defer unsub()

	m, _ := newTestManager(t, bus, "status")
	m.SetStatusMapping("status", map[string]string{"degraded": "double_blink"})
	m.Start()

	bus.Publish(events.StatusChangedEvent{Source: "network", Status: "degraded"})

	e := waitEvent(t, changes)
	if e.Pattern != "DOUBLE_BLINK" {
		t.Errorf("unexpected event %+v", e)
	}

	m.Stop()
	d, _ := m.Get("status")
	if s := d.Status(); s.Initialized || s.State != Off {
		t.Errorf("Stop() left LED %+v", s)
	}
}

func TestManager_SetCatalogRestartsChangedPatterns(t *testing.T) {
	bus := events.New()
	reloaded := make(chan events.PatternsReloadedEvent, 1)
	unsub := bus.Subscribe(func(e events.PatternsReloadedEvent) { reloaded <- e })
	defer unsub()

	m, timers := newTestManager(t, bus, "a", "b", "c")
	if err := m.SetPattern("a", "heartbeat"); err != nil {
		t.Fatal(err)
	}
	if err := m.SetPattern("b", "slow"); err != nil {
		t.Fatal(err)
	}

	catalog, err := NewCatalog(Pattern{Name: "HEARTBEAT", Durations: []uint16{1000, 100}})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	armsA := len(timers["a"].timer.arms)
	armsB := len(timers["b"].timer.arms)

	m.SetCatalog(catalog)

	a, _ := m.Get("a")
	if got := a.ActivePattern(); got == nil || got.Durations[0] != 1000 {
		t.Errorf("LED a not restarted with new definition: %v", got)
	}
	if len(timers["a"].timer.arms) != armsA+1 {
		t.Error("LED a was not re-armed")
	}
	if len(timers["b"].timer.arms) != armsB {
		t.Error("LED b restarted although SLOW did not change")
	}
	if m.Catalog() != catalog {
		t.Error("Catalog() not replaced")
	}

	e := waitEvent(t, reloaded)
	if len(e.Patterns) != len(catalog.Names()) {
		t.Errorf("reload event patterns = %v", e.Patterns)
	}
}

func TestManager_SetCatalogKeepsManualOverride(t *testing.T) {
	m, timers := newTestManager(t, nil, "status")
	if err := m.SetPattern("status", "heartbeat"); err != nil {
		t.Fatal(err)
	}
	if err := m.TurnOn("status"); err != nil {
		t.Fatal(err)
	}
	arms := len(timers["status"].timer.arms)

	catalog, err := NewCatalog(Pattern{Name: "HEARTBEAT", Durations: []uint16{1000, 100}})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	m.SetCatalog(catalog)

	d, _ := m.Get("status")
	if d.ActivePattern() != nil {
		t.Error("reload restarted a pattern cancelled by TurnOn")
	}
	if d.State() != On {
		t.Errorf("State() = %v, want on", d.State())
	}
	if len(timers["status"].timer.arms) != arms {
		t.Error("reload re-armed the timer")
	}
}

func TestManager_ActionFor(t *testing.T) {
	m, _ := newTestManager(t, nil, "status")
	if _, _, ok := m.ActionFor("ok"); ok {
		t.Error("ActionFor() without mapping should report false")
	}

	m.SetStatusMapping("status", map[string]string{"OK": "on"})
	ledName, action, ok := m.ActionFor("ok")
	if !ok || ledName != "status" || action != "on" {
		t.Errorf("ActionFor(ok) = %q, %q, %v", ledName, action, ok)
	}
}
