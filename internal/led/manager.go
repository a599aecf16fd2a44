package led

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/statusled/internal/events"
)

// Manual actions accepted in status mappings besides pattern names.
const (
	ActionOn     = "on"
	ActionOff    = "off"
	ActionToggle = "toggle"
)

// Manager owns the named LED drivers, exposes name-addressed commands and
// maps reported statuses onto an indicator LED.
type Manager struct {
	eventBus    *events.Bus
	unsubscribe func()
	logger      *slog.Logger

	mu        sync.RWMutex
	drivers   map[string]*Driver
	catalog   *Catalog
	indicator string
	actions   map[string]string // status -> action
}

// NewManager creates a manager using catalog to resolve pattern names.
func NewManager(catalog *Catalog, eventBus *events.Bus, logger *slog.Logger) *Manager {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		eventBus: eventBus,
		logger:   logger,
		drivers:  make(map[string]*Driver),
		catalog:  catalog,
		actions:  make(map[string]string),
	}
}

// Add registers an initialized driver under its name.
func (m *Manager) Add(d *Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.drivers[d.Name()]; exists {
		return fmt.Errorf("LED %q already registered", d.Name())
	}
	m.drivers[d.Name()] = d
	return nil
}

// Get returns the driver registered as name.
func (m *Manager) Get(name string) (*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.drivers[name]
	if !ok {
		return nil, newError(ErrCodeUnknownLED, fmt.Sprintf("LED %q not found", name), nil)
	}
	return d, nil
}

// Names returns registered LED names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.drivers))
	for name := range m.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns the status of every LED, sorted by name.
func (m *Manager) Snapshot() []Status {
	names := m.Names()
	out := make([]Status, 0, len(names))
	for _, name := range names {
		if d, err := m.Get(name); err == nil {
			out = append(out, d.Status())
		}
	}
	return out
}

// Catalog returns the current pattern catalog.
func (m *Manager) Catalog() *Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog
}

// TurnOn switches the named LED on.
func (m *Manager) TurnOn(name string) error {
	return m.command(name, ActionOn, (*Driver).TurnOn)
}

// TurnOff switches the named LED off.
func (m *Manager) TurnOff(name string) error {
	return m.command(name, ActionOff, (*Driver).TurnOff)
}

// Toggle flips the named LED.
func (m *Manager) Toggle(name string) error {
	return m.command(name, ActionToggle, (*Driver).Toggle)
}

// SetPattern plays the named pattern on the named LED. An empty pattern
// name stops playback.
func (m *Manager) SetPattern(name, pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return m.command(name, "pattern", func(d *Driver) error { return d.SetPattern(nil) })
	}

	p, err := m.Catalog().Lookup(pattern)
	if err != nil {
		return err
	}
	return m.command(name, "pattern", func(d *Driver) error { return d.SetPattern(p) })
}

// State returns the logical state of the named LED.
func (m *Manager) State(name string) (State, error) {
	d, err := m.Get(name)
	if err != nil {
		return Off, err
	}
	return d.State(), nil
}

func (m *Manager) command(name, action string, fn func(*Driver) error) error {
	d, err := m.Get(name)
	if err != nil {
		return err
	}
	if err := fn(d); err != nil {
		return err
	}
	m.publish(d.Status(), action)
	return nil
}

func (m *Manager) publish(s Status, action string) {
	m.logger.Debug("LED changed", "led", s.Name, "state", s.State.String(), "pattern", s.Pattern, "action", action)
	if m.eventBus == nil {
		return
	}
	m.eventBus.Publish(events.LEDStateChangedEvent{
		LED:       s.Name,
		State:     s.State.String(),
		Pattern:   s.Pattern,
		Action:    action,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// SetStatusMapping selects the indicator LED and the status -> action table.
// Actions are "on", "off", "toggle" or a pattern name.
func (m *Manager) SetStatusMapping(indicator string, actions map[string]string) {
	normalized := make(map[string]string, len(actions))
	for status, action := range actions {
		normalized[strings.ToLower(status)] = action
	}

	m.mu.Lock()
	m.indicator = indicator
	m.actions = normalized
	m.mu.Unlock()
}

// ActionFor returns the indicator LED and the action mapped to status.
func (m *Manager) ActionFor(status string) (indicator, action string, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	action, ok = m.actions[strings.ToLower(status)]
	if m.indicator == "" || !ok {
		return "", "", false
	}
	return m.indicator, action, true
}

// ApplyStatus runs the action mapped to status on the indicator LED.
// Unmapped statuses are ignored.
func (m *Manager) ApplyStatus(source, status string) error {
	indicator, action, ok := m.ActionFor(status)
	if !ok {
		m.logger.Debug("No LED action for status", "source", source, "status", status)
		return nil
	}

	m.logger.Info("Applying status to LED", "source", source, "status", status, "led", indicator, "action", action)

	switch strings.ToLower(action) {
	case ActionOn:
		return m.TurnOn(indicator)
	case ActionOff:
		return m.TurnOff(indicator)
	case ActionToggle:
		return m.Toggle(indicator)
	default:
		return m.SetPattern(indicator, action)
	}
}

// SetCatalog replaces the pattern catalog. LEDs playing a pattern whose
// definition changed are restarted with the new definition.
func (m *Manager) SetCatalog(catalog *Catalog) {
	m.mu.Lock()
	m.catalog = catalog
	m.mu.Unlock()

	for _, name := range m.Names() {
		d, err := m.Get(name)
		if err != nil {
			continue
		}
		active := d.ActivePattern()
		if active == nil {
			continue
		}
		updated, err := catalog.Lookup(active.Name)
		if err != nil {
			m.logger.Warn("Playing pattern no longer in catalog", "led", name, "pattern", active.Name)
			continue
		}
		if updated == active || slices.Equal(updated.Durations, active.Durations) {
			continue
		}
		restarted, err := d.replacePattern(active, updated)
		if err != nil {
			m.logger.Warn("Failed to restart pattern", "led", name, "pattern", updated.Name, "error", err)
			continue
		}
		if !restarted {
			m.logger.Debug("LED left its pattern during reload", "led", name, "pattern", active.Name)
			continue
		}
		m.publish(d.Status(), "pattern")
	}

	if m.eventBus != nil {
		m.eventBus.Publish(events.PatternsReloadedEvent{
			Patterns:  catalog.Names(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}

// Start begins listening for status change events
func (m *Manager) Start() {
	if m.eventBus != nil {
		m.unsubscribe = m.eventBus.Subscribe(func(e events.StatusChangedEvent) {
			m.handleEvent(e)
		})
	}
	m.logger.Info("LED manager started", "leds", len(m.Names()))
}

// Stop unsubscribes from events and forces every LED off
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}

	m.mu.RLock()
	drivers := make([]*Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		drivers = append(drivers, d)
	}
	m.mu.RUnlock()

	for _, d := range drivers {
		_ = d.Close()
	}
	m.logger.Info("LED manager stopped")
}

// handleEvent processes a single status change event
func (m *Manager) handleEvent(e events.StatusChangedEvent) {
	if err := m.ApplyStatus(e.Source, e.Status); err != nil {
		m.logger.Warn("Failed to apply status to LED", "source", e.Source, "status", e.Status, "error", err)
	}
}
