package events

// Event type constants for kelindar/event.
const (
	TypeStatusChanged uint32 = iota + 1
	TypeLEDStateChanged
	TypePatternsReloaded
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StatusChangedEvent reports a new status from a monitored source.
// The LED manager maps statuses to indicator actions.
type StatusChangedEvent struct {
	Source    string `json:"source" example:"network" doc:"Component reporting the status"`
	Status    string `json:"status" example:"connecting" doc:"Reported status (ok, connecting, error, ...)"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StatusChangedEvent.
func (e StatusChangedEvent) Type() uint32 { return TypeStatusChanged }

// LEDStateChangedEvent is published after a command changed an LED.
type LEDStateChangedEvent struct {
	LED       string `json:"led" example:"status" doc:"LED name"`
	State     string `json:"state" example:"on" doc:"Logical state after the command (on, off)"`
	Pattern   string `json:"pattern,omitempty" example:"SOS" doc:"Pattern being played, empty in manual mode"`
	Action    string `json:"action" example:"pattern" doc:"Command that caused the change"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LEDStateChangedEvent.
func (e LEDStateChangedEvent) Type() uint32 { return TypeLEDStateChanged }

// PatternsReloadedEvent is published when the pattern catalog was replaced.
type PatternsReloadedEvent struct {
	Patterns  []string `json:"patterns" doc:"Pattern names now available"`
	Timestamp string   `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PatternsReloadedEvent.
func (e PatternsReloadedEvent) Type() uint32 { return TypePatternsReloaded }
