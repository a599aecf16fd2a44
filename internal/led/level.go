package led

// State is the logical LED state, independent of wiring polarity.
type State bool

// Logical states.
const (
	Off State = false
	On  State = true
)

func (s State) String() string {
	if s == On {
		return "on"
	}
	return "off"
}

// LogicLevel describes how a logical ON maps to the electrical signal.
type LogicLevel bool

// Pin polarities.
const (
	ActiveLow  LogicLevel = false
	ActiveHigh LogicLevel = true
)

func (l LogicLevel) String() string {
	if l == ActiveHigh {
		return "active_high"
	}
	return "active_low"
}

// Level is the physical signal written to a pin.
type Level uint8

// Physical levels.
const (
	Low  Level = 0
	High Level = 1
)

// PhysicalLevel translates a logical state into the pin level for the given polarity.
func PhysicalLevel(state State, polarity LogicLevel) Level {
	if bool(state) == bool(polarity) {
		return High
	}
	return Low
}
