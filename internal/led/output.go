package led

// Pin identifies an output on a backend: an LED class name for sysfs, a
// line offset for gpiocdev, a BCM number for rpio.
type Pin string

// Output is a digital output capability. Drivers never read a pin back.
type Output interface {
	// Configure prepares pin as a digital output.
	Configure(pin Pin) error
	// SetLevel drives pin to the given physical level.
	SetLevel(pin Pin, level Level) error
}

// Closer is implemented by outputs that hold hardware handles.
type Closer interface {
	Close() error
}
