//go:build linux

package led

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// bcmGPIO implements Output with memory-mapped BCM283x GPIO. Pins are BCM
// GPIO numbers. Requires access to /dev/gpiomem.
type bcmGPIO struct {
	mu     sync.Mutex
	opened bool
}

// NewRPIO creates a Raspberry Pi register-level output.
func NewRPIO() (Output, error) {
	return &bcmGPIO{}, nil
}

func (b *bcmGPIO) Configure(pin Pin) error {
	n, err := parseBCM(pin)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.opened {
		if err := rpio.Open(); err != nil {
			return fmt.Errorf("open gpio memory: %w", err)
		}
		b.opened = true
	}
	rpio.Pin(n).Output()
	return nil
}

func (b *bcmGPIO) SetLevel(pin Pin, level Level) error {
	n, err := parseBCM(pin)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.opened {
		return fmt.Errorf("gpio memory not mapped")
	}
	if level == High {
		rpio.Pin(n).High()
	} else {
		rpio.Pin(n).Low()
	}
	return nil
}

// Close unmaps GPIO memory.
func (b *bcmGPIO) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.opened {
		return nil
	}
	b.opened = false
	return rpio.Close()
}

func parseBCM(pin Pin) (uint8, error) {
	n, err := strconv.ParseUint(string(pin), 10, 8)
	if err != nil || n > 53 {
		return 0, fmt.Errorf("invalid BCM pin %q", pin)
	}
	return uint8(n), nil
}
