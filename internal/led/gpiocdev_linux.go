//go:build linux

package led

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

const gpioConsumer = "statusled"

// gpioCdev implements Output on the GPIO character device. Pins are line
// offsets on a single chip.
type gpioCdev struct {
	chip  string
	mu    sync.Mutex
	lines map[Pin]*gpiocdev.Line
}

// NewGPIOCdev creates a character-device output on chip (e.g. "gpiochip0").
func NewGPIOCdev(chip string) (Output, error) {
	if chip == "" {
		chip = "gpiochip0"
	}
	return &gpioCdev{chip: chip, lines: make(map[Pin]*gpiocdev.Line)}, nil
}

func (g *gpioCdev) Configure(pin Pin) error {
	offset, err := strconv.Atoi(string(pin))
	if err != nil || offset < 0 {
		return fmt.Errorf("invalid line offset %q", pin)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.lines[pin]; ok {
		return nil
	}

	line, err := gpiocdev.RequestLine(g.chip, offset,
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer(gpioConsumer))
	if err != nil {
		return fmt.Errorf("request line %d on %s: %w", offset, g.chip, err)
	}
	g.lines[pin] = line
	return nil
}

func (g *gpioCdev) SetLevel(pin Pin, level Level) error {
	g.mu.Lock()
	line, ok := g.lines[pin]
	g.mu.Unlock()

	if !ok {
		return fmt.Errorf("line %s not configured", pin)
	}
	return line.SetValue(int(level))
}

// Close reverts all lines to inputs and releases them.
func (g *gpioCdev) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var firstErr error
	for pin, line := range g.lines {
		_ = line.Reconfigure(gpiocdev.AsInput)
		if err := line.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(g.lines, pin)
	}
	return firstErr
}
