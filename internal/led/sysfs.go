package led

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultSysfsRoot is the Linux LED class directory.
const DefaultSysfsRoot = "/sys/class/leds"

// sysfs implements Output using the Linux LED class interface. Pins are
// LED names under root (e.g. "ACT", "usr_led").
type sysfs struct {
	root string
}

// NewSysfs creates a sysfs LED output rooted at root.
func NewSysfs(root string) Output {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &sysfs{root: root}
}

// Configure detaches any kernel trigger so brightness is under manual control.
func (s *sysfs) Configure(pin Pin) error {
	ledPath := filepath.Join(s.root, string(pin))

	if _, err := os.Stat(ledPath); os.IsNotExist(err) {
		return fmt.Errorf("LED %q not found at %s (available: %s)", pin, ledPath, strings.Join(s.Available(), ", "))
	}

	triggerPath := filepath.Join(ledPath, "trigger")
	if err := os.WriteFile(triggerPath, []byte("none"), 0644); err != nil {
		return fmt.Errorf("failed to set LED trigger to none: %w", err)
	}

	return nil
}

// SetLevel writes the brightness file. Any non-zero brightness lights the LED.
func (s *sysfs) SetLevel(pin Pin, level Level) error {
	brightnessPath := filepath.Join(s.root, string(pin), "brightness")
	value := "0"
	if level == High {
		value = "1"
	}

	if err := os.WriteFile(brightnessPath, []byte(value), 0644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}

// Available lists LED names present under root, sorted.
func (s *sysfs) Available() []string {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return []string{}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}
