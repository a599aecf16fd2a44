package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/statusled/internal/led"
	"gopkg.in/yaml.v3"
)

// Hardware is the LED wiring file: backend selection, LED definitions,
// custom patterns and the status indicator mapping.
type Hardware struct {
	Backend  led.BackendConfig   `toml:"backend" yaml:"backend"`
	LEDs     []LEDConfig         `toml:"leds" yaml:"leds"`
	Patterns map[string][]uint16 `toml:"patterns" yaml:"patterns"`
	Status   StatusConfig        `toml:"status" yaml:"status"`
}

// LEDConfig describes one physical LED.
type LEDConfig struct {
	Name           string `toml:"name" yaml:"name"`
	Pin            string `toml:"pin" yaml:"pin"`
	ActiveLow      bool   `toml:"active_low" yaml:"active_low"`
	DefaultPattern string `toml:"default_pattern" yaml:"default_pattern"`
}

// StatusConfig maps reported statuses onto actions for one LED.
type StatusConfig struct {
	LED     string            `toml:"led" yaml:"led"`
	Actions map[string]string `toml:"actions" yaml:"actions"`
}

// DefaultHardware returns the configuration used when no wiring file exists.
func DefaultHardware() Hardware {
	return Hardware{
		Backend: led.BackendConfig{Type: led.BackendAuto},
	}
}

// LoadHardware reads and validates a wiring file. Files ending in .yaml or
// .yml are YAML, everything else TOML. Unknown keys are rejected.
func LoadHardware(path string) (Hardware, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Hardware{}, fmt.Errorf("read hardware config: %w", err)
	}

	hw := DefaultHardware()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeHardwareYAML(data, &hw)
	default:
		err = decodeHardwareTOML(data, &hw)
	}
	if err != nil {
		return Hardware{}, fmt.Errorf("parse hardware config %s: %w", path, err)
	}

	if err := ValidateHardware(hw); err != nil {
		return Hardware{}, fmt.Errorf("hardware config %s: %w", path, err)
	}
	return hw, nil
}

func decodeHardwareTOML(data []byte, hw *Hardware) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(hw); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return errors.New(strict.String())
		}
		return err
	}
	return nil
}

func decodeHardwareYAML(data []byte, hw *Hardware) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(hw); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ValidateHardware checks cross references between LEDs, patterns and
// status actions. All problems are reported together.
func ValidateHardware(hw Hardware) error {
	var errs []error

	switch strings.ToLower(hw.Backend.Type) {
	case "", led.BackendAuto, led.BackendSysfs, led.BackendGPIOCdev, led.BackendRPIO, led.BackendNoop:
	case led.BackendModbus:
		if hw.Backend.Endpoint == "" {
			errs = append(errs, errors.New("modbus backend: endpoint is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend type %q", hw.Backend.Type))
	}

	catalog, err := hw.Catalog()
	if err != nil {
		errs = append(errs, err)
		catalog = led.DefaultCatalog()
	}

	seen := make(map[string]bool, len(hw.LEDs))
	for i, l := range hw.LEDs {
		switch {
		case strings.TrimSpace(l.Name) == "":
			errs = append(errs, fmt.Errorf("leds[%d]: name is required", i))
			continue
		case seen[l.Name]:
			errs = append(errs, fmt.Errorf("leds[%d]: duplicate LED name %q", i, l.Name))
		}
		seen[l.Name] = true

		if strings.TrimSpace(l.Pin) == "" {
			errs = append(errs, fmt.Errorf("LED %q: pin is required", l.Name))
		}
		if l.DefaultPattern != "" {
			if _, lookupErr := catalog.Lookup(l.DefaultPattern); lookupErr != nil {
				errs = append(errs, fmt.Errorf("LED %q: default_pattern: %w", l.Name, lookupErr))
			}
		}
	}

	if hw.Status.LED != "" && len(hw.LEDs) > 0 && !seen[hw.Status.LED] {
		errs = append(errs, fmt.Errorf("status.led %q is not a configured LED", hw.Status.LED))
	}
	for _, status := range sortedKeys(hw.Status.Actions) {
		action := hw.Status.Actions[status]
		if isManualAction(action) {
			continue
		}
		if _, lookupErr := catalog.Lookup(action); lookupErr != nil {
			errs = append(errs, fmt.Errorf("status action %q: %w", status, lookupErr))
		}
	}

	return errors.Join(errs...)
}

// Catalog builds the pattern catalog: built-ins overlaid with [patterns].
func (hw Hardware) Catalog() (*led.Catalog, error) {
	custom := make([]led.Pattern, 0, len(hw.Patterns))
	for _, name := range sortedKeys(hw.Patterns) {
		custom = append(custom, led.Pattern{Name: name, Durations: hw.Patterns[name]})
	}
	return led.NewCatalog(custom...)
}

// Specs returns the configured LEDs as driver specs.
func (hw Hardware) Specs() []led.LEDSpec {
	specs := make([]led.LEDSpec, 0, len(hw.LEDs))
	for _, l := range hw.LEDs {
		specs = append(specs, led.LEDSpec{Name: l.Name, Pin: led.Pin(l.Pin), ActiveLow: l.ActiveLow})
	}
	return specs
}

func isManualAction(action string) bool {
	return slices.Contains([]string{led.ActionOn, led.ActionOff, led.ActionToggle}, strings.ToLower(action))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
