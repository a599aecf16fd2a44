package led

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// Backend names.
const (
	BackendAuto     = "auto"
	BackendSysfs    = "sysfs"
	BackendGPIOCdev = "gpiocdev"
	BackendRPIO     = "rpio"
	BackendModbus   = "modbus"
	BackendNoop     = "noop"
)

// BackendConfig selects and configures an Output implementation.
type BackendConfig struct {
	Type      string `toml:"type" yaml:"type"`
	Chip      string `toml:"chip" yaml:"chip"`
	SysfsRoot string `toml:"sysfs_root" yaml:"sysfs_root"`

	// Modbus TCP I/O module
	Endpoint  string `toml:"endpoint" yaml:"endpoint"`
	UnitID    uint8  `toml:"unit_id" yaml:"unit_id"`
	TimeoutMs int    `toml:"timeout_ms" yaml:"timeout_ms"`
}

// LEDSpec is a board-suggested LED when none are configured.
type LEDSpec struct {
	Name      string
	Pin       Pin
	ActiveLow bool
}

// NewOutput creates the Output selected by cfg. "auto" picks sysfs when the
// board is recognised and falls back to no-op otherwise.
func NewOutput(cfg BackendConfig, logger *slog.Logger) (Output, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backend := strings.ToLower(cfg.Type)
	if backend == "" {
		backend = BackendAuto
	}

	switch backend {
	case BackendSysfs:
		return NewSysfs(cfg.SysfsRoot), nil
	case BackendGPIOCdev:
		return NewGPIOCdev(cfg.Chip)
	case BackendRPIO:
		return NewRPIO()
	case BackendModbus:
		return NewModbus(cfg)
	case BackendNoop:
		return NewNoop(logger), nil
	case BackendAuto:
		board := DetectBoard()
		logger.Info("Detecting board for LED control", "board_model", board)
		if len(DefaultLEDs(board)) > 0 {
			logger.Info("Using sysfs LED backend", "board_model", board)
			return NewSysfs(cfg.SysfsRoot), nil
		}
		logger.Info("No LED support detected, using no-op backend", "board_model", board)
		return NewNoop(logger), nil
	default:
		return nil, fmt.Errorf("unknown LED backend %q", cfg.Type)
	}
}

// DefaultLEDs returns the sysfs LEDs known for a board model.
func DefaultLEDs(boardModel string) []LEDSpec {
	switch {
	case strings.Contains(boardModel, "NanoPC-T6"):
		return []LEDSpec{
			{Name: "system", Pin: "sys_led"},
			{Name: "user", Pin: "usr_led"},
		}
	case strings.Contains(boardModel, "Orange Pi"):
		return []LEDSpec{
			{Name: "blue", Pin: "blue_led"},
			{Name: "green", Pin: "green_led"},
		}
	case strings.Contains(boardModel, "Raspberry Pi"):
		return []LEDSpec{
			{Name: "act", Pin: "ACT"},
		}
	default:
		return nil
	}
}

// DetectBoard reads the device tree model to identify the board.
func DetectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
