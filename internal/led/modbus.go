package led

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

const (
	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000

	defaultModbusTimeout = time.Second
)

// coilWriter is the subset of modbus.Client used to drive coils.
type coilWriter interface {
	WriteSingleCoil(address, value uint16) (results []byte, err error)
}

// modbusCoils implements Output on the coils of a Modbus TCP I/O module,
// e.g. a signal tower. Pins are "coil" or "unit:coil".
type modbusCoils struct {
	mu          sync.Mutex
	handler     *modbus.TCPClientHandler
	client      coilWriter
	defaultUnit uint8
}

// NewModbus connects to a Modbus TCP endpoint.
func NewModbus(cfg BackendConfig) (Output, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("modbus backend: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = defaultModbusTimeout
	if cfg.TimeoutMs > 0 {
		h.Timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("connect modbus %s: %w", cfg.Endpoint, err)
	}

	return &modbusCoils{
		handler:     h,
		client:      modbus.NewClient(h),
		defaultUnit: unitOrDefault(cfg.UnitID),
	}, nil
}

func unitOrDefault(unit uint8) uint8 {
	if unit == 0 {
		return 1
	}
	return unit
}

func (m *modbusCoils) Configure(pin Pin) error {
	_, _, err := parseCoil(pin, m.defaultUnit)
	return err
}

func (m *modbusCoils) SetLevel(pin Pin, level Level) error {
	unit, coil, err := parseCoil(pin, m.defaultUnit)
	if err != nil {
		return err
	}

	value := coilOff
	if level == High {
		value = coilOn
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// SlaveId is per handler, so requests are serialized.
	if m.handler != nil {
		m.handler.SlaveId = unit
	}
	if _, err := m.client.WriteSingleCoil(coil, value); err != nil {
		return fmt.Errorf("write coil %d on unit %d: %w", coil, unit, err)
	}
	return nil
}

// Close closes the TCP connection.
func (m *modbusCoils) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handler == nil {
		return nil
	}
	return m.handler.Close()
}

func parseCoil(pin Pin, defaultUnit uint8) (unit uint8, coil uint16, err error) {
	unit = defaultUnit
	coilPart := string(pin)

	if u, c, found := strings.Cut(coilPart, ":"); found {
		n, parseErr := strconv.ParseUint(u, 10, 8)
		if parseErr != nil || n == 0 || n > 247 {
			return 0, 0, fmt.Errorf("invalid modbus unit in pin %q", pin)
		}
		unit = uint8(n)
		coilPart = c
	}

	n, parseErr := strconv.ParseUint(coilPart, 10, 16)
	if parseErr != nil {
		return 0, 0, fmt.Errorf("invalid modbus coil %q", pin)
	}
	return unit, uint16(n), nil
}
