package systemd

import (
	"context"

	"github.com/coreos/go-systemd/v22/dbus"
)

// Manager queries and controls systemd units over D-Bus.
type Manager struct {
	conn *dbus.Conn
}

// NewManager connects to the system bus, falling back to the user bus when
// the process runs as a user service.
func NewManager(ctx context.Context) (*Manager, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		userConn, userErr := dbus.NewUserConnectionContext(ctx)
		if userErr != nil {
			return nil, err
		}
		conn = userConn
	}
	return &Manager{conn: conn}, nil
}

// GetServiceStatus returns the ActiveState of a unit (active, inactive, failed, ...).
func (m *Manager) GetServiceStatus(ctx context.Context, serviceName string) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, serviceName, "ActiveState")
	if err != nil {
		return "", err
	}
	if state, ok := prop.Value.Value().(string); ok {
		return state, nil
	}
	return prop.Value.String(), nil
}

// RestartService queues a restart of the unit in replace mode.
func (m *Manager) RestartService(ctx context.Context, serviceName string) error {
	_, err := m.conn.RestartUnitContext(ctx, serviceName, "replace", nil)
	return err
}

// Close closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
