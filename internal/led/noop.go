package led

import "log/slog"

// noop implements Output for systems without LED hardware
type noop struct {
	logger *slog.Logger
}

// NewNoop creates an Output that only logs
func NewNoop(logger *slog.Logger) Output {
	if logger == nil {
		logger = slog.Default()
	}
	return &noop{
		logger: logger,
	}
}

func (n *noop) Configure(pin Pin) error {
	n.logger.Debug("LED control not available (no-op)", "pin", pin)
	return nil
}

func (n *noop) SetLevel(pin Pin, level Level) error {
	n.logger.Debug("LED level (no-op)",
		"pin", pin,
		"level", level)
	return nil
}
