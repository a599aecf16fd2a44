package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smazurov/statusled/internal/led"
	"github.com/smazurov/statusled/internal/logging"
	"github.com/spf13/cobra"
)

// CreateBlinkCmd creates the blink command.
func CreateBlinkCmd() *cobra.Command {
	var (
		backend   led.BackendConfig
		pin       string
		pattern   string
		ledsFile  string
		duration  time.Duration
		activeLow bool
		logJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "blink",
		Short: "Play a pattern on a single LED",
		Long: `Drives one LED with a pattern for the given duration, then turns it off. ` +
			`Useful for checking wiring and polarity without running the daemon.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loggingConfig := logging.Config{Level: "info", Format: "text"}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("led").With("pin", pin)

			catalog, err := loadCatalog(ledsFile)
			if err != nil {
				return err
			}
			p, err := catalog.Lookup(pattern)
			if err != nil {
				return err
			}

			out, err := led.NewOutput(backend, logger)
			if err != nil {
				return err
			}
			if closer, ok := out.(led.Closer); ok {
				defer func() {
					if closeErr := closer.Close(); closeErr != nil {
						logger.Warn("Failed to release LED backend", "error", closeErr)
					}
				}()
			}

			polarity := led.ActiveHigh
			if activeLow {
				polarity = led.ActiveLow
			}

			d := led.NewDriver(led.Pin(pin), polarity, out, led.NewTimerService(), led.WithLogger(logger))
			if err := d.Init(); err != nil {
				return err
			}
			defer func() { _ = d.Close() }()

			if err := d.SetPattern(p); err != nil {
				return err
			}
			logger.Info("Blinking", "pattern", p.Name, "period", p.Period(), "duration", duration)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			<-ctx.Done()

			if err := d.TurnOff(); err != nil {
				return fmt.Errorf("turn off LED: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backend.Type, "backend", led.BackendAuto, "LED backend (auto, sysfs, gpiocdev, rpio, modbus, noop)")
	cmd.Flags().StringVar(&backend.Chip, "chip", "gpiochip0", "GPIO chip for the gpiocdev backend")
	cmd.Flags().StringVar(&backend.SysfsRoot, "sysfs-root", "", "LED class directory for the sysfs backend")
	cmd.Flags().StringVar(&backend.Endpoint, "endpoint", "", "host:port of the Modbus TCP I/O module")
	cmd.Flags().StringVar(&pin, "pin", "", "LED pin (sysfs LED name, line offset, BCM number or coil)")
	cmd.Flags().StringVar(&pattern, "pattern", led.Heartbeat.Name, "Pattern name")
	cmd.Flags().StringVar(&ledsFile, "leds-file", "leds.toml", "LED wiring file with custom patterns")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "How long to blink; 0 runs until interrupted")
	cmd.Flags().BoolVar(&activeLow, "active-low", false, "LED lights when the pin is driven low")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log in JSON format")
	_ = cmd.MarkFlagRequired("pin")

	return cmd
}
