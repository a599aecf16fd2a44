package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/statusled/cmd"
	"github.com/smazurov/statusled/internal/api"
	"github.com/smazurov/statusled/internal/config"
	"github.com/smazurov/statusled/internal/events"
	"github.com/smazurov/statusled/internal/led"
	"github.com/smazurov/statusled/internal/logging"
	"github.com/smazurov/statusled/internal/nats"
	"github.com/smazurov/statusled/internal/systemd"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port       string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`
	CORSOrigin string `help:"Allowed CORS origin" default:"*" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`

	// LED settings
	LedsFile  string `help:"LED wiring file (TOML or YAML)" default:"leds.toml" toml:"leds.config_file" env:"LEDS_CONFIG_FILE"`
	LedsWatch bool   `help:"Reload patterns and status actions when the wiring file changes" default:"true" toml:"leds.watch" env:"LEDS_WATCH"`

	// NATS settings
	NatsEnabled  bool   `help:"Enable the NATS bridge" default:"true" toml:"nats.enabled" env:"NATS_ENABLED"`
	NatsEmbedded bool   `help:"Run an embedded NATS server" default:"true" toml:"nats.embedded" env:"NATS_EMBEDDED"`
	NatsHost     string `help:"Embedded NATS server host" default:"127.0.0.1" toml:"nats.host" env:"NATS_HOST"`
	NatsPort     int    `help:"Embedded NATS server port" default:"4222" toml:"nats.port" env:"NATS_PORT"`
	NatsURL      string `help:"External NATS server URL when not embedded" default:"nats://127.0.0.1:4222" toml:"nats.url" env:"NATS_URL"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Systemd settings
	SystemdService string `help:"Unit name reported by the systemd API" default:"statusled.service" toml:"systemd.service" env:"SYSTEMD_SERVICE"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingLED    string `help:"LED driver logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingAPI    string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingNATS   string `help:"NATS logging level" default:"info" toml:"logging.nats" env:"LOGGING_NATS"`
	LoggingConfig string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Flags set on the command line win over the file and env
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"led":    opts.LoggingLED,
				"api":    opts.LoggingAPI,
				"http":   opts.LoggingAPI,
				"nats":   opts.LoggingNATS,
				"config": opts.LoggingConfig,
			},
		})

		logger := logging.GetLogger("main")
		ledLogger := logging.GetLogger("led")

		hw, err := config.LoadHardware(opts.LedsFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Info("No LED wiring file, using board defaults", "path", opts.LedsFile)
			hw = config.DefaultHardware()
		case err != nil:
			logger.Error("Invalid LED wiring file", "error", err)
			os.Exit(1)
		}

		catalog, err := hw.Catalog()
		if err != nil {
			logger.Error("Invalid pattern catalog", "error", err)
			os.Exit(1)
		}

		output, err := led.NewOutput(hw.Backend, ledLogger)
		if err != nil {
			logger.Error("Failed to create LED backend", "backend", hw.Backend.Type, "error", err)
			os.Exit(1)
		}

		// Create event bus for in-process event handling
		eventBus := events.New()
		ledManager := led.NewManager(catalog, eventBus, ledLogger)

		specs := hw.Specs()
		if len(specs) == 0 {
			specs = led.DefaultLEDs(led.DetectBoard())
		}
		for _, spec := range specs {
			polarity := led.ActiveHigh
			if spec.ActiveLow {
				polarity = led.ActiveLow
			}
			d := led.NewDriver(spec.Pin, polarity, output, led.NewTimerService(),
				led.WithName(spec.Name), led.WithLogger(ledLogger))
			if initErr := d.Init(); initErr != nil {
				logger.Warn("Failed to initialize LED", "led", spec.Name, "pin", spec.Pin, "error", initErr)
				continue
			}
			if addErr := ledManager.Add(d); addErr != nil {
				logger.Warn("Failed to register LED", "led", spec.Name, "error", addErr)
			}
		}

		ledManager.SetStatusMapping(indicatorLED(hw, ledManager), hw.Status.Actions)
		for _, l := range hw.LEDs {
			if l.DefaultPattern == "" {
				continue
			}
			if patternErr := ledManager.SetPattern(l.Name, l.DefaultPattern); patternErr != nil {
				logger.Warn("Failed to start default pattern", "led", l.Name, "pattern", l.DefaultPattern, "error", patternErr)
			}
		}

		notifier := systemd.NewNotifier(logger)

		// Patterns and status actions follow the wiring file; pins need a restart
		watcher := config.NewWatcher(opts.LedsFile, config.LoadHardware, logging.GetLogger("config"))
		watcher.OnReload(func(updated config.Hardware) {
			_ = notifier.Reloading()
			defer func() { _ = notifier.Ready() }()

			updatedCatalog, catalogErr := updated.Catalog()
			if catalogErr != nil {
				logger.Warn("Ignoring wiring file with invalid patterns", "error", catalogErr)
				return
			}
			ledManager.SetCatalog(updatedCatalog)
			ledManager.SetStatusMapping(indicatorLED(updated, ledManager), updated.Status.Actions)
			logger.Info("LED wiring file reloaded", "patterns", len(updatedCatalog.Names()))
		})

		var natsServer *nats.Server
		var natsBridge *nats.Bridge
		if opts.NatsEnabled {
			natsURL := opts.NatsURL
			if opts.NatsEmbedded {
				natsServer = nats.NewServer(nats.ServerOptions{
					Host:   opts.NatsHost,
					Port:   opts.NatsPort,
					Logger: logging.GetLogger("nats"),
				})
				natsURL = natsServer.ClientURL()
			}
			natsBridge = nats.NewBridge(natsURL, eventBus, ledManager, logging.GetLogger("nats"))
		}

		apiOpts := &api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			CORSOrigin:        opts.CORSOrigin,
			LEDs:              ledManager,
			EventBus:          eventBus,
			ReloadHardware:    watcher.Reload,
			ServiceName:       opts.SystemdService,
			PrometheusHandler: promhttp.Handler(),
		}

		// D-Bus is optional; without it the systemd routes are not registered
		dbusCtx, dbusCancel := context.WithTimeout(context.Background(), 2*time.Second)
		systemdManager, dbusErr := systemd.NewManager(dbusCtx)
		dbusCancel()
		if dbusErr != nil {
			logger.Debug("Systemd D-Bus unavailable", "error", dbusErr)
		} else {
			apiOpts.Systemd = systemdManager
		}

		server := api.NewServer(apiOpts)

		watchdogCtx, stopWatchdog := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			ledManager.Start()

			if natsServer != nil {
				if startErr := natsServer.Start(); startErr != nil {
					logger.Error("Failed to start NATS server", "error", startErr)
					os.Exit(1)
				}
			}
			if natsBridge != nil {
				if startErr := natsBridge.Start(); startErr != nil {
					logger.Warn("NATS bridge unavailable", "error", startErr)
				}
			}

			if opts.LedsWatch {
				if startErr := watcher.Start(); startErr != nil {
					logger.Warn("Failed to watch LED wiring file", "path", opts.LedsFile, "error", startErr)
				}
			}

			go notifier.RunWatchdog(watchdogCtx)
			_ = notifier.Status("controlling " + pluralLEDs(len(ledManager.Names())))
			_ = notifier.Ready()

			logger.Info("Starting HTTP server", "port", opts.Port, "leds", ledManager.Names())
			if startErr := server.Start(opts.Port); startErr != nil {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			_ = notifier.Stopping()
			stopWatchdog()

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if stopErr := server.Stop(ctx); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			if natsBridge != nil {
				natsBridge.Stop()
			}
			if natsServer != nil {
				natsServer.Stop()
			}

			// Leaves every LED off
			ledManager.Stop()
			if closer, ok := output.(led.Closer); ok {
				if closeErr := closer.Close(); closeErr != nil {
					logger.Warn("Error releasing LED backend", "error", closeErr)
				}
			}

			if systemdManager != nil {
				systemdManager.Close()
			}
		})
	})

	cli.Root().Use = "statusled"
	cli.Root().Short = "Status LED daemon"

	cli.Root().AddCommand(cmd.CreatePatternsCmd())
	cli.Root().AddCommand(cmd.CreateBlinkCmd())
	cli.Root().AddCommand(cmd.CreateReportCmd())
	cli.Root().AddCommand(cmd.CreateLEDCmd())

	// Run the CLI
	cli.Run()
}

// indicatorLED returns the LED that shows reported statuses: the configured
// one, or the first registered LED.
func indicatorLED(hw config.Hardware, manager *led.Manager) string {
	if hw.Status.LED != "" {
		return hw.Status.LED
	}
	if names := manager.Names(); len(names) > 0 {
		return names[0]
	}
	return ""
}

func pluralLEDs(n int) string {
	if n == 1 {
		return "1 LED"
	}
	return strconv.Itoa(n) + " LEDs"
}
