package led

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "statusled",
		Subsystem: "led",
		Name:      "toggles_total",
		Help:      "Logical state transitions per LED",
	}, []string{"led"})

	ledPatternChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "statusled",
		Subsystem: "led",
		Name:      "pattern_changes_total",
		Help:      "Patterns started per LED",
	}, []string{"led", "pattern"})

	ledOutputErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "statusled",
		Subsystem: "led",
		Name:      "output_errors_total",
		Help:      "Failed pin writes per LED",
	}, []string{"led"})

	// 1 when the LED is logically on.
	ledState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "statusled",
		Subsystem: "led",
		Name:      "state",
		Help:      "Current logical LED state (1 = on)",
	}, []string{"led"})
)
