package laptimes

import (
	"github.com/prometheus/client_golang/prometheus"

	"justapengu.in/laptimes/internal/timing"
)

var (
	filesIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laptimes",
		Name:      "files_ingested_total",
		Help:      "Timing exports ingested, by detected layout.",
	}, []string{"layout"})

	lapsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "laptimes",
		Name:      "laps_ingested_total",
		Help:      "Laps read from timing exports.",
	})

	unregisteredDrivers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "laptimes",
		Name:      "unregistered_drivers",
		Help:      "Drivers in the loaded sessions that the subcategory mapping does not resolve.",
	})
)

func init() {
	prometheus.MustRegister(filesIngested, lapsIngested, unregisteredDrivers)
}

func observeIngest(report timing.Report) {
	layout := report.Layout.String()

	if report.Err != nil {
		layout = "unreadable"
	}

	filesIngested.WithLabelValues(layout).Inc()
	lapsIngested.Add(float64(report.Laps))
}

func observeMapping(table timing.Table) {
	unregistered := make(map[string]bool)

	for _, lap := range table {
		if !lap.Subcategory.IsRegistered() {
			unregistered[lap.Driver] = true
		}
	}

	unregisteredDrivers.Set(float64(len(unregistered)))
}
