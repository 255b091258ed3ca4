// Package metrics exports validation results in the Prometheus text format
// so a node_exporter textfile collector can pick them up.
package metrics

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"airbnb-pipeline/models"
)

const namespace = "airbnb_data_check"

// Registry builds a fresh registry holding the gauges for one report.
func Registry(r *models.ValidationReport) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	checkPassed := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "check_passed",
		Help:      "1 if the named check passed in the last run, else 0.",
	}, []string{"check"})
	checkValue := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "check_value",
		Help:      "Headline value of the named check (violations, rows or divergence).",
	}, []string{"check"})
	passed := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "passed",
		Help:      "1 if every check passed in the last run, else 0.",
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last validation run started.",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_duration_seconds",
		Help:      "Wall time of the last validation run.",
	})

	reg.MustRegister(checkPassed, checkValue, passed, lastRun, duration)

	for _, c := range r.Results {
		checkPassed.WithLabelValues(c.Name).Set(boolGauge(c.Passed))
		// NaN is skipped; +Inf is exported as is.
		if !math.IsNaN(c.Value) {
			checkValue.WithLabelValues(c.Name).Set(c.Value)
		}
	}
	passed.Set(boolGauge(r.Passed))
	lastRun.Set(float64(r.StartedAt.UnixNano()) / 1e9)
	duration.Set(r.Duration.Seconds())
	return reg
}

// WriteReport writes the report's gauges to path atomically.
func WriteReport(path string, r *models.ValidationReport) error {
	if err := prometheus.WriteToTextfile(path, Registry(r)); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
