// Package metrics instruments engine calls with prometheus counters and
// histograms. The CLI has no scrape endpoint, so registries are exported
// to a node-exporter textfile instead.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/solatis/casekeeper/internal/types"
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collector holds the engine metric families.
type Collector struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	issues     *prometheus.CounterVec
}

// NewCollector creates the metric families and registers them on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casekeeper",
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Engine calls by operation, section and outcome.",
		}, []string{"operation", "section", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "casekeeper",
			Subsystem: "engine",
			Name:      "operation_seconds",
			Help:      "Engine call latency by operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"operation"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casekeeper",
			Subsystem: "validation",
			Name:      "issues_total",
			Help:      "Validation issues reported by profile and severity.",
		}, []string{"profile", "severity"}),
	}

	for _, m := range []prometheus.Collector{c.operations, c.durations, c.issues} {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return c, nil
}

// Observe records one engine call. An empty section labels the call as a
// whole-case operation.
func (c *Collector) Observe(operation string, section types.Section, started time.Time, err error) {
	if c == nil {
		return
	}
	if section == "" {
		section = "case"
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	c.operations.WithLabelValues(operation, string(section), outcome).Inc()
	c.durations.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// Issues records the issue counts of one validation report.
func (c *Collector) Issues(profile types.Profile, blocking, nonBlocking int) {
	if c == nil {
		return
	}
	c.issues.WithLabelValues(string(profile), "blocking").Add(float64(blocking))
	c.issues.WithLabelValues(string(profile), "non_blocking").Add(float64(nonBlocking))
}

// WriteTextfile writes every family gathered from g to path in the text
// exposition format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
