// Package metrics exposes the current snapshot and session health as
// Prometheus metrics.
package metrics

import (
	"time"

	"github.com/muurk/luxws/internal/session"
	"github.com/muurk/luxws/internal/snapshot"
	"github.com/muurk/luxws/internal/version"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "luxws"

// LeafSource provides the current snapshot.
type LeafSource interface {
	Leaves() []snapshot.Leaf
	LastUpdated() time.Time
}

// StatusSource provides the session status.
type StatusSource interface {
	Status() session.Status
}

var allStates = []session.State{
	session.StateNew,
	session.StateOpen,
	session.StateLoggedIn,
	session.StateDataSelected,
	session.StateError,
}

// Collector reads the snapshot and session on every scrape. It holds no
// values of its own.
type Collector struct {
	leaves LeafSource
	status StatusSource

	value      *prometheus.Desc
	info       *prometheus.Desc
	lastUpdate *prometheus.Desc
	up         *prometheus.Desc
	state      *prometheus.Desc
	errors     *prometheus.Desc
	cooldown   *prometheus.Desc
	counters   []counterDesc
}

type counterDesc struct {
	desc  *prometheus.Desc
	value func(session.Counters) uint64
}

// NewCollector returns a collector over leaves and status. status may be
// nil when only the snapshot should be exported.
func NewCollector(leaves LeafSource, status StatusSource) *Collector {
	leafLabels := []string{"id", "category", "name", "unit"}
	return &Collector{
		leaves: leaves,
		status: status,
		value: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "value"),
			"Current value of a numeric controller field.",
			leafLabels, nil,
		),
		info: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "text_info"),
			"Textual controller field, value carried in the text label.",
			[]string{"id", "category", "name", "text"}, nil,
		),
		lastUpdate: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "last_update_timestamp_seconds"),
			"Time of the last snapshot change (epoch seconds).",
			nil, nil,
		),
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "up"),
			"Whether a snapshot has been received (1=yes, 0=no).",
			nil, nil,
		),
		state: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "state"),
			"Current session state (1 for the active state).",
			[]string{"state"}, nil,
		),
		errors: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "consecutive_errors"),
			"Transport failures since the last successful content reply.",
			nil, nil,
		),
		cooldown: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "cooldown_remaining"),
			"Drives left before the error state is reset.",
			nil, nil,
		),
		counters: []counterDesc{
			newCounter("dials_total", "Connection attempts.", func(c session.Counters) uint64 { return c.Dials }),
			newCounter("dial_failures_total", "Failed connection attempts.", func(c session.Counters) uint64 { return c.DialFailures }),
			newCounter("transport_errors_total", "Transport failures of any kind.", func(c session.Counters) uint64 { return c.TransportErrors }),
			newCounter("clean_closes_total", "Connections closed cleanly by the controller.", func(c session.Counters) uint64 { return c.CleanCloses }),
			newCounter("messages_total", "Messages received.", func(c session.Counters) uint64 { return c.Messages }),
			newCounter("malformed_messages_total", "Messages discarded as malformed.", func(c session.Counters) uint64 { return c.Malformed }),
			newCounter("snapshots_total", "Content replies published.", func(c session.Counters) uint64 { return c.Snapshots }),
			newCounter("merges_total", "Values replies merged.", func(c session.Counters) uint64 { return c.Merges }),
			newCounter("skipped_items_total", "Items dropped from content replies.", func(c session.Counters) uint64 { return c.SkippedItems }),
			newCounter("send_failures_total", "Commands that could not be sent.", func(c session.Counters) uint64 { return c.SendFailures }),
			newCounter("cooldowns_total", "Times the error state was entered.", func(c session.Counters) uint64 { return c.CooldownsStarted }),
		},
	}
}

func newCounter(name, help string, value func(session.Counters) uint64) counterDesc {
	return counterDesc{
		desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "session", name), help, nil, nil),
		value: value,
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.value
	ch <- c.info
	ch <- c.lastUpdate
	ch <- c.up
	if c.status == nil {
		return
	}
	ch <- c.state
	ch <- c.errors
	ch <- c.cooldown
	for _, cd := range c.counters {
		ch <- cd.desc
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.collectLeaves(ch)
	if c.status != nil {
		c.collectStatus(ch)
	}
}

func (c *Collector) collectLeaves(ch chan<- prometheus.Metric) {
	leaves := c.leaves.Leaves()
	if leaves == nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.lastUpdate, prometheus.GaugeValue,
		float64(c.leaves.LastUpdated().Unix()))

	// The controller may repeat a field; the registry rejects duplicate
	// series, so only the first occurrence is exported.
	seen := make(map[string]bool, len(leaves))
	for _, l := range leaves {
		key := l.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		switch {
		case l.Numeric != nil:
			ch <- prometheus.MustNewConstMetric(c.value, prometheus.GaugeValue, *l.Numeric,
				l.ID, l.Category, l.Name, l.Unit)
		case l.Textual != nil:
			ch <- prometheus.MustNewConstMetric(c.info, prometheus.GaugeValue, 1,
				l.ID, l.Category, l.Name, *l.Textual)
		}
	}
}

func (c *Collector) collectStatus(ch chan<- prometheus.Metric) {
	st := c.status.Status()
	for _, s := range allStates {
		v := 0.0
		if s == st.State {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, v, s.String())
	}
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.GaugeValue, float64(st.Errors))
	ch <- prometheus.MustNewConstMetric(c.cooldown, prometheus.GaugeValue, float64(st.Cooldown))
	for _, cd := range c.counters {
		ch <- prometheus.MustNewConstMetric(cd.desc, prometheus.CounterValue, float64(cd.value(st.Counters)))
	}
}

// NewRegistry builds a registry with the collector and build information.
func NewRegistry(c *Collector) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(c)
	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_info",
		Help:        "Build information",
		ConstLabels: prometheus.Labels{"version": version.Version, "commit": version.Commit},
	}, func() float64 { return 1 }))
	return registry
}
