/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics exposes grid counters through a per-grid prometheus
// registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fault and warning kinds used as label values.
const (
	KindResolver = "resolver"
	KindReducer  = "reducer"
	KindPlugin   = "plugin"
	KindConfig   = "config"
)

// Collector holds the metrics of one grid.
type Collector struct {
	registry *prometheus.Registry

	passes       prometheus.Counter
	frames       prometheus.Counter
	coalesced    prometheus.Counter
	warnings     *prometheus.CounterVec
	faults       *prometheus.CounterVec
	rowCount     prometheus.Gauge
	groupCount   prometheus.Gauge
	passDuration prometheus.Histogram
}

// New creates a collector registered on a fresh registry. Every metric
// carries a constant "grid" label with the grid's instance id.
func New(instance string) *Collector {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"grid": instance}
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		passes: f.NewCounter(prometheus.CounterOpts{
			Name:        "rowgrid_passes_total",
			Help:        "Processing passes run",
			ConstLabels: labels,
		}),
		frames: f.NewCounter(prometheus.CounterOpts{
			Name:        "rowgrid_frames_total",
			Help:        "Frames flushed",
			ConstLabels: labels,
		}),
		coalesced: f.NewCounter(prometheus.CounterOpts{
			Name:        "rowgrid_coalesced_invalidations_total",
			Help:        "Invalidations merged into an already pending frame",
			ConstLabels: labels,
		}),
		warnings: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "rowgrid_warnings_total",
			Help:        "Configuration and plugin warnings",
			ConstLabels: labels,
		}, []string{"kind"}),
		faults: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "rowgrid_faults_total",
			Help:        "Recovered resolver, reducer and plugin faults",
			ConstLabels: labels,
		}, []string{"kind"}),
		rowCount: f.NewGauge(prometheus.GaugeOpts{
			Name:        "rowgrid_rows",
			Help:        "Length of the flattened row sequence",
			ConstLabels: labels,
		}),
		groupCount: f.NewGauge(prometheus.GaugeOpts{
			Name:        "rowgrid_groups",
			Help:        "Group rows in the flattened sequence",
			ConstLabels: labels,
		}),
		passDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:        "rowgrid_pass_duration_seconds",
			Help:        "Time to process and flatten rows",
			Buckets:     []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
			ConstLabels: labels,
		}),
	}
}

// Registry returns the grid's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObservePass records one processing pass.
func (c *Collector) ObservePass(d time.Duration, rows, groups int) {
	c.passes.Inc()
	c.passDuration.Observe(d.Seconds())
	c.rowCount.Set(float64(rows))
	c.groupCount.Set(float64(groups))
}

// Frame records a flushed frame.
func (c *Collector) Frame() {
	c.frames.Inc()
}

// Coalesced records an invalidation that joined a pending frame.
func (c *Collector) Coalesced() {
	c.coalesced.Inc()
}

// Warning counts n warnings of kind.
func (c *Collector) Warning(kind string, n int) {
	if n > 0 {
		c.warnings.WithLabelValues(kind).Add(float64(n))
	}
}

// Fault counts n faults of kind.
func (c *Collector) Fault(kind string, n int) {
	if n > 0 {
		c.faults.WithLabelValues(kind).Add(float64(n))
	}
}

// Snapshot is a point-in-time copy of a collector's values.
type Snapshot struct {
	Passes    float64
	Frames    float64
	Coalesced float64
	Rows      float64
	Groups    float64
	Warnings  map[string]float64
	Faults    map[string]float64
}

// Snapshot gathers the current values from the registry.
func (c *Collector) Snapshot() (Snapshot, error) {
	s := Snapshot{Warnings: map[string]float64{}, Faults: map[string]float64{}}
	families, err := c.registry.Gather()
	if err != nil {
		return s, errors.Wrap(err, "gathering metrics")
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue() + m.GetGauge().GetValue()
			kind := ""
			for _, l := range m.GetLabel() {
				if l.GetName() == "kind" {
					kind = l.GetValue()
				}
			}
			switch mf.GetName() {
			case "rowgrid_passes_total":
				s.Passes = v
			case "rowgrid_frames_total":
				s.Frames = v
			case "rowgrid_coalesced_invalidations_total":
				s.Coalesced = v
			case "rowgrid_rows":
				s.Rows = v
			case "rowgrid_groups":
				s.Groups = v
			case "rowgrid_warnings_total":
				s.Warnings[kind] = v
			case "rowgrid_faults_total":
				s.Faults[kind] = v
			}
		}
	}
	return s, nil
}
