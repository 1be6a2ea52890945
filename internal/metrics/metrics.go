// Package metrics collects render and loading counters on a private
// Prometheus registry and writes them in the text exposition format.
// Nothing is served over the network.
package metrics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const namespace = "orrery"

// Icon load results.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Collector holds the application metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	registry *prometheus.Registry

	frames        prometheus.Counter
	frameDuration prometheus.Histogram
	iconLoads     *prometheus.CounterVec
	readyLatency  prometheus.Gauge
	bodies        prometheus.Gauge
}

// New creates a collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rendered_total",
			Help:      "Frames rasterized by the viewport host.",
		}),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Time spent advancing and rasterizing one frame.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		iconLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "icon_loads_total",
			Help:      "Icon loads by result.",
		}, []string{"result"}),
		readyLatency: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ready_latency_seconds",
			Help:      "Time from mount to the first rendered frame.",
		}),
		bodies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scene_bodies",
			Help:      "Orbiting bodies in the composed scene.",
		}),
	}
	c.registry.MustRegister(c.frames, c.frameDuration, c.iconLoads, c.readyLatency, c.bodies)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// FrameRendered records one frame.
func (c *Collector) FrameRendered(d time.Duration) {
	if c == nil {
		return
	}
	c.frames.Inc()
	c.frameDuration.Observe(d.Seconds())
}

// IconLoaded records an icon load outcome.
func (c *Collector) IconLoaded(ok bool) {
	if c == nil {
		return
	}
	result := ResultOK
	if !ok {
		result = ResultFailed
	}
	c.iconLoads.WithLabelValues(result).Inc()
}

// Ready records the mount-to-first-frame latency.
func (c *Collector) Ready(d time.Duration) {
	if c == nil {
		return
	}
	c.readyLatency.Set(d.Seconds())
}

// SetBodies records the scene size.
func (c *Collector) SetBodies(n int) {
	if c == nil {
		return
	}
	c.bodies.Set(float64(n))
}

// Gather returns the current metric families.
func (c *Collector) Gather() ([]*dto.MetricFamily, error) {
	if c == nil {
		return nil, nil
	}
	return c.registry.Gather()
}

// WriteText writes every metric family in the text exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile writes the text exposition to path, replacing it.
func (c *Collector) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := c.WriteText(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
