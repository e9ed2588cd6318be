package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RenderCollector bundles Prometheus metrics for the render loop and the
// presentation surfaces.
type RenderCollector struct {
	gatherer prometheus.Gatherer

	Frames         prometheus.Counter
	FrameDurations prometheus.Histogram
	Resizes        prometheus.Counter

	SceneBodies    prometheus.Gauge
	ViewportWidth  prometheus.Gauge
	ViewportHeight prometheus.Gauge
	SimElapsed     prometheus.Gauge
	StreamClients  prometheus.Gauge
	DroppedFrames  prometheus.Counter
}

// NewRenderCollector registers the render metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewRenderCollector(reg prometheus.Registerer) (*RenderCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_frames_total",
		Help: "Total number of frames rendered and presented.",
	}), "orrery_frames_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orrery_frame_duration_seconds",
		Help:    "Time spent drawing one frame, excluding presentation.",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.016, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}), "orrery_frame_duration_seconds")
	if err != nil {
		return nil, err
	}

	resizes, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_viewport_resizes_total",
		Help: "Number of viewport resize events handled.",
	}), "orrery_viewport_resizes_total")
	if err != nil {
		return nil, err
	}

	bodies, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_scene_bodies",
		Help: "Number of orbiting bodies in the scene.",
	}), "orrery_scene_bodies")
	if err != nil {
		return nil, err
	}
	width, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_viewport_width_pixels",
		Help: "Current viewport width.",
	}), "orrery_viewport_width_pixels")
	if err != nil {
		return nil, err
	}
	height, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_viewport_height_pixels",
		Help: "Current viewport height.",
	}), "orrery_viewport_height_pixels")
	if err != nil {
		return nil, err
	}
	elapsed, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_sim_elapsed_seconds",
		Help: "Simulation time of the most recent frame.",
	}), "orrery_sim_elapsed_seconds")
	if err != nil {
		return nil, err
	}
	clients, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_stream_clients",
		Help: "Number of connected frame stream clients.",
	}), "orrery_stream_clients")
	if err != nil {
		return nil, err
	}
	dropped, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_stream_dropped_frames_total",
		Help: "Frames skipped for stream clients that were not keeping up.",
	}), "orrery_stream_dropped_frames_total")
	if err != nil {
		return nil, err
	}

	return &RenderCollector{
		gatherer:       gatherer,
		Frames:         frames,
		FrameDurations: durations,
		Resizes:        resizes,
		SceneBodies:    bodies,
		ViewportWidth:  width,
		ViewportHeight: height,
		SimElapsed:     elapsed,
		StreamClients:  clients,
		DroppedFrames:  dropped,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *RenderCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveFrame records one rendered frame. A nil collector is a no-op so
// callers never need to guard.
func (c *RenderCollector) ObserveFrame(d time.Duration, simSeconds float64) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.FrameDurations.Observe(d.Seconds())
	c.SimElapsed.Set(simSeconds)
}

func (c *RenderCollector) SetBodies(n int) {
	if c == nil {
		return
	}
	c.SceneBodies.Set(float64(n))
}

// SetViewport records the viewport size and counts it as a resize.
func (c *RenderCollector) SetViewport(width, height int) {
	if c == nil {
		return
	}
	c.ViewportWidth.Set(float64(width))
	c.ViewportHeight.Set(float64(height))
	c.Resizes.Inc()
}

func (c *RenderCollector) SetStreamClients(n int) {
	if c == nil {
		return
	}
	c.StreamClients.Set(float64(n))
}

func (c *RenderCollector) IncDroppedFrames() {
	if c == nil {
		return
	}
	c.DroppedFrames.Inc()
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
