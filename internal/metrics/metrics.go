// Package metrics exposes Prometheus metrics for the globe and the station
// catalog.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/ls-airwaves/internal/logging"
)

// Pick outcome label values.
const (
	OutcomeHit  = "hit"
	OutcomeMiss = "miss"
	OutcomeDrag = "drag"
)

// Fetch result label values.
const (
	FetchOK     = "ok"
	FetchCached = "cached"
	FetchError  = "error"
)

// Collector bundles the application's metrics. A nil *Collector is valid
// and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Frames         prometheus.Counter
	FrameDuration  prometheus.Histogram
	Picks          *prometheus.CounterVec
	NearbyStations prometheus.Histogram
	MarkerRebuilds prometheus.Counter
	Markers        prometheus.Gauge
	Fetches        *prometheus.CounterVec
	Stations       prometheus.Gauge
}

// NewCollector registers metrics against reg, defaulting to the global
// registry when nil. Registering twice on the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Frames, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_frames_total",
		Help: "Frames rendered by the globe scene.",
	}), "globe_frames_total"); err != nil {
		return nil, err
	}
	if c.FrameDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "globe_frame_duration_seconds",
		Help:    "Time spent rendering one frame.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	}), "globe_frame_duration_seconds"); err != nil {
		return nil, err
	}
	if c.Picks, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_pointer_releases_total",
		Help: "Pointer releases on the globe, labeled by outcome.",
	}, []string{"outcome"}), "globe_pointer_releases_total"); err != nil {
		return nil, err
	}
	if c.NearbyStations, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "globe_pick_nearby_stations",
		Help:    "Stations found near a picked point.",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	}), "globe_pick_nearby_stations"); err != nil {
		return nil, err
	}
	if c.MarkerRebuilds, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_marker_rebuilds_total",
		Help: "Marker field rebuilds.",
	}), "globe_marker_rebuilds_total"); err != nil {
		return nil, err
	}
	if c.Markers, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globe_markers",
		Help: "Markers currently on the globe.",
	}), "globe_markers"); err != nil {
		return nil, err
	}
	if c.Fetches, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fetches_total",
		Help: "Station catalog fetches, labeled by result.",
	}, []string{"result"}), "catalog_fetches_total"); err != nil {
		return nil, err
	}
	if c.Stations, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_stations",
		Help: "Stations returned by the last successful fetch.",
	}), "catalog_stations"); err != nil {
		return nil, err
	}

	return c, nil
}

// ObserveFrame records one rendered frame.
func (c *Collector) ObserveFrame(d time.Duration) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.FrameDuration.Observe(d.Seconds())
}

// ObservePick records a release that hit the planet.
func (c *Collector) ObservePick(nearby int) {
	if c == nil {
		return
	}
	c.Picks.WithLabelValues(OutcomeHit).Inc()
	c.NearbyStations.Observe(float64(nearby))
}

// IncPickMiss records a tap that missed the planet.
func (c *Collector) IncPickMiss() {
	if c == nil {
		return
	}
	c.Picks.WithLabelValues(OutcomeMiss).Inc()
}

// IncDrag records a release classified as a drag.
func (c *Collector) IncDrag() {
	if c == nil {
		return
	}
	c.Picks.WithLabelValues(OutcomeDrag).Inc()
}

// ObserveMarkerRebuild records a marker field rebuild.
func (c *Collector) ObserveMarkerRebuild(markers int) {
	if c == nil {
		return
	}
	c.MarkerRebuilds.Inc()
	c.Markers.Set(float64(markers))
}

// ObserveFetch records a catalog fetch.
func (c *Collector) ObserveFetch(stations int, cached bool, err error) {
	if c == nil {
		return
	}
	switch {
	case err != nil:
		c.Fetches.WithLabelValues(FetchError).Inc()
		return
	case cached:
		c.Fetches.WithLabelValues(FetchCached).Inc()
	default:
		c.Fetches.WithLabelValues(FetchOK).Inc()
	}
	c.Stations.Set(float64(stations))
}

// Handler exposes a /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Serve runs a metrics HTTP server on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string, log *logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T, name string) (T, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return col, nil
}
