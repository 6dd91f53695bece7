package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/litescript/ls-airwaves/internal/globe"
)

var _ globe.Recorder = (*Collector)(nil)

func histogramCount(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		if mf.GetType() != dto.MetricType_HISTOGRAM || len(mf.GetMetric()) == 0 {
			t.Fatalf("%s is not a histogram", name)
		}
		return mf.GetMetric()[0].GetHistogram().GetSampleCount()
	}
	return 0
}

func TestCollector_SceneMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	c.ObserveFrame(2 * time.Millisecond)
	c.ObserveFrame(3 * time.Millisecond)
	c.ObservePick(4)
	c.IncPickMiss()
	c.IncDrag()
	c.IncDrag()
	c.ObserveMarkerRebuild(120)

	if got := testutil.ToFloat64(c.Frames); got != 2 {
		t.Errorf("frames = %v, want 2", got)
	}
	if got := histogramCount(t, reg, "globe_frame_duration_seconds"); got != 2 {
		t.Errorf("frame duration samples = %d, want 2", got)
	}
	tests := []struct {
		outcome string
		want    float64
	}{
		{OutcomeHit, 1},
		{OutcomeMiss, 1},
		{OutcomeDrag, 2},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(c.Picks.WithLabelValues(tt.outcome)); got != tt.want {
			t.Errorf("picks{%s} = %v, want %v", tt.outcome, got, tt.want)
		}
	}
	if got := histogramCount(t, reg, "globe_pick_nearby_stations"); got != 1 {
		t.Errorf("nearby samples = %d, want 1", got)
	}
	if got := testutil.ToFloat64(c.Markers); got != 120 {
		t.Errorf("markers = %v, want 120", got)
	}
	if got := testutil.ToFloat64(c.MarkerRebuilds); got != 1 {
		t.Errorf("rebuilds = %v, want 1", got)
	}
}

func TestCollector_ObserveFetch(t *testing.T) {
	c, err := NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	c.ObserveFetch(3000, false, nil)
	c.ObserveFetch(3000, true, nil)
	c.ObserveFetch(0, false, errors.New("boom"))

	for _, label := range []string{FetchOK, FetchCached, FetchError} {
		if got := testutil.ToFloat64(c.Fetches.WithLabelValues(label)); got != 1 {
			t.Errorf("fetches{%s} = %v, want 1", label, got)
		}
	}
	// Errors leave the last good count in place.
	if got := testutil.ToFloat64(c.Stations); got != 3000 {
		t.Errorf("stations = %v, want 3000", got)
	}
}

func TestCollector_ReRegisterReuses(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	second, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}

	first.ObserveFrame(time.Millisecond)
	if got := testutil.ToFloat64(second.Frames); got != 1 {
		t.Errorf("second collector sees %v frames, want shared 1", got)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.ObserveFrame(time.Millisecond)
	c.ObservePick(1)
	c.IncPickMiss()
	c.IncDrag()
	c.ObserveMarkerRebuild(1)
	c.ObserveFetch(1, false, nil)
	if c.Handler() == nil {
		t.Error("Handler should fall back to the default gatherer")
	}
}

func TestCollector_Handler(t *testing.T) {
	c, err := NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.ObserveFrame(time.Millisecond)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "globe_frames_total 1") {
		t.Errorf("metrics output missing frame counter:\n%s", body)
	}
}
