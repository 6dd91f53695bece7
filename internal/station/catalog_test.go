package station

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

const sampleJSON = `[
  {"stationuuid":"96062a7b-0601-11e8-ae97-52543be04c81","name":"BBC Radio 1","url":"http://example.com/r1","url_resolved":"http://example.com/r1.mp3","tags":"pop","country":"The United Kingdom Of Great Britain And Northern Ireland","countrycode":"GB","codec":"MP3","bitrate":128,"geo_lat":51.5,"geo_long":-0.12},
  {"stationuuid":"not-a-uuid","name":"No Coords","url":"http://example.com/nc","codec":"MP3","geo_lat":null,"geo_long":null},
  {"stationuuid":"c4a1e1b6-0601-11e8-ae97-52543be04c81","name":"FLAC Only","url":"http://example.com/flac","codec":"FLAC","geo_lat":48.85,"geo_long":2.35},
  {"stationuuid":"d1f0a1b6-0601-11e8-ae97-52543be04c81","name":"Unknown Codec Mp3 URL","url":"http://example.com/live.mp3","codec":"","geo_lat":40.4,"geo_long":-3.7},
  {"stationuuid":"e2f0a1b6-0601-11e8-ae97-52543be04c81","name":"Out Of Range","url":"http://example.com/x","codec":"AAC","geo_lat":95,"geo_long":0},
  {"stationuuid":"f3f0a1b6-0601-11e8-ae97-52543be04c81","name":"Tokyo OGG","url":"http://example.com/t","codec":"OGG","geo_lat":35.68,"geo_long":139.69}
]`

func TestDecode(t *testing.T) {
	stations, err := Decode([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	// "No Coords" and "Out Of Range" are dropped.
	if len(stations) != 4 {
		t.Fatalf("len(stations) = %d, want 4", len(stations))
	}

	first := stations[0]
	if first.Name != "BBC Radio 1" {
		t.Errorf("first.Name = %q", first.Name)
	}
	if first.ID != uuid.MustParse("96062a7b-0601-11e8-ae97-52543be04c81") {
		t.Errorf("first.ID = %v", first.ID)
	}
	if first.Lat != 51.5 || first.Lon != -0.12 {
		t.Errorf("first coords = %v,%v", first.Lat, first.Lon)
	}
	if first.StreamURL() != "http://example.com/r1.mp3" {
		t.Errorf("StreamURL() = %q, want resolved URL", first.StreamURL())
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Error("Decode should fail on invalid JSON")
	}
}

func TestFilter_Playable(t *testing.T) {
	stations, err := Decode([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	got := Filter(stations)
	want := []string{"BBC Radio 1", "Unknown Codec Mp3 URL", "Tokyo OGG"}
	if len(got) != len(want) {
		t.Fatalf("Filter kept %d stations, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("Filter()[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestStation_DisplayTags(t *testing.T) {
	if got := (Station{}).DisplayTags(); got != "Music" {
		t.Errorf("empty tags = %q, want Music", got)
	}
	if got := (Station{Tags: "news,talk"}).DisplayTags(); got != "news,talk" {
		t.Errorf("DisplayTags = %q", got)
	}
}

func TestStation_StreamURLFallback(t *testing.T) {
	s := Station{URL: "http://a"}
	if s.StreamURL() != "http://a" {
		t.Errorf("StreamURL() = %q, want fallback to URL", s.StreamURL())
	}
}

func TestCatalog_Fetch(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		q := r.URL.Query()
		if q.Get("limit") != "4000" {
			t.Errorf("limit = %q, want 4000", q.Get("limit"))
		}
		if q.Get("order") != "clickcount" || q.Get("reverse") != "true" || q.Get("hidebroken") != "true" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		if q.Get("tagList") != "music,news,talk" {
			t.Errorf("tagList = %q", q.Get("tagList"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	cfg := DefaultCatalogConfig()
	cfg.APIURL = srv.URL
	c := NewCatalog(WithConfig(cfg))

	result := c.Fetch(context.Background())
	if result.Error != nil {
		t.Fatalf("Fetch error: %v", result.Error)
	}
	if len(result.Stations) != 3 {
		t.Errorf("len(Stations) = %d, want 3", len(result.Stations))
	}
	if result.Cached {
		t.Error("first fetch should not be cached")
	}

	// Second fetch is served from cache.
	again := c.Fetch(context.Background())
	if !again.Cached {
		t.Error("second fetch should be cached")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
}

func TestCatalog_FetchAfterTTL(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	cfg := DefaultCatalogConfig()
	cfg.APIURL = srv.URL
	cfg.CacheTTL = 50 * time.Millisecond
	c := NewCatalog(WithConfig(cfg))

	c.Fetch(context.Background())
	time.Sleep(80 * time.Millisecond)

	result := c.Fetch(context.Background())
	if result.Cached {
		t.Error("fetch after the TTL should not be cached")
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("server hits = %d, want 2 after expiry", n)
	}
}

func TestCatalog_FetchNoCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	cfg := DefaultCatalogConfig()
	cfg.APIURL = srv.URL
	cfg.CacheTTL = 0
	c := NewCatalog(WithConfig(cfg))

	c.Fetch(context.Background())
	c.Fetch(context.Background())
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("server hits = %d, want 2 with caching disabled", n)
	}
}

func TestCatalog_FetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := DefaultCatalogConfig()
	cfg.APIURL = srv.URL
	c := NewCatalog(WithConfig(cfg))

	result := c.Fetch(context.Background())
	if result.Error == nil {
		t.Fatal("expected error for 503")
	}
	if result.Stations != nil {
		t.Error("Stations should be nil on error")
	}
}

func TestCatalog_FetchEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cfg := DefaultCatalogConfig()
	cfg.APIURL = srv.URL
	c := NewCatalog(WithConfig(cfg))

	result := c.Fetch(context.Background())
	if !errors.Is(result.Error, ErrNoStations) {
		t.Errorf("Error = %v, want ErrNoStations", result.Error)
	}
}

func TestCatalog_FetchContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	cfg := DefaultCatalogConfig()
	cfg.APIURL = srv.URL
	c := NewCatalog(WithConfig(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if result := c.Fetch(ctx); result.Error == nil {
		t.Error("expected error for cancelled context")
	}
}
