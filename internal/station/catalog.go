package station

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/litescript/ls-airwaves/internal/geo"
	"github.com/litescript/ls-airwaves/internal/version"
)

const (
	// DefaultAPIURL is the radio-browser station search endpoint.
	DefaultAPIURL = "https://de1.api.radio-browser.info/json/stations/search"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 30 * time.Second
)

// ErrNoStations is returned when the catalog answered but no station
// survived filtering.
var ErrNoStations = errors.New("no playable stations with coordinates")

// CatalogConfig holds catalog request settings.
type CatalogConfig struct {
	APIURL   string
	Limit    int
	TagList  string
	CacheTTL time.Duration
	Timeout  time.Duration
}

// DefaultCatalogConfig returns the settings used by the application.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		APIURL:   DefaultAPIURL,
		Limit:    4000,
		TagList:  "music,news,talk",
		CacheTTL: 10 * time.Minute,
		Timeout:  DefaultTimeout,
	}
}

// Catalog fetches and filters the station list.
type Catalog struct {
	client *http.Client
	cfg    CatalogConfig
	cache  *cache.Cache
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) CatalogOption {
	return func(c *Catalog) {
		c.client = client
	}
}

// WithConfig replaces the default catalog configuration.
func WithConfig(cfg CatalogConfig) CatalogOption {
	return func(c *Catalog) {
		c.cfg = cfg
	}
}

// NewCatalog creates a new station catalog.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		cfg: DefaultCatalogConfig(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cfg.Timeout <= 0 {
		c.cfg.Timeout = DefaultTimeout
	}
	if c.client == nil {
		c.client = &http.Client{
			Timeout: c.cfg.Timeout,
		}
	}
	// Get/Set are skipped entirely when CacheTTL is zero.
	c.cache = cache.New(c.cfg.CacheTTL, 2*c.cfg.CacheTTL+time.Minute)

	return c
}

// FetchResult contains the result of a fetch operation.
type FetchResult struct {
	Stations  []Station
	FetchedAt time.Time
	Duration  time.Duration
	Cached    bool
	Error     error
}

// Fetch retrieves, decodes and filters the station list.
func (c *Catalog) Fetch(ctx context.Context) FetchResult {
	start := time.Now()
	result := FetchResult{
		FetchedAt: start,
	}

	reqURL, err := c.requestURL()
	if err != nil {
		result.Error = err
		return result
	}

	if c.cfg.CacheTTL > 0 {
		if v, ok := c.cache.Get(reqURL); ok {
			result.Stations = v.([]Station)
			result.Cached = true
			result.Duration = time.Since(start)
			return result
		}
	}

	raw, err := c.fetchRaw(ctx, reqURL)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result
	}

	stations, err := Decode(raw)
	if err != nil {
		result.Error = fmt.Errorf("decode stations: %w", err)
		return result
	}
	stations = Filter(stations)
	if len(stations) == 0 {
		result.Error = ErrNoStations
		return result
	}

	if c.cfg.CacheTTL > 0 {
		c.cache.Set(reqURL, stations, c.cfg.CacheTTL)
	}
	result.Stations = stations
	return result
}

func (c *Catalog) requestURL() (string, error) {
	u, err := url.Parse(c.cfg.APIURL)
	if err != nil {
		return "", fmt.Errorf("parse catalog URL: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(c.cfg.Limit))
	q.Set("order", "clickcount")
	q.Set("reverse", "true")
	q.Set("hidebroken", "true")
	if c.cfg.TagList != "" {
		q.Set("tagList", c.cfg.TagList)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Catalog) fetchRaw(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch stations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}

// apiStation mirrors the radio-browser JSON record. Coordinates are
// pointers because the API sends null for unknown positions.
type apiStation struct {
	StationUUID string   `json:"stationuuid"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	URLResolved string   `json:"url_resolved"`
	Homepage    string   `json:"homepage"`
	Tags        string   `json:"tags"`
	Country     string   `json:"country"`
	CountryCode string   `json:"countrycode"`
	State       string   `json:"state"`
	Language    string   `json:"language"`
	Votes       int      `json:"votes"`
	Codec       string   `json:"codec"`
	Bitrate     int      `json:"bitrate"`
	GeoLat      *float64 `json:"geo_lat"`
	GeoLong     *float64 `json:"geo_long"`
}

// Decode parses a radio-browser JSON array. Records without both
// coordinates, or with coordinates out of range, are skipped.
func Decode(raw []byte) ([]Station, error) {
	var records []apiStation
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}

	stations := make([]Station, 0, len(records))
	for _, r := range records {
		if r.GeoLat == nil || r.GeoLong == nil {
			continue
		}
		if !geo.ValidCoordinate(*r.GeoLat, *r.GeoLong) {
			continue
		}
		id, err := uuid.Parse(r.StationUUID)
		if err != nil {
			id = uuid.Nil
		}
		stations = append(stations, Station{
			ID:          id,
			Name:        r.Name,
			URL:         r.URL,
			ResolvedURL: r.URLResolved,
			Homepage:    r.Homepage,
			Country:     r.Country,
			CountryCode: r.CountryCode,
			State:       r.State,
			Language:    r.Language,
			Tags:        r.Tags,
			Codec:       r.Codec,
			Bitrate:     r.Bitrate,
			Votes:       r.Votes,
			Lat:         *r.GeoLat,
			Lon:         *r.GeoLong,
		})
	}
	return stations, nil
}

// Filter keeps natively playable stations, preserving order.
func Filter(stations []Station) []Station {
	out := make([]Station, 0, len(stations))
	for _, s := range stations {
		if s.Playable() {
			out = append(out, s)
		}
	}
	return out
}
