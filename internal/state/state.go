// Package state provides thread-safe state management for the application.
package state

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/litescript/ls-airwaves/internal/station"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventCatalogLoaded   EventType = "CATALOG_LOADED"
	EventStationsAdded   EventType = "STATIONS_ADDED"
	EventStationsRemoved EventType = "STATIONS_REMOVED"
	EventFetchFailed     EventType = "FETCH_FAILED"
	EventPick            EventType = "PICK"
)

// Event represents a change in the catalog or a user pick.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count,omitempty"`
	Region    string    `json:"region,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// PickRecord is a pick remembered for the session.
type PickRecord struct {
	Timestamp time.Time
	Latitude  float64
	Longitude float64
	Region    string
	Nearby    int
}

// CountryCount is the number of stations in one country.
type CountryCount struct {
	Country  string
	Stations int
}

// Manager handles all shared application state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Current state
	stations      []station.Station
	lastFetch     time.Time
	lastError     error
	fetchDuration time.Duration
	cached        bool

	// Previous IDs for change detection
	prevIDs map[uuid.UUID]struct{}

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	// Recent picks, newest last
	picks    []PickRecord
	maxPicks int

	// Derived/cached data
	countries []CountryCount

	// Configuration
	refreshInterval time.Duration
}

// Config holds configuration for the state manager.
type Config struct {
	MaxEvents       int
	MaxPicks        int
	RefreshInterval time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEvents:       50,
		MaxPicks:        20,
		RefreshInterval: 30 * time.Minute,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	maxPicks := cfg.MaxPicks
	if maxPicks <= 0 {
		maxPicks = 20
	}
	return &Manager{
		maxEvents:       maxEvents,
		events:          make([]Event, 0, maxEvents),
		maxPicks:        maxPicks,
		refreshInterval: cfg.RefreshInterval,
	}
}

// Update records a fetch. On error the previous station list is kept.
func (m *Manager) Update(stations []station.Station, fetchDuration time.Duration, cached bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.lastFetch = now
	m.lastError = err
	m.fetchDuration = fetchDuration
	m.cached = cached

	if err != nil {
		m.addEvent(Event{Type: EventFetchFailed, Timestamp: now, Detail: err.Error()})
		return
	}
	if stations == nil {
		return
	}

	m.detectEvents(stations, now)
	m.stations = stations
	m.countries = countByCountry(stations)
}

// detectEvents compares the new list with the previous one by station ID.
func (m *Manager) detectEvents(stations []station.Station, now time.Time) {
	ids := make(map[uuid.UUID]struct{}, len(stations))
	for _, s := range stations {
		ids[s.ID] = struct{}{}
	}

	if m.prevIDs == nil {
		m.addEvent(Event{Type: EventCatalogLoaded, Timestamp: now, Count: len(stations)})
		m.prevIDs = ids
		return
	}

	added, removed := 0, 0
	for id := range ids {
		if _, ok := m.prevIDs[id]; !ok {
			added++
		}
	}
	for id := range m.prevIDs {
		if _, ok := ids[id]; !ok {
			removed++
		}
	}
	if added > 0 {
		m.addEvent(Event{Type: EventStationsAdded, Timestamp: now, Count: added})
	}
	if removed > 0 {
		m.addEvent(Event{Type: EventStationsRemoved, Timestamp: now, Count: removed})
	}
	m.prevIDs = ids
}

func countByCountry(stations []station.Station) []CountryCount {
	counts := make(map[string]int)
	for _, s := range stations {
		name := s.Country
		if name == "" {
			name = "Unknown"
		}
		counts[name]++
	}
	out := make([]CountryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CountryCount{Country: name, Stations: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stations != out[j].Stations {
			return out[i].Stations > out[j].Stations
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// RecordPick remembers a pick and logs it as an event.
func (m *Manager) RecordPick(p PickRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.picks = append(m.picks, p)
	if len(m.picks) > m.maxPicks {
		m.picks = m.picks[1:]
	}
	m.addEvent(Event{Type: EventPick, Timestamp: p.Timestamp, Count: p.Nearby, Region: p.Region})
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Stations      []station.Station
	LastFetch     time.Time
	NextRefresh   time.Time
	LastError     error
	FetchDuration time.Duration
	Cached        bool
	Countries     []CountryCount
	Events        []Event
	Picks         []PickRecord
}

// Snapshot returns a consistent snapshot of current state. The station
// slice is shared and must be treated as read-only.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	countries := make([]CountryCount, len(m.countries))
	copy(countries, m.countries)

	picks := make([]PickRecord, len(m.picks))
	copy(picks, m.picks)

	var next time.Time
	if !m.lastFetch.IsZero() {
		next = m.lastFetch.Add(m.refreshInterval)
	}

	return Snapshot{
		Stations:      m.stations,
		LastFetch:     m.lastFetch,
		NextRefresh:   next,
		LastError:     m.lastError,
		FetchDuration: m.fetchDuration,
		Cached:        m.cached,
		Countries:     countries,
		Events:        m.getEventsOrdered(),
		Picks:         picks,
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RefreshInterval returns the configured refresh interval.
func (m *Manager) RefreshInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshInterval
}

// HasData returns true if we have received at least one successful fetch.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stations != nil
}
