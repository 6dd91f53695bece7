// Package station provides the radio station catalog consumed by the globe.
package station

import (
	"strings"

	"github.com/google/uuid"
)

// Station is a radio station with a known geographic position.
// Stations are treated as immutable once loaded.
type Station struct {
	ID          uuid.UUID
	Name        string
	URL         string
	ResolvedURL string
	Homepage    string
	Country     string
	CountryCode string
	State       string
	Language    string
	Tags        string
	Codec       string
	Bitrate     int
	Votes       int
	Lat         float64
	Lon         float64
}

// StreamURL returns the URL to hand to an audio player, preferring the
// resolved URL when the catalog supplied one.
func (s Station) StreamURL() string {
	if s.ResolvedURL != "" {
		return s.ResolvedURL
	}
	return s.URL
}

// DisplayTags returns the tag list for display, defaulting to "Music".
func (s Station) DisplayTags() string {
	if strings.TrimSpace(s.Tags) == "" {
		return "Music"
	}
	return s.Tags
}

// Nearby is a station paired with its chord distance to a picked point.
// It is a copy; the source station list is never modified.
type Nearby struct {
	Station
	Distance float64
}

// playableCodecs are formats a stock player can decode without transcoding.
var playableCodecs = map[string]bool{
	"mp3": true,
	"aac": true,
	"ogg": true,
}

// Playable reports whether the station's stream can be played natively.
func (s Station) Playable() bool {
	if playableCodecs[strings.ToLower(strings.TrimSpace(s.Codec))] {
		return true
	}
	return strings.HasSuffix(s.URL, ".mp3")
}
