package station

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// PickExport is the JSON-serializable representation of a pick.
type PickExport struct {
	ExportedAt time.Time      `json:"exported_at"`
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	Region     string         `json:"region"`
	LocalTime  string         `json:"local_time"`
	Stations   []NearbyExport `json:"stations"`
}

// NearbyExport is a JSON-friendly nearby station.
type NearbyExport struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	State     string  `json:"state,omitempty"`
	Tags      string  `json:"tags,omitempty"`
	Codec     string  `json:"codec"`
	StreamURL string  `json:"stream_url"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Distance  float64 `json:"distance"`
}

// ExportPick converts a nearby list into an exportable record.
func ExportPick(lat, lon float64, region, localTime string, nearby []Nearby, exportedAt time.Time) *PickExport {
	export := &PickExport{
		ExportedAt: exportedAt,
		Latitude:   lat,
		Longitude:  lon,
		Region:     region,
		LocalTime:  localTime,
		Stations:   make([]NearbyExport, 0, len(nearby)),
	}
	for _, n := range nearby {
		export.Stations = append(export.Stations, NearbyExport{
			ID:        n.ID.String(),
			Name:      n.Name,
			Country:   n.Country,
			State:     n.State,
			Tags:      n.Tags,
			Codec:     n.Codec,
			StreamURL: n.StreamURL(),
			Latitude:  n.Lat,
			Longitude: n.Lon,
			Distance:  n.Distance,
		})
	}
	return export
}

// WriteJSON writes the export as indented JSON.
func (e *PickExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// exportSheet is the worksheet name used for spreadsheet exports.
const exportSheet = "Stations"

// WriteXLSX writes the export as a spreadsheet: one header row followed
// by one row per station, nearest first.
func (e *PickExport) WriteXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	headers := []interface{}{
		"Name", "Country", "State", "Tags", "Codec", "Stream URL",
		"Lat", "Lon", "Distance",
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, s := range e.Stations {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			s.Name, s.Country, s.State, s.Tags, s.Codec, s.StreamURL,
			s.Latitude, s.Longitude, s.Distance,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(path)
}
