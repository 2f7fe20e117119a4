package route

import (
	"time"

	"github.com/eida/routingcore/stream"
)

// Station is one entry of a station-cache list: a station code with its
// coordinates and validity interval, as returned by an FDSN station-text
// query (spec.md §3, §4.4).
type Station struct {
	Name      string
	Latitude  float64
	Longitude float64
	Start     *time.Time
	End       *time.Time
}

// TW builds the station's own validity window, for intersecting against a
// route's window during query evaluation.
func (s Station) TW() stream.TimeWindow {
	return stream.TimeWindow{Start: s.Start, End: s.End}
}

// GeoRectangle is an inclusive-on-all-sides bounding box used to filter
// stations by location (spec.md §3).
type GeoRectangle struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains is inclusive on all sides.
func (g GeoRectangle) Contains(lat, lon float64) bool {
	return lat >= g.MinLat && lat <= g.MaxLat && lon >= g.MinLon && lon <= g.MaxLon
}
