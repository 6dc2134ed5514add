// Package geo holds the coordinate helpers used to place infrastructure on the map.
package geo

import (
	"fmt"
	"math"

	"iaas_console/console-go/internal/infra"
)

// Coordinate is a WGS84 latitude/longitude pair in signed degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// DefaultCenter is used when nothing can be plotted.
var DefaultCenter = Coordinate{Lat: 28.0339, Lng: 1.6596}

// ToCoordinate assumes p already passed infra.Point.Plottable.
func ToCoordinate(p infra.Point) Coordinate {
	return Coordinate{Lat: p.Latitude.Value, Lng: p.Longitude.Value}
}

// PlottableCoordinates converts the plottable points and returns how many were skipped.
func PlottableCoordinates(points []infra.Point) ([]Coordinate, int) {
	out := make([]Coordinate, 0, len(points))
	skipped := 0
	for _, p := range points {
		if !p.Plottable() {
			skipped++
			continue
		}
		out = append(out, ToCoordinate(p))
	}
	return out, skipped
}

// ComputeCentroid returns the arithmetic mean of each axis, or fallback for an empty input.
func ComputeCentroid(coords []Coordinate, fallback Coordinate) Coordinate {
	if len(coords) == 0 {
		return fallback
	}
	var lat, lng float64
	for _, c := range coords {
		lat += c.Lat
		lng += c.Lng
	}
	n := float64(len(coords))
	return Coordinate{Lat: lat / n, Lng: lng / n}
}

// FormatCoordinate renders "36.7538°N, 3.0588°W".
func FormatCoordinate(c Coordinate) string {
	ns := "N"
	if c.Lat < 0 {
		ns = "S"
	}
	ew := "E"
	if c.Lng < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.4f°%s, %.4f°%s", math.Abs(c.Lat), ns, math.Abs(c.Lng), ew)
}
