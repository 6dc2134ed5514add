package geo

import "math"

// Tile addresses one slippy-map grid cell.
type Tile struct {
	Zoom int `json:"z"`
	X    int `json:"x"`
	Y    int `json:"y"`
}

// MaxMercatorLat bounds the Web Mercator projection.
const MaxMercatorLat = 85.0511287798

// LatLngToTile converts a coordinate to the tile containing it at zoom.
func LatLngToTile(c Coordinate, zoom int) Tile {
	lat := math.Max(-MaxMercatorLat, math.Min(MaxMercatorLat, c.Lat))
	latRad := lat * math.Pi / 180
	n := math.Exp2(float64(zoom))
	x := int((c.Lng + 180.0) / 360.0 * n)
	y := int((1.0 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2.0 * n)
	return ConstrainTile(Tile{Zoom: zoom, X: x, Y: y})
}

// TileToLatLng returns the north-west corner of the tile.
func TileToLatLng(t Tile) Coordinate {
	n := math.Exp2(float64(t.Zoom))
	lng := float64(t.X)/n*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(t.Y)/n)))
	return Coordinate{Lat: latRad * 180.0 / math.Pi, Lng: lng}
}

// ConstrainTile clamps x and y into the valid range for the zoom level.
func ConstrainTile(t Tile) Tile {
	maxTile := (1 << t.Zoom) - 1
	t.X = max(0, min(t.X, maxTile))
	t.Y = max(0, min(t.Y, maxTile))
	return t
}

// ValidTile reports whether the address exists at its zoom and within [minZoom, maxZoom].
func ValidTile(t Tile, minZoom, maxZoom int) bool {
	if t.Zoom < minZoom || t.Zoom > maxZoom || t.Zoom < 0 || t.Zoom > 30 {
		return false
	}
	n := 1 << t.Zoom
	return t.X >= 0 && t.X < n && t.Y >= 0 && t.Y < n
}
