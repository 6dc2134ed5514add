// Package tiles decides which tile provider the map draws from and serves the
// locally mirrored tiles.
package tiles

import (
	"strconv"
	"strings"

	"iaas_console/console-go/internal/geo"
)

type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// Resolve picks the tile mode. A dead network always means offline; otherwise
// offline tiles are used only when preferred and actually reachable.
func Resolve(networkOnline, autoOffline, offlineAvailable bool) Mode {
	if !networkOnline {
		return ModeOffline
	}
	if autoOffline && offlineAvailable {
		return ModeOffline
	}
	return ModeOnline
}

// Source describes one tile provider as Leaflet consumes it.
type Source struct {
	URL         string   `json:"url"`
	Subdomains  []string `json:"subdomains,omitempty"`
	Attribution string   `json:"attribution,omitempty"`
}

// Expand fills the {z}/{x}/{y} placeholders; {s} takes the first subdomain.
func (s Source) Expand(t geo.Tile) string {
	sub := ""
	if len(s.Subdomains) > 0 {
		sub = s.Subdomains[0]
	}
	return strings.NewReplacer(
		"{z}", strconv.Itoa(t.Zoom),
		"{x}", strconv.Itoa(t.X),
		"{y}", strconv.Itoa(t.Y),
		"{s}", sub,
	).Replace(s.URL)
}

// Selection is the resolved tile configuration handed to the map page.
type Selection struct {
	Mode             Mode     `json:"mode"`
	URL              string   `json:"url"`
	Subdomains       []string `json:"subdomains,omitempty"`
	Attribution      string   `json:"attribution,omitempty"`
	ErrorTileURL     string   `json:"error_tile_url,omitempty"`
	MinZoom          int      `json:"min_zoom"`
	MaxZoom          int      `json:"max_zoom"`
	NetworkOnline    bool     `json:"network_online"`
	OfflineAvailable bool     `json:"offline_available"`
	AutoOffline      bool     `json:"auto_offline"`
}
