package httpapi

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"iaas_console/console-go/internal/geo"
	"iaas_console/console-go/internal/i18n"
	"iaas_console/console-go/internal/infra"
	"iaas_console/console-go/internal/markers"
	"iaas_console/console-go/internal/tiles"
)

const defaultLeafletBaseURL = "https://unpkg.com/leaflet@1.9.4/dist"

//go:embed web/map.html web/map.js
var webFS embed.FS

var mapPage = template.Must(template.New("map.html").ParseFS(webFS, "web/map.html"))

// marshalTemplateJS encodes value as a JavaScript literal for html/template.
func marshalTemplateJS(value any) (template.JS, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return template.JS(""), err
	}
	return template.JS(payload), nil
}

type pageConfig struct {
	Lang         string            `json:"lang"`
	Labels       map[string]string `json:"labels"`
	Filters      infra.Filters     `json:"filters"`
	Legend       markers.Legend    `json:"legend"`
	Tiles        tiles.Selection   `json:"tiles"`
	ErrorTileURL string            `json:"error_tile_url"`
	Endpoints    map[string]string `json:"endpoints"`
}

type pageData struct {
	Lang           string
	Dir            string
	Title          string
	Loading        string
	LeafletBaseURL string
	Config         template.JS
}

var pageLabelKeys = []string{
	"panel.loading", "panel.error", "panel.layer_failed", "filters.title", "legend.kinds", "legend.statuses",
	"tiles.title", "tiles.online", "tiles.offline", "tiles.auto_offline", "map.refresh",
	"kind.station", "kind.terminal", "kind.hydrocarbon_field", "kind.pipeline",
	"status.operational", "status.maintenance", "status.offline", "status.unknown",
}

// handleMapPage renders the shell in its loading state; the script then pulls
// the view model.
func (h *Handler) handleMapPage(w http.ResponseWriter, r *http.Request) {
	lang := requestLang(r)
	tr := i18n.Translator(lang)

	labels := make(map[string]string, len(pageLabelKeys))
	for _, k := range pageLabelKeys {
		labels[k] = tr(k)
	}
	sel := h.tileSelection(r)
	errorTile := sel.ErrorTileURL
	if errorTile == "" {
		errorTile = tiles.PlaceholderDataURI
	}

	cfg, err := marshalTemplateJS(pageConfig{
		Lang:         lang,
		Labels:       labels,
		Filters:      infra.ParseFilters(r.URL.Query()),
		Legend:       markers.BuildLegend(),
		Tiles:        sel,
		ErrorTileURL: errorTile,
		Endpoints: map[string]string{
			"view":         "/api/v1/map/view",
			"tiles":        "/api/v1/map/tiles",
			"connectivity": "/api/v1/connectivity",
			"export":       "/api/v1/map/export.geojson",
		},
	})
	if err != nil {
		h.log.Error().Err(err).Msg("encode page config failed")
		h.writeError(w, http.StatusInternalServerError, "encode_error", "failed to render map page", nil)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := mapPage.Execute(w, pageData{
		Lang:           lang,
		Dir:            i18n.Dir(lang),
		Title:          "IAAS · " + tr("filters.title"),
		Loading:        tr("panel.loading"),
		LeafletBaseURL: h.deps.LeafletBaseURL,
		Config:         cfg,
	}); err != nil {
		h.log.Error().Err(err).Msg("render map page failed")
	}
}

func (h *Handler) handleMapScript(w http.ResponseWriter, r *http.Request) {
	b, err := webFS.ReadFile("web/map.js")
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "asset_missing", "map script missing", nil)
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(b)
}

func (h *Handler) handleIcon(w http.ResponseWriter, r *http.Request) {
	kind, ok := infra.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "not_found", "unknown infrastructure kind", nil)
		return
	}
	status, ok := infra.ParseStatus(chi.URLParam(r, "status"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "not_found", "unknown status", nil)
		return
	}
	icon := markers.IconForStatus(kind, status)

	switch chi.URLParam(r, "ext") {
	case "svg":
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write(h.deps.Icons.SVG(icon))
	case "png":
		if h.deps.Icons == nil {
			h.writeError(w, http.StatusServiceUnavailable, "icons_unavailable", "icon renderer not configured", nil)
			return
		}
		b, err := h.deps.Icons.PNG(icon)
		if err != nil {
			h.log.Error().Err(err).Str("kind", string(kind)).Str("status", string(status)).Msg("render icon failed")
			h.writeError(w, http.StatusInternalServerError, "render_error", "failed to render icon", nil)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write(b)
	default:
		h.writeError(w, http.StatusNotFound, "not_found", "unsupported icon format", nil)
	}
}

func parseTileParams(r *http.Request) (geo.Tile, error) {
	z, err := strconv.Atoi(chi.URLParam(r, "z"))
	if err != nil {
		return geo.Tile{}, err
	}
	x, err := strconv.Atoi(chi.URLParam(r, "x"))
	if err != nil {
		return geo.Tile{}, err
	}
	y, err := strconv.Atoi(chi.URLParam(r, "y"))
	if err != nil {
		return geo.Tile{}, err
	}
	return geo.Tile{Zoom: z, X: x, Y: y}, nil
}

// handleOfflineTile answers 404 for missing tiles so the availability probe
// stays truthful; the page swaps in the placeholder itself.
func (h *Handler) handleOfflineTile(w http.ResponseWriter, r *http.Request) {
	t, err := parseTileParams(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_error", "invalid tile address", map[string]any{"error": err.Error()})
		return
	}

	b, err := h.deps.TileStore.Get(t)
	if errors.Is(err, tiles.ErrTileNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int("z", t.Zoom).Int("x", t.X).Int("y", t.Y).Msg("read offline tile failed")
		h.writeError(w, http.StatusInternalServerError, "tile_error", "failed to read tile", nil)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(b)
	}
}

func (h *Handler) handlePlaceholderTile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(tiles.Placeholder)
}
