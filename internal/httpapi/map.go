package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"iaas_console/console-go/internal/i18n"
	"iaas_console/console-go/internal/infra"
	"iaas_console/console-go/internal/mapdata"
	"iaas_console/console-go/internal/mapview"
	"iaas_console/console-go/internal/markers"
	"iaas_console/console-go/internal/tiles"
)

// boolQuery reads an optional boolean query parameter. Absent or invalid
// values return nil so the shared state stays in charge.
func boolQuery(r *http.Request, key string) *bool {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// tileRequest carries the caller's mode toggle (auto_offline) and its own
// network state (online).
func tileRequest(r *http.Request) tiles.Request {
	return tiles.Request{
		AutoOffline: boolQuery(r, "auto_offline"),
		Online:      boolQuery(r, "online"),
	}
}

func requestLang(r *http.Request) string {
	return i18n.Negotiate(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
}

func (h *Handler) tileSelection(r *http.Request) tiles.Selection {
	return h.selectTiles(tileRequest(r))
}

func (h *Handler) selectTiles(req tiles.Request) tiles.Selection {
	if h.deps.Selector == nil {
		online := req.Online == nil || *req.Online
		mode := tiles.ModeOnline
		if !online {
			mode = tiles.ModeOffline
		}
		return tiles.Selection{Mode: mode, NetworkOnline: online}
	}
	return h.deps.Selector.For(req)
}

func (h *Handler) load(r *http.Request) mapdata.Result {
	return h.deps.Loader.Load(r.Context(), h.deps.Sessions.TokenFor(r))
}

func (h *Handler) handleMapView(w http.ResponseWriter, r *http.Request) {
	if h.deps.Loader == nil {
		h.writeError(w, http.StatusServiceUnavailable, "source_unavailable", "no data source configured", nil)
		return
	}

	res := h.load(r)
	opts := h.deps.View
	opts.Lang = requestLang(r)
	view := mapview.Build(&res, infra.ParseFilters(r.URL.Query()), h.tileSelection(r), opts)

	for kind, n := range view.Skipped {
		h.deps.Metrics.AddSkippedPoints(kind, n)
		h.log.Debug().Str("kind", kind).Int("skipped", n).Msg("points without usable coordinates left off the map")
	}

	// The error state is a rendered panel, not a transport failure.
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleMapExport(w http.ResponseWriter, r *http.Request) {
	if h.deps.Loader == nil {
		h.writeError(w, http.StatusServiceUnavailable, "source_unavailable", "no data source configured", nil)
		return
	}

	res := h.load(r)
	if res.State == mapdata.StateError {
		details := map[string]any{}
		if res.Err != nil {
			details["error"] = res.Err.Error()
		}
		h.writeError(w, http.StatusBadGateway, "backend_unavailable", "failed to load infrastructure", details)
		return
	}

	fc := exportFeatures(res, infra.ParseFilters(r.URL.Query()), requestLang(r))
	b, err := fc.MarshalJSON()
	if err != nil {
		h.log.Error().Err(err).Msg("encode geojson failed")
		h.writeError(w, http.StatusInternalServerError, "encode_error", "failed to encode export", nil)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Content-Disposition", `attachment; filename="infrastructure.geojson"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// exportFeatures turns every plottable point of the shown layers into a
// GeoJSON point feature.
func exportFeatures(res mapdata.Result, filters infra.Filters, lang string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range res.Collections() {
		if !filters.Shows(c.Kind) || !c.Loaded() {
			continue
		}
		for _, p := range c.Points {
			if !p.Plottable() {
				continue
			}
			status := p.OperationalStatus()
			icon := markers.IconForStatus(c.Kind, status)

			f := geojson.NewFeature(orb.Point{p.Longitude.Value, p.Latitude.Value})
			f.ID = markers.Key(c.Kind, p.ID)
			f.Properties["kind"] = string(c.Kind)
			f.Properties["id"] = p.ID
			f.Properties["name"] = p.LocalizedName(lang)
			f.Properties["code"] = p.Code
			f.Properties["status"] = string(status)
			f.Properties["marker-color"] = icon.BaseColor
			if p.Elevation.Finite() {
				f.Properties["elevation"] = p.Elevation.Value
			}
			fc.Append(f)
		}
	}
	return fc
}

func (h *Handler) handleGetTiles(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.tileSelection(r))
}

type tilePreference struct {
	AutoOffline *bool `json:"auto_offline"`
}

func (h *Handler) handleSetTilePreference(w http.ResponseWriter, r *http.Request) {
	if h.deps.Selector == nil {
		h.writeError(w, http.StatusServiceUnavailable, "tiles_unavailable", "tile selection not configured", nil)
		return
	}

	var req tilePreference
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body", map[string]any{"error": err.Error()})
		return
	}
	if req.AutoOffline == nil {
		h.writeError(w, http.StatusBadRequest, "validation_error", "auto_offline is required", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, h.deps.Selector.SetAutoOffline(*req.AutoOffline))
}

func (h *Handler) handleProbeTiles(w http.ResponseWriter, r *http.Request) {
	if h.deps.Selector == nil {
		h.writeError(w, http.StatusServiceUnavailable, "tiles_unavailable", "tile selection not configured", nil)
		return
	}
	h.deps.Selector.Reprobe(r.Context())
	h.writeJSON(w, http.StatusOK, h.tileSelection(r))
}
