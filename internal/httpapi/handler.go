package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"iaas_console/console-go/internal/connectivity"
	"iaas_console/console-go/internal/db"
	"iaas_console/console-go/internal/mapdata"
	"iaas_console/console-go/internal/mapview"
	"iaas_console/console-go/internal/markers"
	"iaas_console/console-go/internal/metrics"
	"iaas_console/console-go/internal/session"
	"iaas_console/console-go/internal/tiles"
)

// Pinger is the readiness probe of the upstream backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps wires the handler. Any field may be nil; the matching endpoints then
// answer 503 instead of panicking.
type Deps struct {
	Loader    *mapdata.Loader
	Selector  *tiles.Selector
	Monitor   *connectivity.Monitor
	TileStore *tiles.Store
	Icons     *markers.Renderer
	Sessions  *session.Store
	Backend   Pinger
	Pool      *db.Pool
	Metrics   *metrics.Metrics
	View      mapview.Options
	// LeafletBaseURL hosts leaflet.js and leaflet.css.
	LeafletBaseURL string
}

type Handler struct {
	log  zerolog.Logger
	deps Deps
}

func NewHandler(log zerolog.Logger, deps Deps) *Handler {
	if deps.LeafletBaseURL == "" {
		deps.LeafletBaseURL = defaultLeafletBaseURL
	}
	return &Handler{log: log, deps: deps}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(h.accessLog)

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Method(http.MethodGet, "/metrics", h.deps.Metrics.Handler())

	// Console
	r.Get("/map", h.handleMapPage)
	r.Get("/static/map.js", h.handleMapScript)
	r.Get("/icons/{kind}/{status}.{ext}", h.handleIcon)
	r.Get("/tiles/offline/{z}/{x}/{y}.png", h.handleOfflineTile)
	r.Head("/tiles/offline/{z}/{x}/{y}.png", h.handleOfflineTile)
	r.Get("/tiles/placeholder.png", h.handlePlaceholderTile)

	// API
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/map", func(r chi.Router) {
				r.Get("/view", h.handleMapView)
				r.Get("/export.geojson", h.handleMapExport)
				r.Route("/tiles", func(r chi.Router) {
					r.Get("/", h.handleGetTiles)
					r.Put("/preference", h.handleSetTilePreference)
					r.Post("/probe", h.handleProbeTiles)
				})
			})

			r.Route("/connectivity", func(r chi.Router) {
				r.Get("/", h.handleGetConnectivity)
				r.Post("/", h.handleReportConnectivity)
			})

			r.Route("/session", func(r chi.Router) {
				r.Post("/", h.handleCreateSession)
				r.Delete("/", h.handleDeleteSession)
			})
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		// Label metrics by route pattern so tile and icon paths stay bounded.
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		h.deps.Metrics.ObserveHTTPRequest(r.Method, route, status, duration)

		evt := h.log.Info()
		if status >= 500 {
			evt = h.log.Warn()
		}
		evt.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("http_request")
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleReadyZ reports ready when every configured data source answers.
func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.deps.Backend == nil && h.deps.Pool == nil {
		h.writeError(w, http.StatusServiceUnavailable, "source_unavailable", "no data source configured", nil)
		return
	}

	if h.deps.Backend != nil {
		if err := h.deps.Backend.Ping(ctx); err != nil {
			h.writeError(w, http.StatusServiceUnavailable, "backend_unavailable", "backend not ready", map[string]any{"error": err.Error()})
			return
		}
	}
	if h.deps.Pool != nil {
		if err := h.deps.Pool.Ping(ctx); err != nil {
			h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not ready", map[string]any{"error": err.Error()})
			return
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}
