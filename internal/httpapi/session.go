package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"iaas_console/console-go/internal/connectivity"
	"iaas_console/console-go/internal/session"
	"iaas_console/console-go/internal/tiles"
)

type connectivityReport struct {
	Online *bool `json:"online"`
}

// connectivityState is the server's upstream view plus what this client
// reported. Reports never change the state other clients see.
type connectivityState struct {
	connectivity.Snapshot
	ClientOnline *bool           `json:"client_online,omitempty"`
	Tiles        tiles.Selection `json:"tiles"`
}

func (h *Handler) handleGetConnectivity(w http.ResponseWriter, r *http.Request) {
	if h.deps.Monitor == nil {
		h.writeError(w, http.StatusServiceUnavailable, "connectivity_unavailable", "connectivity monitor not configured", nil)
		return
	}
	req := tileRequest(r)
	h.writeJSON(w, http.StatusOK, connectivityState{
		Snapshot:     h.deps.Monitor.Snapshot(),
		ClientOnline: req.Online,
		Tiles:        h.selectTiles(req),
	})
}

// handleReportConnectivity takes a browser's online/offline event and answers
// with the tile selection for that browser.
func (h *Handler) handleReportConnectivity(w http.ResponseWriter, r *http.Request) {
	if h.deps.Monitor == nil {
		h.writeError(w, http.StatusServiceUnavailable, "connectivity_unavailable", "connectivity monitor not configured", nil)
		return
	}

	var body connectivityReport
	if err := decodeJSONStrict(r, &body); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body", map[string]any{"error": err.Error()})
		return
	}
	if body.Online == nil {
		h.writeError(w, http.StatusBadRequest, "validation_error", "online is required", nil)
		return
	}

	req := tileRequest(r)
	req.Online = body.Online
	h.log.Debug().
		Str("request_id", middleware.GetReqID(r.Context())).
		Bool("online", *body.Online).
		Msg("client connectivity report")
	h.writeJSON(w, http.StatusOK, connectivityState{
		Snapshot:     h.deps.Monitor.Snapshot(),
		ClientOnline: body.Online,
		Tiles:        h.selectTiles(req),
	})
}

type sessionCreate struct {
	Token string `json:"token"`
}

// handleCreateSession stores the backend-issued token, taken from the body or
// the Authorization header.
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if h.deps.Sessions == nil {
		h.writeError(w, http.StatusServiceUnavailable, "session_unavailable", "sessions not configured", nil)
		return
	}

	var req sessionCreate
	if r.ContentLength != 0 {
		if err := decodeJSONStrict(r, &req); err != nil {
			h.writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body", map[string]any{"error": err.Error()})
			return
		}
	}
	token := req.Token
	if token == "" {
		token = session.BearerToken(r)
	}

	sess, err := h.deps.Sessions.Create(token)
	switch {
	case errors.Is(err, session.ErrEmptyToken):
		h.writeError(w, http.StatusBadRequest, "validation_error", "token is required", nil)
		return
	case errors.Is(err, session.ErrTokenExpired):
		h.writeError(w, http.StatusUnauthorized, "token_expired", "token already expired", nil)
		return
	case err != nil:
		h.log.Error().Err(err).Msg("create session failed")
		h.writeError(w, http.StatusInternalServerError, "session_error", "failed to create session", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	h.writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if h.deps.Sessions != nil {
		if c, err := r.Cookie(session.CookieName); err == nil {
			h.deps.Sessions.Delete(c.Value)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
