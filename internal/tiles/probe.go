package tiles

import (
	"context"
	"net/http"
	"strings"
	"time"

	"iaas_console/console-go/internal/geo"
)

// ProbeTile is the tile requested to decide whether the offline store answers.
var ProbeTile = geo.Tile{Zoom: 6, X: 30, Y: 20}

const DefaultProbeTimeout = 5 * time.Second

// Probe reports whether offline tiles can be served. Failures are never
// surfaced: an unreachable store is simply unavailable.
type Probe func(ctx context.Context) bool

// HTTPProbe issues a HEAD for ProbeTile against an absolute URL template.
func HTTPProbe(client *http.Client, template string, timeout time.Duration) Probe {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	template = strings.TrimSpace(template)
	return func(ctx context.Context) bool {
		if template == "" {
			return false
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodHead, Source{URL: template}.Expand(ProbeTile), nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode >= 200 && resp.StatusCode < 300
	}
}

// StoreProbe checks the local store directly, for when this process serves the
// offline tiles itself.
func StoreProbe(store *Store) Probe {
	return func(context.Context) bool {
		return store.Has(ProbeTile)
	}
}

// ProbeOptions picks the probe target for a deployment.
type ProbeOptions struct {
	// ProbeURL overrides the target when set.
	ProbeURL string
	// OfflineURL is the offline tile template handed to the page.
	OfflineURL string
	// Store is set when this process serves the offline tiles.
	Store   *Store
	Timeout time.Duration
	Client  *http.Client
}

// NewProbe returns a HEAD probe against ProbeURL, else against an absolute
// OfflineURL. A relative OfflineURL is served here, so the store is checked
// directly; without a store nothing can answer and the probe reports false.
func NewProbe(opts ProbeOptions) Probe {
	if u := strings.TrimSpace(opts.ProbeURL); u != "" {
		return HTTPProbe(opts.Client, u, opts.Timeout)
	}
	if isAbsoluteURL(opts.OfflineURL) {
		return HTTPProbe(opts.Client, opts.OfflineURL, opts.Timeout)
	}
	if opts.Store != nil {
		return StoreProbe(opts.Store)
	}
	return func(context.Context) bool { return false }
}

// isAbsoluteURL checks the scheme only; templates such as {s}.tile.host are
// not valid hosts for url.Parse.
func isAbsoluteURL(raw string) bool {
	raw = strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}
