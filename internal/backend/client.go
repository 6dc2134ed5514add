// Package backend reads infrastructure collections from the IAAS/RAAS REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"iaas_console/console-go/internal/infra"
)

// DefaultTimeout applies to every backend call.
const DefaultTimeout = 30 * time.Second

// StatusError is returned for non-2xx backend responses.
type StatusError struct {
	Collection string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("backend %s: unexpected status %d", e.Collection, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Paths are the collection endpoints relative to the base URL.
type Paths struct {
	Stations          string `yaml:"stations"`
	Terminals         string `yaml:"terminals"`
	HydrocarbonFields string `yaml:"hydrocarbon_fields"`
}

func DefaultPaths() Paths {
	return Paths{
		Stations:          "/api/network/core/stations",
		Terminals:         "/api/network/core/terminals",
		HydrocarbonFields: "/api/network/core/hydrocarbon-fields",
	}
}

type Options struct {
	BaseURL    string
	Paths      Paths
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	log   zerolog.Logger
	base  *url.URL
	paths Paths
	http  *http.Client
}

func New(log zerolog.Logger, opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend base url %q must be absolute", opts.BaseURL)
	}

	paths := opts.Paths
	def := DefaultPaths()
	if strings.TrimSpace(paths.Stations) == "" {
		paths.Stations = def.Stations
	}
	if strings.TrimSpace(paths.Terminals) == "" {
		paths.Terminals = def.Terminals
	}
	if strings.TrimSpace(paths.HydrocarbonFields) == "" {
		paths.HydrocarbonFields = def.HydrocarbonFields
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{log: log, base: base, paths: paths, http: hc}, nil
}

func (c *Client) ListStations(ctx context.Context, token string) ([]infra.Point, error) {
	return c.list(ctx, "stations", c.paths.Stations, token)
}

func (c *Client) ListTerminals(ctx context.Context, token string) ([]infra.Point, error) {
	return c.list(ctx, "terminals", c.paths.Terminals, token)
}

func (c *Client) ListHydrocarbonFields(ctx context.Context, token string) ([]infra.Point, error) {
	return c.list(ctx, "hydrocarbon_fields", c.paths.HydrocarbonFields, token)
}

// Ping checks that the backend answers at all; any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.base.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) list(ctx context.Context, collection, path, token string) ([]infra.Point, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("backend %s path: %w", collection, err)
	}
	target := c.base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", collection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("backend %s: read body: %w", collection, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Collection: collection, StatusCode: resp.StatusCode, Body: snippet(body)}
	}

	points, err := DecodeCollection(body)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", collection, err)
	}
	c.log.Debug().Str("collection", collection).Int("count", len(points)).Msg("backend collection fetched")
	return points, nil
}

// DecodeCollection accepts a bare array or an object wrapping the array in
// "data" or "content". A "data" object may itself be a page with "content".
func DecodeCollection(body []byte) ([]infra.Point, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []infra.Point{}, nil
	}
	items, err := unwrap(body, 0)
	if err != nil {
		return nil, err
	}
	points := []infra.Point{}
	if err := json.Unmarshal(items, &points); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	return points, nil
}

var errUnexpectedShape = errors.New("unexpected collection shape")

func unwrap(raw json.RawMessage, depth int) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return json.RawMessage("[]"), nil
	}
	switch raw[0] {
	case '[':
		return raw, nil
	case '{':
		if depth > 1 {
			return nil, errUnexpectedShape
		}
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		for _, key := range []string{"data", "content"} {
			if inner, ok := env[key]; ok {
				return unwrap(inner, depth+1)
			}
		}
		return nil, errUnexpectedShape
	default:
		return nil, errUnexpectedShape
	}
}

const snippetLimit = 200

// snippet trims b to at most snippetLimit bytes without splitting a rune.
func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= snippetLimit {
		return s
	}
	n := snippetLimit
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
