// Package config loads console-go settings from an optional YAML file with
// environment overrides on top.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"iaas_console/console-go/internal/backend"
	"iaas_console/console-go/internal/geo"
	"iaas_console/console-go/internal/infra"
)

const (
	SourceBackend  = "backend"
	SourcePostgres = "postgres"
)

type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	LogLevel     string             `yaml:"log_level"`
	Backend      BackendConfig      `yaml:"backend"`
	Database     DatabaseConfig     `yaml:"database"`
	Tiles        TilesConfig        `yaml:"tiles"`
	Map          MapConfig          `yaml:"map"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	Session      SessionConfig      `yaml:"session"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Paths   backend.Paths `yaml:"paths"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
	// Source selects where collections come from: backend or postgres.
	Source string `yaml:"source"`
}

type TilesConfig struct {
	OnlineURL    string        `yaml:"online_url"`
	Subdomains   []string      `yaml:"subdomains"`
	Attribution  string        `yaml:"attribution"`
	OfflineURL   string        `yaml:"offline_url"`
	OfflineDir   string        `yaml:"offline_dir"`
	ProbeURL     string        `yaml:"probe_url"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	MinZoom      int           `yaml:"min_zoom"`
	MaxZoom      int           `yaml:"max_zoom"`
	InitialZoom  int           `yaml:"initial_zoom"`
	AutoOffline  bool          `yaml:"auto_offline"`
}

type MapConfig struct {
	DefaultCenter geo.Coordinate  `yaml:"default_center"`
	EditBaseURL   string          `yaml:"edit_base_url"`
	ClickToEdit   map[string]bool `yaml:"click_to_edit"`
}

type ConnectivityConfig struct {
	CheckURL      string        `yaml:"check_url"`
	CheckInterval time.Duration `yaml:"check_interval"`
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

func Default() Config {
	return Config{
		HTTP:     HTTPConfig{Addr: ":8082"},
		LogLevel: "info",
		Backend: BackendConfig{
			BaseURL: "http://localhost:8080",
			Timeout: backend.DefaultTimeout,
			Paths:   backend.DefaultPaths(),
		},
		Database: DatabaseConfig{Source: SourceBackend},
		Tiles: TilesConfig{
			OnlineURL:    "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Subdomains:   []string{"a", "b", "c"},
			Attribution:  "&copy; OpenStreetMap contributors",
			OfflineURL:   "/tiles/offline/{z}/{x}/{y}.png",
			ProbeTimeout: 5 * time.Second,
			MinZoom:      5,
			MaxZoom:      12,
			InitialZoom:  6,
			AutoOffline:  true,
		},
		Map: MapConfig{
			DefaultCenter: geo.DefaultCenter,
		},
		Connectivity: ConnectivityConfig{CheckInterval: 30 * time.Second},
		Session:      SessionConfig{TTL: 8 * time.Hour},
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides and validates the result.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if getenv == nil {
		getenv = os.Getenv
	}

	if path = strings.TrimSpace(path); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	envOr := func(key, fallback string) string {
		v := getenv(key)
		if v == "" {
			return fallback
		}
		return v
	}

	c.HTTP.Addr = envOr("HTTP_ADDR", c.HTTP.Addr)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
	c.Backend.BaseURL = envOr("BACKEND_BASE_URL", c.Backend.BaseURL)
	c.Database.URL = envOr("DATABASE_URL", c.Database.URL)
	c.Database.Source = envOr("DATA_SOURCE", c.Database.Source)
	c.Tiles.OnlineURL = envOr("TILES_ONLINE_URL", c.Tiles.OnlineURL)
	c.Tiles.OfflineURL = envOr("TILES_OFFLINE_URL", c.Tiles.OfflineURL)
	c.Tiles.OfflineDir = envOr("TILES_OFFLINE_DIR", c.Tiles.OfflineDir)
	c.Tiles.ProbeURL = envOr("TILES_PROBE_URL", c.Tiles.ProbeURL)
	c.Connectivity.CheckURL = envOr("CONNECTIVITY_CHECK_URL", c.Connectivity.CheckURL)
	c.Map.EditBaseURL = envOr("EDIT_BASE_URL", c.Map.EditBaseURL)

	if v := getenv("TILES_AUTO_OFFLINE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TILES_AUTO_OFFLINE: %w", err)
		}
		c.Tiles.AutoOffline = b
	}
	if v := getenv("BACKEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BACKEND_TIMEOUT: %w", err)
		}
		c.Backend.Timeout = d
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}

	switch c.Database.Source {
	case SourceBackend:
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("backend.base_url must be an absolute URL, got %q", c.Backend.BaseURL))
		}
	case SourcePostgres:
		if strings.TrimSpace(c.Database.URL) == "" {
			errs = append(errs, errors.New("database.url is required when database.source is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.source must be %q or %q, got %q", SourceBackend, SourcePostgres, c.Database.Source))
	}

	t := c.Tiles
	if t.MinZoom < 0 || t.MaxZoom > 22 || t.MinZoom > t.MaxZoom {
		errs = append(errs, fmt.Errorf("tiles zoom range invalid: min %d max %d", t.MinZoom, t.MaxZoom))
	}
	for name, tmpl := range map[string]string{"tiles.online_url": t.OnlineURL, "tiles.offline_url": t.OfflineURL} {
		if !hasTilePlaceholders(tmpl) {
			errs = append(errs, fmt.Errorf("%s must contain {z}, {x} and {y}: %q", name, tmpl))
		}
	}
	if strings.Contains(t.OnlineURL, "{s}") && len(t.Subdomains) == 0 {
		errs = append(errs, errors.New("tiles.subdomains is required when tiles.online_url uses {s}"))
	}
	if t.ProbeURL != "" && !hasTilePlaceholders(t.ProbeURL) {
		errs = append(errs, fmt.Errorf("tiles.probe_url must contain {z}, {x} and {y}: %q", t.ProbeURL))
	}

	center := c.Map.DefaultCenter
	if center.Lat < -90 || center.Lat > 90 || center.Lng < -180 || center.Lng > 180 {
		errs = append(errs, fmt.Errorf("map.default_center out of range: %+v", center))
	}
	for k := range c.Map.ClickToEdit {
		if _, ok := infra.ParseKind(k); !ok {
			errs = append(errs, fmt.Errorf("map.click_to_edit: unknown kind %q", k))
		}
	}
	return errors.Join(errs...)
}

// ClickToEdit returns the per-kind navigation switches keyed by Kind.
func (c Config) ClickToEdit() map[infra.Kind]bool {
	out := make(map[infra.Kind]bool, len(c.Map.ClickToEdit))
	for k, v := range c.Map.ClickToEdit {
		if kind, ok := infra.ParseKind(k); ok {
			out[kind] = v
		}
	}
	return out
}

func hasTilePlaceholders(tmpl string) bool {
	return strings.Contains(tmpl, "{z}") && strings.Contains(tmpl, "{x}") && strings.Contains(tmpl, "{y}")
}
