package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iaas_console/console-go/internal/backend"
	"iaas_console/console-go/internal/config"
	"iaas_console/console-go/internal/connectivity"
	"iaas_console/console-go/internal/db"
	"iaas_console/console-go/internal/httpapi"
	"iaas_console/console-go/internal/mapdata"
	"iaas_console/console-go/internal/mapview"
	"iaas_console/console-go/internal/markers"
	"iaas_console/console-go/internal/metrics"
	"iaas_console/console-go/internal/session"
	"iaas_console/console-go/internal/tiles"
)

func main() {
	cfg, err := config.Load(envOr("CONFIG_FILE", ""), os.Getenv)
	if err != nil {
		bootLogger := httpapi.NewLogger("info")
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := httpapi.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	deps := httpapi.Deps{Metrics: m}

	var src mapdata.Source
	switch cfg.Database.Source {
	case config.SourcePostgres:
		pool, err := db.Open(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		deps.Pool = pool
		src = db.NewSource(pool.Queries())
	default:
		client, err := backend.New(logger, backend.Options{
			BaseURL: cfg.Backend.BaseURL,
			Paths:   cfg.Backend.Paths,
			Timeout: cfg.Backend.Timeout,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure backend client")
		}
		deps.Backend = client
		src = client
	}
	deps.Loader = mapdata.NewLoader(logger, src, m)

	monitor := connectivity.NewMonitor(logger, m)
	deps.Monitor = monitor

	var store *tiles.Store
	if cfg.Tiles.OfflineDir != "" {
		store, err = tiles.NewStore(cfg.Tiles.OfflineDir, cfg.Tiles.MinZoom, cfg.Tiles.MaxZoom)
		if err != nil {
			logger.Fatal().Err(err).Str("dir", cfg.Tiles.OfflineDir).Msg("failed to open offline tile store")
		}
		defer store.Close()
		deps.TileStore = store
	}

	probe := tiles.NewProbe(tiles.ProbeOptions{
		ProbeURL:   cfg.Tiles.ProbeURL,
		OfflineURL: cfg.Tiles.OfflineURL,
		Store:      store,
		Timeout:    cfg.Tiles.ProbeTimeout,
	})

	selector := tiles.NewSelector(logger, monitor, probe, tiles.Options{
		Online: tiles.Source{
			URL:         cfg.Tiles.OnlineURL,
			Subdomains:  cfg.Tiles.Subdomains,
			Attribution: cfg.Tiles.Attribution,
		},
		Offline:      tiles.Source{URL: cfg.Tiles.OfflineURL},
		ErrorTileURL: "/tiles/placeholder.png",
		MinZoom:      cfg.Tiles.MinZoom,
		MaxZoom:      cfg.Tiles.MaxZoom,
		AutoOffline:  cfg.Tiles.AutoOffline,
	}, m)
	go selector.Start(ctx)
	defer selector.Close()
	deps.Selector = selector

	checker := connectivity.NewChecker(logger, monitor, connectivity.CheckerOptions{
		URL:      cfg.Connectivity.CheckURL,
		Interval: cfg.Connectivity.CheckInterval,
	})
	go checker.Run(ctx)

	icons, err := markers.NewRenderer(1)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create icon renderer")
	}
	defer icons.Close()
	deps.Icons = icons

	deps.Sessions = session.NewStore(cfg.Session.TTL)
	deps.View = mapview.Options{
		InitialZoom:   cfg.Tiles.InitialZoom,
		DefaultCenter: cfg.Map.DefaultCenter,
		ClickToEdit:   cfg.ClickToEdit(),
		EditBase:      cfg.Map.EditBaseURL,
	}

	h := httpapi.NewHandler(logger, deps)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", cfg.HTTP.Addr).
			Str("source", cfg.Database.Source).
			Bool("offline_store", store != nil).
			Msg("console-go listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
