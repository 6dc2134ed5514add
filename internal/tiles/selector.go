package tiles

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"iaas_console/console-go/internal/connectivity"
	"iaas_console/console-go/internal/metrics"
)

type Options struct {
	Online       Source
	Offline      Source
	ErrorTileURL string
	MinZoom      int
	MaxZoom      int
	AutoOffline  bool
}

// Selector keeps the current tile mode in sync with connectivity, the offline
// probe result and the auto-offline preference.
type Selector struct {
	log     zerolog.Logger
	metrics *metrics.Metrics
	monitor *connectivity.Monitor
	probe   Probe
	opts    Options

	// recomputeMu orders recomputes so the cached mode follows the latest
	// connectivity reading.
	recomputeMu sync.Mutex

	mu               sync.Mutex
	autoOffline      bool
	offlineAvailable bool
	mode             Mode
	unsubscribe      func()
	nextID           int
	listeners        map[int]func(Selection)
}

func NewSelector(log zerolog.Logger, monitor *connectivity.Monitor, probe Probe, opts Options, m *metrics.Metrics) *Selector {
	if probe == nil {
		probe = func(context.Context) bool { return false }
	}
	if opts.MaxZoom < opts.MinZoom {
		opts.MaxZoom = opts.MinZoom
	}
	s := &Selector{
		log:         log,
		metrics:     m,
		monitor:     monitor,
		probe:       probe,
		opts:        opts,
		autoOffline: opts.AutoOffline,
		listeners:   make(map[int]func(Selection)),
	}
	s.mode = Resolve(s.networkOnline(), s.autoOffline, false)
	m.SetTileMode(string(s.mode))
	return s
}

// Start subscribes to connectivity changes and runs the first probe. It does
// not block past that probe.
func (s *Selector) Start(ctx context.Context) {
	s.mu.Lock()
	if s.unsubscribe == nil && s.monitor != nil {
		s.unsubscribe = s.monitor.Subscribe(func(bool) { s.recompute() })
	}
	s.mu.Unlock()
	s.Reprobe(ctx)
}

// Close detaches from the connectivity monitor.
func (s *Selector) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Reprobe checks the offline store again and returns the probe result.
func (s *Selector) Reprobe(ctx context.Context) bool {
	available := s.probe(ctx)
	s.metrics.ObserveTileProbe(available)
	s.log.Debug().Bool("offline_available", available).Msg("offline tile probe")

	s.mu.Lock()
	s.offlineAvailable = available
	s.mu.Unlock()
	s.recompute()
	return available
}

// SetAutoOffline changes the shared preference.
func (s *Selector) SetAutoOffline(v bool) Selection {
	s.mu.Lock()
	s.autoOffline = v
	s.mu.Unlock()
	s.recompute()
	return s.Current()
}

func (s *Selector) Current() Selection {
	return s.For(Request{})
}

// Request holds what a single client knows about itself. Nil fields fall back
// to the shared state.
type Request struct {
	AutoOffline *bool
	// Online is the client's own network state. It can only take the client
	// offline; the upstream check still applies.
	Online *bool
}

// For resolves the selection for one client. The shared preference and
// connectivity state are left untouched.
func (s *Selector) For(req Request) Selection {
	s.mu.Lock()
	auto := s.autoOffline
	available := s.offlineAvailable
	s.mu.Unlock()
	if req.AutoOffline != nil {
		auto = *req.AutoOffline
	}
	online := s.networkOnline()
	if req.Online != nil {
		online = online && *req.Online
	}
	return s.selection(online, auto, available)
}

// Subscribe registers fn for mode changes.
func (s *Selector) Subscribe(fn func(Selection)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Selector) networkOnline() bool {
	if s.monitor == nil {
		return true
	}
	return s.monitor.Online()
}

func (s *Selector) recompute() {
	s.recomputeMu.Lock()
	defer s.recomputeMu.Unlock()

	online := s.networkOnline()

	s.mu.Lock()
	next := Resolve(online, s.autoOffline, s.offlineAvailable)
	if next == s.mode {
		s.mu.Unlock()
		return
	}
	prev := s.mode
	s.mode = next
	sel := s.selection(online, s.autoOffline, s.offlineAvailable)
	listeners := make([]func(Selection), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	s.metrics.SetTileMode(string(next))
	s.log.Info().Str("from", string(prev)).Str("to", string(next)).Bool("network_online", online).Msg("tile mode changed")
	// Listeners must not call SetAutoOffline or Reprobe from the callback.
	for _, fn := range listeners {
		fn(sel)
	}
}

func (s *Selector) selection(online, auto, available bool) Selection {
	mode := Resolve(online, auto, available)
	src := s.opts.Online
	if mode == ModeOffline {
		src = s.opts.Offline
	}
	return Selection{
		Mode:             mode,
		URL:              src.URL,
		Subdomains:       src.Subdomains,
		Attribution:      src.Attribution,
		ErrorTileURL:     s.opts.ErrorTileURL,
		MinZoom:          s.opts.MinZoom,
		MaxZoom:          s.opts.MaxZoom,
		NetworkOnline:    online,
		OfflineAvailable: available,
		AutoOffline:      auto,
	}
}
