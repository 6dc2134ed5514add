// Package connectivity tracks whether the server's network towards the map
// tile providers is usable. One Monitor is shared by every consumer; a
// browser's own online state is per request and never stored here.
package connectivity

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"iaas_console/console-go/internal/metrics"
)

// Listener is called with the new state whenever it changes.
type Listener func(online bool)

// Snapshot is the last known connectivity state.
type Snapshot struct {
	Online    bool      `json:"online"`
	Source    string    `json:"source"`
	ChangedAt time.Time `json:"changed_at"`
}

type Monitor struct {
	log     zerolog.Logger
	metrics *metrics.Metrics

	mu        sync.RWMutex
	online    bool
	source    string
	changedAt time.Time
	nextID    int
	listeners map[int]Listener
}

// NewMonitor starts online, which is what a freshly loaded page assumes.
func NewMonitor(log zerolog.Logger, m *metrics.Metrics) *Monitor {
	m.SetNetworkOnline(true)
	return &Monitor{
		log:       log,
		metrics:   m,
		online:    true,
		source:    "initial",
		changedAt: time.Now().UTC(),
		listeners: make(map[int]Listener),
	}
}

func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{Online: m.online, Source: m.source, ChangedAt: m.changedAt}
}

// Set records a connectivity report. Listeners run outside the lock and only
// when the state actually flips. It reports whether the state changed.
func (m *Monitor) Set(online bool, source string) bool {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return false
	}
	m.online = online
	m.source = source
	m.changedAt = time.Now().UTC()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	m.metrics.SetNetworkOnline(online)
	m.log.Info().Bool("online", online).Str("source", source).Msg("connectivity changed")

	for _, fn := range listeners {
		fn(online)
	}
	return true
}

// Subscribe registers fn and returns the func that removes it. Calling the
// returned func more than once is harmless.
func (m *Monitor) Subscribe(fn Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

func (m *Monitor) listenerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listeners)
}
