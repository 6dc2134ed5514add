package tiles

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"iaas_console/console-go/internal/connectivity"
	"iaas_console/console-go/internal/geo"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		online, auto, available bool
		want                    Mode
	}{
		{false, false, false, ModeOffline},
		{false, true, true, ModeOffline},
		{true, false, true, ModeOnline},
		{true, true, false, ModeOnline},
		{true, true, true, ModeOffline},
	}
	for _, tc := range cases {
		if got := Resolve(tc.online, tc.auto, tc.available); got != tc.want {
			t.Fatalf("Resolve(%v,%v,%v)=%s want %s", tc.online, tc.auto, tc.available, got, tc.want)
		}
	}
}

func TestSourceExpand(t *testing.T) {
	src := Source{URL: "https://{s}.tile.example.org/{z}/{x}/{y}.png", Subdomains: []string{"a", "b"}}
	if got := src.Expand(ProbeTile); got != "https://a.tile.example.org/6/30/20.png" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestHTTPProbe(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		if r.URL.Path == "/tiles/6/30/20.png" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if !HTTPProbe(srv.Client(), srv.URL+"/tiles/{z}/{x}/{y}.png", 0)(context.Background()) {
		t.Fatalf("expected probe to succeed")
	}
	if gotMethod != http.MethodHead || gotPath != "/tiles/6/30/20.png" {
		t.Fatalf("unexpected probe request %s %s", gotMethod, gotPath)
	}
	if HTTPProbe(srv.Client(), srv.URL+"/missing/{z}/{x}/{y}.png", 0)(context.Background()) {
		t.Fatalf("expected 404 to mean unavailable")
	}
	if HTTPProbe(nil, "", 0)(context.Background()) {
		t.Fatalf("expected empty template to mean unavailable")
	}
}

func TestHTTPProbe_NetworkErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	if HTTPProbe(nil, url+"/{z}/{x}/{y}.png", 0)(context.Background()) {
		t.Fatalf("expected unreachable store to be unavailable")
	}
}

func newSelector(t *testing.T, available bool, auto bool) (*Selector, *connectivity.Monitor) {
	t.Helper()
	mon := connectivity.NewMonitor(zerolog.Nop(), nil)
	s := NewSelector(zerolog.Nop(), mon, func(context.Context) bool { return available }, Options{
		Online:      Source{URL: "https://{s}.tile.example.org/{z}/{x}/{y}.png", Subdomains: []string{"a", "b", "c"}},
		Offline:     Source{URL: "/tiles/offline/{z}/{x}/{y}.png"},
		MinZoom:     5,
		MaxZoom:     12,
		AutoOffline: auto,
	}, nil)
	return s, mon
}

func TestSelector_FollowsConnectivity(t *testing.T) {
	s, mon := newSelector(t, false, true)
	s.Start(context.Background())
	defer s.Close()

	var changes []Mode
	s.Subscribe(func(sel Selection) { changes = append(changes, sel.Mode) })

	if got := s.Current(); got.Mode != ModeOnline || got.Subdomains[0] != "a" {
		t.Fatalf("expected online selection, got %+v", got)
	}

	mon.Set(false, "checker")
	got := s.Current()
	if got.Mode != ModeOffline || got.URL != "/tiles/offline/{z}/{x}/{y}.png" || got.NetworkOnline {
		t.Fatalf("expected offline selection, got %+v", got)
	}

	mon.Set(true, "checker")
	if len(changes) != 2 || changes[0] != ModeOffline || changes[1] != ModeOnline {
		t.Fatalf("unexpected mode changes %v", changes)
	}

	s.Close()
	mon.Set(false, "checker")
	if len(changes) != 2 {
		t.Fatalf("selector still listening after Close")
	}
}

func TestSelector_ProbeAndPreference(t *testing.T) {
	s, _ := newSelector(t, true, true)
	if s.Current().Mode != ModeOnline {
		t.Fatalf("expected online before the first probe")
	}
	s.Start(context.Background())
	defer s.Close()

	if got := s.Current(); got.Mode != ModeOffline || !got.OfflineAvailable {
		t.Fatalf("expected offline once probe succeeds, got %+v", got)
	}

	off := false
	if got := s.For(Request{AutoOffline: &off}); got.Mode != ModeOnline || got.AutoOffline {
		t.Fatalf("expected per-request override to force online, got %+v", got)
	}
	if s.Current().Mode != ModeOffline {
		t.Fatalf("override must not change shared preference")
	}

	if got := s.SetAutoOffline(false); got.Mode != ModeOnline {
		t.Fatalf("expected online after disabling auto-offline, got %+v", got)
	}
}

func TestSelector_ClientNetworkStateStaysPerRequest(t *testing.T) {
	s, mon := newSelector(t, false, false)
	s.Start(context.Background())
	defer s.Close()

	offline, online := false, true
	if got := s.For(Request{Online: &offline}); got.Mode != ModeOffline || got.NetworkOnline {
		t.Fatalf("expected the disconnected client to get offline tiles, got %+v", got)
	}
	if got := s.Current(); got.Mode != ModeOnline || !got.NetworkOnline {
		t.Fatalf("expected other clients to stay online, got %+v", got)
	}

	mon.Set(false, "checker")
	if got := s.For(Request{Online: &online}); got.Mode != ModeOffline {
		t.Fatalf("expected upstream outage to win over the client report, got %+v", got)
	}
}

func TestSelector_ConcurrentChangesSettleOnLatestState(t *testing.T) {
	s, mon := newSelector(t, true, false)
	s.Start(context.Background())
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			mon.Set(i%2 == 0, "checker")
		}(i)
		go func() {
			defer wg.Done()
			s.Reprobe(context.Background())
		}()
	}
	wg.Wait()

	s.mu.Lock()
	cached := s.mode
	s.mu.Unlock()
	if want := s.Current().Mode; cached != want {
		t.Fatalf("cached mode %s does not match current state %s", cached, want)
	}
}

func TestNewProbe_Targets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/tiles/6/30/20.png" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	writeTile(t, dir, ProbeTile, Placeholder)
	store, err := NewStore(dir, 5, 12)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if !NewProbe(ProbeOptions{OfflineURL: srv.URL + "/tiles/{z}/{x}/{y}.png"})(ctx) {
		t.Fatalf("expected an absolute offline template to be probed directly")
	}
	if NewProbe(ProbeOptions{OfflineURL: srv.URL + "/tiles/{z}/{x}/{y}.png", ProbeURL: srv.URL + "/missing/{z}/{x}/{y}.png", Store: store})(ctx) {
		t.Fatalf("expected the explicit probe url to take precedence")
	}
	if !NewProbe(ProbeOptions{OfflineURL: "/tiles/offline/{z}/{x}/{y}.png", Store: store})(ctx) {
		t.Fatalf("expected a relative template to be checked against the local store")
	}
	if NewProbe(ProbeOptions{OfflineURL: "/tiles/offline/{z}/{x}/{y}.png"})(ctx) {
		t.Fatalf("expected a relative template without a store to be unavailable")
	}
}

func writeTile(t *testing.T, dir string, tile geo.Tile, body []byte) {
	t.Helper()
	p := filepath.Join(dir, "6", "30")
	if err := os.MkdirAll(p, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(p, "20.png"), body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestStore(t *testing.T) {
	dir := t.TempDir()
	writeTile(t, dir, ProbeTile, []byte("png-bytes"))

	st, err := NewStore(dir, 5, 12)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer st.Close()

	b, err := st.Get(ProbeTile)
	if err != nil || string(b) != "png-bytes" {
		t.Fatalf("unexpected tile %q err=%v", b, err)
	}
	if !st.Has(ProbeTile) || !StoreProbe(st)(context.Background()) {
		t.Fatalf("expected probe tile present")
	}
	if _, err := st.Get(geo.Tile{Zoom: 6, X: 1, Y: 1}); !errors.Is(err, ErrTileNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := st.Get(geo.Tile{Zoom: 13, X: 0, Y: 0}); !errors.Is(err, ErrTileNotFound) {
		t.Fatalf("expected out-of-range zoom to be not found, got %v", err)
	}
	if st.Has(geo.Tile{Zoom: 6, X: 64, Y: 0}) {
		t.Fatalf("expected invalid address to be absent")
	}
}

func TestNewStore_RequiresDirectory(t *testing.T) {
	if _, err := NewStore("", 0, 18); err == nil {
		t.Fatalf("expected error for empty dir")
	}
	if _, err := NewStore(filepath.Join(t.TempDir(), "nope"), 0, 18); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}

func TestPlaceholder(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(Placeholder))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Fatalf("expected 1x1, got %v", b)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Fatalf("expected transparent pixel, alpha=%d", a)
	}
}
