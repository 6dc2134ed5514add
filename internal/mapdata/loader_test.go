package mapdata

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"iaas_console/console-go/internal/infra"
	"iaas_console/console-go/internal/metrics"
)

type fakeSource struct {
	stationsFn  func(ctx context.Context, token string) ([]infra.Point, error)
	terminalsFn func(ctx context.Context, token string) ([]infra.Point, error)
	fieldsFn    func(ctx context.Context, token string) ([]infra.Point, error)
}

func (f fakeSource) ListStations(ctx context.Context, token string) ([]infra.Point, error) {
	if f.stationsFn == nil {
		return nil, nil
	}
	return f.stationsFn(ctx, token)
}

func (f fakeSource) ListTerminals(ctx context.Context, token string) ([]infra.Point, error) {
	if f.terminalsFn == nil {
		return nil, nil
	}
	return f.terminalsFn(ctx, token)
}

func (f fakeSource) ListHydrocarbonFields(ctx context.Context, token string) ([]infra.Point, error) {
	if f.fieldsFn == nil {
		return nil, nil
	}
	return f.fieldsFn(ctx, token)
}

func TestLoad_AllEmpty(t *testing.T) {
	l := NewLoader(zerolog.Nop(), fakeSource{}, metrics.New())
	res := l.Load(context.Background(), "")
	if res.State != StateSuccess {
		t.Fatalf("expected success, got %s (%v)", res.State, res.Err)
	}
	if !res.Empty() {
		t.Fatalf("expected empty result")
	}
	for _, c := range res.Collections() {
		if c.State != CollectionLoaded || c.Points == nil {
			t.Fatalf("expected loaded non-nil collection, got %+v", c)
		}
	}
}

func TestLoad_PartialFailureKeepsOtherLayers(t *testing.T) {
	l := NewLoader(zerolog.Nop(), fakeSource{
		stationsFn: func(ctx context.Context, token string) ([]infra.Point, error) {
			return []infra.Point{{ID: "1", Latitude: infra.Float(1), Longitude: infra.Float(2)}}, nil
		},
		terminalsFn: func(ctx context.Context, token string) ([]infra.Point, error) {
			return nil, errors.New("terminals down")
		},
	}, nil)

	res := l.Load(context.Background(), "tok")
	if res.State != StateSuccess {
		t.Fatalf("expected success with partial failure, got %s", res.State)
	}
	if res.Terminals.State != CollectionFailed || res.Terminals.Err == nil {
		t.Fatalf("expected failed terminals, got %+v", res.Terminals)
	}
	if !res.Stations.Loaded() || len(res.Stations.Points) != 1 {
		t.Fatalf("expected loaded stations, got %+v", res.Stations)
	}
}

func TestLoad_AllFailedIsError(t *testing.T) {
	fail := func(ctx context.Context, token string) ([]infra.Point, error) {
		return nil, errors.New("backend unreachable")
	}
	l := NewLoader(zerolog.Nop(), fakeSource{stationsFn: fail, terminalsFn: fail, fieldsFn: fail}, nil)

	res := l.Load(context.Background(), "")
	if res.State != StateError {
		t.Fatalf("expected error state, got %s", res.State)
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "backend unreachable") {
		t.Fatalf("expected raw error message, got %v", res.Err)
	}
}

func TestLoad_FetchesConcurrently(t *testing.T) {
	var inFlight, peak int32
	slow := func(ctx context.Context, token string) ([]infra.Point, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil, nil
	}
	l := NewLoader(zerolog.Nop(), fakeSource{stationsFn: slow, terminalsFn: slow, fieldsFn: slow}, nil)
	l.Load(context.Background(), "")
	if atomic.LoadInt32(&peak) != 3 {
		t.Fatalf("expected three concurrent fetches, peak was %d", peak)
	}
}

func TestLoad_PassesToken(t *testing.T) {
	var got string
	l := NewLoader(zerolog.Nop(), fakeSource{stationsFn: func(ctx context.Context, token string) ([]infra.Point, error) {
		got = token
		return nil, nil
	}}, nil)
	l.Load(context.Background(), "bearer-value")
	if got != "bearer-value" {
		t.Fatalf("expected token to be forwarded, got %q", got)
	}
}

func TestLoad_NoSource(t *testing.T) {
	var l *Loader
	res := l.Load(context.Background(), "")
	if res.State != StateError {
		t.Fatalf("expected error without source, got %s", res.State)
	}
}
