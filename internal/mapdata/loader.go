// Package mapdata fetches the infrastructure collections plotted on the map.
package mapdata

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"iaas_console/console-go/internal/infra"
	"iaas_console/console-go/internal/metrics"
)

// Source is anything that can list the three collections. *backend.Client and
// *db.Source satisfy it.
type Source interface {
	ListStations(ctx context.Context, token string) ([]infra.Point, error)
	ListTerminals(ctx context.Context, token string) ([]infra.Point, error)
	ListHydrocarbonFields(ctx context.Context, token string) ([]infra.Point, error)
}

type CollectionState string

const (
	CollectionPending CollectionState = "pending"
	CollectionLoaded  CollectionState = "loaded"
	CollectionFailed  CollectionState = "failed"
)

// Collection is the outcome of one fetch.
type Collection struct {
	Kind   infra.Kind
	State  CollectionState
	Points []infra.Point
	Err    error
}

func (c Collection) Loaded() bool { return c.State == CollectionLoaded }

type State string

const (
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Result aggregates the three collections. It is an error only when every
// collection failed; otherwise failed layers are reported individually.
type Result struct {
	State             State
	Stations          Collection
	Terminals         Collection
	HydrocarbonFields Collection
	Err               error
}

// Loading is the result before any fetch has settled.
func Loading() Result {
	return Result{
		State:             StateLoading,
		Stations:          Collection{Kind: infra.KindStation, State: CollectionPending},
		Terminals:         Collection{Kind: infra.KindTerminal, State: CollectionPending},
		HydrocarbonFields: Collection{Kind: infra.KindHydrocarbonField, State: CollectionPending},
	}
}

func (r Result) Collections() []Collection {
	return []Collection{r.Stations, r.Terminals, r.HydrocarbonFields}
}

// Empty is true when every loaded collection has no points.
func (r Result) Empty() bool {
	for _, c := range r.Collections() {
		if len(c.Points) > 0 {
			return false
		}
	}
	return true
}

type Loader struct {
	log     zerolog.Logger
	src     Source
	metrics *metrics.Metrics
}

func NewLoader(log zerolog.Logger, src Source, m *metrics.Metrics) *Loader {
	return &Loader{log: log, src: src, metrics: m}
}

// Load issues the three fetches concurrently and waits for all of them.
func (l *Loader) Load(ctx context.Context, token string) Result {
	res := Loading()
	if l == nil || l.src == nil {
		res.State = StateError
		res.Err = errors.New("no infrastructure source configured")
		return res
	}

	fetches := []struct {
		dst  *Collection
		name string
		fn   func(context.Context, string) ([]infra.Point, error)
	}{
		{&res.Stations, "stations", l.src.ListStations},
		{&res.Terminals, "terminals", l.src.ListTerminals},
		{&res.HydrocarbonFields, "hydrocarbon_fields", l.src.ListHydrocarbonFields},
	}

	// Each goroutine writes only its own collection and never returns an error,
	// so one failure does not cancel the others.
	var g errgroup.Group
	for _, f := range fetches {
		g.Go(func() error {
			start := time.Now()
			points, err := f.fn(ctx, token)
			l.metrics.ObserveCollectionFetch(f.name, err == nil, time.Since(start))
			if err != nil {
				l.log.Warn().Err(err).Str("collection", f.name).Msg("collection fetch failed")
				f.dst.State = CollectionFailed
				f.dst.Err = err
				return nil
			}
			if points == nil {
				points = []infra.Point{}
			}
			f.dst.State = CollectionLoaded
			f.dst.Points = points
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, c := range res.Collections() {
		if c.State == CollectionFailed {
			errs = append(errs, c.Err)
		}
	}
	if len(errs) == len(fetches) {
		res.State = StateError
		res.Err = errors.Join(errs...)
		return res
	}
	res.State = StateSuccess
	return res
}
