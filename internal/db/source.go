package db

import (
	"context"

	"iaas_console/console-go/internal/infra"
)

// Source adapts Queries to the map data loader. The bearer token is ignored:
// database access is authorized by the connection string.
type Source struct {
	q *Queries
}

func NewSource(q *Queries) *Source {
	return &Source{q: q}
}

func (s *Source) ListStations(ctx context.Context, _ string) ([]infra.Point, error) {
	return toPoints(s.q.ListStations(ctx))
}

func (s *Source) ListTerminals(ctx context.Context, _ string) ([]infra.Point, error) {
	return toPoints(s.q.ListTerminals(ctx))
}

func (s *Source) ListHydrocarbonFields(ctx context.Context, _ string) ([]infra.Point, error) {
	return toPoints(s.q.ListHydrocarbonFields(ctx))
}

func toPoints(rows []PointRow, err error) ([]infra.Point, error) {
	if err != nil {
		return nil, err
	}
	out := make([]infra.Point, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToPoint())
	}
	return out, nil
}
