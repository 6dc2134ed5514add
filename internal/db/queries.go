package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"iaas_console/console-go/internal/infra"
)

// DBTX matches the minimal interface needed from pgxpool.Pool or pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
}

// Queries reads infrastructure projections straight from the asset database.
// Reads only: the backend owns every write.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// PointRow is the shared column set of the three collection queries.
type PointRow struct {
	ID          string
	Name        *string
	NameFr      *string
	NameEn      *string
	NameAr      *string
	Code        *string
	Place       *string
	Latitude    *float64
	Longitude   *float64
	Elevation   *float64
	StatusCode  *string
	StatusName  *string
	TypeCode    *string
	TypeName    *string
	VendorName  *string
	Description *string
}

const listStations = `-- name: ListStations :many
SELECT s.id::text,
       s.name,
       s.name_fr,
       s.name_en,
       s.name_ar,
       s.code,
       s.place_name,
       s.latitude,
       s.longitude,
       s.elevation,
       os.code AS status_code,
       os.name AS status_name,
       st.code AS type_code,
       st.name AS type_name,
       v.name AS vendor_name,
       s.description
FROM stations s
LEFT JOIN operational_statuses os ON os.id = s.operational_status_id
LEFT JOIN station_types st ON st.id = s.station_type_id
LEFT JOIN vendors v ON v.id = s.vendor_id
ORDER BY s.id
`

func (q *Queries) ListStations(ctx context.Context) ([]PointRow, error) {
	return q.listPoints(ctx, listStations)
}

const listTerminals = `-- name: ListTerminals :many
SELECT t.id::text,
       t.name,
       t.name_fr,
       t.name_en,
       t.name_ar,
       t.code,
       t.place_name,
       t.latitude,
       t.longitude,
       t.elevation,
       os.code AS status_code,
       os.name AS status_name,
       tt.code AS type_code,
       tt.name AS type_name,
       v.name AS vendor_name,
       t.description
FROM terminals t
LEFT JOIN operational_statuses os ON os.id = t.operational_status_id
LEFT JOIN terminal_types tt ON tt.id = t.terminal_type_id
LEFT JOIN vendors v ON v.id = t.vendor_id
ORDER BY t.id
`

func (q *Queries) ListTerminals(ctx context.Context) ([]PointRow, error) {
	return q.listPoints(ctx, listTerminals)
}

const listHydrocarbonFields = `-- name: ListHydrocarbonFields :many
SELECT f.id::text,
       f.name,
       f.name_fr,
       f.name_en,
       f.name_ar,
       f.code,
       f.place_name,
       f.latitude,
       f.longitude,
       f.elevation,
       os.code AS status_code,
       os.name AS status_name,
       ht.code AS type_code,
       ht.name AS type_name,
       NULL::text AS vendor_name,
       f.description
FROM hydrocarbon_fields f
LEFT JOIN operational_statuses os ON os.id = f.operational_status_id
LEFT JOIN hydrocarbon_types ht ON ht.id = f.hydrocarbon_type_id
ORDER BY f.id
`

func (q *Queries) ListHydrocarbonFields(ctx context.Context) ([]PointRow, error) {
	return q.listPoints(ctx, listHydrocarbonFields)
}

func (q *Queries) listPoints(ctx context.Context, query string) ([]PointRow, error) {
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PointRow
	for rows.Next() {
		var i PointRow
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.NameFr,
			&i.NameEn,
			&i.NameAr,
			&i.Code,
			&i.Place,
			&i.Latitude,
			&i.Longitude,
			&i.Elevation,
			&i.StatusCode,
			&i.StatusName,
			&i.TypeCode,
			&i.TypeName,
			&i.VendorName,
			&i.Description,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ToPoint converts a row into the shared projection.
func (r PointRow) ToPoint() infra.Point {
	p := infra.Point{
		ID:          r.ID,
		Name:        deref(r.Name),
		NameFr:      deref(r.NameFr),
		NameEn:      deref(r.NameEn),
		NameAr:      deref(r.NameAr),
		Code:        deref(r.Code),
		Place:       deref(r.Place),
		Latitude:    optional(r.Latitude),
		Longitude:   optional(r.Longitude),
		Elevation:   optional(r.Elevation),
		Description: deref(r.Description),
	}
	if r.StatusCode != nil || r.StatusName != nil {
		p.Status = &infra.Ref{Code: deref(r.StatusCode), Name: deref(r.StatusName)}
	}
	if r.TypeCode != nil || r.TypeName != nil {
		p.Type = &infra.Ref{Code: deref(r.TypeCode), Name: deref(r.TypeName)}
	}
	if r.VendorName != nil {
		p.Vendor = &infra.Ref{Name: *r.VendorName}
	}
	return p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(v *float64) infra.OptionalFloat {
	if v == nil {
		return infra.OptionalFloat{}
	}
	return infra.Float(*v)
}
