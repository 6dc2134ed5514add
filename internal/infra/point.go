package infra

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is one of the fixed infrastructure categories drawn on the map.
type Kind string

const (
	KindStation          Kind = "station"
	KindTerminal         Kind = "terminal"
	KindHydrocarbonField Kind = "hydrocarbon_field"
	KindPipeline         Kind = "pipeline"
)

var allKinds = []Kind{KindStation, KindTerminal, KindHydrocarbonField, KindPipeline}

func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

func ParseKind(raw string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range allKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// EntitySlug is the route segment the console uses for the kind's edit form.
func (k Kind) EntitySlug() string {
	switch k {
	case KindStation:
		return "stations"
	case KindTerminal:
		return "terminals"
	case KindHydrocarbonField:
		return "hydrocarbon-fields"
	case KindPipeline:
		return "pipelines"
	default:
		return string(k)
	}
}

// Ref is a backend lookup reference such as a status, type or vendor.
type Ref struct {
	ID   *int64 `json:"id,omitempty"`
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

// Label prefers the name, falling back to the code.
func (r *Ref) Label() string {
	if r == nil {
		return ""
	}
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return strings.TrimSpace(r.Code)
}

// Point is a read-only projection of a geo-located backend record.
type Point struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	NameFr      string        `json:"nameFr,omitempty"`
	NameEn      string        `json:"nameEn,omitempty"`
	NameAr      string        `json:"nameAr,omitempty"`
	Code        string        `json:"code,omitempty"`
	Place       string        `json:"placeName,omitempty"`
	Latitude    OptionalFloat `json:"latitude"`
	Longitude   OptionalFloat `json:"longitude"`
	Elevation   OptionalFloat `json:"elevation"`
	Status      *Ref          `json:"operationalStatus,omitempty"`
	Type        *Ref          `json:"type,omitempty"`
	Vendor      *Ref          `json:"vendor,omitempty"`
	Description string        `json:"description,omitempty"`
}

// UnmarshalJSON accepts numeric or string identifiers.
func (p *Point) UnmarshalJSON(b []byte) error {
	type alias Point
	var raw struct {
		alias
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = Point(raw.alias)
	id, err := decodeID(raw.ID)
	if err != nil {
		return fmt.Errorf("point id: %w", err)
	}
	p.ID = id
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// LocalizedName returns the name for lang ("fr", "en", "ar"), or the default name.
func (p Point) LocalizedName(lang string) string {
	var v string
	switch lang {
	case "fr":
		v = p.NameFr
	case "en":
		v = p.NameEn
	case "ar":
		v = p.NameAr
	}
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	if v = strings.TrimSpace(p.Name); v != "" {
		return v
	}
	return p.Code
}

// Plottable reports whether both coordinates are present and finite.
func (p Point) Plottable() bool {
	return p.Latitude.Finite() && p.Longitude.Finite()
}

// OperationalStatus classifies the point's status reference.
func (p Point) OperationalStatus() Status {
	if p.Status == nil {
		return StatusUnknown
	}
	if code := strings.TrimSpace(p.Status.Code); code != "" {
		return NormalizeStatus(code)
	}
	return NormalizeStatus(p.Status.Name)
}

// OptionalFloat is a float that may be absent on the wire. Numeric strings are accepted.
type OptionalFloat struct {
	Value float64
	Valid bool
}

func Float(v float64) OptionalFloat {
	return OptionalFloat{Value: v, Valid: true}
}

// Finite is true when a value is present and neither NaN nor infinite.
func (f OptionalFloat) Finite() bool {
	return f.Valid && !math.IsNaN(f.Value) && !math.IsInf(f.Value, 0)
}

func (f OptionalFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

func (f *OptionalFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*f = OptionalFloat{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// Unparseable text is treated like a missing value.
			return nil
		}
		*f = OptionalFloat{Value: v, Valid: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		// Booleans, objects and arrays are dropped like unparseable text so a
		// single bad record never fails the whole collection.
		return nil
	}
	*f = OptionalFloat{Value: v, Valid: true}
	return nil
}

func (f OptionalFloat) MarshalJSON() ([]byte, error) {
	if !f.Finite() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
