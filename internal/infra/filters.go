package infra

import (
	"net/url"
	"strconv"
	"strings"
)

// Filters toggles layer visibility. The zero value hides everything; use DefaultFilters.
type Filters struct {
	Stations          bool `json:"stations"`
	Terminals         bool `json:"terminals"`
	HydrocarbonFields bool `json:"hydrocarbon_fields"`
	Pipelines         bool `json:"pipelines"`
}

func DefaultFilters() Filters {
	return Filters{Stations: true, Terminals: true, HydrocarbonFields: true, Pipelines: true}
}

func (f Filters) Shows(k Kind) bool {
	switch k {
	case KindStation:
		return f.Stations
	case KindTerminal:
		return f.Terminals
	case KindHydrocarbonField:
		return f.HydrocarbonFields
	case KindPipeline:
		return f.Pipelines
	default:
		return false
	}
}

// ParseFilters reads show_stations, show_terminals, show_fields and show_pipelines.
// Missing or unparseable values keep the default (visible).
func ParseFilters(q url.Values) Filters {
	f := DefaultFilters()
	f.Stations = boolParam(q, "show_stations", f.Stations)
	f.Terminals = boolParam(q, "show_terminals", f.Terminals)
	f.HydrocarbonFields = boolParam(q, "show_fields", f.HydrocarbonFields)
	f.Pipelines = boolParam(q, "show_pipelines", f.Pipelines)
	return f
}

func boolParam(q url.Values, key string, fallback bool) bool {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
