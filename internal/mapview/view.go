// Package mapview composes the map data, tile selection and marker layers into
// the model the map page renders.
package mapview

import (
	"iaas_console/console-go/internal/geo"
	"iaas_console/console-go/internal/i18n"
	"iaas_console/console-go/internal/infra"
	"iaas_console/console-go/internal/mapdata"
	"iaas_console/console-go/internal/markers"
	"iaas_console/console-go/internal/tiles"
)

type State string

const (
	StateLoading      State = "loading"
	StateError        State = "error"
	StateNoDataObject State = "no_data_object"
	StateNoData       State = "no_data"
	StateCanvas       State = "canvas"
)

// Panel replaces the canvas for every state but StateCanvas.
type Panel struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type Layer struct {
	Kind    infra.Kind       `json:"kind"`
	Label   string           `json:"label"`
	Markers []markers.Marker `json:"markers"`
}

// LayerError flags a collection that failed while the others loaded.
type LayerError struct {
	Kind    infra.Kind `json:"kind"`
	Label   string     `json:"label"`
	Message string     `json:"message"`
}

type View struct {
	State       State             `json:"state"`
	Lang        string            `json:"lang"`
	Dir         string            `json:"dir"`
	Panel       *Panel            `json:"panel,omitempty"`
	Center      *geo.Coordinate   `json:"center,omitempty"`
	CenterLabel string            `json:"center_label,omitempty"`
	Zoom        int               `json:"zoom,omitempty"`
	Tiles       tiles.Selection   `json:"tiles"`
	Layers      []Layer           `json:"layers"`
	LayerErrors []LayerError      `json:"layer_errors,omitempty"`
	Legend      markers.Legend    `json:"legend"`
	Filters     infra.Filters     `json:"filters"`
	Labels      map[string]string `json:"labels"`
	Skipped     map[string]int    `json:"skipped,omitempty"`
}

type Options struct {
	Lang          string
	InitialZoom   int
	DefaultCenter geo.Coordinate
	// ClickToEdit enables marker navigation per kind. Missing kinds default to enabled.
	ClickToEdit map[infra.Kind]bool
	EditBase    string
}

func (o Options) clickToEdit(k infra.Kind) bool {
	v, ok := o.ClickToEdit[k]
	return !ok || v
}

var labelKeys = []string{
	"panel.loading", "panel.error", "panel.no_data_object", "panel.no_data", "panel.layer_failed",
	"tiles.online", "tiles.offline", "tiles.auto_offline",
	"legend.kinds", "legend.statuses", "filters.title", "map.refresh",
	"kind.station", "kind.terminal", "kind.hydrocarbon_field", "kind.pipeline",
	"status.operational", "status.maintenance", "status.offline", "status.unknown",
}

// Build applies the guards in order: loading, error, missing data, empty data,
// and only then lays out the canvas. A nil result means no data object came back.
func Build(res *mapdata.Result, filters infra.Filters, sel tiles.Selection, opts Options) View {
	lang := opts.Lang
	if lang == "" {
		lang = "fr"
	}
	tr := i18n.Translator(lang)

	v := View{
		Lang:    lang,
		Dir:     i18n.Dir(lang),
		Tiles:   sel,
		Layers:  []Layer{},
		Legend:  markers.BuildLegend(),
		Filters: filters,
		Labels:  make(map[string]string, len(labelKeys)),
	}
	for _, k := range labelKeys {
		v.Labels[k] = tr(k)
	}

	switch {
	case res == nil:
		v.State = StateNoDataObject
		v.Panel = &Panel{Level: "warning", Message: tr("panel.no_data_object")}
		return v
	case res.State == mapdata.StateLoading:
		v.State = StateLoading
		v.Panel = &Panel{Level: "info", Message: tr("panel.loading")}
		return v
	case res.State == mapdata.StateError:
		v.State = StateError
		v.Panel = &Panel{Level: "error", Message: tr("panel.error")}
		if res.Err != nil {
			v.Panel.Detail = res.Err.Error()
		}
		return v
	}

	var failed bool
	for _, c := range res.Collections() {
		if c.State == mapdata.CollectionFailed {
			failed = true
		}
	}
	if res.Empty() && !failed {
		v.State = StateNoData
		v.Panel = &Panel{Level: "info", Message: tr("panel.no_data")}
		return v
	}

	var all []infra.Point
	for _, c := range res.Collections() {
		all = append(all, c.Points...)
	}
	coords, _ := geo.PlottableCoordinates(all)
	center := geo.ComputeCentroid(coords, opts.DefaultCenter)

	v.State = StateCanvas
	v.Center = &center
	v.CenterLabel = geo.FormatCoordinate(center)
	v.Zoom = clampZoom(opts.InitialZoom, sel.MinZoom, sel.MaxZoom)

	for _, c := range res.Collections() {
		if !filters.Shows(c.Kind) {
			continue
		}
		label := tr("kind." + string(c.Kind))
		if c.State == mapdata.CollectionFailed {
			le := LayerError{Kind: c.Kind, Label: label, Message: tr("panel.layer_failed")}
			if c.Err != nil {
				le.Message = c.Err.Error()
			}
			v.LayerErrors = append(v.LayerErrors, le)
			continue
		}
		if len(c.Points) == 0 {
			continue
		}
		built, skipped := markers.Build(c.Kind, c.Points, markers.Options{
			Lang:        lang,
			Translate:   tr,
			ClickToEdit: opts.clickToEdit(c.Kind),
			EditBase:    opts.EditBase,
		})
		if skipped > 0 {
			if v.Skipped == nil {
				v.Skipped = map[string]int{}
			}
			v.Skipped[string(c.Kind)] = skipped
		}
		v.Layers = append(v.Layers, Layer{Kind: c.Kind, Label: label, Markers: built})
	}
	return v
}

// MarkerCount is the number of markers across rendered layers.
func (v View) MarkerCount() int {
	n := 0
	for _, l := range v.Layers {
		n += len(l.Markers)
	}
	return n
}

func clampZoom(z, minZoom, maxZoom int) int {
	if maxZoom < minZoom {
		maxZoom = minZoom
	}
	return max(minZoom, min(z, maxZoom))
}
