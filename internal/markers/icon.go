package markers

import "iaas_console/console-go/internal/infra"

const (
	ColorOperational = "#16a34a"
	ColorMaintenance = "#f97316"
	ColorOffline     = "#dc2626"
	ColorUnknown     = "#9ca3af"
)

var kindColors = map[infra.Kind]string{
	infra.KindStation:          "#2563eb",
	infra.KindTerminal:         "#7c3aed",
	infra.KindHydrocarbonField: "#b45309",
	infra.KindPipeline:         "#0d9488",
}

var statusColors = map[infra.Status]string{
	infra.StatusOperational: ColorOperational,
	infra.StatusMaintenance: ColorMaintenance,
	infra.StatusOffline:     ColorOffline,
	infra.StatusUnknown:     ColorUnknown,
}

// Icon describes how a marker is drawn.
type Icon struct {
	Kind        infra.Kind   `json:"kind"`
	BaseColor   string       `json:"base_color"`
	Status      infra.Status `json:"status"`
	StatusColor string       `json:"status_color"`
	Pulse       bool         `json:"pulse"`
	URL         string       `json:"url"`
}

// IconFor resolves the marker for a kind and a raw backend status code.
func IconFor(kind infra.Kind, statusCode string) Icon {
	return IconForStatus(kind, infra.NormalizeStatus(statusCode))
}

// IconForStatus is IconFor for an already normalized status.
func IconForStatus(kind infra.Kind, status infra.Status) Icon {
	base, ok := kindColors[kind]
	if !ok {
		base = ColorUnknown
	}
	color, ok := statusColors[status]
	if !ok {
		status = infra.StatusUnknown
		color = ColorUnknown
	}
	return Icon{
		Kind:        kind,
		BaseColor:   base,
		Status:      status,
		StatusColor: color,
		Pulse:       status == infra.StatusMaintenance,
		URL:         "/icons/" + string(kind) + "/" + string(status) + ".png",
	}
}

// Legend lists one entry per kind and per status for the map legend.
type Legend struct {
	Kinds    []LegendEntry `json:"kinds"`
	Statuses []LegendEntry `json:"statuses"`
}

type LegendEntry struct {
	Key   string `json:"key"`
	Color string `json:"color"`
	Pulse bool   `json:"pulse,omitempty"`
}

func BuildLegend() Legend {
	var l Legend
	for _, k := range infra.AllKinds() {
		l.Kinds = append(l.Kinds, LegendEntry{Key: string(k), Color: kindColors[k]})
	}
	for _, s := range infra.AllStatuses() {
		l.Statuses = append(l.Statuses, LegendEntry{Key: string(s), Color: statusColors[s], Pulse: s == infra.StatusMaintenance})
	}
	return l
}
