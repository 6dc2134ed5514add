package markers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"iaas_console/console-go/internal/geo"
	"iaas_console/console-go/internal/infra"
)

// Marker is one plotted infrastructure point.
type Marker struct {
	Key      string         `json:"key"`
	Kind     infra.Kind     `json:"kind"`
	ID       string         `json:"id"`
	Position geo.Coordinate `json:"position"`
	Icon     Icon           `json:"icon"`
	Popup    Popup          `json:"popup"`
	EditURL  string         `json:"edit_url,omitempty"`
}

// Popup is the hover preview content, already localized.
type Popup struct {
	Title       string       `json:"title"`
	Subtitle    string       `json:"subtitle"`
	Fields      []PopupField `json:"fields"`
	StatusLabel string       `json:"status_label"`
	StatusColor string       `json:"status_color"`
}

type PopupField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Options controls how a layer is built.
type Options struct {
	Lang        string
	Translate   func(string) string
	ClickToEdit bool
	EditBase    string
}

// Key is the stable marker identity "{kind}-{id}".
func Key(kind infra.Kind, id string) string {
	return string(kind) + "-" + id
}

// EditURL builds /network/core/{entity}/{id}/edit under base.
func EditURL(base string, kind infra.Kind, id string) string {
	base = strings.TrimRight(base, "/")
	return fmt.Sprintf("%s/network/core/%s/%s/edit", base, kind.EntitySlug(), url.PathEscape(id))
}

// Build turns plottable points into markers. Points without usable coordinates are
// dropped and counted in skipped.
func Build(kind infra.Kind, points []infra.Point, opts Options) (out []Marker, skipped int) {
	tr := opts.Translate
	if tr == nil {
		tr = func(s string) string { return s }
	}
	out = make([]Marker, 0, len(points))
	seen := make(map[string]struct{}, len(points))
	for _, p := range points {
		if !p.Plottable() {
			skipped++
			continue
		}
		key := Key(kind, p.ID)
		if _, dup := seen[key]; dup {
			skipped++
			continue
		}
		seen[key] = struct{}{}

		status := p.OperationalStatus()
		m := Marker{
			Key:      key,
			Kind:     kind,
			ID:       p.ID,
			Position: geo.ToCoordinate(p),
			Icon:     IconForStatus(kind, status),
			Popup:    buildPopup(kind, p, status, opts.Lang, tr),
		}
		if opts.ClickToEdit && p.ID != "" {
			m.EditURL = EditURL(opts.EditBase, kind, p.ID)
		}
		out = append(out, m)
	}
	return out, skipped
}

func buildPopup(kind infra.Kind, p infra.Point, status infra.Status, lang string, tr func(string) string) Popup {
	pos := geo.ToCoordinate(p)
	fields := []PopupField{}
	if code := strings.TrimSpace(p.Code); code != "" {
		fields = append(fields, PopupField{Label: tr("code"), Value: code})
	}
	fields = append(fields, PopupField{Label: tr("coordinates"), Value: geo.FormatCoordinate(pos)})
	if place := strings.TrimSpace(p.Place); place != "" {
		fields = append(fields, PopupField{Label: tr("place"), Value: place})
	}
	if p.Elevation.Finite() {
		fields = append(fields, PopupField{Label: tr("elevation"), Value: strconv.FormatFloat(p.Elevation.Value, 'f', -1, 64) + " m"})
	}
	if v := p.Type.Label(); v != "" {
		fields = append(fields, PopupField{Label: tr("type"), Value: v})
	}
	if v := p.Vendor.Label(); v != "" {
		fields = append(fields, PopupField{Label: tr("vendor"), Value: v})
	}
	if d := strings.TrimSpace(p.Description); d != "" && kind == infra.KindHydrocarbonField {
		fields = append(fields, PopupField{Label: tr("description"), Value: d})
	}

	statusLabel := tr("status." + string(status))
	if status == infra.StatusUnknown && p.Status.Label() != "" {
		statusLabel = p.Status.Label()
	}

	return Popup{
		Title:       p.LocalizedName(lang),
		Subtitle:    tr("kind." + string(kind)),
		Fields:      fields,
		StatusLabel: statusLabel,
		StatusColor: statusColors[status],
	}
}
