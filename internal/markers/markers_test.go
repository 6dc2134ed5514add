package markers

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"iaas_console/console-go/internal/infra"
)

func TestIconFor(t *testing.T) {
	op := IconFor(infra.KindStation, "OPERATIONAL_ACTIVE")
	if op.StatusColor != ColorOperational || op.Pulse {
		t.Fatalf("expected operational green without pulse, got %+v", op)
	}

	maint := IconFor(infra.KindStation, "UNDER_MAINTENANCE")
	if maint.StatusColor != ColorMaintenance || !maint.Pulse {
		t.Fatalf("expected maintenance orange with pulse, got %+v", maint)
	}

	none := IconFor(infra.KindStation, "")
	if none.StatusColor != ColorUnknown || none.Status != infra.StatusUnknown {
		t.Fatalf("expected unknown grey, got %+v", none)
	}

	closed := IconFor(infra.KindTerminal, "closed")
	if closed.StatusColor != ColorOffline {
		t.Fatalf("expected offline red, got %+v", closed)
	}
	if closed.BaseColor == op.BaseColor {
		t.Fatalf("expected terminal base color to differ from station")
	}
	if closed.URL != "/icons/terminal/offline.png" {
		t.Fatalf("unexpected icon url %q", closed.URL)
	}
}

func TestBuild_ExcludesUnplottableAndKeysByKind(t *testing.T) {
	points := []infra.Point{
		{ID: "1", Name: "Alger", Latitude: infra.Float(36.7538), Longitude: infra.Float(-3.0588), Code: "ST-1",
			Elevation: infra.Float(12.5), Status: &infra.Ref{Code: "OPERATIONAL"}},
		{ID: "2", Name: "No lat", Longitude: infra.Float(1)},
		{ID: "3", Name: "NaN", Latitude: infra.Float(math.NaN()), Longitude: infra.Float(1)},
		{ID: "1", Name: "Duplicate", Latitude: infra.Float(1), Longitude: infra.Float(1)},
	}

	out, skipped := Build(infra.KindStation, points, Options{Lang: "en", ClickToEdit: true})
	if len(out) != 1 || skipped != 3 {
		t.Fatalf("expected 1 marker and 3 skipped, got %d/%d", len(out), skipped)
	}
	m := out[0]
	if m.Key != "station-1" {
		t.Fatalf("expected key station-1, got %q", m.Key)
	}
	if m.EditURL != "/network/core/stations/1/edit" {
		t.Fatalf("unexpected edit url %q", m.EditURL)
	}

	var coords, elevation string
	for _, f := range m.Popup.Fields {
		switch f.Label {
		case "coordinates":
			coords = f.Value
		case "elevation":
			elevation = f.Value
		}
	}
	if coords != "36.7538°N, 3.0588°W" {
		t.Fatalf("unexpected coordinates %q", coords)
	}
	if elevation != "12.5 m" {
		t.Fatalf("unexpected elevation %q", elevation)
	}
	if m.Popup.StatusColor != ColorOperational {
		t.Fatalf("expected operational badge, got %q", m.Popup.StatusColor)
	}
}

func TestBuild_ClickToEditDisabled(t *testing.T) {
	points := []infra.Point{{ID: "9", Latitude: infra.Float(1), Longitude: infra.Float(2)}}
	out, _ := Build(infra.KindTerminal, points, Options{ClickToEdit: false})
	if len(out) != 1 || out[0].EditURL != "" {
		t.Fatalf("expected no edit url, got %+v", out)
	}
}

func TestBuild_UnknownStatusKeepsBackendLabel(t *testing.T) {
	points := []infra.Point{{ID: "4", Latitude: infra.Float(1), Longitude: infra.Float(2), Status: &infra.Ref{Code: "X9", Name: "Décommissionné"}}}
	out, _ := Build(infra.KindHydrocarbonField, points, Options{})
	if out[0].Popup.StatusLabel != "Décommissionné" {
		t.Fatalf("expected backend label, got %q", out[0].Popup.StatusLabel)
	}
}

func TestRenderer_PNG(t *testing.T) {
	r, err := NewRenderer(1)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	defer r.Close()

	icon := IconFor(infra.KindStation, "ACTIVE")
	b, err := r.PNG(icon)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 42 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}

	again, err := r.PNG(icon)
	if err != nil || !bytes.Equal(b, again) {
		t.Fatalf("expected identical cached render, err=%v", err)
	}
}

func TestBuildLegend(t *testing.T) {
	l := BuildLegend()
	if len(l.Kinds) != 4 || len(l.Statuses) != 4 {
		t.Fatalf("unexpected legend %+v", l)
	}
}
