package convert

import (
	"testing"

	"github.com/deckform/deckform/internal/engine"
	"github.com/deckform/deckform/internal/model"
)

func TestExtractPortionColor_tieBreak(t *testing.T) {
	tests := []struct {
		name    string
		portion *fakePortion
		want    string
	}{
		{"direct fill wins", &fakePortion{fillColor: "ff0000", legacy: "00ff00"}, "#FF0000"},
		{"legacy fallback", &fakePortion{legacy: "00ff00"}, "#00FF00"},
		{"black default", &fakePortion{}, "#000000"},
		{"fill read failure falls through", &fakePortion{fillErr: errRead, legacy: "0000ff"}, "#0000FF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDegradation(nil)
			if got := extractPortionColor(d, tt.portion); got != tt.want {
				t.Errorf("color = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractPortionColor_countsRealFailures(t *testing.T) {
	d := newDegradation(nil)
	extractPortionColor(d, &fakePortion{fillErr: errRead})
	if d.fieldFallbacks != 1 {
		t.Errorf("fieldFallbacks = %d, want 1", d.fieldFallbacks)
	}

	d = newDegradation(nil)
	extractPortionColor(d, &fakePortion{})
	if d.fieldFallbacks != 0 {
		t.Errorf("absent color must not count as a fallback, got %d", d.fieldFallbacks)
	}
}

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ff0000", "#FF0000"},
		{"#abcdef", "#ABCDEF"},
		{"", "#000000"},
		{"xyz", "#000000"},
	}
	for _, tt := range tests {
		if got := normalizeColor(tt.in); got != tt.want {
			t.Errorf("normalizeColor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMapFill(t *testing.T) {
	if mapFill(nil) != nil {
		t.Error("nil fill must stay nil")
	}
	solid := mapFill(&engine.FillData{Kind: "solid", Color: "336699"})
	if solid.Type != model.FillSolid || solid.Color != "#336699" {
		t.Errorf("solid = %+v", solid)
	}
	grad := mapFill(&engine.FillData{
		Kind:          "gradient",
		GradientShape: "linear",
		GradientAngle: 90,
		GradientStops: []engine.GradientStopData{{Position: 0, Color: "000000"}, {Position: 1, Color: "ffffff"}},
	})
	if grad.Type != model.FillGradient || len(grad.GradientStops) != 2 {
		t.Errorf("gradient = %+v", grad)
	}
	if grad.GradientShape != "linear" {
		t.Errorf("gradientShape = %q, want linear", grad.GradientShape)
	}
	radial := mapFill(&engine.FillData{Kind: "gradient", GradientShape: "circle"})
	if radial.GradientShape != "circle" {
		t.Errorf("radial gradientShape = %q, want circle", radial.GradientShape)
	}
	if unknown := mapFill(&engine.FillData{Kind: "weird"}); unknown.Type != model.FillNone {
		t.Errorf("unknown kind = %+v", unknown)
	}
}

func TestExtractGeometry_fallback(t *testing.T) {
	d := newDegradation(nil)
	g := extractGeometry(d, &fakeShape{id: "1", frameErr: errRead})
	if g != (model.Geometry{}) {
		t.Errorf("geometry = %+v, want zero", g)
	}
	if d.fieldFallbacks != 1 {
		t.Errorf("fieldFallbacks = %d, want 1", d.fieldFallbacks)
	}
}
