package thumbnail

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/deckform/deckform/internal/engine"
)

func fixtureBytes(t *testing.T) []byte {
	t.Helper()
	b := engine.NewBuilder()
	b.RemoveDefaultSlide()
	b.AddSlide("One", false)
	path := filepath.Join(t.TempDir(), "deck.pptx")
	if _, err := b.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestRenderSlide(t *testing.T) {
	r := NewEngineRenderer(engine.NewContext(), nil)
	out, err := r.RenderSlide(context.Background(), fixtureBytes(t), 0, 320)
	if err != nil {
		t.Fatalf("RenderSlide: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 320 {
		t.Errorf("width = %d, want 320", bounds.Dx())
	}
	// 16:9 deck at width 320 renders 180 high.
	if bounds.Dy() != 180 {
		t.Errorf("height = %d, want 180", bounds.Dy())
	}
}

func TestRenderSlide_indexOutOfRange(t *testing.T) {
	r := NewEngineRenderer(engine.NewContext(), nil)
	if _, err := r.RenderSlide(context.Background(), fixtureBytes(t), 5, 320); err == nil {
		t.Error("out of range index accepted")
	}
}

func TestParseHexColor(t *testing.T) {
	c, ok := parseHexColor("#336699")
	if !ok || c.R != 0x33 || c.G != 0x66 || c.B != 0x99 {
		t.Errorf("parsed %+v, %v", c, ok)
	}
	if _, ok := parseHexColor("nope"); ok {
		t.Error("garbage accepted")
	}
}
