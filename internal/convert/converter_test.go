package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/deckform/deckform/internal/engine"
	"github.com/deckform/deckform/internal/model"
)

func newTestConverter(maxBytes int64) *Converter {
	return NewConverter(engine.NewContext(), nil, maxBytes)
}

func writeFixture(t *testing.T, text string) string {
	t.Helper()
	b := engine.NewBuilder()
	b.SetTitle("Fixture Deck")
	b.SetAuthor("tester")
	b.RemoveDefaultSlide()
	sl := b.AddSlide("Slide 1", false)
	sl.AddTextBox(engine.Frame{X: 72, Y: 72, Width: 360, Height: 100}, text)
	path := filepath.Join(t.TempDir(), "fixture.pptx")
	if _, err := b.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	return path
}

func TestConvert_roundTripHello(t *testing.T) {
	path := writeFixture(t, "Hello")
	c := newTestConverter(0)

	doc, err := c.Convert(context.Background(), path)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if doc.Version != model.SchemaVersion {
		t.Errorf("version = %q, want %q", doc.Version, model.SchemaVersion)
	}
	if doc.Metadata.Title != "Fixture Deck" || doc.Metadata.Author != "tester" {
		t.Errorf("metadata = %+v", doc.Metadata)
	}
	if len(doc.Slides) != 1 {
		t.Fatalf("slides = %d, want 1", len(doc.Slides))
	}
	sl := doc.Slides[0]
	if len(sl.Shapes) != 1 {
		t.Fatalf("shapes = %d, want 1", len(sl.Shapes))
	}
	sh := sl.Shapes[0]
	if sh.Type != model.ShapeTextBox {
		t.Errorf("shape type = %q, want TextBox", sh.Type)
	}
	if sh.Text == nil || sh.Text.PlainText != "Hello" {
		t.Fatalf("plainText = %+v, want Hello", sh.Text)
	}
	if doc.Stats.FailedSlides != 0 || doc.Stats.FailedShapes != 0 {
		t.Errorf("unexpected failures: %+v", doc.Stats)
	}
	if doc.Stats.TextLength != len("Hello") {
		t.Errorf("textLength = %d", doc.Stats.TextLength)
	}
}

func TestConvert_validation(t *testing.T) {
	c := newTestConverter(10)
	ctx := context.Background()

	var verr *ValidationError
	if _, err := c.Convert(ctx, filepath.Join(t.TempDir(), "missing.pptx")); !errors.As(err, &verr) {
		t.Fatalf("missing file: got %v", err)
	} else if verr.Code != "FILE_NOT_FOUND" {
		t.Errorf("code = %q", verr.Code)
	}

	txt := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(txt, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Convert(ctx, txt); !errors.As(err, &verr) || verr.Code != "UNSUPPORTED_FORMAT" {
		t.Fatalf("wrong extension: got %v", err)
	}

	big := filepath.Join(t.TempDir(), "big.pptx")
	if err := os.WriteFile(big, make([]byte, 11), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Convert(ctx, big); !errors.As(err, &verr) || verr.Code != "FILE_TOO_LARGE" {
		t.Fatalf("oversize: got %v", err)
	}
}

func TestConvert_openFailure(t *testing.T) {
	c := newTestConverter(0)
	var oerr *EngineOpenError
	if _, err := c.ConvertBytes(context.Background(), []byte("not a zip"), "bad.pptx"); !errors.As(err, &oerr) {
		t.Fatalf("got %v, want EngineOpenError", err)
	}
}

func TestConvert_shapeFailureIsolation(t *testing.T) {
	pres := &fakePresentation{
		slides: []engine.Slide{&fakeSlide{shapes: []engine.Shape{
			&fakeShape{id: "", idErr: errRead},
			&fakeShape{id: "2", name: "Survivor", text: textFrameOf("kept")},
		}}},
	}
	c := newTestConverter(0)
	c.open = openFake(pres)

	doc, err := c.ConvertBytes(context.Background(), []byte("x"), "deck.pptx")
	if err != nil {
		t.Fatalf("ConvertBytes: %v", err)
	}
	if got := len(doc.Slides[0].Shapes); got != 1 {
		t.Fatalf("surviving shapes = %d, want 1", got)
	}
	if doc.Slides[0].Shapes[0].Name != "Survivor" {
		t.Errorf("kept wrong shape: %+v", doc.Slides[0].Shapes[0])
	}
	if doc.Stats.FailedShapes != 1 {
		t.Errorf("failedShapes = %d, want 1", doc.Stats.FailedShapes)
	}
	if !pres.disposed {
		t.Error("presentation not disposed")
	}
}

func TestConvert_slidePlaceholder(t *testing.T) {
	pres := &fakePresentation{
		slides: []engine.Slide{
			&fakeSlide{shapes: []engine.Shape{&fakeShape{id: "1"}}},
			&fakeSlide{shapesErr: errRead},
			&fakeSlide{shapes: []engine.Shape{&fakeShape{id: "3"}}},
		},
	}
	c := newTestConverter(0)
	c.open = openFake(pres)

	doc, err := c.ConvertBytes(context.Background(), []byte("x"), "deck.pptx")
	if err != nil {
		t.Fatalf("ConvertBytes: %v", err)
	}
	if len(doc.Slides) != 3 {
		t.Fatalf("slides = %d, want 3", len(doc.Slides))
	}
	if doc.Metadata.SlideCount != len(doc.Slides) {
		t.Errorf("slideCount %d != slides %d", doc.Metadata.SlideCount, len(doc.Slides))
	}
	ph := doc.Slides[1]
	if !ph.Placeholder || ph.SlideID != 2 || len(ph.Shapes) != 0 {
		t.Errorf("placeholder = %+v", ph)
	}
	if doc.Slides[2].SlideID != 3 {
		t.Errorf("slide numbering broken: %+v", doc.Slides[2])
	}
	if doc.Stats.FailedSlides != 1 {
		t.Errorf("failedSlides = %d, want 1", doc.Stats.FailedSlides)
	}
}

func TestConvert_fieldFallbacks(t *testing.T) {
	pres := &fakePresentation{
		slides: []engine.Slide{&fakeSlide{shapes: []engine.Shape{
			&fakeShape{id: "1", frameErr: errRead, fillErr: errRead},
		}}},
	}
	c := newTestConverter(0)
	c.open = openFake(pres)

	doc, err := c.ConvertBytes(context.Background(), []byte("x"), "deck.pptx")
	if err != nil {
		t.Fatalf("ConvertBytes: %v", err)
	}
	sh := doc.Slides[0].Shapes[0]
	if sh.Geometry != (model.Geometry{}) {
		t.Errorf("geometry not zeroed: %+v", sh.Geometry)
	}
	if sh.FillFormat != nil {
		t.Errorf("fill not nil: %+v", sh.FillFormat)
	}
	if doc.Stats.FieldFallbacks < 2 {
		t.Errorf("fieldFallbacks = %d, want >= 2", doc.Stats.FieldFallbacks)
	}
	if doc.Stats.FailedShapes != 0 {
		t.Errorf("field failures must not fail the shape: %+v", doc.Stats)
	}
}

func TestConvert_statsFromOutputTree(t *testing.T) {
	pres := &fakePresentation{
		slides: []engine.Slide{&fakeSlide{shapes: []engine.Shape{
			&fakeShape{id: "1", kind: "group", children: []engine.Shape{
				&fakeShape{id: "2", text: textFrameOf("ab")},
				&fakeShape{id: "3", text: textFrameOf("cd")},
			}},
		}}},
	}
	c := newTestConverter(0)
	c.open = openFake(pres)

	doc, err := c.ConvertBytes(context.Background(), []byte("x"), "deck.pptx")
	if err != nil {
		t.Fatalf("ConvertBytes: %v", err)
	}
	if doc.Stats.ShapeCount != 3 {
		t.Errorf("shapeCount = %d, want 3 (group + 2 children)", doc.Stats.ShapeCount)
	}
	if doc.Stats.TextLength != 4 {
		t.Errorf("textLength = %d, want 4", doc.Stats.TextLength)
	}
}

func TestConvert_cancelled(t *testing.T) {
	pres := &fakePresentation{slides: []engine.Slide{&fakeSlide{}}}
	c := newTestConverter(0)
	c.open = openFake(pres)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ConvertBytes(ctx, []byte("x"), "deck.pptx"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if !pres.disposed {
		t.Error("presentation not disposed on cancellation")
	}
}

func TestConvert_animationTimeline(t *testing.T) {
	pres := &fakePresentation{
		slides: []engine.Slide{&fakeSlide{
			shapes: []engine.Shape{&fakeShape{id: "2", text: textFrameOf("intro")}},
			animations: []engine.AnimationData{
				{ShapeID: "2", Effect: "fade", Trigger: "clickEffect"},
				{Effect: "animMotion", Trigger: "withEffect"},
			},
		}},
	}
	c := newTestConverter(0)
	c.open = openFake(pres)

	doc, err := c.ConvertBytes(context.Background(), []byte("x"), "deck.pptx")
	if err != nil {
		t.Fatalf("ConvertBytes: %v", err)
	}
	anims := doc.Slides[0].Animations
	if len(anims) != 2 {
		t.Fatalf("animations = %d, want 2", len(anims))
	}
	if anims[0].ShapeID != "2" || anims[0].Effect != "fade" || anims[0].Trigger != "clickEffect" {
		t.Errorf("first animation = %+v", anims[0])
	}
	if anims[1].Effect != "animMotion" {
		t.Errorf("second animation = %+v", anims[1])
	}
}
