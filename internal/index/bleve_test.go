package index

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deckform/deckform/internal/model"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	x, err := New(filepath.Join(t.TempDir(), "decks.bleve"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { x.Close() })
	return x
}

func deckRecord(id, title, text string) *model.PresentationRecord {
	return &model.PresentationRecord{
		ID:       id,
		Title:    title,
		Filename: id + ".pptx",
		Document: &model.UniversalPresentation{
			Version: model.SchemaVersion,
			Slides: []model.Slide{{
				SlideID: 1,
				Shapes: []model.Shape{{
					ShapeID: "1",
					Type:    model.ShapeTextBox,
					Text:    &model.TextFrame{PlainText: text},
				}},
			}},
		},
	}
}

func TestIndexAndSearch(t *testing.T) {
	x := newTestIndex(t)
	ctx := context.Background()

	if err := x.IndexPresentation(ctx, deckRecord("p1", "Roadmap", "quarterly revenue targets")); err != nil {
		t.Fatalf("IndexPresentation: %v", err)
	}
	if err := x.IndexPresentation(ctx, deckRecord("p2", "Hiring", "engineering headcount plan")); err != nil {
		t.Fatalf("IndexPresentation: %v", err)
	}

	hits, err := x.Search(ctx, "revenue", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "p1" {
		t.Fatalf("hits = %+v", hits)
	}
	if hits[0].Title != "Roadmap" {
		t.Errorf("stored title = %q", hits[0].Title)
	}

	n, err := x.Count()
	if err != nil || n != 2 {
		t.Errorf("Count = %d, %v", n, err)
	}

	if err := x.Delete(ctx, "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	hits, err = x.Search(ctx, "revenue", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("deleted deck still found: %+v", hits)
	}
}

func TestDocText(t *testing.T) {
	notes := "speaker notes here"
	doc := &model.UniversalPresentation{
		Slides: []model.Slide{{
			SlideID: 1,
			Notes:   &notes,
			Shapes: []model.Shape{
				{ShapeID: "1", Text: &model.TextFrame{PlainText: "outer"}},
				{ShapeID: "2", Shapes: []model.Shape{
					{ShapeID: "3", Text: &model.TextFrame{PlainText: "nested"}},
				}},
			},
		}},
	}
	got := DocText(doc)
	for _, want := range []string{"outer", "nested", "speaker notes here"} {
		if !strings.Contains(got, want) {
			t.Errorf("DocText missing %q in %q", want, got)
		}
	}
}
