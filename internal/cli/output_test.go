package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/deckform/deckform/internal/index"
	"github.com/deckform/deckform/internal/model"
)

func TestWriteSearchHits_JSON(t *testing.T) {
	hits := []*index.Result{
		{ID: "deck-1", Score: 0.9, Title: "Quarterly", Filename: "q.pptx"},
	}
	var buf bytes.Buffer
	if err := WriteSearchHits(&buf, "quarterly", hits, OutputJSON); err != nil {
		t.Fatalf("WriteSearchHits(json): %v", err)
	}
	var decoded []*index.Result
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].ID != "deck-1" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteSearchHits_text(t *testing.T) {
	hits := []*index.Result{
		{ID: "deck-1", Score: 0.5, Title: "Title One", Filename: "one.pptx"},
	}
	var buf bytes.Buffer
	if err := WriteSearchHits(&buf, "foo", hits, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Found 1 results", `"foo"`, "deck-1", "Title One", "one.pptx"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteConversionSummary(t *testing.T) {
	doc := &model.UniversalPresentation{
		Version: model.SchemaVersion,
		Metadata: model.Metadata{
			Title:        "Deck",
			SourceFormat: "pptx",
			SlideCount:   2,
		},
		Stats: model.ProcessingStats{SlideCount: 2, ShapeCount: 5, TextLength: 40, FailedShapes: 1},
	}
	var buf bytes.Buffer
	if err := WriteConversionSummary(&buf, doc, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"slides: 2", "shapes: 5", "degraded", "1 shapes"} {
		if !strings.Contains(out, sub) {
			t.Errorf("summary missing %q:\n%s", sub, out)
		}
	}

	buf.Reset()
	if err := WriteConversionSummary(&buf, doc, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded model.UniversalPresentation
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("json summary: %v", err)
	}
	if decoded.Stats.ShapeCount != 5 {
		t.Errorf("decoded stats = %+v", decoded.Stats)
	}

	buf.Reset()
	if err := WriteConversionSummary(&buf, doc, OutputCompact); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(strings.TrimRight(buf.String(), "\n"), "\n"); got != 0 {
		t.Errorf("compact output spans %d extra lines", got)
	}
}

func TestWriteAssetBatch_text(t *testing.T) {
	batch := &model.AssetBatch{
		Assets: []model.AssetResult{
			{Type: model.AssetImage, Format: "png", Filename: "logo.png", Size: 120, SlideIndex: 0},
		},
		FailedAssets: 1,
	}
	var buf bytes.Buffer
	if err := WriteAssetBatch(&buf, batch, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"1 assets", "(1 failed)", "logo.png", "png"} {
		if !strings.Contains(out, sub) {
			t.Errorf("batch output missing %q:\n%s", sub, out)
		}
	}
}

func TestParseOutputFormat(t *testing.T) {
	if ParseOutputFormat("JSON") != OutputJSON {
		t.Error("JSON not recognized")
	}
	if ParseOutputFormat("compact") != OutputCompact {
		t.Error("compact not recognized")
	}
	if ParseOutputFormat("") != OutputText {
		t.Error("empty should default to text")
	}
	if ParseOutputFormat("weird") != OutputText {
		t.Error("unknown should default to text")
	}
}
