// Package cli provides output formatting for the deckform command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/deckform/deckform/internal/index"
	"github.com/deckform/deckform/internal/model"
	"github.com/deckform/deckform/pkg/utils"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is indented JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputCompact is single-line JSON for piping.
	OutputCompact OutputFormat = "compact"
)

// ParseOutputFormat maps a flag value to an OutputFormat, defaulting to text.
func ParseOutputFormat(s string) OutputFormat {
	switch {
	case strings.EqualFold(s, string(OutputJSON)):
		return OutputJSON
	case strings.EqualFold(s, string(OutputCompact)):
		return OutputCompact
	}
	return OutputText
}

func writeJSON(w io.Writer, v any, format OutputFormat) error {
	enc := json.NewEncoder(w)
	if format == OutputJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WriteConversionSummary writes a converted document's stats to w.
func WriteConversionSummary(w io.Writer, doc *model.UniversalPresentation, format OutputFormat) error {
	if format != OutputText {
		return writeJSON(w, doc, format)
	}
	fmt.Fprintf(w, "Converted %q (%s)\n", doc.Metadata.Title, doc.Metadata.SourceFormat)
	fmt.Fprintf(w, "  slides: %d  shapes: %d  text: %d chars\n",
		doc.Stats.SlideCount, doc.Stats.ShapeCount, doc.Stats.TextLength)
	if doc.Stats.FailedSlides > 0 || doc.Stats.FailedShapes > 0 || doc.Stats.FieldFallbacks > 0 {
		fmt.Fprintf(w, "  degraded: %d slides, %d shapes, %d field fallbacks\n",
			doc.Stats.FailedSlides, doc.Stats.FailedShapes, doc.Stats.FieldFallbacks)
	}
	return nil
}

// WriteSearchHits writes search hits to w in the given format.
func WriteSearchHits(w io.Writer, query string, hits []*index.Result, format OutputFormat) error {
	if format != OutputText {
		return writeJSON(w, hits, format)
	}
	fmt.Fprintf(w, "\nFound %d results for %q\n\n", len(hits), query)
	for i, hit := range hits {
		fmt.Fprintf(w, "%2d. %.4f  %s", i+1, hit.Score, hit.ID)
		if hit.Title != "" {
			fmt.Fprintf(w, "  %s", utils.Truncate(hit.Title, 60))
		}
		if hit.Filename != "" {
			fmt.Fprintf(w, "  (%s)", hit.Filename)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteAssetBatch writes an extraction result to w.
func WriteAssetBatch(w io.Writer, batch *model.AssetBatch, format OutputFormat) error {
	if format != OutputText {
		return writeJSON(w, batch, format)
	}
	fmt.Fprintf(w, "Extracted %d assets (%d failed)\n", len(batch.Assets), batch.FailedAssets)
	for _, a := range batch.Assets {
		fmt.Fprintf(w, "  slide %d  %-8s %-6s %8d bytes  %s\n",
			a.SlideIndex, a.Type, a.Format, a.Size, a.Filename)
	}
	return nil
}
