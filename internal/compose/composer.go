// Package compose writes a Universal Presentation document back to a PPTX
// container. The write is deliberately lossy: only text-bearing shapes come
// back, each as a plain rectangle text box carrying the shape's plain text.
// Fills, media, tables and charts are not reconstructed.
package compose

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/deckform/deckform/internal/convert"
	"github.com/deckform/deckform/internal/engine"
	"github.com/deckform/deckform/internal/model"
)

// DefaultTextClamp bounds the text written per shape.
const DefaultTextClamp = 500

// defaultEnvelope is the fallback placement envelope in points, matching a
// 20 inch square.
const defaultEnvelope = 1440.0

// FileStats describes a composed output file.
type FileStats struct {
	Path           string `json:"path"`
	SizeBytes      int64  `json:"sizeBytes"`
	SlideCount     int    `json:"slideCount"`
	ShapeCount     int    `json:"shapeCount"`
	TruncatedTexts int    `json:"truncatedTexts"`
}

// Composer builds PPTX files from Universal Presentation documents.
type Composer struct {
	log       *zap.Logger
	textClamp int
	envelope  float64 // max x/y/width/height in points
}

// NewComposer returns a composer. textClamp bounds per-shape text length
// (zero selects the default); envelopePt bounds shape placement (zero
// selects the default).
func NewComposer(log *zap.Logger, textClamp int, envelopePt float64) *Composer {
	if log == nil {
		log = zap.NewNop()
	}
	if textClamp <= 0 {
		textClamp = DefaultTextClamp
	}
	if envelopePt <= 0 {
		envelopePt = defaultEnvelope
	}
	return &Composer{log: log, textClamp: textClamp, envelope: envelopePt}
}

// Compose validates doc and writes it to outputPath as a PPTX file.
func (c *Composer) Compose(doc *model.UniversalPresentation, outputPath string) (*FileStats, error) {
	if doc == nil {
		return nil, &convert.ValidationError{Code: "NIL_DOCUMENT", Message: "no document provided"}
	}
	if doc.Version != model.SchemaVersion {
		return nil, &convert.ValidationError{
			Code:    "BAD_SCHEMA_VERSION",
			Message: fmt.Sprintf("unsupported schema version %q", doc.Version),
		}
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("compose: create output dir: %w", err)
	}

	b := engine.NewBuilder()
	b.SetTitle(doc.Metadata.Title)
	b.SetAuthor(doc.Metadata.Author)
	b.RemoveDefaultSlide()

	var shapeCount, truncated int
	for i := range doc.Slides {
		slide := &doc.Slides[i]
		sb := b.AddSlide(slide.Name, slide.Hidden)
		n, tr := c.composeShapes(sb, slide.Shapes)
		shapeCount += n
		truncated += tr
	}

	size, err := b.SaveFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	stats := &FileStats{
		Path:           outputPath,
		SizeBytes:      size,
		SlideCount:     b.SlideCount(),
		ShapeCount:     shapeCount,
		TruncatedTexts: truncated,
	}
	c.log.Info("composed presentation",
		zap.String("path", stats.Path),
		zap.Int64("sizeBytes", stats.SizeBytes),
		zap.Int("slides", stats.SlideCount),
		zap.Int("shapes", stats.ShapeCount))
	return stats, nil
}

// composeShapes writes the text-bearing shapes of one level, descending into
// groups. Group nesting is flattened; child geometry is already absolute in
// the document model.
func (c *Composer) composeShapes(sb *engine.SlideBuilder, shapes []model.Shape) (n, truncated int) {
	for i := range shapes {
		sh := &shapes[i]
		if len(sh.Shapes) > 0 {
			cn, ct := c.composeShapes(sb, sh.Shapes)
			n += cn
			truncated += ct
		}
		if sh.Text == nil || sh.Text.PlainText == "" {
			continue
		}
		text := sh.Text.PlainText
		if runes := []rune(text); len(runes) > c.textClamp {
			text = string(runes[:c.textClamp])
			truncated++
		}
		sb.AddTextBox(c.clampFrame(sh.Geometry), text)
		n++
	}
	return n, truncated
}

// clampFrame forces a geometry into the non-negative placement envelope so
// corrupt or hostile coordinates cannot produce an unopenable file.
func (c *Composer) clampFrame(g model.Geometry) engine.Frame {
	return engine.Frame{
		X:      clamp(g.X, 0, c.envelope),
		Y:      clamp(g.Y, 0, c.envelope),
		Width:  clamp(g.Width, 0, c.envelope),
		Height: clamp(g.Height, 0, c.envelope),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
