// Package convert turns an open presentation container into the Universal
// Presentation Schema. Extraction is best-effort at every level below the
// container: a field that cannot be read falls back to a default, a shape
// whose identity cannot be read is skipped, a slide that fails entirely
// becomes a placeholder. Only input validation and container-open failures
// surface as errors.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/deckform/deckform/internal/engine"
	"github.com/deckform/deckform/internal/model"
)

// Converter performs PPTX to Universal JSON conversions. Each Convert call
// is self-contained; a Converter is safe for concurrent use because all
// per-call state lives in the call.
type Converter struct {
	engineCtx *engine.Context
	log       *zap.Logger
	maxBytes  int64

	// open is swappable so degradation paths can be driven by a fake engine.
	open func(data []byte) (engine.Presentation, error)
}

// NewConverter returns a converter. maxBytes bounds the accepted input size;
// zero means no bound.
func NewConverter(engineCtx *engine.Context, log *zap.Logger, maxBytes int64) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{
		engineCtx: engineCtx,
		log:       log,
		maxBytes:  maxBytes,
		open:      engine.OpenBytes,
	}
}

// Convert reads the file at path and converts it. The returned error is
// either a *ValidationError or an *EngineOpenError.
func (c *Converter) Convert(ctx context.Context, path string) (*model.UniversalPresentation, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ValidationError{Code: "FILE_NOT_FOUND", Message: fmt.Sprintf("file not found: %s", path)}
	}
	if info.IsDir() {
		return nil, &ValidationError{Code: "NOT_A_FILE", Message: fmt.Sprintf("not a file: %s", path)}
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pptx" {
		return nil, &ValidationError{Code: "UNSUPPORTED_FORMAT", Message: fmt.Sprintf("unsupported extension %q, expected .pptx", ext)}
	}
	if c.maxBytes > 0 && info.Size() > c.maxBytes {
		return nil, &ValidationError{Code: "FILE_TOO_LARGE", Message: fmt.Sprintf("file is %d bytes, limit is %d", info.Size(), c.maxBytes)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ValidationError{Code: "FILE_UNREADABLE", Message: err.Error()}
	}
	return c.convert(ctx, data, filepath.Base(path))
}

// ConvertBytes converts an in-memory PPTX payload. sourceName is recorded in
// the output metadata.
func (c *Converter) ConvertBytes(ctx context.Context, data []byte, sourceName string) (*model.UniversalPresentation, error) {
	if len(data) == 0 {
		return nil, &ValidationError{Code: "EMPTY_INPUT", Message: "empty input"}
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, &ValidationError{Code: "FILE_TOO_LARGE", Message: fmt.Sprintf("input is %d bytes, limit is %d", len(data), c.maxBytes)}
	}
	return c.convert(ctx, data, sourceName)
}

func (c *Converter) convert(ctx context.Context, data []byte, sourceName string) (*model.UniversalPresentation, error) {
	if err := c.engineCtx.EnsureInitialized(); err != nil {
		return nil, &EngineOpenError{Source: sourceName, Err: err}
	}
	pres, err := c.open(data)
	if err != nil {
		return nil, &EngineOpenError{Source: sourceName, Err: err}
	}
	defer func() {
		if err := pres.Dispose(); err != nil {
			c.log.Warn("dispose failed", zap.String("source", sourceName), zap.Error(err))
		}
	}()

	d := newDegradation(c.log)
	doc := &model.UniversalPresentation{
		Version:  model.SchemaVersion,
		Metadata: c.extractMetadata(d, pres, sourceName),
		Slides:   []model.Slide{},
	}

	n := try(d, "slideCount", 0, pres.SlideCount)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, &EngineOpenError{Source: sourceName, Err: err}
		}
		slideID := i + 1
		sl, err := pres.Slide(i)
		if err != nil {
			d.slideFailed(slideID, err)
			doc.Slides = append(doc.Slides, placeholderSlide(slideID))
			continue
		}
		doc.Slides = append(doc.Slides, extractSlide(d, sl, slideID))
	}

	// Placeholders count, so this holds even on a degraded conversion.
	doc.Metadata.SlideCount = len(doc.Slides)

	doc.Stats = model.ProcessingStats{
		SlideCount:     len(doc.Slides),
		ShapeCount:     doc.TotalShapeCount(),
		TextLength:     doc.TotalTextLength(),
		FailedSlides:   d.failedSlides,
		FailedShapes:   d.failedShapes,
		FieldFallbacks: d.fieldFallbacks,
	}

	c.log.Info("conversion complete",
		zap.String("source", sourceName),
		zap.Int("slides", doc.Stats.SlideCount),
		zap.Int("shapes", doc.Stats.ShapeCount),
		zap.Int("failedSlides", doc.Stats.FailedSlides),
		zap.Int("failedShapes", doc.Stats.FailedShapes),
		zap.Int("fieldFallbacks", doc.Stats.FieldFallbacks))
	return doc, nil
}

func (c *Converter) extractMetadata(d *degradation, pres engine.Presentation, sourceName string) model.Metadata {
	md := model.Metadata{
		SourceFile:   sourceName,
		SourceFormat: "pptx",
	}
	props := try(d, "coreProperties", engine.CoreProperties{}, pres.CoreProperties)
	md.Title = props.Title
	md.Author = props.Author
	md.Company = props.Company
	md.CreatedAt = props.Created
	md.ModifiedAt = props.Modified
	md.MasterCount = try(d, "masterCount", 0, pres.MasterCount)
	md.LayoutCount = try(d, "layoutCount", 0, pres.LayoutCount)
	return md
}
