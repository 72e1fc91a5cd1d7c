// Package thumbnail renders slide preview images. The engine boundary has
// no shape or text rasterizer, so the rendered preview is the slide's
// background color at the slide's aspect ratio; shape and text rendering
// stays delegated to the document engine when one with a raster surface is
// wired in.
package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"go.uber.org/zap"

	"github.com/deckform/deckform/internal/engine"
)

// DefaultWidth is the thumbnail width when the caller does not choose one.
const DefaultWidth = 640

// Renderer produces a PNG preview of one slide.
type Renderer interface {
	RenderSlide(ctx context.Context, data []byte, slideIndex, width int) ([]byte, error)
}

// EngineRenderer implements Renderer over the engine boundary.
type EngineRenderer struct {
	engineCtx *engine.Context
	log       *zap.Logger

	open func(data []byte) (engine.Presentation, error)
}

// NewEngineRenderer returns a renderer sharing the process engine context.
func NewEngineRenderer(engineCtx *engine.Context, log *zap.Logger) *EngineRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &EngineRenderer{engineCtx: engineCtx, log: log, open: engine.OpenBytes}
}

// RenderSlide renders slideIndex (0-based) of the container at the given
// pixel width, preserving the deck's slide aspect ratio.
func (r *EngineRenderer) RenderSlide(ctx context.Context, data []byte, slideIndex, width int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if err := r.engineCtx.EnsureInitialized(); err != nil {
		return nil, err
	}
	pres, err := r.open(data)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: open container: %w", err)
	}
	defer pres.Dispose()

	n, err := pres.SlideCount()
	if err != nil {
		return nil, fmt.Errorf("thumbnail: %w", err)
	}
	if slideIndex < 0 || slideIndex >= n {
		return nil, fmt.Errorf("thumbnail: slide index %d out of range [0,%d)", slideIndex, n)
	}

	size, err := pres.SlideSize()
	if err != nil || size.Width <= 0 || size.Height <= 0 {
		size = engine.SlideSize{Width: 960, Height: 540}
	}
	height := int(float64(width) * size.Height / size.Width)
	if height < 1 {
		height = 1
	}

	bg := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	if sl, err := pres.Slide(slideIndex); err == nil {
		if fill, err := sl.Background(); err == nil && fill != nil && fill.Kind == "solid" {
			if c, ok := parseHexColor(fill.Color); ok {
				bg = c
			}
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("thumbnail: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func parseHexColor(s string) (color.RGBA, bool) {
	if len(s) == 7 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, true
}
