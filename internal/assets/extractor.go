// Package assets pulls embedded binary payloads out of a presentation:
// images, video, audio, embedded documents and chart workbooks. Extraction
// walks the same shape graph as conversion but is an independent pass; a
// failing asset is skipped and counted, never fatal. Formats are detected
// from payload bytes, not from declared names.
package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deckform/deckform/internal/convert"
	"github.com/deckform/deckform/internal/engine"
	"github.com/deckform/deckform/internal/model"
)

// defaultVolume is reported for media frames whose volume cannot be read.
const defaultVolume = 50

const maxGroupDepth = 32

// Extractor extracts one asset kind per call from a presentation container.
type Extractor struct {
	engineCtx *engine.Context
	log       *zap.Logger

	open func(data []byte) (engine.Presentation, error)
}

// NewExtractor returns an asset extractor sharing the process engine context.
func NewExtractor(engineCtx *engine.Context, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{engineCtx: engineCtx, log: log, open: engine.OpenBytes}
}

// ExtractFile extracts assets of the given kind from the file at path.
func (e *Extractor) ExtractFile(ctx context.Context, path string, kind model.AssetType) (*model.AssetBatch, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pptx" {
		return nil, &convert.ValidationError{Code: "UNSUPPORTED_FORMAT", Message: fmt.Sprintf("unsupported extension %q, expected .pptx", ext)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &convert.ValidationError{Code: "FILE_NOT_FOUND", Message: err.Error()}
	}
	return e.Extract(ctx, data, kind)
}

// Extract extracts assets of the given kind from an in-memory container.
// The returned batch holds every asset that could be read; failures are
// counted in FailedAssets. Fatal errors are *convert.ValidationError or
// *convert.EngineOpenError only.
func (e *Extractor) Extract(ctx context.Context, data []byte, kind model.AssetType) (*model.AssetBatch, error) {
	switch kind {
	case model.AssetImage, model.AssetVideo, model.AssetAudio, model.AssetDocument, model.AssetChart:
	default:
		return nil, &convert.ValidationError{Code: "UNSUPPORTED_ASSET_TYPE", Message: fmt.Sprintf("unsupported asset type %q", kind)}
	}
	if len(data) == 0 {
		return nil, &convert.ValidationError{Code: "EMPTY_INPUT", Message: "empty input"}
	}
	if err := e.engineCtx.EnsureInitialized(); err != nil {
		return nil, &convert.EngineOpenError{Source: "upload", Err: err}
	}
	pres, err := e.open(data)
	if err != nil {
		return nil, &convert.EngineOpenError{Source: "upload", Err: err}
	}
	defer func() {
		if err := pres.Dispose(); err != nil {
			e.log.Warn("dispose failed", zap.Error(err))
		}
	}()

	batch := &model.AssetBatch{Assets: []model.AssetResult{}}
	n, err := pres.SlideCount()
	if err != nil {
		return batch, nil
	}
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return nil, &convert.EngineOpenError{Source: "upload", Err: ctx.Err()}
		}
		sl, err := pres.Slide(i)
		if err != nil {
			continue
		}
		shapes, err := sl.Shapes()
		if err != nil {
			continue
		}
		e.walkShapes(batch, kind, shapes, i, 0)
	}
	e.log.Info("asset extraction complete",
		zap.String("kind", string(kind)),
		zap.Int("assets", len(batch.Assets)),
		zap.Int("failed", batch.FailedAssets))
	return batch, nil
}

func (e *Extractor) walkShapes(batch *model.AssetBatch, kind model.AssetType, shapes []engine.Shape, slideIndex, depth int) {
	for _, sh := range shapes {
		if grp, err := sh.AsGroup(); err == nil {
			if depth < maxGroupDepth {
				if children, err := grp.Shapes(); err == nil {
					e.walkShapes(batch, kind, children, slideIndex, depth+1)
				}
			}
			continue
		}
		e.extractOne(batch, kind, sh, slideIndex)
	}
}

// extractOne probes sh for the asset kind and appends the result. Capability
// misses are silent; genuine read failures count against the batch.
func (e *Extractor) extractOne(batch *model.AssetBatch, kind model.AssetType, sh engine.Shape, slideIndex int) {
	var (
		payload  []byte
		declared string
		meta     model.AssetMetadata
		err      error
	)

	switch kind {
	case model.AssetVideo:
		payload, declared, meta, err = e.mediaPayload(sh.AsVideoFrame, true)
	case model.AssetAudio:
		payload, declared, meta, err = e.mediaPayload(sh.AsAudioFrame, true)
	case model.AssetImage:
		// Video and audio frames answer the picture probe too; they belong
		// to their own extraction kinds.
		if _, verr := sh.AsVideoFrame(); verr == nil {
			return
		}
		if _, aerr := sh.AsAudioFrame(); aerr == nil {
			return
		}
		payload, declared, meta, err = e.mediaPayload(sh.AsPicture, false)
	case model.AssetDocument:
		payload, declared, err = e.olePayload(sh)
	case model.AssetChart:
		payload, declared, err = e.chartPayload(sh)
	}
	if err != nil {
		if errors.Is(err, engine.ErrCapability) {
			return
		}
		batch.FailedAssets++
		e.log.Warn("asset extraction failed, skipping",
			zap.String("kind", string(kind)),
			zap.Int("slideIndex", slideIndex),
			zap.Error(err))
		return
	}

	format := DetectFormat(kind, payload)
	meta.MimeType = MimeFor(format)
	if name, nerr := sh.Name(); nerr == nil {
		meta.ShapeName = name
	}
	switch kind {
	case model.AssetImage:
		meta.Width, meta.Height = imageDimensions(payload)
	case model.AssetVideo, model.AssetAudio:
		meta.CodecHint = codecHint(format, payload)
		if format == "wav" {
			meta.DurationSeconds = wavDuration(payload)
		}
	case model.AssetDocument, model.AssetChart:
		switch format {
		case "pdf":
			meta.PageCount = pdfPageCount(payload)
		case "xlsx":
			meta.SheetNames = workbookSheets(payload)
		}
	}

	// A fresh identifier per extraction run; shape ids collide across runs
	// and across decks.
	id := uuid.NewString()
	filename := declared
	if filename == "" {
		filename = id + "." + format
	}
	batch.Assets = append(batch.Assets, model.AssetResult{
		ID:         id,
		Type:       kind,
		Format:     format,
		Filename:   filename,
		Size:       len(payload),
		SlideIndex: slideIndex,
		Data:       payload,
		Metadata:   meta,
	})
}

// mediaPayload reads one media frame's bytes plus its media metadata.
// wantVolume is set for playable frames, where an unreadable volume still
// defaults instead of failing the asset.
func (e *Extractor) mediaPayload(probe func() (engine.MediaFrame, error), wantVolume bool) ([]byte, string, model.AssetMetadata, error) {
	var meta model.AssetMetadata
	mf, err := probe()
	if err != nil {
		return nil, "", meta, err
	}
	data, err := mf.Data()
	if err != nil {
		return nil, "", meta, err
	}
	declared, _ := mf.DeclaredFilename()
	if wantVolume {
		if vol, err := mf.Volume(); err == nil {
			meta.Volume = vol
		} else {
			meta.Volume = defaultVolume
		}
	}
	return data, declared, meta, nil
}

func (e *Extractor) olePayload(sh engine.Shape) ([]byte, string, error) {
	ole, err := sh.AsOLEObject()
	if err != nil {
		return nil, "", err
	}
	data, err := ole.Data()
	if err != nil {
		return nil, "", err
	}
	declared, _ := ole.DeclaredFilename()
	return data, declared, nil
}

func (e *Extractor) chartPayload(sh engine.Shape) ([]byte, string, error) {
	chart, err := sh.AsChart()
	if err != nil {
		return nil, "", err
	}
	data, err := chart.WorkbookData()
	if err != nil {
		return nil, "", err
	}
	return data, "", nil
}
