package watcher

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/deckform/deckform/internal/convert"
	"github.com/deckform/deckform/internal/fileid"
	"github.com/deckform/deckform/internal/index"
	"github.com/deckform/deckform/internal/model"
	"github.com/deckform/deckform/internal/storage"
)

const ingestTimeout = 2 * time.Minute

// Ingestor converts settled inbox decks into catalog records. Its IngestDeck
// and EvictDeck methods are shaped to be Inbox callbacks.
type Ingestor struct {
	converter *convert.Converter
	store     storage.Store
	idx       *index.Index
	log       *zap.Logger
}

func NewIngestor(converter *convert.Converter, store storage.Store, idx *index.Index, log *zap.Logger) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{converter: converter, store: store, idx: idx, log: log}
}

// IngestDeck converts the deck at path and upserts it under its path-derived
// ID. Conversion failures are logged, not returned; the watcher moves on to
// the next drop either way.
func (ing *Ingestor) IngestDeck(path string) {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	doc, err := ing.converter.Convert(ctx, path)
	if err != nil {
		ing.log.Warn("inbox deck conversion failed", zap.String("path", path), zap.Error(err))
		return
	}

	rec := &model.PresentationRecord{
		ID:         fileid.DeckID(path),
		Filename:   filepath.Base(path),
		Title:      doc.Metadata.Title,
		Author:     doc.Metadata.Author,
		SlideCount: doc.Stats.SlideCount,
		ShapeCount: doc.Stats.ShapeCount,
		TextLength: doc.Stats.TextLength,
		Document:   doc,
	}
	if err := ing.store.UpsertPresentation(ctx, rec); err != nil {
		ing.log.Error("inbox catalog write failed", zap.String("path", path), zap.Error(err))
		return
	}
	if ing.idx != nil {
		if err := ing.idx.IndexPresentation(ctx, rec); err != nil {
			ing.log.Warn("inbox deck indexing failed", zap.String("path", path), zap.Error(err))
		}
	}
	ing.log.Info("inbox deck ingested",
		zap.String("path", path),
		zap.String("id", rec.ID),
		zap.Int("slides", rec.SlideCount))
}

// EvictDeck removes the record for a deck that disappeared from the inbox.
func (ing *Ingestor) EvictDeck(path string) {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	id := fileid.DeckID(path)
	if err := ing.store.DeleteAssetsByPresentation(ctx, id); err != nil {
		ing.log.Warn("inbox asset eviction failed", zap.String("id", id), zap.Error(err))
	}
	if err := ing.store.DeletePresentation(ctx, id); err != nil {
		ing.log.Warn("inbox deck eviction failed", zap.String("id", id), zap.Error(err))
		return
	}
	if ing.idx != nil {
		if err := ing.idx.Delete(ctx, id); err != nil {
			ing.log.Warn("inbox index eviction failed", zap.String("id", id), zap.Error(err))
		}
	}
	ing.log.Info("inbox deck evicted", zap.String("path", path), zap.String("id", id))
}
