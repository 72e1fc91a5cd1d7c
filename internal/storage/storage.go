// Package storage defines the persistence layer: the catalog of converted
// presentations and extracted assets, plus the binary store holding asset
// payloads.
package storage

import (
	"context"

	"github.com/deckform/deckform/internal/model"
)

// Store defines catalog persistence operations.
type Store interface {
	// Presentation operations
	CreatePresentation(ctx context.Context, rec *model.PresentationRecord) error
	UpsertPresentation(ctx context.Context, rec *model.PresentationRecord) error
	GetPresentation(ctx context.Context, id string) (*model.PresentationRecord, error)
	DeletePresentation(ctx context.Context, id string) error
	ListPresentations(ctx context.Context, offset, limit int) ([]*model.PresentationRecord, error)

	// Asset operations
	CreateAsset(ctx context.Context, rec *model.AssetRecord) error
	BatchCreateAssets(ctx context.Context, recs []*model.AssetRecord) error
	GetAsset(ctx context.Context, id string) (*model.AssetRecord, error)
	ListAssetsByPresentation(ctx context.Context, presentationID string) ([]*model.AssetRecord, error)
	DeleteAssetsByPresentation(ctx context.Context, presentationID string) error

	// Stats
	CountPresentations(ctx context.Context) (int64, error)
	CountAssets(ctx context.Context) (int64, error)

	Close() error
}

// SavedObject locates one stored binary payload.
type SavedObject struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// BinaryStore persists raw asset payloads and returns where they landed.
type BinaryStore interface {
	Save(ctx context.Context, data []byte, filename, mimeType string, meta map[string]string) (SavedObject, error)
}
