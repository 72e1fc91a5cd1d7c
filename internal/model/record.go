package model

import "time"

// PresentationRecord is a converted presentation as cataloged in storage.
// Document holds the full Universal JSON; the flattened columns exist for
// listing without deserializing the document.
type PresentationRecord struct {
	ID         string                 `json:"id"`
	Filename   string                 `json:"filename"`
	Title      string                 `json:"title"`
	Author     string                 `json:"author"`
	SlideCount int                    `json:"slideCount"`
	ShapeCount int                    `json:"shapeCount"`
	TextLength int                    `json:"textLength"`
	Document   *UniversalPresentation `json:"document,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// AssetRecord is one stored extracted asset. Data itself lives in the
// binary store; this record carries the catalog row.
type AssetRecord struct {
	ID             string        `json:"id"`
	PresentationID string        `json:"presentationId"`
	Type           AssetType     `json:"type"`
	Format         string        `json:"format"`
	Filename       string        `json:"filename"`
	Size           int           `json:"size"`
	SlideIndex     int           `json:"slideIndex"`
	URL            string        `json:"url"`
	Path           string        `json:"-"`
	Metadata       AssetMetadata `json:"metadata"`
	CreatedAt      time.Time     `json:"createdAt"`
}
