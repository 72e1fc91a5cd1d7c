// Package index provides the full-text search index over converted
// presentations. Indexed text is the deck's plain text plus speaker notes;
// search returns presentation ids ranked by relevance.
package index

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/deckform/deckform/internal/model"
)

// indexedDeck is the flat document stored per presentation.
type indexedDeck struct {
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Result is one search hit.
type Result struct {
	ID       string  `json:"id"`
	Score    float64 `json:"score"`
	Title    string  `json:"title"`
	Filename string  `json:"filename"`
}

// Index is a Bleve-backed deck index.
type Index struct {
	index bleve.Index
}

// New creates or opens a Bleve index at path. An existing index is reused;
// remove the directory to force a rebuild after a mapping change.
func New(path string) (*Index, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so a query
	// matches the exact words on the slides.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("filename", textFieldMapping)
	im.AddDocumentMapping("deck", docMapping)
	im.DefaultType = "deck"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		idx, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open index: %w", openErr)
		}
		return &Index{index: idx}, nil
	}

	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return &Index{index: idx}, nil
}

// IndexPresentation indexes one cataloged presentation under its id.
func (x *Index) IndexPresentation(ctx context.Context, rec *model.PresentationRecord) error {
	if rec.Document == nil {
		return fmt.Errorf("record %s has no document", rec.ID)
	}
	return x.index.Index(rec.ID, indexedDeck{
		Title:    rec.Title,
		Filename: rec.Filename,
		Content:  DocText(rec.Document),
	})
}

// Delete removes a presentation from the index.
func (x *Index) Delete(ctx context.Context, id string) error {
	return x.index.Delete(id)
}

// Search runs a match query and returns up to limit hits.
func (x *Index) Search(ctx context.Context, query string, limit int) ([]*Result, error) {
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"title", "filename"}
	results, err := x.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		r := &Result{ID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["title"].(string); ok {
			r.Title = v
		}
		if v, ok := hit.Fields["filename"].(string); ok {
			r.Filename = v
		}
		out[i] = r
	}
	return out, nil
}

// Count returns the number of indexed presentations.
func (x *Index) Count() (uint64, error) {
	return x.index.DocCount()
}

// Close releases the underlying index.
func (x *Index) Close() error {
	return x.index.Close()
}

// DocText flattens a document's searchable text: every shape's plain text
// plus speaker notes, in slide order.
func DocText(doc *model.UniversalPresentation) string {
	var sb strings.Builder
	for i := range doc.Slides {
		slide := &doc.Slides[i]
		appendShapeText(&sb, slide.Shapes)
		if slide.Notes != nil && *slide.Notes != "" {
			sb.WriteString(*slide.Notes)
			sb.WriteByte('\n')
		}
	}
	return strings.TrimSpace(sb.String())
}

func appendShapeText(sb *strings.Builder, shapes []model.Shape) {
	for i := range shapes {
		if t := shapes[i].Text; t != nil && t.PlainText != "" {
			sb.WriteString(t.PlainText)
			sb.WriteByte('\n')
		}
		appendShapeText(sb, shapes[i].Shapes)
	}
}
