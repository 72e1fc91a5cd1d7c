// Package storage provides the SQLite implementation of the Store interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/deckform/deckform/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS presentations (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		title TEXT,
		author TEXT,
		slide_count INTEGER NOT NULL,
		shape_count INTEGER NOT NULL,
		text_length INTEGER NOT NULL,
		document TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_presentations_created_at ON presentations(created_at);

	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		presentation_id TEXT NOT NULL,
		type TEXT NOT NULL,
		format TEXT NOT NULL,
		filename TEXT NOT NULL,
		size INTEGER NOT NULL,
		slide_index INTEGER NOT NULL,
		url TEXT,
		path TEXT,
		metadata TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (presentation_id) REFERENCES presentations(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_assets_presentation_id ON assets(presentation_id);
	CREATE INDEX IF NOT EXISTS idx_assets_presentation_type ON assets(presentation_id, type);
	`
	_, err := db.Exec(schema)
	return err
}

// CreatePresentation inserts a presentation record with its document JSON.
func (s *SQLiteStore) CreatePresentation(ctx context.Context, rec *model.PresentationRecord) error {
	docJSON, err := json.Marshal(rec.Document)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO presentations (id, filename, title, author, slide_count, shape_count, text_length, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Filename, rec.Title, rec.Author, rec.SlideCount, rec.ShapeCount, rec.TextLength,
		string(docJSON), rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

// UpsertPresentation inserts a record or replaces an existing record with
// the same ID. Used for watched decks, whose IDs are stable per path, so a
// re-dropped file updates in place. created_at survives the update.
func (s *SQLiteStore) UpsertPresentation(ctx context.Context, rec *model.PresentationRecord) error {
	docJSON, err := json.Marshal(rec.Document)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO presentations (id, filename, title, author, slide_count, shape_count, text_length, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   filename = excluded.filename,
		   title = excluded.title,
		   author = excluded.author,
		   slide_count = excluded.slide_count,
		   shape_count = excluded.shape_count,
		   text_length = excluded.text_length,
		   document = excluded.document,
		   updated_at = excluded.updated_at`,
		rec.ID, rec.Filename, rec.Title, rec.Author, rec.SlideCount, rec.ShapeCount, rec.TextLength,
		string(docJSON), rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

// GetPresentation returns a presentation record by ID, document included.
func (s *SQLiteStore) GetPresentation(ctx context.Context, id string) (*model.PresentationRecord, error) {
	var rec model.PresentationRecord
	var docJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, title, author, slide_count, shape_count, text_length, document, created_at, updated_at
		 FROM presentations WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Filename, &rec.Title, &rec.Author, &rec.SlideCount, &rec.ShapeCount,
		&rec.TextLength, &docJSON, &rec.CreatedAt, &rec.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("presentation not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	if docJSON != "" && docJSON != "null" {
		rec.Document = &model.UniversalPresentation{}
		if err := json.Unmarshal([]byte(docJSON), rec.Document); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document: %w", err)
		}
	}

	return &rec, nil
}

// DeletePresentation removes a presentation record by ID.
func (s *SQLiteStore) DeletePresentation(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM presentations WHERE id = ?`, id)
	return err
}

// ListPresentations returns presentation records with offset and limit,
// newest first. Documents are not loaded.
func (s *SQLiteStore) ListPresentations(ctx context.Context, offset, limit int) ([]*model.PresentationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, title, author, slide_count, shape_count, text_length, created_at, updated_at
		 FROM presentations ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*model.PresentationRecord
	for rows.Next() {
		var rec model.PresentationRecord
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Title, &rec.Author, &rec.SlideCount,
			&rec.ShapeCount, &rec.TextLength, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// CreateAsset inserts a single asset record.
func (s *SQLiteStore) CreateAsset(ctx context.Context, rec *model.AssetRecord) error {
	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	rec.CreatedAt = time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assets (id, presentation_id, type, format, filename, size, slide_index, url, path, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PresentationID, rec.Type, rec.Format, rec.Filename, rec.Size, rec.SlideIndex,
		rec.URL, rec.Path, string(metadataJSON), rec.CreatedAt,
	)
	return err
}

// BatchCreateAssets inserts multiple asset records in a transaction.
func (s *SQLiteStore) BatchCreateAssets(ctx context.Context, recs []*model.AssetRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO assets (id, presentation_id, type, format, filename, size, slide_index, url, path, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, rec := range recs {
		metadataJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		rec.CreatedAt = now
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.PresentationID, rec.Type, rec.Format,
			rec.Filename, rec.Size, rec.SlideIndex, rec.URL, rec.Path, string(metadataJSON), rec.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetAsset returns an asset record by ID.
func (s *SQLiteStore) GetAsset(ctx context.Context, id string) (*model.AssetRecord, error) {
	var rec model.AssetRecord
	var metadataJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, presentation_id, type, format, filename, size, slide_index, url, path, metadata, created_at
		 FROM assets WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.PresentationID, &rec.Type, &rec.Format, &rec.Filename, &rec.Size,
		&rec.SlideIndex, &rec.URL, &rec.Path, &metadataJSON, &rec.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("asset not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}

// ListAssetsByPresentation returns all asset records for a presentation
// ordered by slide position.
func (s *SQLiteStore) ListAssetsByPresentation(ctx context.Context, presentationID string) ([]*model.AssetRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, presentation_id, type, format, filename, size, slide_index, url, path, metadata, created_at
		 FROM assets WHERE presentation_id = ? ORDER BY slide_index`,
		presentationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*model.AssetRecord
	for rows.Next() {
		var rec model.AssetRecord
		var metadataJSON string
		if err := rows.Scan(&rec.ID, &rec.PresentationID, &rec.Type, &rec.Format, &rec.Filename,
			&rec.Size, &rec.SlideIndex, &rec.URL, &rec.Path, &metadataJSON, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if metadataJSON != "" {
			_ = json.Unmarshal([]byte(metadataJSON), &rec.Metadata)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// DeleteAssetsByPresentation removes all asset records for a presentation.
func (s *SQLiteStore) DeleteAssetsByPresentation(ctx context.Context, presentationID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE presentation_id = ?`, presentationID)
	return err
}

// CountPresentations returns the total number of presentation records.
func (s *SQLiteStore) CountPresentations(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM presentations`).Scan(&count)
	return count, err
}

// CountAssets returns the total number of asset records.
func (s *SQLiteStore) CountAssets(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
