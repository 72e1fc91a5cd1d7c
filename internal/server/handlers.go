package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deckform/deckform/internal/model"
	"github.com/deckform/deckform/internal/storage"
)

// readUpload pulls the "file" part from a multipart upload, bounded by the
// configured upload limit.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	maxBytes := s.config.Limits.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 100 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, "", fmt.Errorf("invalid multipart body: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return data, header.Filename, nil
}

type convertResponse struct {
	ID       string                       `json:"id"`
	Document *model.UniversalPresentation `json:"document"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	data, filename, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "ValidationError", "BAD_UPLOAD", err.Error(), start)
		return
	}

	doc, err := s.converter.ConvertBytes(r.Context(), data, filename)
	if err != nil {
		s.logger.Warn("conversion failed", zap.String("filename", filename), zap.Error(err))
		s.respondFromErr(w, r, err, start)
		return
	}

	id := uuid.NewString()
	rec := &model.PresentationRecord{
		ID:         id,
		Filename:   filename,
		Title:      doc.Metadata.Title,
		Author:     doc.Metadata.Author,
		SlideCount: doc.Stats.SlideCount,
		ShapeCount: doc.Stats.ShapeCount,
		TextLength: doc.Stats.TextLength,
		Document:   doc,
	}
	if err := s.store.CreatePresentation(r.Context(), rec); err != nil {
		s.logger.Error("catalog write failed", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "InternalError", "CATALOG_WRITE", err.Error(), start)
		return
	}
	if s.idx != nil {
		if err := s.idx.IndexPresentation(r.Context(), rec); err != nil {
			// The conversion result stands even if the deck is unsearchable.
			s.logger.Warn("indexing failed", zap.String("id", id), zap.Error(err))
		}
	}

	s.respondData(w, r, http.StatusOK, convertResponse{ID: id, Document: doc}, start)
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var doc model.UniversalPresentation
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "ValidationError", "BAD_JSON", "invalid request body", start)
		return
	}

	outPath := filepath.Join(s.config.Storage.OutputDir, uuid.NewString()+".pptx")
	stats, err := s.composer.Compose(&doc, outPath)
	if err != nil {
		s.respondFromErr(w, r, err, start)
		return
	}

	f, err := os.Open(stats.Path)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "InternalError", "OUTPUT_READ", err.Error(), start)
		return
	}
	defer f.Close()

	name := "presentation.pptx"
	if doc.Metadata.Title != "" {
		name = doc.Metadata.Title + ".pptx"
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.presentationml.presentation")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.FormatInt(stats.SizeBytes, 10))
	_, _ = io.Copy(w, f)
}

type extractResponse struct {
	PresentationID string               `json:"presentationId,omitempty"`
	Assets         []*model.AssetRecord `json:"assets"`
	FailedAssets   int                  `json:"failedAssets"`
}

func (s *Server) handleExtractAssets(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	data, filename, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "ValidationError", "BAD_UPLOAD", err.Error(), start)
		return
	}
	kind := model.AssetType(r.URL.Query().Get("type"))
	if kind == "" {
		kind = model.AssetImage
	}
	presentationID := r.URL.Query().Get("presentationId")

	batch, err := s.extractor.Extract(r.Context(), data, kind)
	if err != nil {
		s.logger.Warn("asset extraction failed", zap.String("filename", filename), zap.Error(err))
		s.respondFromErr(w, r, err, start)
		return
	}

	recs := make([]*model.AssetRecord, 0, len(batch.Assets))
	failed := batch.FailedAssets
	for i := range batch.Assets {
		a := &batch.Assets[i]
		obj, err := s.binStore.Save(r.Context(), a.Data, a.ID+"_"+a.Filename, a.Metadata.MimeType, nil)
		if err != nil {
			s.logger.Warn("asset store failed, skipping", zap.String("asset", a.ID), zap.Error(err))
			failed++
			continue
		}
		recs = append(recs, &model.AssetRecord{
			ID:             a.ID,
			PresentationID: presentationID,
			Type:           a.Type,
			Format:         a.Format,
			Filename:       a.Filename,
			Size:           a.Size,
			SlideIndex:     a.SlideIndex,
			URL:            obj.URL,
			Path:           obj.Path,
			Metadata:       a.Metadata,
		})
	}
	if presentationID != "" && len(recs) > 0 {
		if err := s.store.BatchCreateAssets(r.Context(), recs); err != nil {
			s.logger.Warn("asset catalog write failed", zap.Error(err))
		}
	}

	s.respondData(w, r, http.StatusOK, extractResponse{
		PresentationID: presentationID,
		Assets:         recs,
		FailedAssets:   failed,
	}, start)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	data, _, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "ValidationError", "BAD_UPLOAD", err.Error(), start)
		return
	}
	slideIndex, _ := strconv.Atoi(r.URL.Query().Get("slide"))
	width, _ := strconv.Atoi(r.URL.Query().Get("width"))

	png, err := s.renderer.RenderSlide(r.Context(), data, slideIndex, width)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "ValidationError", "THUMBNAIL_FAILED", err.Error(), start)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (s *Server) handleListPresentations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	recs, err := s.store.ListPresentations(r.Context(), offset, limit)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "InternalError", "CATALOG_READ", err.Error(), start)
		return
	}
	s.respondData(w, r, http.StatusOK, recs, start)
}

func (s *Server) handleGetPresentation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")
	rec, err := s.store.GetPresentation(r.Context(), id)
	if err != nil {
		s.respondError(w, r, http.StatusNotFound, "NotFound", "PRESENTATION_NOT_FOUND", err.Error(), start)
		return
	}
	s.respondData(w, r, http.StatusOK, rec, start)
}

func (s *Server) handleDeletePresentation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteAssetsByPresentation(r.Context(), id); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "InternalError", "CATALOG_DELETE", err.Error(), start)
		return
	}
	if err := s.store.DeletePresentation(r.Context(), id); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "InternalError", "CATALOG_DELETE", err.Error(), start)
		return
	}
	if s.idx != nil {
		if err := s.idx.Delete(r.Context(), id); err != nil {
			s.logger.Warn("index delete failed", zap.String("id", id), zap.Error(err))
		}
	}
	s.respondData(w, r, http.StatusOK, map[string]string{"id": id, "status": "deleted"}, start)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")
	recs, err := s.store.ListAssetsByPresentation(r.Context(), id)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "InternalError", "CATALOG_READ", err.Error(), start)
		return
	}
	s.respondData(w, r, http.StatusOK, recs, start)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, r, http.StatusBadRequest, "ValidationError", "MISSING_QUERY", "q is required", start)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if s.idx == nil {
		s.respondError(w, r, http.StatusNotImplemented, "InternalError", "SEARCH_DISABLED", "search index not configured", start)
		return
	}
	hits, err := s.idx.Search(r.Context(), query, limit)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "InternalError", "SEARCH_FAILED", err.Error(), start)
		return
	}
	s.respondData(w, r, http.StatusOK, hits, start)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	presentations, err := s.store.CountPresentations(ctx)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "InternalError", "CATALOG_READ", err.Error(), start)
		return
	}
	assetCount, err := s.store.CountAssets(ctx)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "InternalError", "CATALOG_READ", err.Error(), start)
		return
	}
	resp := map[string]any{
		"presentations": presentations,
		"assets":        assetCount,
	}
	if s.idx != nil {
		if n, err := s.idx.Count(); err == nil {
			resp["indexed"] = n
		}
	}
	if s.config != nil {
		resp["config"] = map[string]any{
			"database_path": s.config.Storage.DatabasePath,
			"asset_dir":     s.config.Storage.AssetDir,
			"index_path":    s.config.Storage.IndexPath,
			"output_dir":    s.config.Storage.OutputDir,
		}
		diskBytes, err := storage.DiskUsageBytes(
			s.config.Storage.DatabasePath,
			s.config.Storage.AssetDir,
			s.config.Storage.IndexPath,
			s.config.Storage.OutputDir,
		)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondData(w, r, http.StatusOK, resp, start)
}

func (s *Server) handleListWatchDirectories(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.inbox == nil {
		s.respondError(w, r, http.StatusNotImplemented, "ValidationError", "WATCH_DISABLED", "inbox watching is not enabled", start)
		return
	}
	s.respondData(w, r, http.StatusOK, map[string][]string{"directories": s.inbox.Directories()}, start)
}

func (s *Server) handleAddWatchDirectory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.inbox == nil {
		s.respondError(w, r, http.StatusNotImplemented, "ValidationError", "WATCH_DISABLED", "inbox watching is not enabled", start)
		return
	}
	var req struct {
		Path  string `json:"path"`
		Sweep bool   `json:"sweep"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		s.respondError(w, r, http.StatusBadRequest, "ValidationError", "BAD_JSON", "expected {\"path\": ..., \"sweep\": ...}", start)
		return
	}
	if err := s.inbox.AddDirectory(req.Path, req.Sweep); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "ValidationError", "WATCH_ADD_FAILED", err.Error(), start)
		return
	}
	s.respondData(w, r, http.StatusCreated, map[string]string{"path": req.Path, "status": "watching"}, start)
}

func (s *Server) handleRemoveWatchDirectory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.inbox == nil {
		s.respondError(w, r, http.StatusNotImplemented, "ValidationError", "WATCH_DISABLED", "inbox watching is not enabled", start)
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, r, http.StatusBadRequest, "ValidationError", "MISSING_PATH", "path query parameter is required", start)
		return
	}
	if err := s.inbox.RemoveDirectory(path); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "ValidationError", "WATCH_REMOVE_FAILED", err.Error(), start)
		return
	}
	s.respondData(w, r, http.StatusOK, map[string]string{"path": path, "status": "removed"}, start)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
