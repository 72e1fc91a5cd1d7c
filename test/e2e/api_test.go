// Package e2e runs the HTTP API end to end over a real listener.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/deckform/deckform/internal/assets"
	"github.com/deckform/deckform/internal/compose"
	"github.com/deckform/deckform/internal/config"
	"github.com/deckform/deckform/internal/convert"
	"github.com/deckform/deckform/internal/engine"
	"github.com/deckform/deckform/internal/index"
	"github.com/deckform/deckform/internal/model"
	"github.com/deckform/deckform/internal/server"
	"github.com/deckform/deckform/internal/storage"
	"github.com/deckform/deckform/internal/thumbnail"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "catalog.db")
	cfg.Storage.AssetDir = filepath.Join(dir, "assets")
	cfg.Storage.IndexPath = filepath.Join(dir, "decks.bleve")
	cfg.Storage.OutputDir = filepath.Join(dir, "out")

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	binStore, err := storage.NewDiskStore(cfg.Storage.AssetDir, "/assets")
	if err != nil {
		t.Fatal(err)
	}
	idx, err := index.New(cfg.Storage.IndexPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })

	engineCtx := engine.NewContext()
	logger := zap.NewNop()
	srv := server.NewServer(
		convert.NewConverter(engineCtx, logger, cfg.Limits.MaxUploadBytes),
		compose.NewComposer(logger, cfg.Limits.ComposeTextClamp, float64(cfg.Limits.MaxSlideEnvelopeEMU)/12700),
		assets.NewExtractor(engineCtx, logger),
		thumbnail.NewEngineRenderer(engineCtx, logger),
		store,
		binStore,
		idx,
		nil,
		cfg,
		logger,
	)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func fixture(t *testing.T) []byte {
	t.Helper()
	b := engine.NewBuilder()
	b.SetTitle("E2E Deck")
	b.RemoveDefaultSlide()
	sl := b.AddSlide("Only", false)
	sl.AddTextBox(engine.Frame{X: 72, Y: 72, Width: 400, Height: 120}, "migration roadmap")
	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func postFile(t *testing.T, url string, data []byte) (*http.Response, envelope) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "deck.pptx")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %s: %v\n%s", url, err, raw)
		}
	}
	return resp, env
}

func getEnvelope(t *testing.T, url string) (*http.Response, envelope) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp, env
}

func TestAPILifecycle(t *testing.T) {
	ts := startServer(t)

	// Convert.
	resp, env := postFile(t, ts.URL+"/api/v1/convert", fixture(t))
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("convert: %d %+v", resp.StatusCode, env.Error)
	}
	var converted struct {
		ID       string                       `json:"id"`
		Document *model.UniversalPresentation `json:"document"`
	}
	if err := json.Unmarshal(env.Data, &converted); err != nil {
		t.Fatal(err)
	}
	if converted.Document.Metadata.Title != "E2E Deck" {
		t.Errorf("title = %q", converted.Document.Metadata.Title)
	}

	// Search finds the deck.
	_, env = getEnvelope(t, ts.URL+"/api/v1/search?q=roadmap")
	var hits []*index.Result
	if err := json.Unmarshal(env.Data, &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != converted.ID {
		t.Fatalf("hits = %+v", hits)
	}

	// Compose the document back to a PPTX download.
	docJSON, _ := json.Marshal(converted.Document)
	composeResp, err := http.Post(ts.URL+"/api/v1/compose", "application/json", bytes.NewReader(docJSON))
	if err != nil {
		t.Fatal(err)
	}
	pptxBytes, _ := io.ReadAll(composeResp.Body)
	composeResp.Body.Close()
	if composeResp.StatusCode != http.StatusOK {
		t.Fatalf("compose: %d %s", composeResp.StatusCode, pptxBytes)
	}
	if pres, err := engine.OpenBytes(pptxBytes); err != nil {
		t.Fatalf("composed output does not open: %v", err)
	} else {
		pres.Dispose()
	}

	// Asset extraction against a text-only deck yields an empty batch.
	resp, env = postFile(t, ts.URL+"/api/v1/assets/extract?type=image&presentationId="+converted.ID, fixture(t))
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("extract: %d %+v", resp.StatusCode, env.Error)
	}

	// Status reflects the stored deck.
	_, env = getEnvelope(t, ts.URL+"/api/v1/status")
	var status map[string]any
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatal(err)
	}
	if n, ok := status["presentations"].(float64); !ok || n != 1 {
		t.Errorf("presentations = %v", status["presentations"])
	}

	// Delete removes catalog record and index entry.
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/presentations/"+converted.ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("delete: %d", delResp.StatusCode)
	}
	getResp, _ := getEnvelope(t, fmt.Sprintf("%s/api/v1/presentations/%s", ts.URL, converted.ID))
	if getResp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete = %d", getResp.StatusCode)
	}
	_, env = getEnvelope(t, ts.URL+"/api/v1/search?q=roadmap")
	if err := json.Unmarshal(env.Data, &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("hits after delete = %+v", hits)
	}
}
