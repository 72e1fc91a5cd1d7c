package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/deckform/deckform/internal/convert"
	"github.com/deckform/deckform/internal/engine"
	"github.com/deckform/deckform/internal/fileid"
	"github.com/deckform/deckform/internal/index"
	"github.com/deckform/deckform/internal/storage"
)

type pathRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *pathRecorder) record(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *pathRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *pathRecorder) waitFor(t *testing.T, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, p := range r.snapshot() {
			if filepath.Clean(p) == filepath.Clean(want) {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("path %q never observed; got %v", want, r.snapshot())
}

func TestInbox_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	in := NewInbox(nil, nil, true, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()

	if err := in.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := in.Directories()
	if len(dirs) != 1 || filepath.Clean(dirs[0]) != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	// Adding the same root twice is a no-op.
	if err := in.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	if len(in.Directories()) != 1 {
		t.Errorf("after duplicate add: %v", in.Directories())
	}

	if err := in.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(in.Directories()) != 0 {
		t.Errorf("after remove: %v", in.Directories())
	}
}

func TestInbox_SettleAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	var decks pathRecorder
	in := NewInbox([]string{dir}, nil, true, decks.record, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()

	deck := filepath.Join(dir, "drop.pptx")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(deck, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(other, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	decks.waitFor(t, deck)
	for _, p := range decks.snapshot() {
		if filepath.Ext(p) == ".txt" {
			t.Errorf("non-deck file ingested: %s", p)
		}
	}
}

func TestInbox_RemoveFiresEviction(t *testing.T) {
	dir := t.TempDir()
	var decks, gone pathRecorder
	in := NewInbox([]string{dir}, nil, false, decks.record, gone.record, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()

	deck := filepath.Join(dir, "gone.pptx")
	if err := os.WriteFile(deck, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	decks.waitFor(t, deck)

	if err := os.Remove(deck); err != nil {
		t.Fatal(err)
	}
	gone.waitFor(t, deck)
}

func TestInbox_SweepExisting(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(sub, "already.pptx")
	if err := os.WriteFile(existing, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	var decks pathRecorder
	in := NewInbox([]string{dir}, nil, true, decks.record, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()

	in.SweepExisting()
	decks.waitFor(t, existing)
}

func TestIngestor_IngestAndEvict(t *testing.T) {
	dir := t.TempDir()

	store, err := storage.NewSQLiteStore(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	idx, err := index.New(filepath.Join(dir, "decks.bleve"))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	deck := filepath.Join(dir, "report.pptx")
	b := engine.NewBuilder()
	b.SetTitle("Watched Report")
	b.RemoveDefaultSlide()
	b.AddSlide("One", false).AddTextBox(engine.Frame{X: 72, Y: 72, Width: 360, Height: 100}, "quarterly numbers")
	if _, err := b.SaveFile(deck); err != nil {
		t.Fatal(err)
	}

	converter := convert.NewConverter(engine.NewContext(), nil, 0)
	ing := NewIngestor(converter, store, idx, nil)

	ing.IngestDeck(deck)
	id := fileid.DeckID(deck)
	rec, err := store.GetPresentation(context.Background(), id)
	if err != nil {
		t.Fatalf("record not ingested: %v", err)
	}
	if rec.Title != "Watched Report" || rec.SlideCount != 1 {
		t.Errorf("record = %+v", rec)
	}

	// Re-ingesting the same path updates in place.
	ing.IngestDeck(deck)
	if n, _ := store.CountPresentations(context.Background()); n != 1 {
		t.Errorf("count after re-ingest = %d", n)
	}

	hits, err := idx.Search(context.Background(), "quarterly", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != id {
		t.Errorf("hits = %+v", hits)
	}

	ing.EvictDeck(deck)
	if _, err := store.GetPresentation(context.Background(), id); err == nil {
		t.Error("record survived eviction")
	}
	hits, err = idx.Search(context.Background(), "quarterly", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("hits after eviction = %+v", hits)
	}
}
