// Package watcher watches inbox directories for dropped presentation files
// and hands them to an ingest callback once writes have settled.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// settleDelay is how long a file must stay quiet before it is ingested.
// Office saves and network copies arrive as bursts of partial writes.
const settleDelay = 400 * time.Millisecond

// Inbox watches directories for deck files. onDeck fires after a file
// matching the configured extensions has settled; onGone fires when a
// matching file is removed.
type Inbox struct {
	roots      []string
	extensions []string
	recursive  bool
	onDeck     func(path string)
	onGone     func(path string)
	log        *zap.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	pending  map[string]*time.Timer
	watched  map[string][]string // root -> directories registered for it
	started  bool
	done     chan struct{}
	stopOnce sync.Once
}

// NewInbox creates an inbox watcher over roots. extensions filter which
// files count as decks; empty means ".pptx" only.
func NewInbox(roots, extensions []string, recursive bool, onDeck, onGone func(path string), log *zap.Logger) *Inbox {
	if len(extensions) == 0 {
		extensions = []string{".pptx"}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Inbox{
		roots:      roots,
		extensions: extensions,
		recursive:  recursive,
		onDeck:     onDeck,
		onGone:     onGone,
		log:        log,
		pending:    make(map[string]*time.Timer),
		watched:    make(map[string][]string),
		done:       make(chan struct{}),
	}
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
// Missing roots are created.
func (in *Inbox) Start(ctx context.Context) error {
	in.mu.Lock()
	if in.started {
		in.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		in.mu.Unlock()
		return err
	}
	in.fsw = fsw
	in.started = true
	for _, root := range in.roots {
		if err := in.registerRootLocked(root); err != nil {
			_ = in.fsw.Close()
			in.fsw = nil
			in.started = false
			in.mu.Unlock()
			return err
		}
	}
	in.mu.Unlock()

	in.log.Info("inbox watcher started",
		zap.Strings("roots", in.roots),
		zap.Strings("extensions", in.extensions),
		zap.Bool("recursive", in.recursive))
	go in.run(ctx)
	return nil
}

func (in *Inbox) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			in.Stop()
			return
		case <-in.done:
			return
		case ev, ok := <-in.fsw.Events:
			if !ok {
				return
			}
			in.handleEvent(ev)
		case err, ok := <-in.fsw.Errors:
			if !ok {
				return
			}
			if err != nil {
				in.log.Warn("inbox watch error", zap.Error(err))
			}
		}
	}
}

func (in *Inbox) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if !in.underRoot(path) {
		return
	}
	switch ev.Op {
	case fsnotify.Create, fsnotify.Write:
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			in.coverNewDirectory(path)
			return
		}
		if in.isDeck(path) {
			in.settle(path)
		}
	case fsnotify.Remove, fsnotify.Rename:
		in.forget(path)
		if in.isDeck(path) && in.onGone != nil {
			in.onGone(path)
		}
	}
}

// coverNewDirectory registers a directory that appeared inside a watched
// root and sweeps any decks already inside it (a folder moved in arrives
// with its contents but without per-file events).
func (in *Inbox) coverNewDirectory(dir string) {
	in.mu.Lock()
	fsw := in.fsw
	recursive := in.recursive
	in.mu.Unlock()
	if fsw == nil {
		return
	}
	if recursive {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if err := fsw.Add(path); err != nil {
					in.log.Warn("inbox watch add failed", zap.String("path", path), zap.Error(err))
				}
			}
			return nil
		})
	} else if err := fsw.Add(dir); err != nil {
		in.log.Warn("inbox watch add failed", zap.String("path", dir), zap.Error(err))
	}
	in.sweep(dir)
}

func (in *Inbox) underRoot(path string) bool {
	in.mu.Lock()
	roots := append([]string(nil), in.roots...)
	in.mu.Unlock()
	clean := filepath.Clean(path)
	for _, root := range roots {
		root = filepath.Clean(root)
		if root == clean || within(root, clean) {
			return true
		}
	}
	return false
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (in *Inbox) isDeck(path string) bool {
	return matchExtension(path, in.extensions)
}

func matchExtension(path string, extensions []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// settle (re)arms the quiet-period timer for path. onDeck fires only once
// the file has gone settleDelay without another write.
func (in *Inbox) settle(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.pending[path]; ok {
		t.Stop()
	}
	in.pending[path] = time.AfterFunc(settleDelay, func() {
		in.mu.Lock()
		delete(in.pending, path)
		in.mu.Unlock()
		if in.onDeck != nil {
			in.onDeck(path)
		}
	})
}

func (in *Inbox) forget(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.pending[path]; ok {
		t.Stop()
		delete(in.pending, path)
	}
}

// AddDirectory starts watching an additional root. When sweepExisting is
// set, decks already in the directory are ingested.
func (in *Inbox) AddDirectory(root string, sweepExisting bool) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	in.mu.Lock()
	if in.fsw == nil {
		in.mu.Unlock()
		return nil
	}
	for _, r := range in.roots {
		if filepath.Clean(r) == filepath.Clean(abs) {
			in.mu.Unlock()
			return nil
		}
	}
	if err := in.registerRootLocked(abs); err != nil {
		in.mu.Unlock()
		return err
	}
	in.roots = append(in.roots, abs)
	in.mu.Unlock()
	if sweepExisting {
		go in.sweep(abs)
	}
	return nil
}

// RemoveDirectory stops watching root. Already-ingested decks stay in the
// catalog.
func (in *Inbox) RemoveDirectory(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.fsw == nil {
		return nil
	}
	idx := -1
	for i, r := range in.roots {
		if filepath.Clean(r) == abs {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	for _, p := range in.watched[abs] {
		_ = in.fsw.Remove(p)
	}
	delete(in.watched, abs)
	in.roots = append(in.roots[:idx], in.roots[idx+1:]...)
	return nil
}

// Directories returns the currently watched roots.
func (in *Inbox) Directories() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string(nil), in.roots...)
}

func (in *Inbox) registerRootLocked(root string) error {
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(root, 0755); err != nil {
			return err
		}
	}
	var dirs []string
	if in.recursive {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if err := in.fsw.Add(path); err != nil {
				return err
			}
			dirs = append(dirs, path)
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		if err := in.fsw.Add(root); err != nil {
			return err
		}
		dirs = append(dirs, root)
	}
	in.watched[root] = dirs
	return nil
}

// sweep ingests every matching deck already under root.
func (in *Inbox) sweep(root string) {
	in.mu.Lock()
	exts := append([]string(nil), in.extensions...)
	onDeck := in.onDeck
	in.mu.Unlock()
	if onDeck == nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if matchExtension(path, exts) {
			onDeck(path)
		}
		return nil
	})
}

// SweepExisting ingests decks that were already present when watching
// began. Call after Start.
func (in *Inbox) SweepExisting() {
	in.mu.Lock()
	roots := append([]string(nil), in.roots...)
	in.mu.Unlock()
	for _, root := range roots {
		in.sweep(root)
	}
}

// Stop releases the underlying watcher and cancels pending timers.
func (in *Inbox) Stop() {
	in.mu.Lock()
	if !in.started || in.fsw == nil {
		in.mu.Unlock()
		return
	}
	for path, t := range in.pending {
		t.Stop()
		delete(in.pending, path)
	}
	_ = in.fsw.Close()
	in.fsw = nil
	in.started = false
	in.mu.Unlock()
	in.stopOnce.Do(func() { close(in.done) })
}
