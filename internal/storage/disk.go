// Package storage provides the disk-backed binary store and disk usage
// helpers for storage paths.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore implements BinaryStore on a local directory. Filenames are
// sanitized to their base name; the caller's asset id keeps them unique.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore returns a DiskStore rooted at root. baseURL prefixes the
// returned object URLs (e.g. "/assets").
func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory: %w", err)
	}
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes data under the sanitized filename and returns where it landed.
// mimeType and meta are accepted for interface compatibility with remote
// stores; the disk store has nowhere to record them, the catalog does.
func (d *DiskStore) Save(ctx context.Context, data []byte, filename, mimeType string, meta map[string]string) (SavedObject, error) {
	if err := ctx.Err(); err != nil {
		return SavedObject{}, err
	}
	name := filepath.Base(filepath.Clean(filename))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return SavedObject{}, fmt.Errorf("invalid filename %q", filename)
	}
	path := filepath.Join(d.root, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return SavedObject{}, fmt.Errorf("failed to write asset: %w", err)
	}
	return SavedObject{URL: d.baseURL + "/" + name, Path: path}, nil
}

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing or inaccessible paths are skipped (contribute 0); errors during walk are returned.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if info.IsDir() {
			n, err := dirSize(p)
			if err != nil {
				return 0, err
			}
			total += n
		} else {
			total += info.Size()
		}
	}
	return total, nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info != nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
