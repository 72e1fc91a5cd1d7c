package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskStoreSave(t *testing.T) {
	root := t.TempDir()
	d, err := NewDiskStore(root, "/assets/")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	obj, err := d.Save(context.Background(), []byte("payload"), "pic.png", "image/png", nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if obj.URL != "/assets/pic.png" {
		t.Errorf("url = %q", obj.URL)
	}
	data, err := os.ReadFile(obj.Path)
	if err != nil || string(data) != "payload" {
		t.Errorf("read back: %q, %v", data, err)
	}
}

func TestDiskStoreSanitizesFilename(t *testing.T) {
	root := t.TempDir()
	d, err := NewDiskStore(root, "/assets")
	if err != nil {
		t.Fatal(err)
	}

	obj, err := d.Save(context.Background(), []byte("x"), "../../etc/passwd", "", nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Dir(obj.Path) != root {
		t.Errorf("path escaped root: %q", obj.Path)
	}
}

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), make([]byte, 100), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b"), make([]byte, 50), 0644); err != nil {
		t.Fatal(err)
	}

	n, err := DiskUsageBytes(dir, filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("DiskUsageBytes: %v", err)
	}
	if n != 150 {
		t.Errorf("total = %d, want 150", n)
	}
}
