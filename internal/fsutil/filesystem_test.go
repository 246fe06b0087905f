package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestMemoryFileSystem(t *testing.T) {
	m := NewMemoryFileSystem()

	if m.Exists("out/chart.html") {
		t.Fatal("empty filesystem reports a file")
	}

	w, err := m.Create("out/./chart.html")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Write([]byte("<html>")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := m.ReadFile("out/chart.html")
	if err != nil {
		t.Fatalf("ReadFile before Close: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("data visible before Close: %q", data)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !m.Exists("out/chart.html") {
		t.Error("file missing after Close")
	}
	data, err = m.ReadFile("out/chart.html")
	if err != nil || string(data) != "<html>" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}

	if _, err := w.Write([]byte("x")); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("Write after Close = %v, want fs.ErrClosed", err)
	}
	if _, err := m.ReadFile("missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile(missing) = %v, want fs.ErrNotExist", err)
	}
}

func TestOSFileSystem(t *testing.T) {
	var fsys FileSystem = OSFileSystem{}
	path := filepath.Join(t.TempDir(), "plot.png")

	w, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Write([]byte("png")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !fsys.Exists(path) {
		t.Error("Exists = false after Create")
	}
	data, err := fsys.ReadFile(path)
	if err != nil || string(data) != "png" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
	if fsys.Exists(filepath.Join(t.TempDir(), "nope")) {
		t.Error("Exists = true for a missing file")
	}
}
