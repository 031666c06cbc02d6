package fingerprint

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestFileStable(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "a.mkv", bytes.Repeat([]byte("abc"), 10000))

	h1, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}
	h2, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}

	if h1 != h2 {
		t.Errorf("fingerprint not stable: %s != %s", h1, h2)
	}
	if len(h1) != 16 {
		t.Errorf("fingerprint length = %d, expected 16 hex chars", len(h1))
	}
}

func TestFileEmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "empty.mkv", nil)

	h, err := File(path)
	if err != nil {
		t.Fatalf("File failed on empty file: %v", err)
	}
	if h == "" {
		t.Error("expected a fingerprint for the empty file")
	}
}

func TestFileDifferentContent(t *testing.T) {
	tmpDir := t.TempDir()
	p1 := writeFile(t, tmpDir, "a.mkv", []byte("first file content"))
	p2 := writeFile(t, tmpDir, "b.mkv", []byte("other file content"))

	h1, _ := File(p1)
	h2, _ := File(p2)
	if h1 == h2 {
		t.Error("different content produced the same fingerprint")
	}
}

func TestFileSizeDisambiguates(t *testing.T) {
	// Same head, different size: the size seed must split them
	tmpDir := t.TempDir()
	p1 := writeFile(t, tmpDir, "a.mkv", bytes.Repeat([]byte{0x42}, windowSize))
	p2 := writeFile(t, tmpDir, "b.mkv", bytes.Repeat([]byte{0x42}, windowSize+1))

	h1, _ := File(p1)
	h2, _ := File(p2)
	if h1 == h2 {
		t.Error("files of different sizes produced the same fingerprint")
	}
}

func TestFileWindowCollision(t *testing.T) {
	// Same size, same first and last window, different middle: these
	// collide on purpose. The hash reads O(1) bytes regardless of size.
	tmpDir := t.TempDir()

	head := bytes.Repeat([]byte{0xAA}, windowSize)
	tail := bytes.Repeat([]byte{0xBB}, windowSize)

	mid1 := bytes.Repeat([]byte{0x01}, windowSize*2)
	mid2 := bytes.Repeat([]byte{0x02}, windowSize*2)

	p1 := writeFile(t, tmpDir, "a.mkv", append(append(append([]byte{}, head...), mid1...), tail...))
	p2 := writeFile(t, tmpDir, "b.mkv", append(append(append([]byte{}, head...), mid2...), tail...))

	h1, err := File(p1)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}
	h2, err := File(p2)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}

	if h1 != h2 {
		t.Errorf("expected window collision, got %s and %s", h1, h2)
	}
}

func TestFileTailChanges(t *testing.T) {
	// Files past the two-window threshold must still see tail edits
	tmpDir := t.TempDir()

	base := bytes.Repeat([]byte{0x10}, windowSize*3)
	modified := append([]byte{}, base...)
	modified[len(modified)-1] = 0x11

	p1 := writeFile(t, tmpDir, "a.mkv", base)
	p2 := writeFile(t, tmpDir, "b.mkv", modified)

	h1, _ := File(p1)
	h2, _ := File(p2)
	if h1 == h2 {
		t.Error("tail edit did not change the fingerprint")
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "nope.mkv")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
