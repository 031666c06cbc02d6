package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/franz/media-janitor/internal/store"
	"github.com/franz/media-janitor/internal/util"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func writeVideo(t *testing.T, dir, name string, size int) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestIsCandidate(t *testing.T) {
	s := New(&Config{
		IgnorePatterns: []string{"sample", ".partial"},
	})

	tests := []struct {
		name     string
		expected bool
	}{
		{"Show.S01E01.mkv", true},
		{"Movie.2019.mp4", true},
		{"Movie.2019.AVI", true}, // extension match is case-insensitive
		{"episode.m4v", true},
		{"cover.jpg", false},
		{"notes.txt", false},
		{"noextension", false},
		{"Movie.Sample.mkv", false},       // ignore pattern, case-insensitive
		{"Show.S01E01.mkv.partial", false},
	}

	for _, tt := range tests {
		if got := s.isCandidate(tt.name); got != tt.expected {
			t.Errorf("isCandidate(%q) = %v, expected %v", tt.name, got, tt.expected)
		}
	}
}

func TestIsCandidateCustomExtensions(t *testing.T) {
	s := New(&Config{Extensions: []string{".webm"}})

	if !s.isCandidate("clip.webm") {
		t.Error("custom extension .webm was not accepted")
	}
	if s.isCandidate("movie.mkv") {
		t.Error("default extension accepted despite custom allow-list")
	}
}

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		root     string
		expected string
	}{
		{"/media/tv", store.MediaTypeTV},
		{"/media/TV Shows", store.MediaTypeTV},
		{"/media/movies", store.MediaTypeMovie},
		{"/data/films", store.MediaTypeMovie},
	}

	for _, tt := range tests {
		if got := DetectMediaType(tt.root); got != tt.expected {
			t.Errorf("DetectMediaType(%q) = %q, expected %q", tt.root, got, tt.expected)
		}
	}
}

func TestScan(t *testing.T) {
	db := testStore(t)

	root := filepath.Join(t.TempDir(), "tv")
	nested := filepath.Join(root, "Show", "Season 01")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	writeVideo(t, nested, "Show.S01E01.1080p.mkv", 4096)
	writeVideo(t, nested, "Show.S01E02.1080p.mkv", 4096)
	writeVideo(t, root, "Show.S01E03.720p.mp4", 2048)
	writeVideo(t, root, "Show.Sample.mkv", 128) // ignored
	writeVideo(t, root, "notes.txt", 16)        // wrong extension

	s := New(&Config{
		Store:          db,
		IgnorePatterns: []string{"sample"},
		Workers:        2,
		BatchSize:      2,
	})

	result, err := s.Scan(context.Background(), []string{root}, "auto")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if result.FilesFound != 3 {
		t.Errorf("FilesFound = %d, expected 3", result.FilesFound)
	}
	if result.FilesProcessed != 3 {
		t.Errorf("FilesProcessed = %d, expected 3", result.FilesProcessed)
	}
	if result.FilesFailed != 0 {
		t.Errorf("FilesFailed = %d, expected 0", result.FilesFailed)
	}
	// 3 records at batch size 2: one full batch plus the remainder
	if result.BatchesCommitted != 2 {
		t.Errorf("BatchesCommitted = %d, expected 2", result.BatchesCommitted)
	}

	count, err := db.CountRecords()
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}
	if count != 3 {
		t.Errorf("record count = %d, expected 3", count)
	}

	// Root is named "tv": auto detection marks every record tv
	tvCount, _ := db.CountRecordsByType(store.MediaTypeTV)
	if tvCount != 3 {
		t.Errorf("tv record count = %d, expected 3", tvCount)
	}

	// Filename identity and fingerprint land on the record even when the
	// probe cannot read the fake container
	r, err := db.GetRecordByPath(filepath.Join(nested, "Show.S01E01.1080p.mkv"))
	if err != nil {
		t.Fatalf("GetRecordByPath failed: %v", err)
	}
	if r == nil {
		t.Fatal("scanned file has no record")
	}
	if r.Title != "Show" || r.Season != 1 || r.Episode != 1 {
		t.Errorf("identity = %q S%dE%d, expected Show S1E1", r.Title, r.Season, r.Episode)
	}
	if r.FileHash == "" {
		t.Error("record has no fingerprint")
	}
	if r.FileSize != 4096 {
		t.Errorf("FileSize = %d, expected 4096", r.FileSize)
	}
}

func TestScanIdempotent(t *testing.T) {
	db := testStore(t)

	root := filepath.Join(t.TempDir(), "movies")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	writeVideo(t, root, "Movie.One.2019.mkv", 1024)
	writeVideo(t, root, "Movie.Two.2020.mkv", 1024)

	s := New(&Config{Store: db})

	if _, err := s.Scan(context.Background(), []string{root}, "auto"); err != nil {
		t.Fatalf("first Scan failed: %v", err)
	}
	if _, err := s.Scan(context.Background(), []string{root}, "auto"); err != nil {
		t.Fatalf("second Scan failed: %v", err)
	}

	count, _ := db.CountRecords()
	if count != 2 {
		t.Errorf("record count after re-scan = %d, expected 2", count)
	}
}

func TestScanExplicitMediaType(t *testing.T) {
	db := testStore(t)

	root := filepath.Join(t.TempDir(), "stuff")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	writeVideo(t, root, "Show.S01E01.mkv", 512)

	s := New(&Config{Store: db})
	if _, err := s.Scan(context.Background(), []string{root}, store.MediaTypeTV); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	tvCount, _ := db.CountRecordsByType(store.MediaTypeTV)
	if tvCount != 1 {
		t.Errorf("tv record count = %d, expected 1", tvCount)
	}
}

func TestScanInterruptedBetweenBatches(t *testing.T) {
	db := testStore(t)

	root := filepath.Join(t.TempDir(), "movies")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for i := 1; i <= 12; i++ {
		writeVideo(t, root, fmt.Sprintf("Movie.%02d.2019.mkv", i), 256)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel once the second batch has committed: records already durable
	// must stay, records not yet committed must not land
	s := New(&Config{
		Store:     db,
		BatchSize: 5,
		OnBatch: func(size, total int) {
			if total >= 10 {
				cancel()
			}
		},
	})

	result, err := s.Scan(ctx, []string{root}, store.MediaTypeMovie)
	if err != nil {
		t.Fatalf("interrupted Scan failed: %v", err)
	}

	if result.BatchesCommitted != 2 {
		t.Errorf("BatchesCommitted = %d, expected 2", result.BatchesCommitted)
	}

	count, err := db.CountRecords()
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}
	if count != 10 {
		t.Errorf("record count = %d, expected exactly the 10 committed records", count)
	}
}

func TestScanMissingRoot(t *testing.T) {
	db := testStore(t)
	s := New(&Config{Store: db})

	_, err := s.Scan(context.Background(), []string{"/does/not/exist"}, "auto")
	if err == nil {
		t.Fatal("expected an error for a missing root")
	}

	count, _ := db.CountRecords()
	if count != 0 {
		t.Errorf("record count = %d, expected 0 (no work before validation)", count)
	}
}

func TestScanNoRoots(t *testing.T) {
	db := testStore(t)
	s := New(&Config{Store: db})

	_, err := s.Scan(context.Background(), nil, "auto")
	if !errors.Is(err, util.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
