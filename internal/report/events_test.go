package report

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewEventLogger(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	if logger.Path() == "" {
		t.Error("EventLogger path is empty")
	}

	if _, err := os.Stat(logger.Path()); os.IsNotExist(err) {
		t.Errorf("Event log file was not created at %s", logger.Path())
	}

	filename := filepath.Base(logger.Path())
	if len(filename) < len("events-20060102-150405.jsonl") {
		t.Errorf("Event log filename format incorrect: %s", filename)
	}
}

func TestEventLoggerLog(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	if err := logger.LogScan("/media/tv/Show.S01E01.mkv", "cafe000000000000", "tv", 4096); err != nil {
		t.Fatalf("LogScan failed: %v", err)
	}
	logger.Close()

	content, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("failed to decode JSONL: %v", err)
	}

	if decoded.Event != EventScan {
		t.Errorf("event = %q, expected scan", decoded.Event)
	}
	if decoded.Path != "/media/tv/Show.S01E01.mkv" {
		t.Errorf("path = %q", decoded.Path)
	}
	if decoded.Hash != "cafe000000000000" {
		t.Errorf("hash = %q", decoded.Hash)
	}
	if decoded.Extra["size_bytes"] != "4096" {
		t.Errorf("size_bytes = %q, expected 4096", decoded.Extra["size_bytes"])
	}
	if decoded.Timestamp.IsZero() {
		t.Error("timestamp was not populated")
	}
}

func TestEventLoggerMultipleEvents(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	logger.LogScan("/p1.mkv", "aaaa", "movie", 1)
	logger.LogExtract("/p1.mkv", "h264", 1080, nil)
	logger.LogBatch(5, 5)
	logger.LogIssue("/p1.mkv", "duplicate", "exact_duplicate", "high", "Duplicate of p2")
	logger.LogGap("Show", 1, []int{3, 5})
	logger.Close()

	file, err := os.Open(logger.Path())
	if err != nil {
		t.Fatalf("failed to open log file: %v", err)
	}
	defer file.Close()

	var count int
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", count+1, err)
		}
		count++
	}
	if count != 5 {
		t.Errorf("event count = %d, expected 5", count)
	}
}

func TestEventLoggerMinLevel(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelWarning)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	logger.LogBatch(5, 5)                           // debug, filtered
	logger.LogScan("/p1.mkv", "aaaa", "movie", 1)   // info, filtered
	logger.LogIssue("/p1.mkv", "low_res", "low_res", "high", "720p") // warning, kept
	logger.Close()

	file, err := os.Open(logger.Path())
	if err != nil {
		t.Fatalf("failed to open log file: %v", err)
	}
	defer file.Close()

	var count int
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		count++
	}
	if count != 1 {
		t.Errorf("event count = %d, expected 1 (levels below warning filtered)", count)
	}
}

func TestNullLogger(t *testing.T) {
	logger := NullLogger()

	if err := logger.LogScan("/p.mkv", "aaaa", "tv", 1); err != nil {
		t.Errorf("null logger returned an error: %v", err)
	}
	if logger.Path() != "" {
		t.Errorf("null logger has a path: %s", logger.Path())
	}
	if err := logger.Close(); err != nil {
		t.Errorf("null logger Close returned an error: %v", err)
	}
}
