package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventScan    EventType = "scan"
	EventExtract EventType = "extract"
	EventBatch   EventType = "batch"
	EventIssue   EventType = "issue"
	EventGap     EventType = "gap"
	EventError   EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in the pipeline
type Event struct {
	Timestamp   time.Time         `json:"ts"`
	Level       EventLevel        `json:"level"`
	Event       EventType         `json:"event"`
	Path        string            `json:"path,omitempty"`
	Hash        string            `json:"hash,omitempty"`
	MediaType   string            `json:"media_type,omitempty"`
	IssueType   string            `json:"issue_type,omitempty"`
	Rule        string            `json:"rule,omitempty"`
	Severity    string            `json:"severity,omitempty"`
	Description string            `json:"description,omitempty"`
	Error       string            `json:"error,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// NullLogger returns a logger that silently drops every event
func NullLogger() *EventLogger {
	return &EventLogger{}
}

// Path returns the path of the event log file, or "" for the null logger
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close closes the underlying file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogScan logs a processed file during a scan pass
func (l *EventLogger) LogScan(path, hash, mediaType string, sizeBytes int64) error {
	return l.Log(&Event{
		Level:     LevelInfo,
		Event:     EventScan,
		Path:      path,
		Hash:      hash,
		MediaType: mediaType,
		Extra: map[string]string{
			"size_bytes": fmt.Sprintf("%d", sizeBytes),
		},
	})
}

// LogExtract logs a metadata extraction outcome
func (l *EventLogger) LogExtract(path, codec string, height int, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level: level,
		Event: EventExtract,
		Path:  path,
		Error: errMsg,
		Extra: map[string]string{
			"codec":  codec,
			"height": fmt.Sprintf("%d", height),
		},
	})
}

// LogBatch logs a committed batch of records
func (l *EventLogger) LogBatch(size, total int) error {
	return l.Log(&Event{
		Level: LevelDebug,
		Event: EventBatch,
		Extra: map[string]string{
			"size":  fmt.Sprintf("%d", size),
			"total": fmt.Sprintf("%d", total),
		},
	})
}

// LogIssue logs an issue raised by an analysis pass
func (l *EventLogger) LogIssue(path, issueType, rule, severity, description string) error {
	return l.Log(&Event{
		Level:       LevelWarning,
		Event:       EventIssue,
		Path:        path,
		IssueType:   issueType,
		Rule:        rule,
		Severity:    severity,
		Description: description,
	})
}

// LogGap logs a missing-episode gap for a series season
func (l *EventLogger) LogGap(series string, season int, missing []int) error {
	return l.Log(&Event{
		Level:       LevelWarning,
		Event:       EventGap,
		Description: fmt.Sprintf("%s season %d missing %d episode(s)", series, season, len(missing)),
		Extra: map[string]string{
			"season":  fmt.Sprintf("%d", season),
			"missing": fmt.Sprintf("%v", missing),
		},
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, path string, err error) error {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level: LevelError,
		Event: event,
		Path:  path,
		Error: errMsg,
	})
}
