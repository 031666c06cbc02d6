package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	currentSchemaVersion = 1
)

// Store represents the application's persistent state
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path
func Open(path string) (*Store, error) {
	// The driver only honors pragmas passed through _pragma; WAL keeps
	// committed batches durable across interrupts
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate applies database migrations
func (s *Store) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if err := s.setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	// Future migrations would go here:
	// if version < 2 { ... }

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Store) getSchemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		return 0, nil
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func (s *Store) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// Transaction executes a function within a transaction
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Media types
const (
	MediaTypeTV      = "tv"
	MediaTypeMovie   = "movie"
	MediaTypeUnknown = "unknown"
)

// Issue types
const (
	IssueDuplicate = "duplicate"
	IssueLowRes    = "low_res"
	IssueQuality   = "quality"
)

// Issue severities
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Issue rules (natural-key discriminator; one rule never raises two issues
// for the same file/duplicate-of pair)
const (
	RuleExactDuplicate = "exact_duplicate"
	RuleNearDuplicate  = "near_duplicate"
	RuleLowRes         = "low_res"
	RuleLegacyCodec    = "legacy_codec"
	RuleLowBitrate     = "low_bitrate"
)

// MediaRecord represents one scanned media file
// Zero values for Year/Season/Episode and the track attributes mean "absent"
type MediaRecord struct {
	ID            int64
	FilePath      string
	FileName      string
	FileSize      int64
	FileHash      string
	MediaType     string
	Title         string
	Year          int
	Season        int
	Episode       int
	Width         int
	Height        int
	Codec         string
	Bitrate       int64
	DurationSecs  float64
	AudioCodec    string
	AudioChannels int
	AudioLanguage string
	CreatedAt     time.Time
	ScannedAt     time.Time
}

// Issue represents a problem detected by an analysis pass
type Issue struct {
	ID               int64
	MediaFileID      int64
	Type             string
	Rule             string
	Severity         string
	Description      string
	DuplicateOfID    int64 // 0 unless Type is IssueDuplicate
	Resolved         bool
	ResolutionAction string
	CreatedAt        time.Time
}
