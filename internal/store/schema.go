package store

// Schema v1 - Initial database schema
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Media files discovered by scans (one row per path)
CREATE TABLE IF NOT EXISTS media_files (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  file_path TEXT UNIQUE NOT NULL,
  file_name TEXT NOT NULL,
  file_size INTEGER,
  file_hash TEXT,
  media_type TEXT NOT NULL DEFAULT 'unknown',
  title TEXT,
  year INTEGER,
  season INTEGER,
  episode INTEGER,
  width INTEGER,
  height INTEGER,
  codec TEXT,
  bitrate INTEGER,
  duration_secs REAL,
  audio_codec TEXT,
  audio_channels INTEGER,
  audio_language TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  scanned_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_media_files_path ON media_files(file_path);
CREATE INDEX IF NOT EXISTS idx_media_files_hash ON media_files(file_hash);
CREATE INDEX IF NOT EXISTS idx_media_files_type ON media_files(media_type);
CREATE INDEX IF NOT EXISTS idx_media_files_series ON media_files(media_type, title, season);

-- Issues raised by analysis passes
CREATE TABLE IF NOT EXISTS media_issues (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  media_file_id INTEGER NOT NULL REFERENCES media_files(id) ON DELETE CASCADE,
  issue_type TEXT NOT NULL,
  rule TEXT NOT NULL,
  severity TEXT NOT NULL DEFAULT 'low',
  description TEXT,
  duplicate_of_id INTEGER REFERENCES media_files(id),
  resolved INTEGER NOT NULL DEFAULT 0,
  resolved_at DATETIME,
  resolution_action TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Natural key: re-running a check refreshes an issue instead of duplicating it
CREATE UNIQUE INDEX IF NOT EXISTS idx_issues_natural
  ON media_issues(media_file_id, rule, IFNULL(duplicate_of_id, 0));
CREATE INDEX IF NOT EXISTS idx_issues_type ON media_issues(issue_type, resolved);
CREATE INDEX IF NOT EXISTS idx_issues_file ON media_issues(media_file_id);
`
