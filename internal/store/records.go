package store

import (
	"database/sql"
	"fmt"
)

const recordColumns = `
	id, file_path, file_name, COALESCE(file_size, 0), COALESCE(file_hash, ''),
	media_type, COALESCE(title, ''), COALESCE(year, 0),
	COALESCE(season, 0), COALESCE(episode, 0),
	COALESCE(width, 0), COALESCE(height, 0), COALESCE(codec, ''),
	COALESCE(bitrate, 0), COALESCE(duration_secs, 0),
	COALESCE(audio_codec, ''), COALESCE(audio_channels, 0), COALESCE(audio_language, ''),
	created_at, scanned_at`

func scanRecord(row interface{ Scan(...any) error }) (*MediaRecord, error) {
	r := &MediaRecord{}
	err := row.Scan(
		&r.ID, &r.FilePath, &r.FileName, &r.FileSize, &r.FileHash,
		&r.MediaType, &r.Title, &r.Year,
		&r.Season, &r.Episode,
		&r.Width, &r.Height, &r.Codec,
		&r.Bitrate, &r.DurationSecs,
		&r.AudioCodec, &r.AudioChannels, &r.AudioLanguage,
		&r.CreatedAt, &r.ScannedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

const upsertRecordSQL = `
	INSERT INTO media_files (
		file_path, file_name, file_size, file_hash, media_type,
		title, year, season, episode,
		width, height, codec, bitrate, duration_secs,
		audio_codec, audio_channels, audio_language, scanned_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(file_path) DO UPDATE SET
		file_name = excluded.file_name,
		file_size = excluded.file_size,
		file_hash = excluded.file_hash,
		media_type = excluded.media_type,
		title = excluded.title,
		year = excluded.year,
		season = excluded.season,
		episode = excluded.episode,
		width = excluded.width,
		height = excluded.height,
		codec = excluded.codec,
		bitrate = excluded.bitrate,
		duration_secs = excluded.duration_secs,
		audio_codec = excluded.audio_codec,
		audio_channels = excluded.audio_channels,
		audio_language = excluded.audio_language,
		scanned_at = CURRENT_TIMESTAMP`

// UpsertRecord inserts a record or, if the path is already known, overwrites
// every field in place. file_path is the sole identity key.
func (s *Store) UpsertRecord(r *MediaRecord) error {
	_, err := s.db.Exec(upsertRecordSQL,
		r.FilePath, r.FileName, r.FileSize, r.FileHash, r.MediaType,
		r.Title, r.Year, r.Season, r.Episode,
		r.Width, r.Height, r.Codec, r.Bitrate, r.DurationSecs,
		r.AudioCodec, r.AudioChannels, r.AudioLanguage,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}

	return s.fillRecordID(r)
}

// UpsertRecordBatch commits a batch of records as a single transaction.
// Either every row of the batch lands or none do.
func (s *Store) UpsertRecordBatch(records []*MediaRecord) error {
	if len(records) == 0 {
		return nil
	}

	return s.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(upsertRecordSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, r := range records {
			_, err := stmt.Exec(
				r.FilePath, r.FileName, r.FileSize, r.FileHash, r.MediaType,
				r.Title, r.Year, r.Season, r.Episode,
				r.Width, r.Height, r.Codec, r.Bitrate, r.DurationSecs,
				r.AudioCodec, r.AudioChannels, r.AudioLanguage,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert %s: %w", r.FilePath, err)
			}
			if err := fillRecordIDTx(tx, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// fillRecordID resolves the row id by path. LastInsertId is not reliable
// here: after an ON CONFLICT update it still reports the previous insert.
func (s *Store) fillRecordID(r *MediaRecord) error {
	if r.ID != 0 {
		return nil
	}
	if err := s.db.QueryRow("SELECT id FROM media_files WHERE file_path = ?", r.FilePath).Scan(&r.ID); err != nil {
		return fmt.Errorf("failed to get record ID: %w", err)
	}
	return nil
}

func fillRecordIDTx(tx *sql.Tx, r *MediaRecord) error {
	if r.ID != 0 {
		return nil
	}
	if err := tx.QueryRow("SELECT id FROM media_files WHERE file_path = ?", r.FilePath).Scan(&r.ID); err != nil {
		return fmt.Errorf("failed to get record ID: %w", err)
	}
	return nil
}

// GetRecordByPath retrieves a record by its file path
func (s *Store) GetRecordByPath(path string) (*MediaRecord, error) {
	row := s.db.QueryRow("SELECT"+recordColumns+" FROM media_files WHERE file_path = ?", path)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return r, nil
}

// AllRecords retrieves every record ordered by id
func (s *Store) AllRecords() ([]*MediaRecord, error) {
	return s.queryRecords("SELECT" + recordColumns + " FROM media_files ORDER BY id")
}

// TVRecords retrieves tv-kind records that carry both a season and an
// episode number (the input set for missing-episode detection)
func (s *Store) TVRecords() ([]*MediaRecord, error) {
	return s.queryRecords(
		"SELECT"+recordColumns+` FROM media_files
		 WHERE media_type = ? AND season > 0 AND episode > 0
		 ORDER BY id`, MediaTypeTV)
}

func (s *Store) queryRecords(query string, args ...any) ([]*MediaRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*MediaRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// CountRecords returns the total number of records
func (s *Store) CountRecords() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM media_files").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// CountRecordsByType returns the number of records of a given media type
func (s *Store) CountRecordsByType(mediaType string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM media_files WHERE media_type = ?", mediaType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// TotalBytes returns the summed file size of all records
func (s *Store) TotalBytes() (int64, error) {
	var total int64
	err := s.db.QueryRow("SELECT COALESCE(SUM(file_size), 0) FROM media_files").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum file sizes: %w", err)
	}
	return total, nil
}
