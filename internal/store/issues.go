package store

import (
	"database/sql"
	"fmt"
)

const upsertIssueSQL = `
	INSERT INTO media_issues (
		media_file_id, issue_type, rule, severity, description, duplicate_of_id
	) VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(media_file_id, rule, IFNULL(duplicate_of_id, 0)) DO UPDATE SET
		severity = excluded.severity,
		description = excluded.description`

// nullableID maps the zero ID to SQL NULL
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// issueIDSQL resolves an issue row by its natural key. LastInsertId cannot
// be trusted after an ON CONFLICT update, so the id is always selected back.
const issueIDSQL = `
	SELECT id FROM media_issues
	WHERE media_file_id = ? AND rule = ? AND IFNULL(duplicate_of_id, 0) = ?`

// InsertIssue records an issue, refreshing the existing row when the same
// rule has already flagged the same file (resolved state is preserved)
func (s *Store) InsertIssue(i *Issue) error {
	_, err := s.db.Exec(upsertIssueSQL,
		i.MediaFileID, i.Type, i.Rule, i.Severity, i.Description, nullableID(i.DuplicateOfID))
	if err != nil {
		return fmt.Errorf("failed to insert issue: %w", err)
	}

	if i.ID == 0 {
		if err := s.db.QueryRow(issueIDSQL, i.MediaFileID, i.Rule, i.DuplicateOfID).Scan(&i.ID); err != nil {
			return fmt.Errorf("failed to get issue ID: %w", err)
		}
	}
	return nil
}

// InsertIssues commits a set of issues as one transaction
func (s *Store) InsertIssues(issues []*Issue) error {
	if len(issues) == 0 {
		return nil
	}

	return s.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(upsertIssueSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare issue upsert: %w", err)
		}
		defer stmt.Close()

		for _, i := range issues {
			_, err := stmt.Exec(
				i.MediaFileID, i.Type, i.Rule, i.Severity, i.Description, nullableID(i.DuplicateOfID))
			if err != nil {
				return fmt.Errorf("failed to insert issue for file %d: %w", i.MediaFileID, err)
			}
			if i.ID == 0 {
				if err := tx.QueryRow(issueIDSQL, i.MediaFileID, i.Rule, i.DuplicateOfID).Scan(&i.ID); err != nil {
					return fmt.Errorf("failed to get issue ID: %w", err)
				}
			}
		}
		return nil
	})
}

// CountOpenIssues returns the number of unresolved issues
func (s *Store) CountOpenIssues() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM media_issues WHERE resolved = 0").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count issues: %w", err)
	}
	return count, nil
}

// CountOpenIssuesByType returns the number of unresolved issues of a type
func (s *Store) CountOpenIssuesByType(issueType string) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM media_issues WHERE issue_type = ? AND resolved = 0",
		issueType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count issues: %w", err)
	}
	return count, nil
}

// ResolveIssue marks an issue resolved with an action note. The core never
// calls this during scans or analysis; it exists for external actors.
func (s *Store) ResolveIssue(id int64, action string) error {
	_, err := s.db.Exec(`
		UPDATE media_issues
		SET resolved = 1, resolved_at = CURRENT_TIMESTAMP, resolution_action = ?
		WHERE id = ?`, action, id)
	if err != nil {
		return fmt.Errorf("failed to resolve issue: %w", err)
	}
	return nil
}

// IssuesForFile retrieves all issues referencing a record
func (s *Store) IssuesForFile(fileID int64) ([]*Issue, error) {
	rows, err := s.db.Query(`
		SELECT id, media_file_id, issue_type, rule, severity,
		       COALESCE(description, ''), COALESCE(duplicate_of_id, 0),
		       resolved, COALESCE(resolution_action, ''), created_at
		FROM media_issues WHERE media_file_id = ?
		ORDER BY id`, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var issues []*Issue
	for rows.Next() {
		i := &Issue{}
		err := rows.Scan(
			&i.ID, &i.MediaFileID, &i.Type, &i.Rule, &i.Severity,
			&i.Description, &i.DuplicateOfID,
			&i.Resolved, &i.ResolutionAction, &i.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, i)
	}

	return issues, rows.Err()
}
