package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/media-janitor/internal/store"
)

// LibrarySummary represents the current state of the record store
type LibrarySummary struct {
	GeneratedAt time.Time

	// Record statistics
	TotalFiles   int
	TVFiles      int
	MovieFiles   int
	UnknownFiles int
	TotalBytes   int64

	// Open issue statistics
	OpenIssues int
	Duplicates int
	LowRes     int
	Quality    int
}

// GenerateLibrarySummary gathers library statistics from the record store
func GenerateLibrarySummary(db *store.Store) (*LibrarySummary, error) {
	s := &LibrarySummary{GeneratedAt: time.Now()}

	var err error
	if s.TotalFiles, err = db.CountRecords(); err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	if s.TVFiles, err = db.CountRecordsByType(store.MediaTypeTV); err != nil {
		return nil, err
	}
	if s.MovieFiles, err = db.CountRecordsByType(store.MediaTypeMovie); err != nil {
		return nil, err
	}
	if s.UnknownFiles, err = db.CountRecordsByType(store.MediaTypeUnknown); err != nil {
		return nil, err
	}
	if s.TotalBytes, err = db.TotalBytes(); err != nil {
		return nil, err
	}
	if s.OpenIssues, err = db.CountOpenIssues(); err != nil {
		return nil, err
	}
	if s.Duplicates, err = db.CountOpenIssuesByType(store.IssueDuplicate); err != nil {
		return nil, err
	}
	if s.LowRes, err = db.CountOpenIssuesByType(store.IssueLowRes); err != nil {
		return nil, err
	}
	if s.Quality, err = db.CountOpenIssuesByType(store.IssueQuality); err != nil {
		return nil, err
	}

	return s, nil
}

// Write renders the summary as aligned text
func (s *LibrarySummary) Write(w io.Writer) {
	fmt.Fprintf(w, "Library Statistics\n")
	fmt.Fprintf(w, "  %-16s %d\n", "Total files:", s.TotalFiles)
	fmt.Fprintf(w, "  %-16s %d\n", "TV episodes:", s.TVFiles)
	fmt.Fprintf(w, "  %-16s %d\n", "Movies:", s.MovieFiles)
	if s.UnknownFiles > 0 {
		fmt.Fprintf(w, "  %-16s %d\n", "Unclassified:", s.UnknownFiles)
	}
	fmt.Fprintf(w, "  %-16s %s\n", "Total size:", humanize.Bytes(uint64(s.TotalBytes)))
	fmt.Fprintf(w, "\nOpen Issues\n")
	fmt.Fprintf(w, "  %-16s %d\n", "Total:", s.OpenIssues)
	fmt.Fprintf(w, "  %-16s %d\n", "Duplicates:", s.Duplicates)
	fmt.Fprintf(w, "  %-16s %d\n", "Low resolution:", s.LowRes)
	fmt.Fprintf(w, "  %-16s %d\n", "Quality:", s.Quality)
}
