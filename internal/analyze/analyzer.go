// Package analyze inspects the record store for duplicates, sub-standard
// encodes and missing episodes, and persists the resulting issues.
package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/franz/media-janitor/internal/report"
	"github.com/franz/media-janitor/internal/store"
	"github.com/franz/media-janitor/internal/util"
)

// Analyzer evaluates analysis checks against the record store
type Analyzer struct {
	store  *store.Store
	cfg    Config
	logger *report.EventLogger
}

// Config holds analyzer configuration
type Config struct {
	// MinResolution is the minimum acceptable video height, default 1080
	MinResolution int

	// MinBitrate1080p is the bitrate floor in kbps for 1080p-height
	// records, default 2000
	MinBitrate1080p int64

	// LegacyCodecs is the codec blocklist, matched as lowercase substrings
	LegacyCodecs []string

	// SimilarityThreshold for the near-duplicate pass, default 0.85
	SimilarityThreshold float64

	// UseFilenameSimilarity gates the O(n²) near-duplicate pass
	UseFilenameSimilarity bool

	// CheckMissingEpisodes gates gap detection in AnalyzeAll
	CheckMissingEpisodes bool

	// NearDuplicateLimit skips the pairwise pass above this record count;
	// default 5000. The pass is quadratic and this is its documented
	// scaling limit, not an optimization target.
	NearDuplicateLimit int
}

// New creates a new Analyzer
func New(db *store.Store, cfg Config, logger *report.EventLogger) *Analyzer {
	if cfg.MinResolution <= 0 {
		cfg.MinResolution = 1080
	}
	if cfg.MinBitrate1080p <= 0 {
		cfg.MinBitrate1080p = 2000
	}
	if len(cfg.LegacyCodecs) == 0 {
		cfg.LegacyCodecs = []string{"xvid", "divx", "mpeg2"}
	}
	// Codecs are compared lowercased; configured entries may not be
	for i, c := range cfg.LegacyCodecs {
		cfg.LegacyCodecs[i] = strings.ToLower(c)
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.85
	}
	if cfg.NearDuplicateLimit <= 0 {
		cfg.NearDuplicateLimit = 5000
	}

	return &Analyzer{store: db, cfg: cfg, logger: logger}
}

// Finding pairs a persisted issue with the record it targets, so callers
// can render results without re-querying the store
type Finding struct {
	Issue *store.Issue
	File  *store.MediaRecord
}

// Report merges the results of an analysis run, keyed by check
type Report struct {
	Duplicates      []Finding
	LowResolution   []Finding
	QualityIssues   []Finding
	MissingEpisodes []SeriesGap
}

// AnalyzeAll runs every check in fixed order: duplicates, low resolution,
// quality, then (if enabled) missing episodes. Each check persists its
// issues before the next runs, so a failure in a later check never
// invalidates issues already written.
func (a *Analyzer) AnalyzeAll(ctx context.Context) (*Report, error) {
	rep := &Report{}

	var err error
	if rep.Duplicates, err = a.FindDuplicates(ctx); err != nil {
		return rep, fmt.Errorf("duplicate detection failed: %w", err)
	}
	if rep.LowResolution, err = a.FindLowResolution(ctx); err != nil {
		return rep, fmt.Errorf("low-resolution check failed: %w", err)
	}
	if rep.QualityIssues, err = a.FindQualityIssues(ctx); err != nil {
		return rep, fmt.Errorf("quality check failed: %w", err)
	}

	if a.cfg.CheckMissingEpisodes {
		if rep.MissingEpisodes, err = a.FindMissingEpisodes(ctx); err != nil {
			return rep, fmt.Errorf("missing-episode check failed: %w", err)
		}
	}

	return rep, nil
}

// persist commits a check's findings as one transaction and logs them
func (a *Analyzer) persist(findings []Finding) error {
	if len(findings) == 0 {
		return nil
	}

	issues := make([]*store.Issue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, f.Issue)
	}

	if err := a.store.InsertIssues(issues); err != nil {
		return err
	}

	for _, f := range findings {
		a.logger.LogIssue(f.File.FilePath, f.Issue.Type, f.Issue.Rule,
			f.Issue.Severity, f.Issue.Description)
	}

	util.DebugLog("Persisted %d issues", len(issues))
	return nil
}
