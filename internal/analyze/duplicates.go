package analyze

import (
	"context"
	"fmt"
	"sort"

	"github.com/franz/media-janitor/internal/store"
	"github.com/franz/media-janitor/internal/util"
	"github.com/hbollon/go-edlib"
)

// FindDuplicates runs the exact and (when enabled) near-duplicate passes
// and persists the resulting issues before returning
func (a *Analyzer) FindDuplicates(ctx context.Context) ([]Finding, error) {
	records, err := a.store.AllRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	findings, paired := a.exactDuplicates(records)

	if a.cfg.UseFilenameSimilarity {
		near, err := a.nearDuplicates(ctx, records, paired)
		if err != nil {
			return nil, err
		}
		findings = append(findings, near...)
	}

	if err := a.persist(findings); err != nil {
		return nil, fmt.Errorf("failed to persist duplicate issues: %w", err)
	}

	util.InfoLog("Duplicate detection: %d issues", len(findings))
	return findings, nil
}

// pairKey identifies an unordered record pair
type pairKey struct {
	lo, hi int64
}

func makePair(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// exactDuplicates groups records by content fingerprint. Records without a
// fingerprint never group. Within each group the best copy is canonical and
// every other member gets a high-severity issue referencing it.
func (a *Analyzer) exactDuplicates(records []*store.MediaRecord) ([]Finding, map[pairKey]bool) {
	groups := make(map[string][]*store.MediaRecord)
	for _, r := range records {
		if r.FileHash == "" {
			continue
		}
		groups[r.FileHash] = append(groups[r.FileHash], r)
	}

	var findings []Finding
	paired := make(map[pairKey]bool)

	for _, members := range groups {
		if len(members) < 2 {
			continue
		}

		best := rankDuplicates(members)

		for _, dup := range members {
			if dup.ID == best.ID {
				continue
			}
			paired[makePair(dup.ID, best.ID)] = true
			findings = append(findings, Finding{
				File: dup,
				Issue: &store.Issue{
					MediaFileID:   dup.ID,
					Type:          store.IssueDuplicate,
					Rule:          store.RuleExactDuplicate,
					Severity:      store.SeverityHigh,
					Description:   fmt.Sprintf("Duplicate of %s", best.FileName),
					DuplicateOfID: best.ID,
				},
			})
		}
	}

	return findings, paired
}

// rankDuplicates returns the canonical member of a fingerprint group:
// highest resolution first, then highest bitrate, then smallest file
func rankDuplicates(members []*store.MediaRecord) *store.MediaRecord {
	ranked := make([]*store.MediaRecord, len(members))
	copy(ranked, members)

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Height != b.Height {
			return a.Height > b.Height
		}
		if a.Bitrate != b.Bitrate {
			return a.Bitrate > b.Bitrate
		}
		if a.FileSize != b.FileSize {
			return a.FileSize < b.FileSize
		}
		return a.ID < b.ID
	})

	return ranked[0]
}

// nearDuplicates compares every unordered pair of records not already
// paired by the exact pass. This is O(n²) in record count: above the
// configured limit the pass is skipped, which is the documented scaling
// behavior for very large catalogs.
func (a *Analyzer) nearDuplicates(ctx context.Context, records []*store.MediaRecord, paired map[pairKey]bool) ([]Finding, error) {
	if len(records) > a.cfg.NearDuplicateLimit {
		util.WarnLog("Skipping filename-similarity pass: %d records exceeds limit %d (pairwise comparison is quadratic)",
			len(records), a.cfg.NearDuplicateLimit)
		return nil, nil
	}

	var findings []Finding

	for i, r1 := range records {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		for _, r2 := range records[i+1:] {
			if paired[makePair(r1.ID, r2.ID)] {
				continue
			}

			similarity, err := edlib.StringsSimilarity(r1.FileName, r2.FileName, edlib.Levenshtein)
			if err != nil {
				// Pathological comparisons are not expected to raise;
				// treat one as a non-match rather than failing the pass
				util.DebugLog("Similarity comparison failed for %s / %s: %v",
					r1.FileName, r2.FileName, err)
				continue
			}

			if float64(similarity) < a.cfg.SimilarityThreshold {
				continue
			}
			paired[makePair(r1.ID, r2.ID)] = true

			better, worse := r1, r2
			if r2.Height > r1.Height || (r2.Height == r1.Height && r2.ID < r1.ID) {
				better, worse = r2, r1
			}

			findings = append(findings, Finding{
				File: worse,
				Issue: &store.Issue{
					MediaFileID:   worse.ID,
					Type:          store.IssueDuplicate,
					Rule:          store.RuleNearDuplicate,
					Severity:      store.SeverityMedium,
					Description:   fmt.Sprintf("Similar to %s (%.0f%% match)", better.FileName, float64(similarity)*100),
					DuplicateOfID: better.ID,
				},
			})
		}
	}

	return findings, nil
}
