package analyze

import (
	"context"
	"fmt"
	"sort"

	"github.com/franz/media-janitor/internal/util"
)

// SeriesGap reports the episodes missing from a series season. Gaps are
// computed on demand from the store and never persisted.
type SeriesGap struct {
	Series  string
	Season  int
	Missing []int
}

// seasonKey identifies a (series title, season) group
type seasonKey struct {
	title  string
	season int
}

// FindMissingEpisodes detects gaps in the contiguous episode range observed
// for each tv series season. Only tv-kind records carrying both a season
// and an episode number participate. Read-only: nothing is persisted.
func (a *Analyzer) FindMissingEpisodes(ctx context.Context) ([]SeriesGap, error) {
	records, err := a.store.TVRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to load tv records: %w", err)
	}

	seasons := make(map[seasonKey]map[int]bool)
	for _, r := range records {
		key := seasonKey{title: r.Title, season: r.Season}
		if seasons[key] == nil {
			seasons[key] = make(map[int]bool)
		}
		seasons[key][r.Episode] = true
	}

	var gaps []SeriesGap
	for key, episodes := range seasons {
		minEp, maxEp := -1, -1
		for ep := range episodes {
			if minEp == -1 || ep < minEp {
				minEp = ep
			}
			if ep > maxEp {
				maxEp = ep
			}
		}

		var missing []int
		for ep := minEp; ep <= maxEp; ep++ {
			if !episodes[ep] {
				missing = append(missing, ep)
			}
		}
		if len(missing) == 0 {
			continue
		}

		sort.Ints(missing)
		gaps = append(gaps, SeriesGap{
			Series:  key.title,
			Season:  key.season,
			Missing: missing,
		})
		a.logger.LogGap(key.title, key.season, missing)
	}

	// Map iteration order is random; sort for stable output
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Series != gaps[j].Series {
			return gaps[i].Series < gaps[j].Series
		}
		return gaps[i].Season < gaps[j].Season
	})

	util.InfoLog("Missing-episode check: %d seasons with gaps", len(gaps))
	return gaps, nil
}
