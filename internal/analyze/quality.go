package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/franz/media-janitor/internal/store"
	"github.com/franz/media-janitor/internal/util"
)

// FindLowResolution flags every record whose video height is known and
// below the configured minimum. Issues are persisted before returning.
func (a *Analyzer) FindLowResolution(ctx context.Context) ([]Finding, error) {
	records, err := a.store.AllRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	var findings []Finding
	for _, r := range records {
		if r.Height <= 0 || r.Height >= a.cfg.MinResolution {
			continue
		}
		findings = append(findings, Finding{
			File: r,
			Issue: &store.Issue{
				MediaFileID: r.ID,
				Type:        store.IssueLowRes,
				Rule:        store.RuleLowRes,
				Severity:    store.SeverityHigh,
				Description: fmt.Sprintf("Resolution %dp is below minimum %dp", r.Height, a.cfg.MinResolution),
			},
		})
	}

	if err := a.persist(findings); err != nil {
		return nil, fmt.Errorf("failed to persist low-resolution issues: %w", err)
	}

	util.InfoLog("Low-resolution check: %d issues", len(findings))
	return findings, nil
}

// FindQualityIssues flags legacy codecs and under-bitrate 1080p encodes.
// The two rules are independent: one record can collect both issues.
func (a *Analyzer) FindQualityIssues(ctx context.Context) ([]Finding, error) {
	records, err := a.store.AllRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	minBitrate := a.cfg.MinBitrate1080p * 1000 // kbps -> bps

	var findings []Finding
	for _, r := range records {
		if codec := strings.ToLower(r.Codec); codec != "" {
			for _, legacy := range a.cfg.LegacyCodecs {
				if strings.Contains(codec, legacy) {
					findings = append(findings, Finding{
						File: r,
						Issue: &store.Issue{
							MediaFileID: r.ID,
							Type:        store.IssueQuality,
							Rule:        store.RuleLegacyCodec,
							Severity:    store.SeverityMedium,
							Description: fmt.Sprintf("Old codec: %s", r.Codec),
						},
					})
					break
				}
			}
		}

		if r.Height == 1080 && r.Bitrate > 0 && r.Bitrate < minBitrate {
			findings = append(findings, Finding{
				File: r,
				Issue: &store.Issue{
					MediaFileID: r.ID,
					Type:        store.IssueQuality,
					Rule:        store.RuleLowBitrate,
					Severity:    store.SeverityMedium,
					Description: fmt.Sprintf("Low bitrate: %d kbps", r.Bitrate/1000),
				},
			})
		}
	}

	if err := a.persist(findings); err != nil {
		return nil, fmt.Errorf("failed to persist quality issues: %w", err)
	}

	util.InfoLog("Quality check: %d issues", len(findings))
	return findings, nil
}
