package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/franz/media-janitor/internal/analyze"
	"github.com/franz/media-janitor/internal/store"
	"github.com/franz/media-janitor/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// issueDisplayLimit caps how many issues a section prints
const issueDisplayLimit = 20

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the media library for issues",
	Long: `Analyze the record store for duplicate copies, low-resolution files,
quality problems and missing episodes.

Checks run in a fixed order and each commits its issues before the next
starts. Re-running analysis refreshes existing issues instead of
duplicating them.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("duplicates", false, "check for duplicate files")
	analyzeCmd.Flags().Bool("low-res", false, "check for low resolution files")
	analyzeCmd.Flags().Bool("quality", false, "check for codec and bitrate problems")
	analyzeCmd.Flags().Bool("missing", false, "check for missing episodes")
	analyzeCmd.Flags().Bool("all", false, "run all checks")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	checkAll, _ := cmd.Flags().GetBool("all")
	checkDuplicates, _ := cmd.Flags().GetBool("duplicates")
	checkLowRes, _ := cmd.Flags().GetBool("low-res")
	checkQuality, _ := cmd.Flags().GetBool("quality")
	checkMissing, _ := cmd.Flags().GetBool("missing")

	if !checkAll && !checkDuplicates && !checkLowRes && !checkQuality && !checkMissing {
		checkAll = true
	}

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	analyzer := analyze.New(db, analyzerConfig(), logger)

	util.InfoLog("Running analysis...")

	rep := &analyze.Report{}
	if checkAll {
		rep, err = analyzer.AnalyzeAll(ctx)
		if err != nil {
			return err
		}
	} else {
		if checkDuplicates {
			if rep.Duplicates, err = analyzer.FindDuplicates(ctx); err != nil {
				return err
			}
		}
		if checkLowRes {
			if rep.LowResolution, err = analyzer.FindLowResolution(ctx); err != nil {
				return err
			}
		}
		if checkQuality {
			if rep.QualityIssues, err = analyzer.FindQualityIssues(ctx); err != nil {
				return err
			}
		}
		if checkMissing {
			if rep.MissingEpisodes, err = analyzer.FindMissingEpisodes(ctx); err != nil {
				return err
			}
		}
	}

	printFindings("DUPLICATES", rep.Duplicates)
	printFindings("LOW RESOLUTION", rep.LowResolution)
	printFindings("QUALITY ISSUES", rep.QualityIssues)
	printGaps(rep.MissingEpisodes)

	return nil
}

// analyzerConfig builds the analyzer configuration from viper
func analyzerConfig() analyze.Config {
	return analyze.Config{
		MinResolution:         viper.GetInt("quality.min_resolution"),
		MinBitrate1080p:       viper.GetInt64("quality.min_bitrate_1080p"),
		LegacyCodecs:          viper.GetStringSlice("quality.legacy_codecs"),
		SimilarityThreshold:   viper.GetFloat64("analyzer.similarity_threshold"),
		UseFilenameSimilarity: GetConfigBool("analyzer.use_filename_similarity", true),
		CheckMissingEpisodes:  GetConfigBool("analyzer.check_missing_episodes", true),
		NearDuplicateLimit:    viper.GetInt("analyzer.near_duplicate_limit"),
	}
}

func printFindings(heading string, findings []analyze.Finding) {
	if len(findings) == 0 {
		return
	}

	fmt.Printf("\n━━━ %s ━━━\n", heading)
	for i, f := range findings {
		if i >= issueDisplayLimit {
			fmt.Printf("  ... and %d more\n", len(findings)-issueDisplayLimit)
			break
		}
		fmt.Printf("  [%s] %s: %s\n", f.Issue.Severity, f.File.FileName, f.Issue.Description)
	}
}

func printGaps(gaps []analyze.SeriesGap) {
	if len(gaps) == 0 {
		return
	}

	fmt.Printf("\n━━━ MISSING EPISODES ━━━\n")
	for _, g := range gaps {
		fmt.Printf("  %s S%02d: Missing episodes %v\n", g.Series, g.Season, g.Missing)
	}
}
