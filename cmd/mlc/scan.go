package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/franz/media-janitor/internal/meta"
	"github.com/franz/media-janitor/internal/report"
	"github.com/franz/media-janitor/internal/scan"
	"github.com/franz/media-janitor/internal/store"
	"github.com/franz/media-janitor/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Scan directories for media files",
	Long: `Scan directory trees for video files and record their metadata.

Every candidate file is fingerprinted and probed concurrently; results are
committed to the record store in fixed-size batches, so an interrupted scan
keeps everything committed so far. Re-scanning updates records in place:
there is never more than one record per file path.

With no paths given, the configured paths.tv and paths.movies are scanned.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().String("type", "auto", "media type of the scanned trees (tv|movie|auto)")
	scanCmd.Flags().Int("workers", 0, "number of concurrent extraction workers")
	scanCmd.Flags().Int("batch-size", 0, "records committed per batch")
	viper.BindPFlag("scanner.workers", scanCmd.Flags().Lookup("workers"))
	viper.BindPFlag("scanner.batch_size", scanCmd.Flags().Lookup("batch-size"))

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	// A scan may be interrupted between batches without losing
	// already-committed work
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	mediaType, _ := cmd.Flags().GetString("type")
	switch mediaType {
	case "auto", store.MediaTypeTV, store.MediaTypeMovie, store.MediaTypeUnknown:
	default:
		return fmt.Errorf("invalid --type %q (want tv, movie or auto)", mediaType)
	}

	roots := args
	if len(roots) == 0 {
		for _, key := range []string{"paths.tv", "paths.movies"} {
			if p := viper.GetString(key); p != "" {
				roots = append(roots, p)
			}
		}
		if len(roots) == 0 {
			return fmt.Errorf("no paths given and no paths.tv/paths.movies configured")
		}
		util.InfoLog("No paths specified, using configured paths: %v", roots)
	}

	dbPath := viper.GetString("db")
	util.InfoLog("Opening database: %s", dbPath)

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	if !meta.CheckFFprobeAvailable() {
		util.WarnLog("ffprobe not found in PATH - records will lack track metadata")
		util.WarnLog("Install ffmpeg for best results: https://ffmpeg.org/")
	}

	scanner := scan.New(&scan.Config{
		Store: db,
		Extractor: meta.New(&meta.Config{
			ProbeTimeout: viper.GetDuration("scanner.probe_timeout"),
		}),
		Extensions:     viper.GetStringSlice("scanner.extensions"),
		IgnorePatterns: viper.GetStringSlice("scanner.ignore_patterns"),
		Workers:        GetConfigInt("scanner.workers", 4),
		BatchSize:      GetConfigInt("scanner.batch_size", 5),
		Logger:         logger,
	})

	startTime := time.Now()

	result, err := scanner.Scan(ctx, roots, mediaType)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	util.SuccessLog("Scan complete in %v", time.Since(startTime).Round(time.Millisecond))
	util.InfoLog("  Files found: %d", result.FilesFound)
	util.InfoLog("  Files processed: %d", result.FilesProcessed)
	util.InfoLog("  Batches committed: %d", result.BatchesCommitted)
	if result.FilesFailed > 0 {
		util.WarnLog("  Files failed: %d", result.FilesFailed)
	}

	total, _ := db.CountRecords()
	util.InfoLog("Records in store: %d", total)
	util.InfoLog("")
	util.InfoLog("Next step: mlc analyze --all")

	return nil
}

// newEventLogger creates the JSONL audit logger under artifacts/
func newEventLogger() *report.EventLogger {
	logLevel := report.LevelInfo
	if viper.GetBool("quiet") {
		logLevel = report.LevelWarning
	} else if viper.GetBool("verbose") {
		logLevel = report.LevelDebug
	}

	logger, err := report.NewEventLogger("artifacts", logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}

	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}
	return logger
}
