package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/franz/media-janitor/internal/fingerprint"
	"github.com/franz/media-janitor/internal/meta"
	"github.com/franz/media-janitor/internal/report"
	"github.com/franz/media-janitor/internal/store"
	"github.com/franz/media-janitor/internal/util"
	"github.com/schollz/progressbar/v3"
)

// VideoExtensions are the default supported video file extensions
var VideoExtensions = []string{
	".mkv",
	".mp4",
	".avi",
	".m4v",
}

// Scanner discovers video files in directory trees and upserts their
// metadata into the record store in fixed-size batches
type Scanner struct {
	store      *store.Store
	extractor  *meta.Extractor
	extensions map[string]bool
	ignore     []string
	workers    int
	batchSize  int
	logger     *report.EventLogger
	onBatch    func(size, total int)
}

// Config holds scanner configuration
type Config struct {
	Store     *store.Store
	Extractor *meta.Extractor

	// Extensions replaces the default allow-list when non-empty
	Extensions []string

	// IgnorePatterns are case-insensitive substrings; a file name
	// containing any of them is never a candidate
	IgnorePatterns []string

	Workers   int // concurrent extraction tasks, default 4
	BatchSize int // records per commit, default 5
	Logger    *report.EventLogger

	// OnBatch is an advisory callback invoked after each committed batch
	// with the batch size and the running total of committed records
	OnBatch func(size, total int)
}

// New creates a new Scanner
func New(cfg *Config) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = VideoExtensions
	}
	extMap := make(map[string]bool)
	for _, ext := range exts {
		extMap[strings.ToLower(ext)] = true
	}

	ignore := make([]string, 0, len(cfg.IgnorePatterns))
	for _, p := range cfg.IgnorePatterns {
		ignore = append(ignore, strings.ToLower(p))
	}

	extractor := cfg.Extractor
	if extractor == nil {
		extractor = meta.New(&meta.Config{})
	}

	return &Scanner{
		store:      cfg.Store,
		extractor:  extractor,
		extensions: extMap,
		ignore:     ignore,
		workers:    cfg.Workers,
		batchSize:  cfg.BatchSize,
		logger:     cfg.Logger,
		onBatch:    cfg.OnBatch,
	}
}

// Result represents a scan result
type Result struct {
	FilesFound       int
	FilesProcessed   int
	FilesFailed      int
	BatchesCommitted int
	Errors           []error
}

// job pairs a candidate path with the media kind of its root
type job struct {
	path string
	kind string
}

// DetectMediaType infers the media kind from a root directory name
func DetectMediaType(root string) string {
	if strings.Contains(strings.ToLower(filepath.Base(root)), "tv") {
		return store.MediaTypeTV
	}
	return store.MediaTypeMovie
}

// Scan walks the given roots and upserts a record for every candidate file.
// mediaType is "tv", "movie", "unknown" or "auto" (inferred per root).
// A missing root fails the whole invocation before any work starts.
func (s *Scanner) Scan(ctx context.Context, roots []string, mediaType string) (*Result, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no scan roots given", util.ErrInvalidConfig)
	}
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			return nil, fmt.Errorf("scan root %s: %w", root, err)
		}
	}

	result := &Result{Errors: make([]error, 0)}
	var errorsMu sync.Mutex
	addError := func(err error) {
		errorsMu.Lock()
		result.Errors = append(result.Errors, err)
		errorsMu.Unlock()
	}

	var filesFound atomic.Int64
	var filesProcessed atomic.Int64
	var filesFailed atomic.Int64

	jobs := make(chan job, 100)
	records := make(chan *store.MediaRecord, s.batchSize*4)

	// Progress bar on a ticker when stdout is a terminal
	progressCtx, cancelProgress := context.WithCancel(ctx)
	defer cancelProgress()

	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stdout.Fd()) && !util.IsQuiet() {
		barWidth := util.TerminalWidth(os.Stdout.Fd(), 80) - 50
		if barWidth < 10 {
			barWidth = 10
		} else if barWidth > 40 {
			barWidth = 40
		}
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Scanning"),
			progressbar.OptionSetWidth(barWidth),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				found := filesFound.Load()
				processed := filesProcessed.Load()
				failed := filesFailed.Load()

				if bar != nil && found > 0 {
					bar.Describe(fmt.Sprintf("Scanning | %d found | %d failed", found, failed))
					bar.Set64(processed)
				} else if found > 0 {
					util.InfoLog("Progress: found %d media files, processed %d (failed: %d)",
						found, processed, failed)
				}
			}
		}
	}()

	// Collector: the single shared-mutation point. Batches are committed
	// serially, one transaction per batch, so an interruption between
	// batches leaves every committed batch durable.
	var collectorWg sync.WaitGroup
	var commitErr error
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		batch := make([]*store.MediaRecord, 0, s.batchSize)
		total := 0

		flush := func() {
			if len(batch) == 0 || commitErr != nil {
				return
			}
			size := len(batch)
			err := util.Retry(nil, func() error {
				return s.store.UpsertRecordBatch(batch)
			}, "commit batch")
			if err != nil {
				commitErr = fmt.Errorf("batch commit failed: %w", err)
				addError(commitErr)
				return
			}
			total += size
			result.BatchesCommitted++
			batch = batch[:0]
			s.logger.LogBatch(size, total)
			if s.onBatch != nil {
				s.onBatch(size, total)
			}
			util.DebugLog("Committed batch of %d records (total: %d)", size, total)
		}

		for record := range records {
			// A failed commit or a cancelled scan stops accumulating but
			// keeps draining so the workers never block on a full channel
			if commitErr != nil || ctx.Err() != nil {
				continue
			}
			batch = append(batch, record)
			if len(batch) >= s.batchSize {
				flush()
			}
		}
		// On interruption only full batches are durable; the partial
		// remainder is dropped and picked up by the next scan
		if ctx.Err() == nil {
			flush()
		}
	}()

	// Worker pool: extraction tasks are independent and share no state
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				record, err := s.processFile(ctx, j.path, j.kind)
				filesProcessed.Add(1)

				if err != nil {
					filesFailed.Add(1)
					util.ErrorLog("Failed to process %s: %v", j.path, err)
					s.logger.LogError(report.EventScan, j.path, err)
					addError(err)
					continue
				}

				records <- record
			}
		}()
	}

	// Walk every root, feeding candidates to the pool
	var walkErr error
	for _, root := range roots {
		kind := mediaType
		if kind == "" || kind == "auto" {
			kind = DetectMediaType(root)
		}
		util.InfoLog("Scanning %s (%s)", root, kind)

		walkErr = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				util.WarnLog("Error accessing path %s: %v", path, err)
				if os.IsPermission(err) {
					addError(fmt.Errorf("%w: %s", util.ErrPermission, path))
				} else {
					addError(fmt.Errorf("access error: %s: %w", path, err))
				}
				return nil // Continue walking
			}

			if d.IsDir() {
				return nil
			}

			if s.isCandidate(d.Name()) {
				filesFound.Add(1)
				select {
				case jobs <- job{path: path, kind: kind}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			return nil
		})
		if walkErr != nil {
			break
		}
	}

	close(jobs)
	wg.Wait()
	close(records)
	collectorWg.Wait()
	cancelProgress()

	if bar != nil {
		bar.Finish()
	}

	result.FilesFound = int(filesFound.Load())
	result.FilesProcessed = int(filesProcessed.Load())
	result.FilesFailed = int(filesFailed.Load())

	if commitErr != nil {
		return result, commitErr
	}
	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		return result, fmt.Errorf("walk error: %w", walkErr)
	}

	util.SuccessLog("Scan complete: %d files found, %d processed, %d failed, %d batches",
		result.FilesFound, result.FilesProcessed, result.FilesFailed, result.BatchesCommitted)

	return result, nil
}

// processFile fingerprints and probes a single candidate.
// A probe that finds no video track is soft: the record is kept without
// track attributes. Unreadable files are hard failures and are excluded
// from the batch.
func (s *Scanner) processFile(ctx context.Context, path, kind string) (*store.MediaRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	hash, err := fingerprint.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint file: %w", err)
	}

	name := filepath.Base(path)
	identity := meta.ParseFilename(name)

	record := &store.MediaRecord{
		FilePath:  path,
		FileName:  name,
		FileSize:  info.Size(),
		FileHash:  hash,
		MediaType: kind,
		Title:     identity.Title,
		Year:      identity.Year,
		Season:    identity.Season,
		Episode:   identity.Episode,
	}

	track, err := s.extractor.Extract(ctx, path)
	switch {
	case errors.Is(err, meta.ErrNoVideoTrack):
		util.WarnLog("No video track in %s", path)
		s.logger.LogExtract(path, "", 0, err)
	case err != nil:
		util.WarnLog("Probe failed for %s: %v", path, err)
		s.logger.LogExtract(path, "", 0, err)
	default:
		record.Width = track.Width
		record.Height = track.Height
		record.Codec = track.Codec
		record.Bitrate = track.Bitrate
		record.DurationSecs = track.DurationSecs
		record.AudioCodec = track.AudioCodec
		record.AudioChannels = track.AudioChannels
		record.AudioLanguage = track.AudioLanguage
		s.logger.LogExtract(path, track.Codec, track.Height, nil)
	}

	s.logger.LogScan(path, hash, kind, info.Size())
	util.DebugLog("Processed: %s (%dx%d %s)", path, record.Width, record.Height, record.Codec)

	return record, nil
}

// isCandidate checks the extension allow-list and the ignore substrings
func (s *Scanner) isCandidate(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if !s.extensions[ext] {
		return false
	}

	lower := strings.ToLower(name)
	for _, pattern := range s.ignore {
		if strings.Contains(lower, pattern) {
			return false
		}
	}

	return true
}
