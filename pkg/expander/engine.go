package expander

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Engine is the expansion driver: it seeds the queue from the scanner and
// drains it sequentially, dispatching every popped path to the extraction
// backend and feeding extraction outputs back onto the queue. Nested
// archives are handled by queue growth, not call-stack recursion, so the
// nesting depth of the input never affects stack usage.
type Engine struct {
	opts      *Options
	logger    *slog.Logger
	hooks     Hooks
	scanner   Scanner
	extractor Extractor
	queue     *Queue
	stats     *runStats
	state     RunState
}

// NewEngine creates and initializes a new Engine instance, validating
// options and filling in default dependencies.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("%w: Logger implementation (slog.Handler) cannot be nil", ErrConfigValidation)
	}
	if opts.Extractor == nil {
		return nil, fmt.Errorf("%w: Extractor implementation cannot be nil (see pkg/expander/backend)", ErrConfigValidation)
	}
	if opts.EventHooks == nil {
		opts.EventHooks = &NoOpHooks{}
	}
	if opts.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: maxDepth cannot be negative", ErrConfigValidation)
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	logger := slog.New(opts.Logger).With(slog.String("component", "engine"))

	if opts.RootPath == "" {
		return nil, fmt.Errorf("%w: root path cannot be empty", ErrConfigValidation)
	}
	absRoot, err := filepath.Abs(opts.RootPath)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot resolve absolute root path '%s': %w", ErrConfigValidation, opts.RootPath, err)
	}
	opts.RootPath = absRoot
	info, err := os.Stat(opts.RootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: root path '%s' does not exist", ErrConfigValidation, opts.RootPath)
		}
		return nil, fmt.Errorf("%w: cannot access root path '%s': %w", ErrConfigValidation, opts.RootPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %w: '%s'", ErrConfigValidation, ErrNotADirectory, opts.RootPath)
	}

	scanner := opts.Scanner
	if scanner == nil {
		scanner = NewScanner(opts.Logger)
		logger.Debug("Scanner not provided, using default filesystem scanner.")
	}

	return &Engine{
		opts:      &opts,
		logger:    logger,
		hooks:     opts.EventHooks,
		scanner:   scanner,
		extractor: opts.Extractor,
		queue:     NewQueue(),
		stats:     newRunStats(),
		state:     RunStateRunning,
	}, nil
}

// State reports the driver's current lifecycle state.
func (e *Engine) State() RunState { return e.state }

// Run performs the full expansion: scan, drain, report. The initial scan
// failing is fatal; everything after that is per-item and recovered
// locally. Cancellation is honored between iterations only; a single
// in-flight extraction runs to completion.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	startTime := time.Now()
	e.logger.Info("Starting expansion run",
		slog.String("root", e.opts.RootPath),
		slog.Bool("dryRun", e.opts.DryRun),
		slog.Int("maxDepth", e.opts.MaxDepth),
	)

	seeds, err := e.scanner.ListFiles(ctx, e.opts.RootPath)
	if err != nil {
		e.logger.Error("Initial directory scan failed", slog.String("error", err.Error()))
		report := e.stats.report(e.opts, startTime)
		e.fireRunComplete(report)
		return report, err
	}
	for _, path := range seeds {
		e.queue.PushBack(WorkItem{Path: path})
		e.fireDiscovered(path)
	}
	e.logger.Debug("Queue seeded from scan", slog.Int("count", e.queue.Len()))

	var finalErr error
	for {
		item, ok := e.queue.PopFront()
		if !ok {
			e.state = RunStateDone
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.logger.Info("Expansion run cancelled", slog.String("reason", ctxErr.Error()))
			e.state = RunStateDone
			finalErr = ctxErr
			break
		}
		e.processItem(ctx, item)
	}

	report := e.stats.report(e.opts, startTime)
	e.logger.Info("Expansion run finished",
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("processed", report.Summary.Processed),
		slog.Int("archivesExtracted", report.Summary.ArchivesExtracted),
		slog.Int("filesCreated", report.Summary.FilesCreated),
		slog.Int("vanished", report.Summary.VanishedCount),
		slog.Int("errors", report.Summary.ErrorCount),
	)
	e.fireRunComplete(report)
	return report, finalErr
}

// processItem runs one driver iteration for an already-popped item.
func (e *Engine) processItem(ctx context.Context, item WorkItem) {
	rel := e.relPath(item.Path)
	itemStart := time.Now()
	e.fireStatus(rel, StatusProcessing, "", 0)

	// Defensive re-check: the path may have been consumed as output of a
	// sibling archive whose target directory collided, or deleted
	// externally. A vanished item is a no-op, not an error.
	if _, err := os.Stat(item.Path); err != nil {
		e.logger.Debug("Queued path no longer exists, skipping", slog.String("path", rel))
		e.stats.addVanished(SkippedInfo{Path: rel, Reason: SkipReasonVanished})
		e.fireStatus(rel, StatusVanished, "path vanished before processing", time.Since(itemStart))
		return
	}

	if item.Depth >= e.opts.MaxDepth {
		diag := fmt.Sprintf("%v: depth %d at limit %d, not extracting", ErrDepthExceeded, item.Depth, e.opts.MaxDepth)
		e.logger.Warn("Nesting depth limit reached", slog.String("path", rel), slog.Int("depth", item.Depth))
		e.stats.addError(ErrorInfo{Path: rel, Error: diag})
		e.fireStatus(rel, StatusFailed, diag, time.Since(itemStart))
		return
	}

	outcome := e.extractor.AttemptExtract(ctx, item.Path)
	if !outcome.Extracted {
		e.stats.addSkipped(SkippedInfo{Path: rel, Reason: SkipReasonNotArchive})
		e.fireStatus(rel, StatusSkipped, "not extracted", time.Since(itemStart))
		return
	}

	for _, produced := range outcome.NewFiles {
		e.queue.PushBack(WorkItem{Path: produced, Depth: item.Depth + 1})
		e.fireDiscovered(produced)
	}
	e.stats.addExtracted(ExtractedInfo{
		Path:         rel,
		TargetDir:    e.relPath(targetDirFor(item.Path)),
		NewFileCount: len(outcome.NewFiles),
		SizeBytes:    outcome.Bytes,
		Depth:        item.Depth,
		DurationMs:   time.Since(itemStart).Milliseconds(),
	})
	e.fireStatus(rel, StatusExtracted, fmt.Sprintf("%d files", len(outcome.NewFiles)), time.Since(itemStart))
	e.logger.Debug("Archive expanded",
		slog.String("path", rel),
		slog.Int("newFiles", len(outcome.NewFiles)),
		slog.Int("queueLen", e.queue.Len()),
	)
}

// targetDirFor derives the extraction target directory from an archive path
// by stripping the final extension. Distinct archives can map to the same
// directory ("foo.tar" and "foo.zip"); their contents interleave and that
// is accepted.
func targetDirFor(archivePath string) string {
	return archivePath[:len(archivePath)-len(filepath.Ext(archivePath))]
}

func (e *Engine) relPath(path string) string {
	rel, err := filepath.Rel(e.opts.RootPath, path)
	if err != nil || rel == "" || rel == "." {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

func (e *Engine) fireDiscovered(path string) {
	if hookErr := e.hooks.OnItemDiscovered(e.relPath(path)); hookErr != nil {
		e.logger.Warn("Event hook OnItemDiscovered failed", slog.String("error", hookErr.Error()))
	}
}

func (e *Engine) fireStatus(rel string, status Status, message string, duration time.Duration) {
	if hookErr := e.hooks.OnItemStatusUpdate(rel, status, message, duration); hookErr != nil {
		e.logger.Warn("Event hook OnItemStatusUpdate failed", slog.String("path", rel), slog.String("error", hookErr.Error()))
	}
}

func (e *Engine) fireRunComplete(report Report) {
	if hookErr := e.hooks.OnRunComplete(report); hookErr != nil {
		e.logger.Warn("OnRunComplete hook returned an error", slog.String("error", hookErr.Error()))
	}
}

// --- runStats ---

// runStats accumulates counters for one run. Owned exclusively by a single
// Engine.Run invocation; created at run start, finalized read-only into a
// Report at run end. No concurrent writers exist.
type runStats struct {
	processed         int
	archivesExtracted int
	filesCreated      int
	bytesExtracted    int64
	extracted         []ExtractedInfo
	skipped           []SkippedInfo
	errors            []ErrorInfo
	vanishedCount     int
}

func newRunStats() *runStats {
	return &runStats{
		extracted: make([]ExtractedInfo, 0, 32),
		skipped:   make([]SkippedInfo, 0, 128),
	}
}

// addExtracted records a successful extraction. Counts one processed item.
func (s *runStats) addExtracted(info ExtractedInfo) {
	s.processed++
	s.archivesExtracted++
	s.filesCreated += info.NewFileCount
	s.bytesExtracted += info.SizeBytes
	s.extracted = append(s.extracted, info)
}

// addSkipped records a popped item the backend could not open.
func (s *runStats) addSkipped(info SkippedInfo) {
	s.processed++
	s.skipped = append(s.skipped, info)
}

// addVanished records a popped item that disappeared before processing.
// Vanished items still count as processed.
func (s *runStats) addVanished(info SkippedInfo) {
	s.processed++
	s.vanishedCount++
	s.skipped = append(s.skipped, info)
}

// addError records a per-item diagnostic. Counts one processed item.
func (s *runStats) addError(info ErrorInfo) {
	s.processed++
	s.errors = append(s.errors, info)
}

// report compiles the final Report.
func (s *runStats) report(opts *Options, startTime time.Time) Report {
	elapsed := time.Since(startTime).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(s.processed) / elapsed
	}
	extracted := make([]ExtractedInfo, len(s.extracted))
	copy(extracted, s.extracted)
	skipped := make([]SkippedInfo, len(s.skipped))
	copy(skipped, s.skipped)
	errorsList := make([]ErrorInfo, len(s.errors))
	copy(errorsList, s.errors)

	return Report{
		Summary: ReportSummary{
			RootPath:          opts.RootPath,
			ProfileUsed:       opts.ProfileName,
			ConfigFilePath:    opts.ConfigFilePath,
			Processed:         s.processed,
			ArchivesExtracted: s.archivesExtracted,
			FilesCreated:      s.filesCreated,
			SkippedCount:      len(s.skipped) - s.vanishedCount,
			VanishedCount:     s.vanishedCount,
			ErrorCount:        len(s.errors),
			FilesRemaining:    s.processed - s.archivesExtracted + s.filesCreated,
			BytesExtracted:    s.bytesExtracted,
			DryRun:            opts.DryRun,
			DurationSeconds:   elapsed,
			RatePerSecond:     rate,
			Timestamp:         time.Now().UTC(),
			SchemaVersion:     ReportSchemaVersion,
		},
		Extracted: extracted,
		Skipped:   skipped,
		Errors:    errorsList,
	}
}
