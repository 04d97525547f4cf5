// Package cli orchestrates an expansion run after configuration loading:
// it picks the presentation mode (TUI, progress bar, or plain logging),
// wires the event hooks, invokes the engine, and renders the final report.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/dynacylabs/airganizer-sub001/internal/cli/hooks"
	"github.com/dynacylabs/airganizer-sub001/internal/cli/ui"
	"github.com/dynacylabs/airganizer-sub001/pkg/expander"
)

// Run executes the expansion with the presentation mode implied by the
// options and the terminal: an interactive TUI when enabled on a TTY, a
// progress bar on a TTY otherwise, and plain logging when output is piped.
// The final report goes to stdout in the configured format.
func Run(ctx context.Context, opts expander.Options, logger *slog.Logger) error {
	isTTY := term.IsTerminal(int(os.Stderr.Fd()))

	var report expander.Report
	var runErr error

	switch {
	case opts.TuiEnabled && isTTY && !opts.Verbose:
		report, runErr = runWithTUI(ctx, opts, logger)
	case isTTY && !opts.Verbose:
		report, runErr = runWithProgressBar(ctx, opts, logger)
	default:
		opts.EventHooks = hooks.NewCLIHooks(logger, false, opts.Verbose, nil, nil)
		report, runErr = expander.Expand(ctx, opts)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Warn("Run interrupted, partial results follow")
		} else {
			logger.Error("Expansion failed", slog.Any("error", runErr))
			return runErr
		}
	}

	if err := renderReport(os.Stdout, report, opts.OutputFormat); err != nil {
		logger.Error("Failed to render report", slog.Any("error", err))
		return err
	}
	return runErr
}

// runWithTUI drives the engine from a goroutine while the Bubble Tea
// program owns the terminal. Engine events reach the model through the TUI
// message hooks; the program exits when the user quits or the run finishes.
func runWithTUI(ctx context.Context, opts expander.Options, logger *slog.Logger) (expander.Report, error) {
	model := ui.NewModel(opts.AppVersion)
	program := tea.NewProgram(&model, tea.WithContext(ctx), tea.WithOutput(os.Stderr))

	opts.EventHooks = hooks.NewCLIHooks(logger, true, false, program, nil)

	type result struct {
		report expander.Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := expander.Expand(ctx, opts)
		done <- result{report, err}
		// Let the user inspect the final state; they quit with q/Ctrl+C.
	}()

	if _, teaErr := program.Run(); teaErr != nil && !errors.Is(teaErr, tea.ErrProgramKilled) {
		logger.Warn("TUI terminated abnormally", slog.Any("error", teaErr))
	}

	res := <-done
	return res.report, res.err
}

// runWithProgressBar runs with an indeterminate spinner-style bar: the total
// is unknowable up front because extractions keep adding work.
func runWithProgressBar(ctx context.Context, opts expander.Options, logger *slog.Logger) (expander.Report, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Expanding"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
	)
	opts.EventHooks = hooks.NewCLIHooks(logger, false, false, nil, bar)
	return expander.Expand(ctx, opts)
}

// renderReport writes the final report in the requested format.
func renderReport(w *os.File, report expander.Report, format expander.OutputFormat) error {
	if format == expander.OutputFormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	s := report.Summary
	fmt.Fprintf(w, "Expanded %s\n", s.RootPath)
	if s.DryRun {
		fmt.Fprintln(w, "(dry run: nothing was extracted or deleted)")
	}
	fmt.Fprintf(w, "  Processed:  %d items (%.1f/s)\n", s.Processed, s.RatePerSecond)
	fmt.Fprintf(w, "  Extracted:  %d archives, %d files, %s\n",
		s.ArchivesExtracted, s.FilesCreated, humanize.Bytes(uint64(s.BytesExtracted)))
	fmt.Fprintf(w, "  Skipped:    %d non-archives, %d vanished\n", s.SkippedCount, s.VanishedCount)
	if s.ErrorCount > 0 {
		fmt.Fprintf(w, "  Errors:     %d\n", s.ErrorCount)
		for _, e := range report.Errors {
			fmt.Fprintf(w, "    %s: %s\n", e.Path, e.Error)
		}
	}
	fmt.Fprintf(w, "  Duration:   %.2fs\n", s.DurationSeconds)
	return nil
}
