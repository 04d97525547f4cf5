// Package hooks bridges expansion engine events to the CLI's UI layer: the
// Bubble Tea TUI, the progress bar, or plain logging, depending on mode.
package hooks

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dynacylabs/airganizer-sub001/pkg/expander"
)

// --- TUI Message Structs ---

// ItemDiscoveredMsg signals that a file entered the work queue, either from
// the initial scan or as extraction output.
type ItemDiscoveredMsg struct{ Path string }

// ItemStatusMsg signals a change in a work item's status.
type ItemStatusMsg struct {
	Path     string
	Status   expander.Status
	Message  string
	Duration time.Duration
}

// RunCompleteMsg signals the completion of the entire expansion run.
type RunCompleteMsg struct{ Report expander.Report }

// --- Hook Implementation ---

// CLIHooks implements the expander.Hooks interface, bridging engine events
// to the CLI's UI layer (TUI, Logger, Progress Bar).
type CLIHooks struct {
	logger         *slog.Logger
	tuiEnabled     bool
	verboseEnabled bool
	tuiProgram     TUIProgram
	progressBar    ProgressBar
	mu             sync.Mutex // Protects progressBar; engine and UI run on different goroutines
}

// TUIProgram defines the interface needed to interact with the Bubble Tea
// program.
type TUIProgram interface {
	Send(msg tea.Msg)
}

// ProgressBar defines the interface needed to interact with the progress bar.
type ProgressBar interface {
	Add(num int) error
	Describe(description string)
	Close() error
}

// NoOpTUIProgram provides a default null implementation.
type NoOpTUIProgram struct{}

// Send implements TUIProgram.
func (n *NoOpTUIProgram) Send(msg tea.Msg) {}

// NoOpProgressBar provides a default null implementation.
type NoOpProgressBar struct{}

// Add implements ProgressBar.
func (n *NoOpProgressBar) Add(num int) error { return nil }

// Describe implements ProgressBar.
func (n *NoOpProgressBar) Describe(description string) {}

// Close implements ProgressBar.
func (n *NoOpProgressBar) Close() error { return nil }

// NewCLIHooks creates a new CLIHooks instance. Pass nil for tuiProgram or
// progressBar if not applicable; NoOp versions will be used.
func NewCLIHooks(logger *slog.Logger, tuiEnabled, verboseEnabled bool, tuiProg TUIProgram, progBar ProgressBar) expander.Hooks {
	if tuiProg == nil {
		tuiProg = &NoOpTUIProgram{}
	}
	if progBar == nil {
		progBar = &NoOpProgressBar{}
	}
	return &CLIHooks{
		logger:         logger,
		tuiEnabled:     tuiEnabled,
		verboseEnabled: verboseEnabled,
		tuiProgram:     tuiProg,
		progressBar:    progBar,
	}
}

// OnItemDiscovered handles the event when a file joins the work queue.
func (h *CLIHooks) OnItemDiscovered(path string) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(ItemDiscoveredMsg{Path: path})
	} else if h.verboseEnabled {
		h.logger.Debug("Item discovered", "path", path)
	}
	return nil // Engine ignores hook errors
}

// OnItemStatusUpdate handles events when a work item's status changes.
func (h *CLIHooks) OnItemStatusUpdate(path string, status expander.Status, message string, duration time.Duration) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(ItemStatusMsg{
			Path:     path,
			Status:   status,
			Message:  message,
			Duration: duration,
		})
		return nil
	}

	if h.verboseEnabled {
		logLevel := slog.LevelDebug
		logMsg := "Item status updated"
		attrs := []any{
			slog.String("path", path),
			slog.String("status", string(status)),
		}
		if duration > 0 {
			attrs = append(attrs, slog.Duration("duration", duration))
		}
		if message != "" {
			logKey := "message"
			if status == expander.StatusFailed {
				logKey = "error"
			}
			attrs = append(attrs, slog.String(logKey, message))
		}

		switch status {
		case expander.StatusExtracted, expander.StatusSkipped, expander.StatusVanished:
			logLevel = slog.LevelInfo
		case expander.StatusFailed:
			logLevel = slog.LevelWarn
			logMsg = "Item not expanded"
		}
		h.logger.Log(nil, logLevel, logMsg, attrs...)
		return nil
	}

	// Progress bar mode (non-verbose, TTY without TUI)
	h.mu.Lock()
	defer h.mu.Unlock()

	isFinalState := status == expander.StatusExtracted ||
		status == expander.StatusFailed ||
		status == expander.StatusSkipped ||
		status == expander.StatusVanished

	if isFinalState {
		_ = h.progressBar.Add(1)
	}
	if status == expander.StatusFailed {
		h.logger.Warn("Item not expanded", "path", path, "reason", message)
	}
	return nil
}

// OnRunComplete handles the event when the entire expansion run finishes.
// Sends the final report to the TUI or finalizes the progress bar; the text
// summary itself is rendered by the CLI layer.
func (h *CLIHooks) OnRunComplete(report expander.Report) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(RunCompleteMsg{Report: report})
		return nil
	}
	h.mu.Lock()
	_ = h.progressBar.Close()
	h.mu.Unlock()
	// Newline after the bar so the summary does not overlap it.
	_, _ = fmt.Fprintf(os.Stderr, "\n")
	return nil
}
