package expander

import (
	"context"
	"log/slog"
	"time"
)

// Hooks defines callbacks for status updates during an expansion run.
// The engine is single-threaded, so implementations do not need to be
// thread-safe with respect to engine calls, but they may be invoked from a
// different goroutine than the one rendering a UI.
type Hooks interface {
	// OnItemDiscovered fires once per file found by the initial scan and
	// once per file produced by a successful extraction, before the item is
	// processed.
	OnItemDiscovered(path string) error
	// OnItemStatusUpdate fires whenever a work item changes state.
	OnItemStatusUpdate(path string, status Status, message string, duration time.Duration) error
	// OnRunComplete fires exactly once with the final report.
	OnRunComplete(report Report) error
}

// NoOpHooks provides a default, do-nothing implementation of Hooks.
type NoOpHooks struct{}

// OnItemDiscovered implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnItemDiscovered(path string) error { return nil }

// OnItemStatusUpdate implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnItemStatusUpdate(path string, status Status, message string, duration time.Duration) error {
	return nil
}

// OnRunComplete implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnRunComplete(report Report) error { return nil }

// Extractor is the opaque extraction capability the driver dispatches to.
// Exactly two outcomes exist: the file was extracted (and deleted), or it
// was not. An implementation must never return an error to the driver; all
// failure modes collapse into Outcome{Extracted: false}.
type Extractor interface {
	AttemptExtract(ctx context.Context, archivePath string) Outcome
}

// Scanner enumerates every file reachable under a root directory at the
// moment of the call. The listing is a one-shot snapshot, not a live view.
type Scanner interface {
	ListFiles(ctx context.Context, root string) ([]string, error)
}

// Options holds all configuration for an Expand run.
type Options struct {
	// --- Core Paths ---
	RootPath string `mapstructure:"rootPath"` // Required: absolute path to the directory to expand

	// --- Application Info ---
	AppVersion string `mapstructure:"-"` // Application version (e.g. "v1.2.0", "dev"), for reporting

	// --- Behavior & Control ---
	ConfigFilePath string       `mapstructure:"-"`            // Path to the loaded config file (for reporting)
	ProfileName    string       `mapstructure:"-"`            // Name of the profile used (for reporting)
	Verbose        bool         `mapstructure:"verbose"`      // Enable debug logging
	TuiEnabled     bool         `mapstructure:"tuiEnabled"`   // Hint for CLI to use TUI (ignored if Verbose)
	DryRun         bool         `mapstructure:"dryRun"`       // Identify archives but extract and delete nothing
	MaxDepth       int          `mapstructure:"maxDepth"`     // Nesting depth guard (0 = DefaultMaxDepth)
	OutputFormat   OutputFormat `mapstructure:"outputFormat"` // ("text", "json") for final report

	// --- Injected Dependencies ---
	EventHooks Hooks        `mapstructure:"-"` // Optional: callback interface (NoOpHooks if nil)
	Logger     slog.Handler `mapstructure:"-"` // Required: logging backend
	Extractor  Extractor    `mapstructure:"-"` // Required: extraction backend (see pkg/expander/backend)
	Scanner    Scanner      `mapstructure:"-"` // Optional: enumeration implementation (filesystem if nil)
}
