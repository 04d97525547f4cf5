package expander

import "errors"

// Exported error variables. These represent the categories of failure that
// Expand can return directly. Library users can check against them with
// errors.Is. Per-file extraction failures are deliberately absent: the
// backend collapses them all to a NotExtracted outcome and they never
// surface as errors.

var (
	// ErrConfigValidation indicates that the provided Options failed the
	// validation checks performed at the beginning of Expand (missing root,
	// root not a directory, nil extractor, negative depth limit).
	// Always returned as a fatal error before any queue work begins.
	ErrConfigValidation = errors.New("invalid configuration options provided")

	// ErrNotADirectory indicates that the root path exists but is not a
	// directory. Wrapped together with ErrConfigValidation.
	ErrNotADirectory = errors.New("root path is not a directory")

	// ErrScanFailed indicates that the initial recursive enumeration of the
	// root directory failed. Unlike extraction-time errors this is fatal:
	// the run produces no partial results.
	ErrScanFailed = errors.New("directory scan failed")

	// ErrDepthExceeded marks the per-item diagnostic recorded when a work
	// item sits deeper than the configured nesting limit. It is reported in
	// Report.Errors, never returned from Expand.
	ErrDepthExceeded = errors.New("nesting depth limit exceeded")
)
