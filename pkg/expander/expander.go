// Package expander implements recursive, in-place expansion of nested
// archives beneath a root directory. Every file under the root is offered to
// an extraction backend; files that turn out to be archives are unpacked
// into a sibling directory named after the archive minus its final
// extension, the consumed archive is deleted, and the freshly created files
// join the back of the work queue. The run ends when nothing under the root
// can be expanded any further.
//
// The package is UI-agnostic: progress is surfaced through the Hooks
// interface and logging through an injected slog.Handler. The extraction
// backend is likewise injected; the production implementation lives in
// pkg/expander/backend.
package expander

import "context"

// Expand performs a full expansion run with the provided options and returns
// the aggregated report. It is a convenience wrapper around NewEngine and
// Engine.Run for callers that do not need to hold the engine.
//
// Configuration problems (missing root, nil logger or extractor, negative
// depth limit) surface as errors wrapping ErrConfigValidation before any
// filesystem mutation happens. A failed initial scan wraps ErrScanFailed.
// Per-item extraction failures never fail the run; they show up in the
// report as skipped items.
func Expand(ctx context.Context, opts Options) (Report, error) {
	engine, err := NewEngine(opts)
	if err != nil {
		return Report{}, err
	}
	return engine.Run(ctx)
}
