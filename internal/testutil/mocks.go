package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dynacylabs/airganizer-sub001/pkg/expander"
)

// RecorderHooks implements expander.Hooks and captures every invocation for
// assertions.
type RecorderHooks struct {
	mu         sync.Mutex
	Discovered []string
	Statuses   map[string][]expander.Status
	Completed  bool
	Report     expander.Report
}

// NewRecorderHooks creates an empty recorder.
func NewRecorderHooks() *RecorderHooks {
	return &RecorderHooks{Statuses: make(map[string][]expander.Status)}
}

// OnItemDiscovered implements expander.Hooks.
func (r *RecorderHooks) OnItemDiscovered(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Discovered = append(r.Discovered, path)
	return nil
}

// OnItemStatusUpdate implements expander.Hooks.
func (r *RecorderHooks) OnItemStatusUpdate(path string, status expander.Status, message string, duration time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Statuses[path] = append(r.Statuses[path], status)
	return nil
}

// OnRunComplete implements expander.Hooks.
func (r *RecorderHooks) OnRunComplete(report expander.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Completed = true
	r.Report = report
	return nil
}

// FinalStatus returns the last recorded status for a path, or "".
func (r *RecorderHooks) FinalStatus(path string) expander.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	statuses := r.Statuses[path]
	if len(statuses) == 0 {
		return ""
	}
	return statuses[len(statuses)-1]
}

// FakeExtractor simulates the extraction backend on the real filesystem:
// entries keyed by archive base name are written under the
// stripped-extension target directory and the archive is deleted, matching
// the backend contract. Unknown base names report not-extracted.
type FakeExtractor struct {
	Entries map[string][]string
}

// AttemptExtract implements expander.Extractor.
func (f *FakeExtractor) AttemptExtract(ctx context.Context, archivePath string) expander.Outcome {
	names, ok := f.Entries[filepath.Base(archivePath)]
	if !ok {
		return expander.Outcome{}
	}
	targetDir := strings.TrimSuffix(archivePath, filepath.Ext(archivePath))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return expander.Outcome{}
	}
	var created []string
	var written int64
	for _, name := range names {
		p := filepath.Join(targetDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return expander.Outcome{}
		}
		if err := os.WriteFile(p, []byte("payload"), 0o644); err != nil {
			return expander.Outcome{}
		}
		created = append(created, p)
		written += int64(len("payload"))
	}
	_ = os.Remove(archivePath)
	return expander.Outcome{Extracted: true, NewFiles: created, Bytes: written}
}
