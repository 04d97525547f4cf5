package expander

// Status defines the possible processing states of a work item during a run.
type Status string

// Constants representing the defined work item statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusExtracted  Status = "extracted"
	StatusSkipped    Status = "skipped"
	StatusVanished   Status = "vanished"
	StatusFailed     Status = "failed"
)

// OutputFormat defines the format for the final summary report printed to
// standard output when the TUI is disabled.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// RunState describes the lifecycle of the expansion driver.
type RunState string

const (
	RunStateRunning RunState = "running"
	RunStateDone    RunState = "done"
)

// WorkItem is a single pending file path on the expansion queue. Depth is
// the number of extraction steps between the initial scan and this item;
// items produced by the scan have depth zero.
type WorkItem struct {
	Path  string
	Depth int
}

// Outcome is the tagged result of one extraction attempt. Extracted is false
// for everything the backend could not open: not an archive, unsupported or
// corrupt format, read error. The backend cannot tell these apart and the
// driver never needs to.
type Outcome struct {
	Extracted bool
	NewFiles  []string
	Bytes     int64
}
