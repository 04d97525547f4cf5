package expander

import "time"

// Report summarizes the result of a single Expand run.
type Report struct {
	Summary   ReportSummary   `json:"summary"`
	Extracted []ExtractedInfo `json:"extracted"`
	Skipped   []SkippedInfo   `json:"skipped"`
	Errors    []ErrorInfo     `json:"errors"`
}

// ReportSummary contains aggregated statistics for an Expand run.
type ReportSummary struct {
	RootPath          string    `json:"rootPath"`
	ProfileUsed       string    `json:"profileUsed,omitempty"`
	ConfigFilePath    string    `json:"configFilePath,omitempty"`
	Processed         int       `json:"processed"`
	ArchivesExtracted int       `json:"archivesExtracted"`
	FilesCreated      int       `json:"filesCreated"`
	SkippedCount      int       `json:"skippedCount"`
	VanishedCount     int       `json:"vanishedCount"`
	ErrorCount        int       `json:"errorCount"`
	FilesRemaining    int       `json:"filesRemaining"`
	BytesExtracted    int64     `json:"bytesExtracted"`
	DryRun            bool      `json:"dryRun"`
	DurationSeconds   float64   `json:"durationSeconds"`
	RatePerSecond     float64   `json:"ratePerSecond"`
	Timestamp         time.Time `json:"timestamp"`
	SchemaVersion     string    `json:"schemaVersion,omitempty"`
}

// ExtractedInfo details a single archive that was successfully expanded.
type ExtractedInfo struct {
	Path         string `json:"path"`
	TargetDir    string `json:"targetDir"`
	NewFileCount int    `json:"newFileCount"`
	SizeBytes    int64  `json:"sizeBytes"`
	Depth        int    `json:"depth"`
	DurationMs   int64  `json:"durationMs"`
}

// SkippedInfo details a work item that was popped but not extracted, either
// because the backend could not open it or because it vanished before its
// turn came.
type SkippedInfo struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ErrorInfo details a per-item diagnostic. The only producer today is the
// nesting depth guard; extraction failures are not errors.
type ErrorInfo struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}
