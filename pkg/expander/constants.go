package expander

// Constants defining default values for configuration options. These are
// used when setting up Viper defaults in the configuration loading process.
const (
	// DefaultMaxDepth bounds how many extraction steps away from the initial
	// scan an item may be before it is diagnosed instead of extracted. This
	// guards against archives that regenerate themselves (or each other)
	// forever.
	DefaultMaxDepth = 16
	// DefaultTuiEnabled is the default state for the Terminal UI.
	DefaultTuiEnabled = true
	// DefaultDryRun is the default state for dry-run mode.
	DefaultDryRun = false
	// DefaultOutputFormat is the default format for the final summary report.
	DefaultOutputFormat = OutputFormatText
	// DefaultVerbose is the default state for verbose logging.
	DefaultVerbose = false
)

// ReportSchemaVersion indicates the version of the JSON report structure.
// Increment on incompatible changes to Report or ReportSummary.
const ReportSchemaVersion = "1.0"

// Constants defining skip reasons used in the Report.
const (
	SkipReasonNotArchive = "not_archive"
	SkipReasonVanished   = "vanished"
)
