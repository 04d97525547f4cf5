package main

// Build-time variables 'version', 'commit', and 'date' are declared in
// root.go within this package and populated at build time via -ldflags.

// main is the entry point for the unnest application. It invokes Execute
// (defined in root.go), which sets up and runs the root Cobra command.
// Error handling (printing errors and setting the exit code) is managed by
// Cobra based on the error returned by RunE.
func main() {
	Execute()
}
