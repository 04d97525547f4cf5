package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dynacylabs/airganizer-sub001/internal/cli"
	"github.com/dynacylabs/airganizer-sub001/internal/cli/config"
	"github.com/dynacylabs/airganizer-sub001/pkg/expander"
)

var (
	// These are set during build time using -ldflags
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Flags persistent across commands
	cfgFile     string
	profileName string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "unnest <directory>",
	Short: "Recursively expands every archive found beneath a directory.",
	Long: `unnest walks a directory and extracts every archive it finds, in place:
each archive is unpacked into a sibling directory named after the archive
minus its extension, the archive itself is deleted, and any archives found
inside the extracted output are expanded the same way, to any depth.

It features:
  - Content-based format detection (zip, tar, rar, 7z, gz, xz, zst, ...).
  - Single-pass iterative traversal that never recurses on the call stack.
  - A dry-run mode that reports what would be extracted without writing.
  - An interactive Terminal UI (TUI) for monitoring progress.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		opts, logger, err := config.LoadAndValidate(args[0], cfgFile, profileName, version, cmd.Flags())
		if err != nil {
			// config.LoadAndValidate already logged the specific error.
			return err
		}

		// Small delay so the TUI grabs the terminal before the first events.
		if term.IsTerminal(int(os.Stderr.Fd())) && !verbose && opts.TuiEnabled {
			time.Sleep(100 * time.Millisecond)
		}

		return cli.Run(ctx, opts, logger)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	rootCmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")
	// Cobra prints the error and exits non-zero if RunE returns an error.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init registers flags for the root command.
func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default is search standard locations like ., $HOME/.config/unnest/)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Name of configuration profile to use")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging output (disables TUI)")

	rootCmd.Flags().BoolP("dry-run", "n", expander.DefaultDryRun, "Identify archives but do not extract or delete anything")
	rootCmd.Flags().Bool("no-tui", false, "Disable interactive Terminal UI even if in a TTY")
	rootCmd.Flags().Int("max-depth", expander.DefaultMaxDepth, "Maximum archive nesting depth to expand (0 for default)")
	rootCmd.Flags().String("output-format", string(expander.DefaultOutputFormat), `Final report format ("text", "json")`)
}
