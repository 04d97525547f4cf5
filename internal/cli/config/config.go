// Package config layers unnest's configuration from defaults, an optional
// config file, a named profile within that file, environment variables, and
// command-line flags, in ascending precedence. The merged result is
// validated and returned as a ready-to-run expander.Options with the
// extraction backend and logger injected.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dynacylabs/airganizer-sub001/pkg/expander"
	"github.com/dynacylabs/airganizer-sub001/pkg/expander/backend"
)

const (
	EnvPrefix         = "UNNEST"
	DefaultConfigName = "unnest"
)

// LoadAndValidate loads configuration from all sources (defaults, file,
// profile, env, flags), validates the merged result, sets up the logger,
// and injects the extraction backend. rootDir is the positional argument
// from the command line and always wins over any configured rootPath.
func LoadAndValidate(rootDir, cfgFile, profileName, appVersion string, flags *pflag.FlagSet) (expander.Options, *slog.Logger, error) {
	var opts expander.Options
	v := viper.New()

	// Temporary logger for errors that occur before the verbosity level is
	// known.
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			tempLogger.Error("Failed to get user home directory", slog.Any("error", err))
			return opts, tempLogger, fmt.Errorf("failed to get user home directory: %w", err)
		}
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
		v.AddConfigPath(filepath.Join(home, "."+DefaultConfigName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			tempLogger.Debug("No configuration file found, using defaults/env/flags.")
		} else {
			configFileUsed := cfgFile
			if configFileUsed == "" {
				configFileUsed = fmt.Sprintf("searched locations for %s.yaml", DefaultConfigName)
			}
			tempLogger.Error("Error reading configuration file", slog.String("path", configFileUsed), slog.Any("error", err))
			return opts, tempLogger, fmt.Errorf("error reading config file '%s': %w", configFileUsed, err)
		}
	} else {
		opts.ConfigFilePath = v.ConfigFileUsed()
		tempLogger.Debug("Using configuration file", slog.String("path", opts.ConfigFilePath))
	}

	opts.ProfileName = profileName
	if profileName != "" {
		profileKey := "profiles." + profileName
		if !v.IsSet(profileKey) {
			configPath := v.ConfigFileUsed()
			if configPath == "" {
				configPath = "(no config file found)"
			}
			err := fmt.Errorf("profile '%s' not found in config file '%s'", profileName, configPath)
			tempLogger.Error(err.Error())
			return opts, tempLogger, err
		}
		profileSettings := v.Sub(profileKey)
		if profileSettings == nil {
			err := fmt.Errorf("failed to load profile '%s' settings from config file '%s'", profileName, v.ConfigFileUsed())
			tempLogger.Error(err.Error())
			return opts, tempLogger, err
		}
		if err := v.MergeConfigMap(profileSettings.AllSettings()); err != nil {
			tempLogger.Error("Error merging profile", slog.String("profile", profileName), slog.Any("error", err))
			return opts, tempLogger, fmt.Errorf("error merging profile '%s': %w", profileName, err)
		}
		tempLogger.Debug("Applied configuration profile", slog.String("profile", profileName))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	flagKeys := []string{
		"verbose", "no-tui", "dry-run", "max-depth", "output-format",
	}
	for _, key := range flagKeys {
		flag := flags.Lookup(key)
		if flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				tempLogger.Error("Error binding flag", slog.String("flag", key), slog.Any("error", err))
				return opts, tempLogger, fmt.Errorf("error binding flag '--%s': %w", key, err)
			}
		} else {
			tempLogger.Debug("Flag lookup failed during binding", slog.String("flag", key))
		}
	}
	v.RegisterAlias("dryRun", "dry-run")
	v.RegisterAlias("maxDepth", "max-depth")
	v.RegisterAlias("outputFormat", "output-format")

	opts.AppVersion = appVersion

	if err := v.Unmarshal(&opts); err != nil {
		tempLogger.Error("Error unmarshalling configuration", slog.Any("error", err))
		return opts, tempLogger, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Positional argument beats anything from file or env.
	if rootDir != "" {
		opts.RootPath = rootDir
	}

	// Boolean flags: explicit flags always win over file/env values.
	if flags.Changed("verbose") {
		opts.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("dry-run") {
		opts.DryRun, _ = flags.GetBool("dry-run")
	}
	if flags.Changed("no-tui") {
		if noTui, _ := flags.GetBool("no-tui"); noTui {
			opts.TuiEnabled = false
		}
	}

	// Final logger reflecting the effective verbosity.
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logHandler)
	opts.Logger = logHandler

	if err := validateAndDeriveOptions(&opts, logger, flags); err != nil {
		return opts, logger, err
	}

	logger.Debug("Configuration loading and validation complete",
		slog.String("configFile", opts.ConfigFilePath),
		slog.String("profile", opts.ProfileName),
		slog.Bool("verbose", opts.Verbose),
		slog.String("logLevel", logLevel.String()),
	)
	return opts, logger, nil
}

// setDefaults establishes the default values for configuration options in
// Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("verbose", expander.DefaultVerbose)
	v.SetDefault("tuiEnabled", expander.DefaultTuiEnabled)
	v.SetDefault("dryRun", expander.DefaultDryRun)
	v.SetDefault("maxDepth", expander.DefaultMaxDepth)
	v.SetDefault("outputFormat", string(expander.DefaultOutputFormat))
}

func isValidEnumValue[T ~string](value T, allowedValues []T) bool {
	return slices.Contains(allowedValues, value)
}

// validateAndDeriveOptions performs semantic validation on the populated
// Options struct and injects the extraction backend. It wraps errors with
// expander.ErrConfigValidation.
func validateAndDeriveOptions(opts *expander.Options, logger *slog.Logger, flags *pflag.FlagSet) error {
	if opts.RootPath == "" {
		err := fmt.Errorf("%w: target directory is required", expander.ErrConfigValidation)
		logger.Error(err.Error(), slog.String("key", "rootPath"))
		return err
	}
	absRoot, err := filepath.Abs(opts.RootPath)
	if err != nil {
		err = fmt.Errorf("%w: cannot resolve absolute path '%s': %w", expander.ErrConfigValidation, opts.RootPath, err)
		logger.Error(err.Error(), slog.String("key", "rootPath"), slog.String("value", opts.RootPath))
		return err
	}
	opts.RootPath = absRoot
	info, err := os.Stat(opts.RootPath)
	if err != nil {
		if os.IsNotExist(err) {
			err = fmt.Errorf("%w: target directory '%s' does not exist", expander.ErrConfigValidation, opts.RootPath)
		} else {
			err = fmt.Errorf("%w: cannot access target directory '%s': %w", expander.ErrConfigValidation, opts.RootPath, err)
		}
		logger.Error(err.Error(), slog.String("key", "rootPath"), slog.String("value", opts.RootPath))
		return err
	}
	if !info.IsDir() {
		err = fmt.Errorf("%w: %w: '%s'", expander.ErrConfigValidation, expander.ErrNotADirectory, opts.RootPath)
		logger.Error(err.Error(), slog.String("key", "rootPath"), slog.String("value", opts.RootPath))
		return err
	}
	logger.Debug("Validated target directory", slog.String("path", opts.RootPath))

	allowedOutputFormat := []expander.OutputFormat{expander.OutputFormatText, expander.OutputFormatJSON}
	if !isValidEnumValue(opts.OutputFormat, allowedOutputFormat) {
		err := fmt.Errorf("%w: invalid value '%s' for key 'outputFormat' (flag --output-format). Allowed: %v", expander.ErrConfigValidation, opts.OutputFormat, allowedOutputFormat)
		logger.Error(err.Error(), slog.String("key", "outputFormat"), slog.String("value", string(opts.OutputFormat)))
		return err
	}

	if opts.MaxDepth < 0 {
		err := fmt.Errorf("%w: invalid value '%d' for key 'maxDepth' (flag --max-depth). Must be >= 0", expander.ErrConfigValidation, opts.MaxDepth)
		logger.Error(err.Error(), slog.String("key", "maxDepth"), slog.Int("value", opts.MaxDepth))
		return err
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = expander.DefaultMaxDepth
		logger.Debug("Max depth not set, using default", slog.Int("maxDepth", opts.MaxDepth))
	}

	if opts.Extractor == nil {
		opts.Extractor = backend.NewArchivesExtractor(opts.Logger, opts.DryRun)
		logger.Debug("Extractor not provided, using default (ArchivesExtractor).")
	}

	// Verbose output and the TUI fight over the terminal; verbose wins.
	if opts.Verbose {
		if opts.TuiEnabled && !flags.Changed("no-tui") {
			logger.Debug("Verbose mode enabled, TUI explicitly disabled")
		}
		opts.TuiEnabled = false
	}

	logger.Debug("Final derived settings validated",
		slog.Int("maxDepth", opts.MaxDepth),
		slog.Bool("dryRun", opts.DryRun),
		slog.String("outputFormat", string(opts.OutputFormat)),
		slog.Bool("tuiEnabledEffective", opts.TuiEnabled),
	)
	return nil
}
