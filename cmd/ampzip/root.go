package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/absfs/ampzip"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string

	// Build flags shared by flat and nested
	formatName    string
	algorithmName string
	level         int
	unitSize      string
	workDir       string
	checksum      bool
)

var rootCmd = &cobra.Command{
	Use:   "ampzip",
	Short: "Build amplification archives for testing decompression limits",
	Long: `ampzip builds archives whose decompressed size exceeds their stored size
by many orders of magnitude. Use them to check that scanners, upload
validators and extractors enforce decompression limits.

Sizes are given in MB unless --unit says otherwise.`,
	SilenceUsage: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
}

// addBuildFlags registers the flags shared by the build commands
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&formatName, "format", "", "Container format: zip or tar")
	cmd.Flags().StringVar(&algorithmName, "algorithm", "", "Compression algorithm (zip: store, deflate, zstd, xz; tar: store, gzip, zstd, lz4, brotli, snappy, xz)")
	cmd.Flags().IntVar(&level, "level", -1, "Compression level, 0 for the algorithm default")
	cmd.Flags().StringVar(&unitSize, "unit", "", "Size of one unit, e.g. 1MiB (default) or 1KiB")
	cmd.Flags().StringVar(&workDir, "workdir", "", "Directory for temporary files (default: next to the output)")
	cmd.Flags().BoolVar(&checksum, "checksum", false, "Print the BLAKE3 digest of the output")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// loadConfig builds the library configuration from --config and the
// build flags
func loadConfig() (*ampzip.Config, error) {
	cfg := ampzip.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = ampzip.LoadConfigFile(configPath); err != nil {
			return nil, err
		}
	}

	if formatName != "" {
		cfg.Format = ampzip.Format(strings.ToLower(formatName))
		if algorithmName == "" && cfg.Format == ampzip.FormatTar && cfg.Algorithm == ampzip.AlgorithmDeflate {
			cfg.Algorithm = ampzip.AlgorithmGzip
		}
	}
	if algorithmName != "" {
		cfg.Algorithm = ampzip.Algorithm(strings.ToLower(algorithmName))
	}
	if level >= 0 {
		cfg.Level = level
	}
	if unitSize != "" {
		unit, err := humanize.ParseBytes(unitSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --unit %q: %w", unitSize, err)
		}
		cfg.Unit = int64(unit)
	}
	if workDir != "" {
		cfg.WorkDir = workDir
	}
	cfg.Logger = newLogger()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger reports library warnings on stderr, and progress too when
// verbose
func newLogger() *slog.Logger {
	lvl := slog.LevelWarn
	switch {
	case quiet:
		lvl = slog.LevelError
	case verbose:
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
