package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/absfs/ampzip"
	"github.com/spf13/cobra"
)

var (
	// Payload flags shared by flat and nested
	payloadDirs  []string
	payloadFiles []string
)

// addPayloadFlags registers -d/--dirs and -f/--files on cmd
func addPayloadFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&payloadDirs, "dirs", "d", nil,
		"Add directory contents to the archive. Multiple directories separated with comma")
	cmd.Flags().StringSliceVarP(&payloadFiles, "files", "f", nil,
		"Add files (can be directories) to the archive. Multiple files separated with comma")
}

// runBuild builds one archive and prints its report
func runBuild(mode ampzip.Mode, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	size, err := parseSize(args[0], cfg.MinSize)
	if err != nil {
		return err
	}
	output := args[1]

	b, err := ampzip.New(ampzip.OSFS(), cfg)
	if err != nil {
		return err
	}

	payload := ampzip.PayloadSet{
		Dirs:  cleanPaths(payloadDirs),
		Files: cleanPaths(payloadFiles),
	}
	printVerbose("Building %s archive of %d units (%s %s/%s)\n",
		mode, size, output, cfg.Format, cfg.Algorithm)

	res, err := b.Build(mode, size, output, payload)
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", output, err)
	}

	rep, err := newReport(res, b.GetStats())
	if err != nil {
		return err
	}
	return printReport(rep)
}

// parseSize parses a target size argument
func parseSize(value string, minSize int64) (int64, error) {
	size, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s is an invalid size: %w", value, err)
	}
	if size < minSize {
		return 0, fmt.Errorf("%s is an invalid value (< %d)", value, minSize)
	}
	return size, nil
}

// cleanPaths trims list entries and drops empty ones
func cleanPaths(paths []string) []string {
	var out []string
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
