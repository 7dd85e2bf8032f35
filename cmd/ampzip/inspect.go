package main

import (
	"fmt"

	"github.com/absfs/ampzip"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	inspectMaxDepth int
	inspectMaxEntry string
	inspectLimit    int
)

func init() {
	rootCmd.AddCommand(newInspectCmd())
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <archive>",
		Short: "Measure what an archive expands to",
		Long: `The inspect command lists the top-level entries of a zip or tar archive
and computes its fully expanded size by descending into nested archives.
Nothing is extracted to disk; identical nested zip entries are measured once.

Example:
  ampzip inspect nested.zip
  ampzip inspect nested.tar.gz --json
  ampzip inspect suspicious.bin --max-depth 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args)
		},
	}
	defaults := ampzip.DefaultInspectOptions()
	cmd.Flags().IntVar(&inspectMaxDepth, "max-depth", defaults.MaxDepth, "Deepest nesting level to expand")
	cmd.Flags().StringVar(&inspectMaxEntry, "max-entry-bytes", humanize.IBytes(uint64(defaults.MaxEntryBytes)),
		"Largest nested zip to buffer in memory")
	cmd.Flags().IntVar(&inspectLimit, "limit", 20, "Entries to list, 0 for all")
	return cmd
}

func runInspect(args []string) error {
	name := args[0]

	maxEntry, err := humanize.ParseBytes(inspectMaxEntry)
	if err != nil {
		return fmt.Errorf("invalid --max-entry-bytes %q: %w", inspectMaxEntry, err)
	}
	opts := &ampzip.InspectOptions{
		MaxDepth:      inspectMaxDepth,
		MaxEntryBytes: int64(maxEntry),
	}

	printVerbose("Inspecting: %s\n", name)
	m, err := ampzip.Inspect(ampzip.OSFS(), name, opts)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", name, err)
	}

	if jsonOut {
		return printJSON(m)
	}

	printInfo("\nArchive: %s\n", name)
	if m.Format == ampzip.FormatTar {
		printInfo("  Format: tar (%s)\n", m.Algorithm)
	} else {
		printInfo("  Format: %s\n", m.Format)
	}
	printInfo("  Entries: %d\n", len(m.Entries))
	printInfo("  Nesting levels: %d\n", m.Levels)
	printInfo("  Containers: %s\n", humanize.Comma(m.Containers))
	printInfo("  Expanded size: %s (%s bytes)\n", humanize.IBytes(uint64(m.ExpandedSize)), humanize.Comma(m.ExpandedSize))
	if m.Truncated {
		printInfo("  Note: limits reached, nested archives past them were counted at their stored size\n")
	}

	shown := m.Entries
	if inspectLimit > 0 && len(shown) > inspectLimit && !verbose {
		shown = shown[:inspectLimit]
	}
	printInfo("\nEntries:\n")
	for _, e := range shown {
		marker := ""
		if e.Container {
			marker = " [archive]"
		}
		printInfo("  %-40s %10s%s\n", e.Name, humanize.IBytes(uint64(e.Size)), marker)
	}
	if hidden := len(m.Entries) - len(shown); hidden > 0 {
		printInfo("  ... %d more (use --limit 0 or --verbose)\n", hidden)
	}
	return nil
}
