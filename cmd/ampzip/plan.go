package main

import (
	"github.com/absfs/ampzip"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newPlanCmd())
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <flat|nested> <size>",
		Short: "Show the layout a build would use without writing anything",
		Long: `The plan command prints the file count (flat) or depth and leaf size
(nested) chosen for <size>, and the decompressed size the build will reach.

Example:
  ampzip plan nested 1048576
  ampzip plan flat 250 --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(args)
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func runPlan(args []string) error {
	mode, err := ampzip.ParseMode(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	size, err := parseSize(args[1], cfg.MinSize)
	if err != nil {
		return err
	}

	b, err := ampzip.New(ampzip.OSFS(), cfg)
	if err != nil {
		return err
	}
	p, err := b.Plan(mode, size)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(p)
	}

	unit := unitName(cfg.Unit)
	printInfo("Mode: %s\n", p.Mode)
	if p.Routed {
		printInfo("  (nested requested, size below %d %s)\n", cfg.NestedThreshold, unit)
	}
	if p.Mode == ampzip.ModeNested {
		printInfo("Depth: %d\n", p.Nested.Depth)
		printInfo("Leaf size: %d %s\n", p.Nested.LeafSize, unit)
	} else {
		printInfo("Filler files: %d x %d %s", p.Flat.Count, p.Flat.PerFile, unit)
		if p.Flat.Remainder > 0 {
			printInfo(" + %d %s", p.Flat.Remainder, unit)
		}
		printInfo("\n")
	}
	printInfo("Size After Decompression: %d %s (%s)\n",
		p.ActualSize, unit, humanize.IBytes(uint64(mulUnit(p.ActualSize, cfg.Unit))))
	printInfo("Containers written: %d\n", p.Containers)
	return nil
}

// mulUnit converts units to bytes, clamping at the largest int64
func mulUnit(units, unit int64) int64 {
	const maxInt64 = 1<<63 - 1
	if unit != 0 && units > maxInt64/unit {
		return maxInt64
	}
	return units * unit
}
