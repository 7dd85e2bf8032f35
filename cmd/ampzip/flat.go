package main

import (
	"github.com/absfs/ampzip"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newFlatCmd())
}

func newFlatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flat <size> <output>",
		Short: "Build a single archive of filler files",
		Long: `The flat command writes one archive holding filler files of about 100
units each, summing to exactly <size> units after decompression.

Example:
  ampzip flat 10240 bomb.zip
  ampzip flat 500 bomb.zip -f README.txt
  ampzip flat 2048 bomb.tar.zst --format tar --algorithm zstd`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(ampzip.ModeFlat, args)
		},
	}
	addBuildFlags(cmd)
	addPayloadFlags(cmd)
	return cmd
}
