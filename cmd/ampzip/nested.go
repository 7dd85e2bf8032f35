package main

import (
	"github.com/absfs/ampzip"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newNestedCmd())
}

func newNestedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nested <size> <output>",
		Short: "Build an archive of archives",
		Long: `The nested command writes an archive whose entries are archives, depth
levels deep, over a single filler file. The decompressed size is at least
<size> units and usually a little more. Sizes below 500 units are built in
flat mode.

Example:
  ampzip nested 1048576 nested.zip
  ampzip nested 100000 nested.zip -d payload/
  ampzip nested 5000 nested.tar.gz --format tar --algorithm gzip`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(ampzip.ModeNested, args)
		},
	}
	addBuildFlags(cmd)
	addPayloadFlags(cmd)
	return cmd
}
