package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/absfs/ampzip"
	"github.com/dustin/go-humanize"
	"github.com/zeebo/blake3"
)

// report is the outcome of one build as printed or encoded to JSON
type report struct {
	Mode          ampzip.Mode `json:"mode"`
	Output        string      `json:"output"`
	Target        int64       `json:"target"`
	ActualSize    int64       `json:"actual_size"`
	Unit          int64       `json:"unit_bytes"`
	Depth         int64       `json:"depth,omitempty"`
	LeafSize      int64       `json:"leaf_size,omitempty"`
	FillerEntries int64       `json:"filler_entries"`
	Routed        bool        `json:"routed,omitempty"`

	CompressedBytes   int64   `json:"compressed_bytes"`
	DecompressedBytes int64   `json:"decompressed_bytes"`
	Amplification     float64 `json:"amplification"`
	Seconds           float64 `json:"seconds"`
	BLAKE3            string  `json:"blake3,omitempty"`

	Stats *ampzip.Stats `json:"stats,omitempty"`
}

func newReport(res *ampzip.Result, stats *ampzip.Stats) (*report, error) {
	rep := &report{
		Mode:              res.Mode,
		Output:            res.Output,
		Target:            res.Target,
		ActualSize:        res.ActualSize,
		Unit:              res.Unit,
		Depth:             res.Depth,
		LeafSize:          res.LeafSize,
		FillerEntries:     res.FillerEntries,
		Routed:            res.Routed,
		CompressedBytes:   res.CompressedSize,
		DecompressedBytes: res.DecompressedBytes(),
		Amplification:     res.Amplification(),
		Seconds:           res.Duration.Seconds(),
	}
	if verbose {
		rep.Stats = stats
	}
	if checksum {
		sum, err := fileDigest(res.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to hash %s: %w", res.Output, err)
		}
		rep.BLAKE3 = sum
	}
	return rep, nil
}

func printReport(rep *report) error {
	if jsonOut {
		return printJSON(rep)
	}

	printInfo("Compressed File Size: %.2f KB\n", float64(rep.CompressedBytes)/1024.0)
	printInfo("Size After Decompression: %d %s\n", rep.ActualSize, unitName(rep.Unit))
	printInfo("Generation Time: %.2fs\n", rep.Seconds)

	printInfo("Amplification: %s:1 (%s -> %s)\n",
		humanize.Comma(int64(rep.Amplification)),
		humanize.IBytes(uint64(rep.CompressedBytes)),
		humanize.IBytes(uint64(rep.DecompressedBytes)))
	if rep.Depth > 0 {
		printInfo("Nesting: depth %d, leaf %d %s\n", rep.Depth, rep.LeafSize, unitName(rep.Unit))
	}
	if rep.BLAKE3 != "" {
		printInfo("BLAKE3: %s\n", rep.BLAKE3)
	}

	if rep.Stats != nil {
		printVerbose("\nStatistics:\n")
		printVerbose("  Containers created: %d\n", rep.Stats.ContainersCreated)
		printVerbose("  Filler entries: %d\n", rep.Stats.FillerFiles)
		printVerbose("  Nested copies: %d\n", rep.Stats.NestedCopies)
		printVerbose("  Payload files: %d (%s)\n", rep.Stats.PayloadFiles, humanize.IBytes(uint64(rep.Stats.BytesPayload)))
		printVerbose("  Filler written: %s\n", humanize.IBytes(uint64(rep.Stats.BytesFiller)))
		printVerbose("  Temporaries removed: %d\n", rep.Stats.TempFilesRemoved)
	}
	return nil
}

// unitName names a size unit for the report
func unitName(unit int64) string {
	switch unit {
	case 1 << 10:
		return "KB"
	case 1 << 20:
		return "MB"
	case 1 << 30:
		return "GB"
	default:
		return "x " + humanize.IBytes(uint64(unit))
	}
}

// fileDigest returns the hex BLAKE3 digest of a file
func fileDigest(name string) (string, error) {
	f, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
