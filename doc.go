// Package ampzip builds amplification archives: containers whose
// decompressed size exceeds their stored size by many orders of magnitude.
// They are fixtures for testing the decompression limits of archive
// scanners, upload validators and extractors.
//
// # Modes
//
//   - Flat: one container holding filler files of a single repeated byte,
//     each near 100 units, summing to exactly the target size.
//   - Nested: a container of containers. Level 1 holds one leaf filler and
//     every higher level holds depth compressed copies of the level below,
//     so the expansion is depth^depth × leaf. Balance picks depth and leaf;
//     the result overshoots the target rather than undershooting it.
//
// User payload files are injected verbatim into the outermost container in
// both modes.
//
// # Quick Start
//
//	b, _ := ampzip.New(ampzip.OSFS(), nil)
//
//	// 10 GiB of zeros in one zip
//	res, _ := b.BuildFlat(10*1024, "flat.zip", ampzip.PayloadSet{})
//
//	// About 1 TiB through nesting, with a marker file inside
//	res, _ = b.BuildNested(1024*1024, "nested.zip", ampzip.PayloadSet{
//	    Files: []string{"README.txt"},
//	})
//	fmt.Println(res.ActualSize, res.CompressedSize)
//
// # Formats and Algorithms
//
//   - zip entries: store, deflate (default), zstd (method 93), xz (method 95)
//   - tar streams: store, gzip, zstd, lz4, brotli, snappy, xz
//
// Deflate is universally supported but stops near 1032:1 on repeated
// bytes. Zstd and xz reach far higher ratios with narrower extractor
// support.
//
// # Disk Usage
//
// Every build works in a private directory created next to the output (or
// under Config.WorkDir) and removed when the build returns, on success or
// failure. A nested build keeps at most two adjacent levels on disk. The
// output is written under a temporary name and renamed into place only
// once complete.
package ampzip
