package ampzip

import (
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Zip method identifiers beyond Store and Deflate (APPNOTE 4.4.5)
const (
	zipMethodZstd uint16 = zstd.ZipMethodWinZip // 93
	zipMethodXZ   uint16 = 95
)

// maxLevel lists the highest accepted level per algorithm. Algorithms
// absent from the map ignore the level.
var maxLevel = map[Algorithm]int{
	AlgorithmDeflate: 9,
	AlgorithmGzip:    9,
	AlgorithmZstd:    22,
	AlgorithmLZ4:     9,
	AlgorithmBrotli:  11,
}

var lz4Levels = []lz4.CompressionLevel{
	lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4,
	lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

// checkLevel validates a level for an algorithm
func checkLevel(algo Algorithm, level int) error {
	if level < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	if limit, ok := maxLevel[algo]; ok && level > limit {
		return fmt.Errorf("%w: %s accepts 0-%d, got %d", ErrInvalidLevel, algo, limit, level)
	}
	return nil
}

// checkFormat reports whether a format can carry an algorithm
func checkFormat(format Format, algo Algorithm) error {
	switch format {
	case FormatZip:
		if _, err := zipMethod(algo); err != nil {
			return err
		}
		return nil
	case FormatTar:
		switch algo {
		case AlgorithmStore, AlgorithmGzip, AlgorithmZstd, AlgorithmLZ4,
			AlgorithmBrotli, AlgorithmSnappy, AlgorithmXZ:
			return nil
		}
		return fmt.Errorf("%w: %q in tar streams", ErrUnsupportedAlgorithm, algo)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// zipMethod maps an algorithm to its zip compression method
func zipMethod(algo Algorithm) (uint16, error) {
	switch algo {
	case AlgorithmStore:
		return zip.Store, nil
	case AlgorithmDeflate:
		return zip.Deflate, nil
	case AlgorithmZstd:
		return zipMethodZstd, nil
	case AlgorithmXZ:
		return zipMethodXZ, nil
	default:
		return 0, fmt.Errorf("%w: %q in zip entries", ErrUnsupportedAlgorithm, algo)
	}
}

// registerZipCompressors installs the entry compressors for a zip writer
func registerZipCompressors(zw *zip.Writer, level int) {
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return createDeflateCompressor(w, level)
	})
	zw.RegisterCompressor(zipMethodZstd, func(w io.Writer) (io.WriteCloser, error) {
		return createZstdCompressor(w, level)
	})
	zw.RegisterCompressor(zipMethodXZ, func(w io.Writer) (io.WriteCloser, error) {
		return &lazyXZWriter{w: w}, nil
	})
}

// registerZipDecompressors installs the entry decompressors for a zip reader
func registerZipDecompressors(zr *zip.Reader) {
	zr.RegisterDecompressor(zipMethodZstd, zstd.ZipDecompressor())
	zr.RegisterDecompressor(zipMethodXZ, func(r io.Reader) io.ReadCloser {
		rc, err := createXZDecompressor(r)
		if err != nil {
			return io.NopCloser(errReader{err})
		}
		return rc
	})
}

// createCompressor creates a stream compressor for the specified algorithm
func createCompressor(algo Algorithm, w io.Writer, level int) (io.WriteCloser, error) {
	switch algo {
	case AlgorithmStore:
		return nopWriteCloser{w}, nil
	case AlgorithmDeflate:
		return createDeflateCompressor(w, level)
	case AlgorithmGzip:
		return createGzipCompressor(w, level)
	case AlgorithmZstd:
		return createZstdCompressor(w, level)
	case AlgorithmLZ4:
		return createLZ4Compressor(w, level)
	case AlgorithmBrotli:
		return createBrotliCompressor(w, level)
	case AlgorithmSnappy:
		return createSnappyCompressor(w)
	case AlgorithmXZ:
		return createXZCompressor(w)
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

// createDecompressor creates a stream decompressor for the specified algorithm
func createDecompressor(algo Algorithm, r io.Reader) (io.ReadCloser, error) {
	switch algo {
	case AlgorithmStore:
		return io.NopCloser(r), nil
	case AlgorithmDeflate:
		return flate.NewReader(r), nil
	case AlgorithmGzip:
		return gzip.NewReader(r)
	case AlgorithmZstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case AlgorithmLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case AlgorithmBrotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	case AlgorithmSnappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case AlgorithmXZ:
		return createXZDecompressor(r)
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

func createDeflateCompressor(w io.Writer, level int) (io.WriteCloser, error) {
	if level == 0 {
		level = flate.DefaultCompression
	}
	return flate.NewWriter(w, level)
}

func createGzipCompressor(w io.Writer, level int) (io.WriteCloser, error) {
	if level == 0 {
		level = gzip.DefaultCompression
	}
	return gzip.NewWriterLevel(w, level)
}

func createZstdCompressor(w io.Writer, level int) (io.WriteCloser, error) {
	encLevel := zstd.SpeedDefault
	if level > 0 {
		encLevel = zstd.EncoderLevelFromZstd(level)
	}
	return zstd.NewWriter(w, zstd.WithEncoderLevel(encLevel))
}

func createLZ4Compressor(w io.Writer, level int) (io.WriteCloser, error) {
	zw := lz4.NewWriter(w)
	if err := zw.Apply(lz4.CompressionLevelOption(lz4Levels[level])); err != nil {
		return nil, err
	}
	return zw, nil
}

func createBrotliCompressor(w io.Writer, level int) (io.WriteCloser, error) {
	if level == 0 {
		level = brotli.DefaultCompression
	}
	return brotli.NewWriterLevel(w, level), nil
}

// Snappy has no levels; the framed format is used so streams are self-delimiting
func createSnappyCompressor(w io.Writer) (io.WriteCloser, error) {
	return snappy.NewBufferedWriter(w), nil
}

func createXZCompressor(w io.Writer) (io.WriteCloser, error) {
	return xz.NewWriter(w)
}

// lazyXZWriter defers the xz stream header until the first write. The zip
// writer builds an entry's compressor before it writes the local file
// header, and xz.NewWriter emits its header immediately.
type lazyXZWriter struct {
	w  io.Writer
	xw io.WriteCloser
}

func (l *lazyXZWriter) open() error {
	if l.xw != nil {
		return nil
	}
	xw, err := createXZCompressor(l.w)
	if err != nil {
		return err
	}
	l.xw = xw
	return nil
}

func (l *lazyXZWriter) Write(p []byte) (int, error) {
	if err := l.open(); err != nil {
		return 0, err
	}
	return l.xw.Write(p)
}

func (l *lazyXZWriter) Close() error {
	if err := l.open(); err != nil {
		return err
	}
	return l.xw.Close()
}

func createXZDecompressor(r io.Reader) (io.ReadCloser, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xr), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// errReader fails every read with a fixed error
type errReader struct {
	err error
}

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
