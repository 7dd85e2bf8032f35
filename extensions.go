package ampzip

import (
	"bytes"
	"path"
	"strings"
)

// Extension mapping for tar stream compression
var extensionMap = map[Algorithm]string{
	AlgorithmGzip:   ".gz",
	AlgorithmZstd:   ".zst",
	AlgorithmLZ4:    ".lz4",
	AlgorithmBrotli: ".br",
	AlgorithmSnappy: ".sz",
	AlgorithmXZ:     ".xz",
}

// Reverse extension mapping (extension -> algorithm)
var reverseExtensionMap = map[string]Algorithm{
	".gz":     AlgorithmGzip,
	".gzip":   AlgorithmGzip,
	".zst":    AlgorithmZstd,
	".zstd":   AlgorithmZstd,
	".lz4":    AlgorithmLZ4,
	".br":     AlgorithmBrotli,
	".sz":     AlgorithmSnappy,
	".snappy": AlgorithmSnappy,
	".xz":     AlgorithmXZ,
}

// Single-suffix tar aliases
var tarAliases = map[string]Algorithm{
	".tgz":  AlgorithmGzip,
	".tzst": AlgorithmZstd,
	".txz":  AlgorithmXZ,
}

// Magic bytes for compression format detection
var magicBytes = map[Algorithm][]byte{
	AlgorithmGzip:   {0x1f, 0x8b},                                     // gzip
	AlgorithmZstd:   {0x28, 0xb5, 0x2f, 0xfd},                         // zstd
	AlgorithmLZ4:    {0x04, 0x22, 0x4d, 0x18},                         // lz4
	AlgorithmSnappy: {0xff, 0x06, 0x00, 0x00, 0x73, 0x4e, 0x61, 0x50}, // snappy framed
	AlgorithmXZ:     {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},             // xz
}

var (
	zipLocalMagic = []byte{'P', 'K', 0x03, 0x04}
	zipEmptyMagic = []byte{'P', 'K', 0x05, 0x06}
	tarMagic      = []byte("ustar")
)

const tarMagicOffset = 257

// GetExtension returns the stream extension for an algorithm
func GetExtension(algo Algorithm) string {
	if ext, ok := extensionMap[algo]; ok {
		return ext
	}
	return ""
}

// ContainerExtension returns the file extension of a container written with
// the given format and algorithm, e.g. ".zip" or ".tar.zst".
func ContainerExtension(format Format, algo Algorithm) string {
	if format == FormatTar {
		return ".tar" + GetExtension(algo)
	}
	return ".zip"
}

// DetectFormatFromName detects the container format from a file name
func DetectFormatFromName(name string) (Format, Algorithm, bool) {
	lower := strings.ToLower(path.Base(name))
	ext := path.Ext(lower)
	switch ext {
	case ".zip":
		return FormatZip, AlgorithmDeflate, true
	case ".tar":
		return FormatTar, AlgorithmStore, true
	}
	if algo, ok := tarAliases[ext]; ok {
		return FormatTar, algo, true
	}
	if algo, ok := reverseExtensionMap[ext]; ok {
		if path.Ext(strings.TrimSuffix(lower, ext)) == ".tar" {
			return FormatTar, algo, true
		}
	}
	return "", "", false
}

// IsContainerName reports whether a name carries a container extension
func IsContainerName(name string) bool {
	_, _, ok := DetectFormatFromName(name)
	return ok
}

// DetectContainer detects the container format from the leading bytes of a
// file. Compressed streams are assumed to wrap a tar archive.
func DetectContainer(head []byte) (Format, Algorithm, bool) {
	if bytes.HasPrefix(head, zipLocalMagic) || bytes.HasPrefix(head, zipEmptyMagic) {
		return FormatZip, AlgorithmDeflate, true
	}
	if len(head) >= tarMagicOffset+len(tarMagic) &&
		bytes.Equal(head[tarMagicOffset:tarMagicOffset+len(tarMagic)], tarMagic) {
		return FormatTar, AlgorithmStore, true
	}
	if algo, ok := IsCompressed(head); ok {
		return FormatTar, algo, true
	}
	return "", "", false
}

// IsCompressed checks if data appears to be compressed based on magic bytes
func IsCompressed(data []byte) (Algorithm, bool) {
	for algo, magic := range magicBytes {
		if bytes.HasPrefix(data, magic) {
			return algo, true
		}
	}
	return "", false
}
