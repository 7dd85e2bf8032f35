package ampzip

// Preset configurations for common use cases

// FastestConfig returns a configuration optimized for build speed
func FastestConfig() *Config {
	cfg := DefaultConfig()
	cfg.Level = 1
	cfg.BufferSize = 1024 * 1024
	return cfg
}

// CompatibleConfig returns a zip/deflate configuration every extractor
// understands, at the strongest deflate level
func CompatibleConfig() *Config {
	cfg := DefaultConfig()
	cfg.Level = 9
	return cfg
}

// BestCompressionConfig returns a configuration optimized for amplification.
// Deflate caps near 1032:1 on repeated bytes; zstd entries go far beyond,
// at the cost of extractor support.
func BestCompressionConfig() *Config {
	cfg := DefaultConfig()
	cfg.Algorithm = AlgorithmZstd
	cfg.Level = 19
	return cfg
}

// TarConfig returns a configuration writing tar streams compressed with algo
func TarConfig(algo Algorithm) *Config {
	cfg := DefaultConfig()
	cfg.Format = FormatTar
	cfg.Algorithm = algo
	return cfg
}

// NewWithBestCompression creates a Builder optimized for amplification
func NewWithBestCompression(fsys FileSystem) (*Builder, error) {
	return New(fsys, BestCompressionConfig())
}

// NewWithCompatibleConfig creates a Builder whose output any zip tool opens
func NewWithCompatibleConfig(fsys FileSystem) (*Builder, error) {
	return New(fsys, CompatibleConfig())
}

// GetCompressionRatio calculates the compression ratio for given original and compressed sizes
// Returns a value between 0 and 1, where lower is better
// E.g., 0.5 means the compressed size is 50% of the original
func GetCompressionRatio(originalSize, compressedSize int64) float64 {
	if originalSize == 0 {
		return 0
	}
	return float64(compressedSize) / float64(originalSize)
}

// GetAmplification returns how many bytes each stored byte expands to
func GetAmplification(decompressedSize, compressedSize int64) float64 {
	if compressedSize == 0 {
		return 0
	}
	return float64(decompressedSize) / float64(compressedSize)
}
