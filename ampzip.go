package ampzip

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/absfs/absfs"
)

// Format identifies the container format written by a build.
type Format string

const (
	FormatZip Format = "zip"
	FormatTar Format = "tar"
)

// Algorithm represents a compression algorithm
type Algorithm string

const (
	AlgorithmStore   Algorithm = "store"
	AlgorithmDeflate Algorithm = "deflate"
	AlgorithmGzip    Algorithm = "gzip"
	AlgorithmZstd    Algorithm = "zstd"
	AlgorithmLZ4     Algorithm = "lz4"
	AlgorithmBrotli  Algorithm = "brotli"
	AlgorithmSnappy  Algorithm = "snappy"
	AlgorithmXZ      Algorithm = "xz"
)

// Mode selects how a target size is reached.
type Mode string

const (
	// ModeFlat writes many sibling filler entries into one container.
	ModeFlat Mode = "flat"
	// ModeNested writes containers of containers, depth levels deep.
	ModeNested Mode = "nested"
)

// ParseMode parses a mode name as accepted on the command line.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case ModeFlat, ModeNested:
		return Mode(name), nil
	default:
		return "", fmt.Errorf("ampzip: unknown mode %q (want flat or nested)", name)
	}
}

const (
	// MB is the default size unit. Targets are expressed in units.
	MB int64 = 1 << 20

	// MaxTargetSize bounds targets so depth^depth*leaf never overflows.
	MaxTargetSize int64 = 1 << 50
)

// Config holds build configuration
type Config struct {
	// Container format (default: zip)
	Format Format `yaml:"format"`

	// Algorithm used for every entry (zip) or for the whole stream (tar).
	// zip: store, deflate, zstd, xz
	// tar: store, gzip, zstd, lz4, brotli, snappy, xz
	Algorithm Algorithm `yaml:"algorithm"`

	// Compression level (algorithm-specific, 0 selects the default)
	// deflate/gzip: 1-9
	// zstd: 1-22
	// lz4: 1-9
	// brotli: 0-11
	// store/snappy/xz: ignored
	Level int `yaml:"level"`

	// Bytes per size unit (default: 1 MiB)
	Unit int64 `yaml:"unit"`

	// Byte value repeated in filler files (default: '0'). In YAML a single
	// character is taken literally and longer values as a number, so both
	// `filler_byte: 0` and `filler_byte: 0x30` mean '0'.
	FillerByte FillByte `yaml:"filler_byte"`

	// Buffer size for filler generation (default: 64KB)
	BufferSize int `yaml:"buffer_size"`

	// Smallest accepted target, in units (default: 100)
	MinSize int64 `yaml:"min_size"`

	// Nested builds below this target fall back to flat mode (default: 500)
	NestedThreshold int64 `yaml:"nested_threshold"`

	// Preferred size of one flat filler file, in units (default: 100)
	FileTarget int64 `yaml:"file_target"`

	// Directory holding build workspaces. Empty means the directory of
	// the output file, which keeps the final rename on one filesystem.
	WorkDir string `yaml:"work_dir"`

	// Skip payload subpaths that cannot be read instead of failing
	SkipUnreadable bool `yaml:"skip_unreadable"`

	// Logger receives build progress. Nil discards it.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Format:          FormatZip,
		Algorithm:       AlgorithmDeflate,
		Level:           0,
		Unit:            MB,
		FillerByte:      '0',
		BufferSize:      64 * 1024, // 64KB
		MinSize:         100,
		NestedThreshold: 500,
		FileTarget:      100,
	}
}

// Validate reports whether the configuration can drive a build.
func (c *Config) Validate() error {
	if c.Unit <= 0 {
		return fmt.Errorf("ampzip: unit must be positive, got %d", c.Unit)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("ampzip: buffer size must be positive, got %d", c.BufferSize)
	}
	if c.MinSize < 1 {
		return fmt.Errorf("ampzip: min size must be at least 1, got %d", c.MinSize)
	}
	if c.FileTarget < 1 {
		return fmt.Errorf("ampzip: file target must be at least 1, got %d", c.FileTarget)
	}
	if c.NestedThreshold < 1 {
		return fmt.Errorf("ampzip: nested threshold must be at least 1, got %d", c.NestedThreshold)
	}
	if err := checkLevel(c.Algorithm, c.Level); err != nil {
		return err
	}
	return checkFormat(c.Format, c.Algorithm)
}

// Stats holds build statistics
type Stats struct {
	ContainersCreated int64
	FillerFiles       int64
	PayloadFiles      int64
	NestedCopies      int64

	BytesFiller  int64
	BytesPayload int64

	TempFilesRemoved int64
}

var (
	ErrInvalidSize          = errors.New("ampzip: invalid target size")
	ErrIO                   = errors.New("ampzip: i/o failure")
	ErrNotFound             = errors.New("ampzip: payload path not found")
	ErrFormat               = errors.New("ampzip: container rejected entry")
	ErrUnsupportedAlgorithm = errors.New("ampzip: unsupported compression algorithm")
	ErrUnsupportedFormat    = errors.New("ampzip: unsupported container format")
	ErrInvalidLevel         = errors.New("ampzip: invalid compression level")
)

// FileSystem is the filesystem a Builder reads payload from and writes
// temporaries and outputs to.
type FileSystem interface {
	Open(name string) (absfs.File, error)
	OpenFile(name string, flag int, perm fs.FileMode) (absfs.File, error)
	Create(name string) (absfs.File, error)
	Mkdir(name string, perm fs.FileMode) error
	Remove(name string) error
	RemoveAll(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
}

// Builder constructs amplification archives on a FileSystem
type Builder struct {
	fsys   FileSystem
	config *Config
	stats  Stats
	mu     sync.RWMutex
}

// New creates a new Builder. A nil config selects DefaultConfig.
func New(fsys FileSystem, config *Config) (*Builder, error) {
	if fsys == nil {
		fsys = OSFS()
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Builder{
		fsys:   fsys,
		config: config,
	}, nil
}

// snapshot returns a copy of the configuration for one build.
func (b *Builder) snapshot() Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return *b.config
}

func (b *Builder) logger() *slog.Logger {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.config.Logger != nil {
		return b.config.Logger
	}
	return discardLogger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// GetStats returns current statistics
func (b *Builder) GetStats() *Stats {
	return &Stats{
		ContainersCreated: atomic.LoadInt64(&b.stats.ContainersCreated),
		FillerFiles:       atomic.LoadInt64(&b.stats.FillerFiles),
		PayloadFiles:      atomic.LoadInt64(&b.stats.PayloadFiles),
		NestedCopies:      atomic.LoadInt64(&b.stats.NestedCopies),
		BytesFiller:       atomic.LoadInt64(&b.stats.BytesFiller),
		BytesPayload:      atomic.LoadInt64(&b.stats.BytesPayload),
		TempFilesRemoved:  atomic.LoadInt64(&b.stats.TempFilesRemoved),
	}
}

// ResetStats resets statistics to zero
func (b *Builder) ResetStats() {
	atomic.StoreInt64(&b.stats.ContainersCreated, 0)
	atomic.StoreInt64(&b.stats.FillerFiles, 0)
	atomic.StoreInt64(&b.stats.PayloadFiles, 0)
	atomic.StoreInt64(&b.stats.NestedCopies, 0)
	atomic.StoreInt64(&b.stats.BytesFiller, 0)
	atomic.StoreInt64(&b.stats.BytesPayload, 0)
	atomic.StoreInt64(&b.stats.TempFilesRemoved, 0)
}

// SetAlgorithm changes the compression algorithm for subsequent builds
func (b *Builder) SetAlgorithm(algo Algorithm) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := checkFormat(b.config.Format, algo); err != nil {
		return err
	}
	b.config.Algorithm = algo
	return nil
}

// SetLevel changes the compression level for subsequent builds
func (b *Builder) SetLevel(level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := checkLevel(b.config.Algorithm, level); err != nil {
		return err
	}
	b.config.Level = level
	return nil
}

// incrementStat atomically increments a stat counter
func (b *Builder) incrementStat(counter *int64) {
	atomic.AddInt64(counter, 1)
}

// addBytes atomically adds to a byte counter
func (b *Builder) addBytes(counter *int64, n int64) {
	atomic.AddInt64(counter, n)
}
