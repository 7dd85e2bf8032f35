package ampzip

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	input := `
format: tar
algorithm: zstd
level: 19
unit: 1024
filler_byte: 65
buffer_size: 1048576
min_size: 10
nested_threshold: 1000
file_target: 50
work_dir: /var/tmp/ampzip
skip_unreadable: true
`
	cfg, err := LoadConfig(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, FormatTar, cfg.Format)
	assert.Equal(t, AlgorithmZstd, cfg.Algorithm)
	assert.Equal(t, 19, cfg.Level)
	assert.Equal(t, int64(1024), cfg.Unit)
	assert.Equal(t, FillByte('A'), cfg.FillerByte)
	assert.Equal(t, 1<<20, cfg.BufferSize)
	assert.Equal(t, int64(10), cfg.MinSize)
	assert.Equal(t, int64(1000), cfg.NestedThreshold)
	assert.Equal(t, int64(50), cfg.FileTarget)
	assert.Equal(t, "/var/tmp/ampzip", cfg.WorkDir)
	assert.True(t, cfg.SkipUnreadable)
	assert.Nil(t, cfg.Logger)
}

func TestLoadConfigFillerByte(t *testing.T) {
	tests := []struct {
		value   string
		want    FillByte
		wantErr bool
	}{
		{"0", '0', false},
		{"'0'", '0', false},
		{"A", 'A', false},
		{"48", '0', false},
		{"0x30", '0', false},
		{"0x00", 0, false},
		{"255", 255, false},
		{"256", 0, true},
		{"ab", 0, true},
		{"[1]", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			cfg, err := LoadConfig(strings.NewReader("filler_byte: " + tt.value + "\n"))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.FillerByte)
		})
	}
}

func TestLoadConfigPartial(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader("algorithm: xz\n"))
	require.NoError(t, err)

	want := DefaultConfig()
	want.Algorithm = AlgorithmXZ
	assert.Equal(t, want, cfg)
}

func TestLoadConfigEmpty(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":         "compression: max\n",
		"bad type":            "level: high\n",
		"invalid level":       "level: 42\n",
		"algorithm mismatch":  "format: zip\nalgorithm: brotli\n",
		"unknown format":      "format: rar\n",
		"non-positive unit":   "unit: 0\n",
		"malformed document":  "format: [zip\n",
		"zero file target":    "file_target: 0\n",
		"negative min size":   "min_size: -5\n",
		"zero buffer size":    "buffer_size: 0\n",
		"zero nested cut-off": "nested_threshold: 0\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ampzip.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: tar\nalgorithm: gzip\n"), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatTar, cfg.Format)
	assert.Equal(t, AlgorithmGzip, cfg.Algorithm)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("unit: -1\n"), 0o644))
	_, err = LoadConfigFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}
