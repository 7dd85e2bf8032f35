package ampzip

import (
	"archive/tar"
	"bytes"
	"io"
	"path"
	"testing"

	"github.com/klauspost/compress/zip"
)

// kib is the unit used by build tests so a 250 unit target writes 250KB
const kib = 1024

// testConfig returns the default config scaled down to KiB units
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Unit = kib
	return cfg
}

// newTestBuilder creates a Builder on fsys with KiB units
func newTestBuilder(t *testing.T, fsys FileSystem, modify ...func(*Config)) *Builder {
	t.Helper()
	cfg := testConfig()
	for _, m := range modify {
		m(cfg)
	}
	b, err := New(fsys, cfg)
	if err != nil {
		t.Fatalf("Failed to create builder: %v", err)
	}
	return b
}

// writeTestFile creates name on fsys with data, creating parent
// directories as needed
func writeTestFile(t *testing.T, fsys FileSystem, name string, data []byte) {
	t.Helper()
	mkdirAll(t, fsys, path.Dir(name))

	f, err := fsys.Create(name)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close %s: %v", name, err)
	}
}

func mkdirAll(t *testing.T, fsys FileSystem, dir string) {
	t.Helper()
	if dir == "." || dir == "/" || dir == "" {
		return
	}
	if _, err := fsys.Stat(dir); err == nil {
		return
	}
	mkdirAll(t, fsys, path.Dir(dir))
	if err := fsys.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", dir, err)
	}
}

func readTestFile(t *testing.T, fsys FileSystem, name string) []byte {
	t.Helper()
	f, err := fsys.Open(name)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return data
}

// listDir returns the names in dir
func listDir(t *testing.T, fsys FileSystem, dir string) []string {
	t.Helper()
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read directory %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// zipEntries reads every entry of a zip held in data
func zipEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Failed to open zip: %v", err)
	}
	registerZipDecompressors(zr)

	entries := make(map[string][]byte)
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			t.Fatalf("Failed to open entry %s: %v", zf.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("Failed to read entry %s: %v", zf.Name, err)
		}
		entries[zf.Name] = content
	}
	return entries
}

// zipNames lists entry names of a zip held in data, in archive order
func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Failed to open zip: %v", err)
	}
	names := make([]string, 0, len(zr.File))
	for _, zf := range zr.File {
		names = append(names, zf.Name)
	}
	return names
}

// tarEntries reads every entry of a tar stream compressed with algo
func tarEntries(t *testing.T, data []byte, algo Algorithm) map[string][]byte {
	t.Helper()
	stream, err := createDecompressor(algo, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to open %s stream: %v", algo, err)
	}
	defer stream.Close()

	entries := make(map[string][]byte)
	tr := tar.NewReader(stream)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read tar: %v", err)
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("Failed to read entry %s: %v", hdr.Name, err)
		}
		entries[hdr.Name] = content
	}
	return entries
}

// allBytes reports whether data consists only of b
func allBytes(data []byte, b byte) bool {
	for _, c := range data {
		if c != b {
			return false
		}
	}
	return true
}
