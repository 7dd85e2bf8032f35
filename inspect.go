package ampzip

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"path"

	"github.com/klauspost/compress/zip"
)

// InspectOptions bounds how far Inspect expands nested containers
type InspectOptions struct {
	// Deepest nesting level expanded (default: 32)
	MaxDepth int

	// Largest nested zip buffered in memory for expansion (default: 64MB).
	// Nested tar streams are expanded in place and are not limited.
	MaxEntryBytes int64
}

// DefaultInspectOptions returns the limits used when Inspect gets nil
func DefaultInspectOptions() *InspectOptions {
	return &InspectOptions{
		MaxDepth:      32,
		MaxEntryBytes: 64 * MB,
	}
}

// ManifestEntry is one top-level entry of an inspected container
type ManifestEntry struct {
	Name      string
	Size      int64
	Container bool
}

// Manifest summarizes a container and its fully expanded contents
type Manifest struct {
	Format    Format
	Algorithm Algorithm

	// Top-level entries in archive order
	Entries []ManifestEntry

	// ExpandedSize is the byte count after recursively extracting every
	// nested container
	ExpandedSize int64

	// Containers counts every container opened, nested copies included
	Containers int64

	// Levels is the number of containers on the deepest nesting path
	Levels int

	// Truncated is set when a nested container exceeded the limits and
	// was counted at its stored size
	Truncated bool
}

// Inspect reads the container at name and measures what it expands to.
// The format is taken from the file name, falling back to magic bytes.
func Inspect(fsys FileSystem, name string, opts *InspectOptions) (*Manifest, error) {
	if fsys == nil {
		fsys = OSFS()
	}
	if opts == nil {
		opts = DefaultInspectOptions()
	}

	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, name, err)
	}

	format, algo, ok := DetectFormatFromName(name)
	if !ok {
		head := make([]byte, 512)
		n, err := f.ReadAt(head, 0)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: read %s: %w", ErrIO, name, err)
		}
		format, algo, ok = DetectContainer(head[:n])
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
		}
	}

	in := &inspector{opts: opts, memo: make(map[zipKey]expansion)}
	m := &Manifest{Format: format, Algorithm: algo}

	var exp expansion
	switch format {
	case FormatZip:
		exp, err = in.expandZip(f, info.Size(), 1, m)
	default:
		exp, err = in.expandTar(f, algo, 1, m)
	}
	if err != nil {
		return nil, err
	}

	m.ExpandedSize = exp.size
	m.Containers = exp.containers
	m.Levels = exp.levels
	m.Truncated = exp.truncated
	return m, nil
}

// expansion is the measured content of one container or entry
type expansion struct {
	size       int64
	containers int64
	levels     int
	truncated  bool
}

func (e *expansion) include(child expansion) {
	e.size = addSat(e.size, child.size)
	e.containers = addSat(e.containers, child.containers)
	e.levels = max(e.levels, child.levels+1)
	e.truncated = e.truncated || child.truncated
}

// zipKey identifies identical nested zip entries so each distinct level is
// expanded once
type zipKey struct {
	crc  uint32
	size uint64
	ext  string
}

type inspector struct {
	opts *InspectOptions
	memo map[zipKey]expansion
}

// expandZip measures a zip container at nesting level depth. top collects
// entries when non-nil.
func (in *inspector) expandZip(ra io.ReaderAt, size int64, depth int, top *Manifest) (expansion, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return expansion{}, fmt.Errorf("%w: read zip: %w", ErrFormat, err)
	}
	registerZipDecompressors(zr)

	exp := expansion{containers: 1, levels: 1}
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		entrySize := int64(zf.UncompressedSize64)
		nested := IsContainerName(zf.Name)
		if top != nil {
			top.Entries = append(top.Entries, ManifestEntry{Name: zf.Name, Size: entrySize, Container: nested})
		}
		if !nested {
			exp.include(expansion{size: entrySize, levels: 0})
			continue
		}

		key := zipKey{crc: zf.CRC32, size: zf.UncompressedSize64, ext: path.Ext(zf.Name)}
		if child, ok := in.memo[key]; ok {
			exp.include(child)
			continue
		}
		child, ok := in.measureNested(zf.Name, entrySize, zf.Open, depth)
		if !ok && top != nil {
			top.Entries[len(top.Entries)-1].Container = false
		}
		in.memo[key] = child
		exp.include(child)
	}
	return exp, nil
}

// expandTar measures a tar stream compressed with algo
func (in *inspector) expandTar(r io.Reader, algo Algorithm, depth int, top *Manifest) (expansion, error) {
	stream, err := createDecompressor(algo, r)
	if err != nil {
		return expansion{}, fmt.Errorf("%w: open %s stream: %w", ErrFormat, algo, err)
	}
	defer stream.Close()

	exp := expansion{containers: 1, levels: 1}
	tr := tar.NewReader(stream)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return expansion{}, fmt.Errorf("%w: read tar: %w", ErrFormat, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		nested := IsContainerName(hdr.Name)
		if top != nil {
			top.Entries = append(top.Entries, ManifestEntry{Name: hdr.Name, Size: hdr.Size, Container: nested})
		}
		if !nested {
			exp.include(expansion{size: hdr.Size, levels: 0})
			continue
		}

		open := func() (io.ReadCloser, error) { return io.NopCloser(tr), nil }
		child, ok := in.measureNested(hdr.Name, hdr.Size, open, depth)
		if !ok && top != nil {
			top.Entries[len(top.Entries)-1].Container = false
		}
		exp.include(child)
	}
	return exp, nil
}

// measureNested expands an entry with a container name. An entry that does
// not parse as its format is plain data counted at its size, and ok is false.
func (in *inspector) measureNested(name string, size int64, open func() (io.ReadCloser, error), depth int) (exp expansion, ok bool) {
	child, err := in.expandNested(name, size, open, depth)
	if err != nil {
		return expansion{size: size}, false
	}
	return child, true
}

// expandNested measures a container entry found at nesting level depth
func (in *inspector) expandNested(name string, size int64, open func() (io.ReadCloser, error), depth int) (expansion, error) {
	opaque := expansion{size: size, levels: 0, truncated: true}
	if depth >= in.opts.MaxDepth {
		return opaque, nil
	}

	format, algo, _ := DetectFormatFromName(name)
	if format == FormatZip && size > in.opts.MaxEntryBytes {
		return opaque, nil
	}

	rc, err := open()
	if err != nil {
		return expansion{}, fmt.Errorf("%w: open %s: %w", ErrFormat, name, err)
	}
	defer rc.Close()

	if format == FormatTar {
		return in.expandTar(rc, algo, depth+1, nil)
	}

	buf := bytes.NewBuffer(make([]byte, 0, size))
	if _, err := io.Copy(buf, rc); err != nil {
		return expansion{}, fmt.Errorf("%w: read %s: %w", ErrFormat, name, err)
	}
	return in.expandZip(bytes.NewReader(buf.Bytes()), int64(buf.Len()), depth+1, nil)
}

// addSat adds non-negative values, saturating at math.MaxInt64
func addSat(a, b int64) int64 {
	if a > maxInt64-b {
		return maxInt64
	}
	return a + b
}
