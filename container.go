package ampzip

import (
	"archive/tar"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// EntryKind tags what an Entry carries
type EntryKind uint8

const (
	// EntryFiller is synthetic, maximally compressible data.
	EntryFiller EntryKind = iota
	// EntryPayload is a user file copied verbatim.
	EntryPayload
	// EntryNested is a copy of the previous nesting level's container.
	EntryNested
)

// String returns the human-readable name of an entry kind.
func (k EntryKind) String() string {
	switch k {
	case EntryFiller:
		return "filler"
	case EntryPayload:
		return "payload"
	case EntryNested:
		return "nested"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Entry is one item written into a container. Name is slash separated and
// unique within its container; Source names the file on the builder's
// FileSystem holding the Size bytes of content.
type Entry struct {
	Kind   EntryKind
	Name   string
	Source string
	Size   int64
}

// Container is a write-only archive. Entries are streamed into the
// underlying writer as they are added and are never held in memory.
type Container interface {
	// Add writes e, reading exactly e.Size bytes from r.
	Add(e Entry, r io.Reader) error
	// Close finishes the archive. It does not close the underlying writer.
	Close() error
}

// NewContainer starts a container of the given format on w
func NewContainer(w io.Writer, format Format, algo Algorithm, level int) (Container, error) {
	if err := checkFormat(format, algo); err != nil {
		return nil, err
	}
	if err := checkLevel(algo, level); err != nil {
		return nil, err
	}

	switch format {
	case FormatZip:
		method, _ := zipMethod(algo)
		zw := zip.NewWriter(w)
		registerZipCompressors(zw, level)
		return &zipContainer{
			zw:       zw,
			method:   method,
			names:    make(nameSet),
			modified: time.Now(),
		}, nil
	case FormatTar:
		stream, err := createCompressor(algo, w, level)
		if err != nil {
			return nil, err
		}
		return &tarContainer{
			tw:       tar.NewWriter(stream),
			stream:   stream,
			names:    make(nameSet),
			modified: time.Now(),
		}, nil
	}
	return nil, ErrUnsupportedFormat
}

// nameSet enforces unique, relative entry names
type nameSet map[string]struct{}

func (s nameSet) claim(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || path.Clean(name) != name ||
		name == ".." || strings.HasPrefix(name, "../") {
		return fmt.Errorf("%w: invalid entry name %q", ErrFormat, name)
	}
	if _, dup := s[name]; dup {
		return fmt.Errorf("%w: duplicate entry name %q", ErrFormat, name)
	}
	s[name] = struct{}{}
	return nil
}

type zipContainer struct {
	zw       *zip.Writer
	method   uint16
	names    nameSet
	modified time.Time
}

func (c *zipContainer) Add(e Entry, r io.Reader) error {
	if err := c.names.claim(e.Name); err != nil {
		return err
	}

	hdr := &zip.FileHeader{
		Name:     e.Name,
		Method:   c.method,
		Modified: c.modified,
	}
	hdr.SetMode(0o644)

	w, err := c.zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFormat, e.Name, err)
	}
	return copyEntry(w, r, e)
}

func (c *zipContainer) Close() error {
	if err := c.zw.Close(); err != nil {
		return fmt.Errorf("%w: finish zip: %w", ErrIO, err)
	}
	return nil
}

type tarContainer struct {
	tw       *tar.Writer
	stream   io.WriteCloser
	names    nameSet
	modified time.Time
}

func (c *tarContainer) Add(e Entry, r io.Reader) error {
	if err := c.names.claim(e.Name); err != nil {
		return err
	}

	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     e.Name,
		Size:     e.Size,
		Mode:     0o644,
		ModTime:  c.modified,
	}
	if err := c.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFormat, e.Name, err)
	}
	return copyEntry(c.tw, r, e)
}

func (c *tarContainer) Close() error {
	err := c.tw.Close()
	if cerr := c.stream.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%w: finish tar: %w", ErrIO, err)
	}
	return nil
}

// copyEntry streams exactly e.Size bytes of content
func copyEntry(w io.Writer, r io.Reader, e Entry) error {
	n, err := io.CopyN(w, r, e.Size)
	if err == io.EOF {
		return fmt.Errorf("%w: %s: source ended after %d of %d bytes", ErrIO, e.Name, n, e.Size)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIO, e.Name, err)
	}
	return nil
}
