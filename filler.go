package ampzip

import (
	"bytes"
	"fmt"
	"os"
)

// GenerateFiller writes size bytes of fill to name on fsys, replacing any
// existing file. A zero size produces an empty file. bufSize bounds the
// chunk written per call; values below one select 64KB.
func GenerateFiller(fsys FileSystem, name string, size int64, fill byte, bufSize int) (err error) {
	if size < 0 {
		return fmt.Errorf("%w: filler size %d", ErrInvalidSize, size)
	}
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}

	f, err := fsys.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create filler %s: %w", ErrIO, name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close filler %s: %w", ErrIO, name, cerr)
		}
	}()

	chunk := bytes.Repeat([]byte{fill}, int(min(int64(bufSize), size)))
	for remaining := size; remaining > 0; {
		n := min(remaining, int64(len(chunk)))
		written, werr := f.Write(chunk[:n])
		remaining -= int64(written)
		if werr != nil {
			return fmt.Errorf("%w: write filler %s: %w", ErrIO, name, werr)
		}
	}
	return nil
}

// generateFiller writes a filler of units size into the workspace
func (b *Builder) generateFiller(ws *workspace, cfg *Config, name string, units int64) (Entry, error) {
	size, err := unitBytes(units, cfg.Unit)
	if err != nil {
		return Entry{}, err
	}
	source := ws.path(name)
	if err := GenerateFiller(b.fsys, source, size, byte(cfg.FillerByte), cfg.BufferSize); err != nil {
		return Entry{}, err
	}
	b.addBytes(&b.stats.BytesFiller, size)
	return Entry{Kind: EntryFiller, Name: name, Source: source, Size: size}, nil
}

// unitBytes converts a size in units to bytes, rejecting overflow
func unitBytes(units, unit int64) (int64, error) {
	if units < 0 {
		return 0, fmt.Errorf("%w: %d units", ErrInvalidSize, units)
	}
	if units > 0 && unit > maxInt64/units {
		return 0, fmt.Errorf("%w: %d units of %d bytes overflow", ErrInvalidSize, units, unit)
	}
	return units * unit, nil
}
