package ampzip

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
)

// Inject adds every file named by paths to c without modifying the
// sources. A regular file is stored under its base name. A directory is
// walked recursively in name order; its files are stored under the
// directory's base name when preserveDirStructure is set and relative to
// the directory otherwise.
func (b *Builder) Inject(c Container, paths []string, preserveDirStructure bool) error {
	return b.inject(c, paths, preserveDirStructure, nil)
}

func (b *Builder) inject(c Container, paths []string, preserveDirStructure bool, skip skipSet) error {
	cfg := b.snapshot()
	for _, p := range paths {
		info, err := b.statPayload(p)
		if err != nil {
			return err
		}
		clean := filepath.Clean(p)

		if !info.IsDir() {
			e := Entry{Kind: EntryPayload, Name: filepath.Base(clean), Source: p, Size: info.Size()}
			if err := b.addEntry(c, e); err != nil {
				return err
			}
			continue
		}

		prefix := ""
		if preserveDirStructure {
			prefix = filepath.Base(clean)
		}
		if err := b.injectDir(c, &cfg, clean, prefix, skip); err != nil {
			return err
		}
	}
	return nil
}

// injectPayload writes a payload set into c. Directory walks never enter
// the build's own workspace or pick up its output.
func (b *Builder) injectPayload(c Container, ws *workspace, payload PayloadSet) error {
	skip := newSkipSet(ws.dir, ws.output)
	if err := b.inject(c, payload.Dirs, false, skip); err != nil {
		return err
	}
	return b.inject(c, payload.Files, true, skip)
}

// skipSet holds absolute, cleaned paths a payload walk must not visit
type skipSet map[string]struct{}

func newSkipSet(paths ...string) skipSet {
	s := make(skipSet, len(paths))
	for _, p := range paths {
		if p != "" {
			s[absPath(p)] = struct{}{}
		}
	}
	return s
}

func (s skipSet) has(p string) bool {
	_, ok := s[absPath(p)]
	return ok
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// checkPayload fails fast on missing payload paths before any filler is
// generated
func (b *Builder) checkPayload(payload PayloadSet) error {
	for _, list := range [][]string{payload.Dirs, payload.Files} {
		for _, p := range list {
			if _, err := b.statPayload(p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) statPayload(p string) (fs.FileInfo, error) {
	info, err := b.fsys.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, p, err)
	}
	return info, nil
}

func (b *Builder) injectDir(c Container, cfg *Config, dir, prefix string, skip skipSet) error {
	entries, err := b.fsys.ReadDir(dir)
	if err != nil {
		return b.unreadable(cfg, dir, err)
	}

	for _, de := range entries {
		full := filepath.Join(dir, de.Name())
		name := path.Join(prefix, de.Name())
		if skip.has(full) {
			b.logger().Debug("skipping build path in payload directory", "path", full)
			continue
		}

		if de.IsDir() {
			if err := b.injectDir(c, cfg, full, name, skip); err != nil {
				return err
			}
			continue
		}

		info, err := b.fsys.Stat(full)
		if err != nil {
			if err := b.unreadable(cfg, full, err); err != nil {
				return err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			// Directory symlinks and special files
			b.logger().Debug("skipping non-regular payload path", "path", full, "mode", info.Mode())
			continue
		}

		f, err := b.fsys.Open(full)
		if err != nil {
			if err := b.unreadable(cfg, full, err); err != nil {
				return err
			}
			continue
		}
		e := Entry{Kind: EntryPayload, Name: name, Source: full, Size: info.Size()}
		err = b.addReader(c, e, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// unreadable applies the skip policy to a payload path that failed to read
func (b *Builder) unreadable(cfg *Config, p string, err error) error {
	if cfg.SkipUnreadable {
		b.logger().Warn("skipping unreadable payload path", "path", p, "error", err)
		return nil
	}
	return fmt.Errorf("%w: read %s: %w", ErrIO, p, err)
}

// addReader writes e from an open reader and records stats
func (b *Builder) addReader(c Container, e Entry, r io.Reader) error {
	if err := c.Add(e, r); err != nil {
		return err
	}

	switch e.Kind {
	case EntryFiller:
		b.incrementStat(&b.stats.FillerFiles)
	case EntryPayload:
		b.incrementStat(&b.stats.PayloadFiles)
		b.addBytes(&b.stats.BytesPayload, e.Size)
	case EntryNested:
		b.incrementStat(&b.stats.NestedCopies)
	}
	return nil
}
