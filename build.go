package ampzip

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// PayloadSet lists user files injected verbatim at final assembly. Dirs
// are injected without their top-level directory name; Files (which may
// also name directories) keep it.
type PayloadSet struct {
	Dirs  []string
	Files []string
}

// Empty reports whether the set injects nothing
func (p PayloadSet) Empty() bool {
	return len(p.Dirs) == 0 && len(p.Files) == 0
}

// Result describes a finished build
type Result struct {
	Mode   Mode
	Output string

	// Sizes in units
	Target     int64
	ActualSize int64
	Unit       int64

	// Nested layout; zero for flat builds
	Depth    int64
	LeafSize int64

	// Filler entries written (flat) or leaf copies implied (nested)
	FillerEntries int64

	// Size of the output file in bytes
	CompressedSize int64

	// Routed is set when a nested request was served in flat mode
	Routed bool

	Duration time.Duration
}

// DecompressedBytes returns ActualSize in bytes, saturating on overflow
func (r *Result) DecompressedBytes() int64 {
	return mulSat(r.ActualSize, r.Unit)
}

// Amplification returns decompressed bytes per stored byte
func (r *Result) Amplification() float64 {
	return GetAmplification(r.DecompressedBytes(), r.CompressedSize)
}

// Build dispatches to BuildFlat or BuildNested
func (b *Builder) Build(mode Mode, target int64, output string, payload PayloadSet) (*Result, error) {
	switch mode {
	case ModeFlat:
		return b.BuildFlat(target, output, payload)
	case ModeNested:
		return b.BuildNested(target, output, payload)
	default:
		return nil, fmt.Errorf("ampzip: unknown mode %q", mode)
	}
}

// checkTarget validates a target against the configured bounds
func checkTarget(cfg *Config, target int64) error {
	if target < cfg.MinSize {
		return fmt.Errorf("%w: %d is below the minimum of %d", ErrInvalidSize, target, cfg.MinSize)
	}
	if target > MaxTargetSize {
		return fmt.Errorf("%w: %d exceeds the maximum of %d", ErrInvalidSize, target, MaxTargetSize)
	}
	return nil
}

// workspace is a build-scoped directory holding every temporary file.
// It is removed as a whole when the build returns.
type workspace struct {
	b      *Builder
	dir    string
	output string
}

// openWorkspace creates a fresh workspace next to output unless the
// configuration names a work directory
func (b *Builder) openWorkspace(cfg *Config, output string) (*workspace, error) {
	parent := cfg.WorkDir
	if parent == "" {
		parent = filepath.Dir(output)
	}
	dir := filepath.Join(parent, ".ampzip-"+uuid.NewString())
	if err := b.fsys.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: create workspace: %w", ErrIO, err)
	}
	return &workspace{b: b, dir: dir, output: output}, nil
}

func (ws *workspace) path(name string) string {
	return filepath.Join(ws.dir, name)
}

// remove deletes a consumed temporary
func (ws *workspace) remove(source string) error {
	if err := ws.b.fsys.Remove(source); err != nil {
		return fmt.Errorf("%w: remove %s: %w", ErrIO, source, err)
	}
	ws.b.incrementStat(&ws.b.stats.TempFilesRemoved)
	return nil
}

// release removes the workspace and anything left in it
func (ws *workspace) release() error {
	if err := ws.b.fsys.RemoveAll(ws.dir); err != nil {
		return fmt.Errorf("%w: remove workspace %s: %w", ErrIO, ws.dir, err)
	}
	return nil
}

// commit moves a finished container over output. Only a complete container
// ever reaches the destination.
func (ws *workspace) commit(source, output string) (int64, error) {
	err := ws.b.fsys.Rename(source, output)
	if errors.Is(err, syscall.EXDEV) {
		err = ws.copyAcross(source, output)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: move output to %s: %w", ErrIO, output, err)
	}
	info, err := ws.b.fsys.Stat(output)
	if err != nil {
		return 0, fmt.Errorf("%w: stat output %s: %w", ErrIO, output, err)
	}
	return info.Size(), nil
}

// copyAcross copies source next to output and renames it into place, for
// workspaces on a different filesystem than the output
func (ws *workspace) copyAcross(source, output string) (err error) {
	partial := output + ".ampzip-partial"
	src, err := ws.b.fsys.Open(source)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := ws.b.fsys.OpenFile(partial, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			ws.b.fsys.Remove(partial)
		}
	}()

	if _, err = io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err = dst.Close(); err != nil {
		return err
	}
	return ws.b.fsys.Rename(partial, output)
}

// containerFile is a container being written to a workspace file
type containerFile struct {
	Container
	file   io.Closer
	source string
}

// createContainer opens a new container file in the workspace
func (b *Builder) createContainer(ws *workspace, cfg *Config, name string) (*containerFile, error) {
	source := ws.path(name)
	f, err := b.fsys.OpenFile(source, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create container %s: %w", ErrIO, name, err)
	}
	c, err := NewContainer(f, cfg.Format, cfg.Algorithm, cfg.Level)
	if err != nil {
		f.Close()
		return nil, err
	}
	b.incrementStat(&b.stats.ContainersCreated)
	return &containerFile{Container: c, file: f, source: source}, nil
}

// Close finishes the container and closes its file
func (c *containerFile) Close() error {
	err := c.Container.Close()
	if cerr := c.file.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: close %s: %w", ErrIO, c.source, cerr)
	}
	return err
}

// abort closes the file after a failed build step; the workspace release
// removes what was written
func (c *containerFile) abort() {
	c.file.Close()
}

// addEntry streams e.Source into c
func (b *Builder) addEntry(c Container, e Entry) error {
	f, err := b.fsys.Open(e.Source)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrIO, e.Source, err)
	}
	defer f.Close()
	return b.addReader(c, e, f)
}
