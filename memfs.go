package ampzip

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/absfs/absfs"
)

var errDirNotEmpty = errors.New("directory not empty")

// normalizePath normalizes a path for consistent storage/lookup
// It removes leading slashes and cleans the path
func normalizePath(name string) string {
	// Clean the path first
	name = filepath.Clean(name)
	// Remove leading slashes to normalize absolute and relative paths
	name = strings.TrimPrefix(name, "/")
	name = strings.TrimPrefix(name, string(filepath.Separator))
	// Handle empty path (root directory)
	if name == "" || name == "." {
		name = "."
	}
	return name
}

// parentOf returns the normalized parent directory of a normalized path
func parentOf(name string) string {
	return normalizePath(filepath.Dir(name))
}

// memFS is a simple in-memory filesystem for testing
type memFS struct {
	files map[string]*memNode
	dirs  map[string]time.Time
	mu    sync.RWMutex
}

type memNode struct {
	data    []byte
	mode    fs.FileMode
	modTime time.Time
}

// NewMemFS creates a new in-memory filesystem containing only the root
// directory.
func NewMemFS() FileSystem {
	return &memFS{
		files: make(map[string]*memNode),
		dirs:  map[string]time.Time{".": time.Now()},
	}
}

func (mfs *memFS) Open(name string) (absfs.File, error) {
	return mfs.OpenFile(name, os.O_RDONLY, 0)
}

func (mfs *memFS) OpenFile(name string, flag int, perm fs.FileMode) (absfs.File, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)

	// Handle directory open (for ReadDir support)
	if _, isDir := mfs.dirs[name]; isDir {
		if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
		}
		return &memDir{mfs: mfs, name: name}, nil
	}

	node, exists := mfs.files[name]

	// Handle creation
	if !exists {
		if flag&os.O_CREATE == 0 {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		if _, ok := mfs.dirs[parentOf(name)]; !ok {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		node = &memNode{mode: perm, modTime: time.Now()}
		mfs.files[name] = node
	} else if flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0 {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrExist}
	}

	// Handle truncate
	if flag&os.O_TRUNC != 0 {
		node.data = node.data[:0]
		node.modTime = time.Now()
	}

	handle := &memFile{
		mfs:  mfs,
		node: node,
		name: name,
		flag: flag,
	}

	// Set position to end if append mode
	if flag&os.O_APPEND != 0 {
		handle.pos = int64(len(node.data))
	}

	return handle, nil
}

func (mfs *memFS) Create(name string) (absfs.File, error) {
	return mfs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func (mfs *memFS) Mkdir(name string, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)
	if _, exists := mfs.dirs[name]; exists {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	}
	if _, exists := mfs.files[name]; exists {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	}
	if _, ok := mfs.dirs[parentOf(name)]; !ok {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrNotExist}
	}
	mfs.dirs[name] = time.Now()
	return nil
}

func (mfs *memFS) Remove(name string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)
	if _, exists := mfs.files[name]; exists {
		delete(mfs.files, name)
		return nil
	}
	if _, exists := mfs.dirs[name]; exists && name != "." {
		if len(mfs.children(name)) > 0 {
			return &fs.PathError{Op: "remove", Path: name, Err: errDirNotEmpty}
		}
		delete(mfs.dirs, name)
		return nil
	}
	return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
}

// RemoveAll removes name and everything below it. A missing path is not
// an error.
func (mfs *memFS) RemoveAll(name string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)
	if name == "." {
		return &fs.PathError{Op: "removeall", Path: name, Err: fs.ErrInvalid}
	}
	prefix := name + "/"
	for p := range mfs.files {
		if p == name || strings.HasPrefix(p, prefix) {
			delete(mfs.files, p)
		}
	}
	for p := range mfs.dirs {
		if p == name || strings.HasPrefix(p, prefix) {
			delete(mfs.dirs, p)
		}
	}
	return nil
}

func (mfs *memFS) Stat(name string) (fs.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	name = normalizePath(name)
	info, ok := mfs.stat(name)
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return info, nil
}

// stat builds file info; the caller holds mfs.mu
func (mfs *memFS) stat(name string) (*memFileInfo, bool) {
	if node, ok := mfs.files[name]; ok {
		return &memFileInfo{
			name:    filepath.Base(name),
			size:    int64(len(node.data)),
			mode:    node.mode,
			modTime: node.modTime,
		}, true
	}
	if modTime, ok := mfs.dirs[name]; ok {
		return &memFileInfo{
			name:    filepath.Base(name),
			mode:    fs.ModeDir | 0755,
			modTime: modTime,
		}, true
	}
	return nil, false
}

// children lists the direct children of dir, sorted by name; the caller
// holds mfs.mu
func (mfs *memFS) children(dir string) []fs.FileInfo {
	var infos []fs.FileInfo
	for p := range mfs.files {
		if parentOf(p) == dir {
			info, _ := mfs.stat(p)
			infos = append(infos, info)
		}
	}
	for p := range mfs.dirs {
		if p != "." && parentOf(p) == dir {
			info, _ := mfs.stat(p)
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name() < infos[j].Name()
	})
	return infos
}

func (mfs *memFS) ReadDir(name string) ([]fs.DirEntry, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	name = normalizePath(name)
	if _, ok := mfs.dirs[name]; !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}

	infos := mfs.children(name)
	entries := make([]fs.DirEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	return entries, nil
}

// Rename moves a file, replacing any file already at newpath
func (mfs *memFS) Rename(oldpath, newpath string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	oldpath = normalizePath(oldpath)
	newpath = normalizePath(newpath)

	node, exists := mfs.files[oldpath]
	if !exists {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrNotExist}
	}
	if _, isDir := mfs.dirs[newpath]; isDir {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrExist}
	}
	if _, ok := mfs.dirs[parentOf(newpath)]; !ok {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrNotExist}
	}

	node.modTime = time.Now()
	mfs.files[newpath] = node
	if newpath != oldpath {
		delete(mfs.files, oldpath)
	}
	return nil
}

// memFile is an open handle on a memNode
type memFile struct {
	mfs    *memFS
	node   *memNode
	name   string
	flag   int
	pos    int64
	closed bool
	mu     sync.Mutex
}

func (mf *memFile) writable() bool {
	return mf.flag&(os.O_WRONLY|os.O_RDWR) != 0
}

func (mf *memFile) Read(p []byte) (n int, err error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if mf.closed {
		return 0, fs.ErrClosed
	}

	n, err = mf.readAt(p, mf.pos)
	mf.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// readAt copies node data at off; the caller holds mf.mu
func (mf *memFile) readAt(p []byte, off int64) (int, error) {
	mf.mfs.mu.RLock()
	defer mf.mfs.mu.RUnlock()

	data := mf.node.data
	if off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (mf *memFile) Write(p []byte) (n int, err error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if mf.closed {
		return 0, fs.ErrClosed
	}
	if mf.flag&os.O_APPEND != 0 {
		mf.mfs.mu.RLock()
		mf.pos = int64(len(mf.node.data))
		mf.mfs.mu.RUnlock()
	}

	n, err = mf.writeAt(p, mf.pos)
	mf.pos += int64(n)
	return n, err
}

// writeAt stores p at off, growing the node; the caller holds mf.mu
func (mf *memFile) writeAt(p []byte, off int64) (int, error) {
	if !mf.writable() {
		return 0, &fs.PathError{Op: "write", Path: mf.name, Err: fs.ErrPermission}
	}

	mf.mfs.mu.Lock()
	defer mf.mfs.mu.Unlock()

	end := off + int64(len(p))
	if end > int64(len(mf.node.data)) {
		if end <= int64(cap(mf.node.data)) {
			mf.node.data = mf.node.data[:end]
		} else {
			grown := make([]byte, end, end+end/2)
			copy(grown, mf.node.data)
			mf.node.data = grown
		}
	}
	n := copy(mf.node.data[off:], p)
	mf.node.modTime = time.Now()
	return n, nil
}

func (mf *memFile) Close() error {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if mf.closed {
		return fs.ErrClosed
	}
	mf.closed = true
	return nil
}

func (mf *memFile) Seek(offset int64, whence int) (int64, error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if mf.closed {
		return 0, fs.ErrClosed
	}

	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = mf.pos + offset
	case io.SeekEnd:
		mf.mfs.mu.RLock()
		newPos = int64(len(mf.node.data)) + offset
		mf.mfs.mu.RUnlock()
	default:
		return 0, errors.New("invalid whence")
	}

	if newPos < 0 {
		return 0, errors.New("negative position")
	}

	mf.pos = newPos
	return newPos, nil
}

func (mf *memFile) Stat() (fs.FileInfo, error) {
	mf.mfs.mu.RLock()
	defer mf.mfs.mu.RUnlock()

	return &memFileInfo{
		name:    filepath.Base(mf.name),
		size:    int64(len(mf.node.data)),
		mode:    mf.node.mode,
		modTime: mf.node.modTime,
	}, nil
}

func (mf *memFile) Sync() error {
	return nil
}

type memFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (fi *memFileInfo) Name() string       { return fi.name }
func (fi *memFileInfo) Size() int64        { return fi.size }
func (fi *memFileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *memFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *memFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *memFileInfo) Sys() interface{}   { return nil }

// ============================================================================
// absfs.File interface methods for memFile
// ============================================================================

// Name returns the name of the file
func (mf *memFile) Name() string {
	return mf.name
}

// ReadAt reads len(b) bytes from the File starting at byte offset off
func (mf *memFile) ReadAt(b []byte, off int64) (n int, err error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if mf.closed {
		return 0, fs.ErrClosed
	}
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	return mf.readAt(b, off)
}

// WriteAt writes len(b) bytes to the File starting at byte offset off
func (mf *memFile) WriteAt(b []byte, off int64) (n int, err error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if mf.closed {
		return 0, fs.ErrClosed
	}
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	return mf.writeAt(b, off)
}

// WriteString writes a string to the file
func (mf *memFile) WriteString(s string) (n int, err error) {
	return mf.Write([]byte(s))
}

// Truncate changes the size of the file
func (mf *memFile) Truncate(size int64) error {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if mf.closed {
		return fs.ErrClosed
	}
	if size < 0 {
		return errors.New("negative size")
	}

	mf.mfs.mu.Lock()
	defer mf.mfs.mu.Unlock()

	data := mf.node.data
	if size <= int64(len(data)) {
		mf.node.data = data[:size]
	} else {
		// Expand with zeros
		grown := make([]byte, size)
		copy(grown, data)
		mf.node.data = grown
	}

	mf.node.modTime = time.Now()
	return nil
}

// Readdir reads directory contents
func (mf *memFile) Readdir(n int) ([]os.FileInfo, error) {
	// Not a directory
	return nil, os.ErrInvalid
}

// Readdirnames reads directory entry names
func (mf *memFile) Readdirnames(n int) ([]string, error) {
	return nil, os.ErrInvalid
}

// ReadDir reads directory entries
func (mf *memFile) ReadDir(n int) ([]fs.DirEntry, error) {
	return nil, os.ErrInvalid
}

// ============================================================================
// memDir - Virtual directory implementation for memFS
// ============================================================================

// memDir represents an open directory in memFS
type memDir struct {
	mfs  *memFS
	name string
}

func (md *memDir) Read(p []byte) (n int, err error) {
	return 0, os.ErrInvalid
}

func (md *memDir) Write(p []byte) (n int, err error) {
	return 0, os.ErrInvalid
}

func (md *memDir) Close() error {
	return nil
}

func (md *memDir) Seek(offset int64, whence int) (int64, error) {
	return 0, os.ErrInvalid
}

func (md *memDir) Stat() (fs.FileInfo, error) {
	return md.mfs.Stat(md.name)
}

func (md *memDir) Sync() error {
	return nil
}

func (md *memDir) Name() string {
	return md.name
}

func (md *memDir) ReadAt(b []byte, off int64) (n int, err error) {
	return 0, os.ErrInvalid
}

func (md *memDir) WriteAt(b []byte, off int64) (n int, err error) {
	return 0, os.ErrInvalid
}

func (md *memDir) WriteString(s string) (n int, err error) {
	return 0, os.ErrInvalid
}

func (md *memDir) Truncate(size int64) error {
	return os.ErrInvalid
}

func (md *memDir) Readdir(n int) ([]os.FileInfo, error) {
	md.mfs.mu.RLock()
	defer md.mfs.mu.RUnlock()

	infos := md.mfs.children(md.name)
	if n > 0 && len(infos) > n {
		infos = infos[:n]
	}
	return infos, nil
}

func (md *memDir) Readdirnames(n int) ([]string, error) {
	infos, err := md.Readdir(n)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

func (md *memDir) ReadDir(n int) ([]fs.DirEntry, error) {
	infos, err := md.Readdir(n)
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}
	return entries, nil
}
