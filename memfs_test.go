package ampzip

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"testing"
)

func TestMemFSReadWrite(t *testing.T) {
	fsys := NewMemFS()

	f, err := fsys.Create("test.txt")
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if _, err := f.Write([]byte("hello ")); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if _, err := f.WriteString("world"); err != nil {
		t.Fatalf("Failed to write string: %v", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Failed to seek: %v", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("Expected %q, got %q", "hello world", data)
	}

	// Overwrite in the middle
	if _, err := f.WriteAt([]byte("W"), 6); err != nil {
		t.Fatalf("Failed to write at offset: %v", err)
	}
	buf := make([]byte, 5)
	if _, err := f.ReadAt(buf, 6); err != nil {
		t.Fatalf("Failed to read at offset: %v", err)
	}
	if string(buf) != "World" {
		t.Errorf("Expected %q, got %q", "World", buf)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}
	if err := f.Close(); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("Expected ErrClosed on double close, got %v", err)
	}

	info, err := fsys.Stat("test.txt")
	if err != nil {
		t.Fatalf("Failed to stat: %v", err)
	}
	if info.Size() != 11 || !info.Mode().IsRegular() {
		t.Errorf("Unexpected file info: size %d mode %v", info.Size(), info.Mode())
	}
}

func TestMemFSOpenFlags(t *testing.T) {
	fsys := NewMemFS()
	writeTestFile(t, fsys, "file.txt", []byte("abc"))

	if _, err := fsys.OpenFile("file.txt", os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644); !errors.Is(err, fs.ErrExist) {
		t.Errorf("Expected ErrExist with O_EXCL, got %v", err)
	}
	if _, err := fsys.Open("missing.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
	if _, err := fsys.Create("nodir/file.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist for missing parent, got %v", err)
	}

	f, err := fsys.OpenFile("file.txt", os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		t.Fatalf("Failed to open for append: %v", err)
	}
	f.Write([]byte("def"))
	f.Close()
	if got := string(readTestFile(t, fsys, "file.txt")); got != "abcdef" {
		t.Errorf("Expected %q after append, got %q", "abcdef", got)
	}

	f, err = fsys.Open("file.txt")
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	if _, err := f.Write([]byte("x")); !errors.Is(err, fs.ErrPermission) {
		t.Errorf("Expected ErrPermission writing a read-only handle, got %v", err)
	}
	f.Close()

	f, err = fsys.OpenFile("file.txt", os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		t.Fatalf("Failed to open with truncate: %v", err)
	}
	f.Close()
	if got := readTestFile(t, fsys, "file.txt"); len(got) != 0 {
		t.Errorf("Expected empty file after O_TRUNC, got %q", got)
	}
}

func TestMemFSDirectories(t *testing.T) {
	fsys := NewMemFS()

	if err := fsys.Mkdir("a", 0o755); err != nil {
		t.Fatalf("Failed to mkdir: %v", err)
	}
	if err := fsys.Mkdir("a", 0o755); !errors.Is(err, fs.ErrExist) {
		t.Errorf("Expected ErrExist, got %v", err)
	}
	if err := fsys.Mkdir("x/y", 0o755); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist for missing parent, got %v", err)
	}

	writeTestFile(t, fsys, "a/b.txt", []byte("b"))
	writeTestFile(t, fsys, "a/a.txt", []byte("a"))
	writeTestFile(t, fsys, "a/sub/c.txt", []byte("c"))

	names := listDir(t, fsys, "a")
	want := []string{"a.txt", "b.txt", "sub"}
	if len(names) != len(want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Entry %d: expected %q, got %q", i, want[i], names[i])
		}
	}

	entries, err := fsys.ReadDir("a")
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if !entries[2].IsDir() {
		t.Error("Expected sub to be a directory")
	}

	if err := fsys.Remove("a"); err == nil {
		t.Error("Expected error removing a non-empty directory")
	}
	if err := fsys.RemoveAll("a"); err != nil {
		t.Fatalf("Failed to remove all: %v", err)
	}
	if _, err := fsys.Stat("a/sub/c.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected nested file to be gone, got %v", err)
	}
	if names := listDir(t, fsys, "."); len(names) != 0 {
		t.Errorf("Expected empty root, got %v", names)
	}
	if err := fsys.RemoveAll("never-existed"); err != nil {
		t.Errorf("RemoveAll of a missing path should succeed, got %v", err)
	}
}

func TestMemFSRename(t *testing.T) {
	fsys := NewMemFS()
	writeTestFile(t, fsys, "work/level.zip", []byte("new"))
	writeTestFile(t, fsys, "out/bomb.zip", []byte("old"))

	if err := fsys.Rename("work/level.zip", "out/bomb.zip"); err != nil {
		t.Fatalf("Failed to rename: %v", err)
	}
	if got := string(readTestFile(t, fsys, "out/bomb.zip")); got != "new" {
		t.Errorf("Expected replaced content %q, got %q", "new", got)
	}
	if _, err := fsys.Stat("work/level.zip"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected source to be gone, got %v", err)
	}

	if err := fsys.Rename("work/missing.zip", "out/x.zip"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
	if err := fsys.Rename("out/bomb.zip", "nowhere/bomb.zip"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist for missing target directory, got %v", err)
	}

	err := fsys.Rename("out/bomb.zip", "work")
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(err, fs.ErrExist) {
		t.Fatalf("Expected *os.LinkError wrapping ErrExist, got %v", err)
	}
	if linkErr.Op != "rename" || linkErr.New != "work" {
		t.Errorf("Unexpected link error %+v", linkErr)
	}
}
