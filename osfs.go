package ampzip

import (
	"io/fs"
	"os"

	"github.com/absfs/absfs"
)

// osFS passes every operation through to the host filesystem
type osFS struct{}

// OSFS returns a FileSystem backed by the host operating system.
func OSFS() FileSystem {
	return osFS{}
}

func (o osFS) Open(name string) (absfs.File, error) {
	return o.OpenFile(name, os.O_RDONLY, 0)
}

func (osFS) OpenFile(name string, flag int, perm fs.FileMode) (absfs.File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		// Keep the interface nil on failure
		return nil, err
	}
	return f, nil
}

func (o osFS) Create(name string) (absfs.File, error) {
	return o.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func (osFS) Mkdir(name string, perm fs.FileMode) error   { return os.Mkdir(name, perm) }
func (osFS) Remove(name string) error                    { return os.Remove(name) }
func (osFS) RemoveAll(name string) error                 { return os.RemoveAll(name) }
func (osFS) Rename(oldpath, newpath string) error        { return os.Rename(oldpath, newpath) }
func (osFS) Stat(name string) (fs.FileInfo, error)       { return os.Stat(name) }
func (osFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
