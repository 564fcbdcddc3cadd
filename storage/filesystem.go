package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dargueta/compactor"
)

// FileSystem is a [compactor.Storage] backed by the host's file system.
// Paths are used as given, so relative paths resolve against the working
// directory.
type FileSystem struct{}

var _ compactor.Storage = FileSystem{}

func NewFileSystem() FileSystem {
	return FileSystem{}
}

func wrapIOError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return compactor.ErrStorageIO.WithMessage(fmt.Sprintf("%s %q", op, path)).Wrap(err)
}

func (FileSystem) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	return data, wrapIOError("read", path, err)
}

func (FileSystem) ReadDir(path string) ([]compactor.DirectoryEntry, error) {
	dirents, err := os.ReadDir(path)
	if err != nil {
		return nil, wrapIOError("list", path, err)
	}

	// os.ReadDir already sorts by name.
	entries := make([]compactor.DirectoryEntry, len(dirents))
	for i, dirent := range dirents {
		entries[i] = compactor.DirectoryEntry{Name: dirent.Name(), IsDir: dirent.IsDir()}
	}
	return entries, nil
}

// IsWritable checks that `path` is a directory by creating and deleting a
// temporary file in it. Permission bits alone don't account for read-only
// mounts or ACLs.
func (FileSystem) IsWritable(path string) bool {
	stat, err := os.Stat(path)
	if err != nil || !stat.IsDir() {
		return false
	}

	probe, err := os.CreateTemp(path, ".compactor-probe-*")
	if err != nil {
		return false
	}
	probe.Close()
	os.Remove(probe.Name())
	return true
}

func (FileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (FileSystem) WriteFile(path string, data []byte) error {
	return wrapIOError("write", path, os.WriteFile(path, data, compactor.FileMode))
}

func (FileSystem) AppendFile(path string, data []byte) error {
	handle, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return wrapIOError("append", path, err)
	}
	_, err = handle.Write(data)
	if closeErr := handle.Close(); err == nil {
		err = closeErr
	}
	return wrapIOError("append", path, err)
}

func (FileSystem) WriteAt(path string, offset int64, data []byte) error {
	handle, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return wrapIOError("write", path, err)
	}
	_, err = handle.WriteAt(data, offset)
	if closeErr := handle.Close(); err == nil {
		err = closeErr
	}
	return wrapIOError("write", path, err)
}

func (FileSystem) Mkdir(path string) error {
	err := os.Mkdir(path, compactor.DirectoryMode)
	if err != nil && os.IsExist(err) {
		if stat, statErr := os.Stat(path); statErr == nil && stat.IsDir() {
			return nil
		}
	}
	return wrapIOError("mkdir", path, err)
}

func (FileSystem) Remove(path string) error {
	return wrapIOError("remove", path, os.Remove(path))
}

func (FileSystem) Join(elem ...string) string {
	return filepath.Join(elem...)
}

func (FileSystem) Base(path string) string {
	return filepath.Base(path)
}

func (FileSystem) Dir(path string) string {
	return filepath.Dir(path)
}
