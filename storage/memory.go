package storage

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/dargueta/compactor"
	"github.com/xaionaro-go/bytesextra"
)

// Memory is a [compactor.Storage] kept entirely in memory. Paths use forward
// slashes; relative paths are resolved against the root. It's safe for
// concurrent use.
type Memory struct {
	lock     sync.RWMutex
	files    map[string][]byte
	dirs     map[string]bool
	readOnly map[string]bool
}

const memoryRoot = "/"

var _ compactor.Storage = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		files:    make(map[string][]byte),
		dirs:     map[string]bool{memoryRoot: true},
		readOnly: make(map[string]bool),
	}
}

// SetReadOnly marks a directory as not writable. Nothing can be created
// directly inside it, though existing files can still be rewritten.
func (m *Memory) SetReadOnly(dirPath string, readOnly bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.readOnly[m.clean(dirPath)] = readOnly
}

func (m *Memory) clean(p string) string {
	return path.Clean(memoryRoot + p)
}

func memoryError(op, p, format string, args ...any) error {
	return compactor.ErrStorageIO.WithMessage(
		fmt.Sprintf("%s %q: %s", op, p, fmt.Sprintf(format, args...)))
}

func (m *Memory) ReadFile(filePath string) ([]byte, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	data, ok := m.files[m.clean(filePath)]
	if !ok {
		return nil, memoryError("read", filePath, "no such file")
	}
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

func (m *Memory) ReadDir(dirPath string) ([]compactor.DirectoryEntry, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	dir := m.clean(dirPath)
	if !m.dirs[dir] {
		return nil, memoryError("list", dirPath, "no such directory")
	}

	prefix := dir
	if prefix != memoryRoot {
		prefix += "/"
	}

	entries := []compactor.DirectoryEntry{}
	collect := func(p string, isDir bool) {
		if p == dir || !strings.HasPrefix(p, prefix) {
			return
		}
		name := p[len(prefix):]
		if !strings.Contains(name, "/") {
			entries = append(entries, compactor.DirectoryEntry{Name: name, IsDir: isDir})
		}
	}
	for p := range m.dirs {
		collect(p, true)
	}
	for p := range m.files {
		collect(p, false)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *Memory) IsWritable(dirPath string) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()

	dir := m.clean(dirPath)
	return m.dirs[dir] && !m.readOnly[dir]
}

func (m *Memory) Exists(p string) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()

	cleaned := m.clean(p)
	_, isFile := m.files[cleaned]
	return isFile || m.dirs[cleaned]
}

// checkCreate verifies a new entry can be created at `p`. The lock must be
// held.
func (m *Memory) checkCreate(op, p string) error {
	cleaned := m.clean(p)
	parent := path.Dir(cleaned)
	if !m.dirs[parent] {
		return memoryError(op, p, "parent directory doesn't exist")
	}
	if m.readOnly[parent] {
		return memoryError(op, p, "parent directory is read-only")
	}
	if m.dirs[cleaned] {
		return memoryError(op, p, "is a directory")
	}
	return nil
}

func (m *Memory) WriteFile(filePath string, data []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	cleaned := m.clean(filePath)
	if _, exists := m.files[cleaned]; !exists {
		if err := m.checkCreate("write", filePath); err != nil {
			return err
		}
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	m.files[cleaned] = stored
	return nil
}

func (m *Memory) AppendFile(filePath string, data []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	cleaned := m.clean(filePath)
	existing, ok := m.files[cleaned]
	if !ok {
		return memoryError("append", filePath, "no such file")
	}
	m.files[cleaned] = append(existing, data...)
	return nil
}

// WriteAt overwrites part of an existing file through a fixed-size stream over
// its contents. The file is grown first if the write would pass its end.
func (m *Memory) WriteAt(filePath string, offset int64, data []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	cleaned := m.clean(filePath)
	contents, ok := m.files[cleaned]
	if !ok {
		return memoryError("write", filePath, "no such file")
	}
	if offset < 0 {
		return memoryError("write", filePath, "negative offset %d", offset)
	}

	if end := offset + int64(len(data)); end > int64(len(contents)) {
		grown := make([]byte, end)
		copy(grown, contents)
		contents = grown
	}

	stream := bytesextra.NewReadWriteSeeker(contents)
	if _, err := stream.Seek(offset, io.SeekStart); err != nil {
		return compactor.ErrStorageIO.Wrap(err)
	}
	if _, err := stream.Write(data); err != nil {
		return compactor.ErrStorageIO.Wrap(err)
	}

	m.files[cleaned] = contents
	return nil
}

func (m *Memory) Mkdir(dirPath string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	cleaned := m.clean(dirPath)
	if m.dirs[cleaned] {
		return nil
	}
	if _, isFile := m.files[cleaned]; isFile {
		return memoryError("mkdir", dirPath, "a file with that name exists")
	}
	if err := m.checkCreate("mkdir", dirPath); err != nil {
		return err
	}
	m.dirs[cleaned] = true
	return nil
}

func (m *Memory) Remove(p string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	cleaned := m.clean(p)
	if _, isFile := m.files[cleaned]; isFile {
		delete(m.files, cleaned)
		return nil
	}
	if !m.dirs[cleaned] || cleaned == memoryRoot {
		return memoryError("remove", p, "no such file or directory")
	}

	prefix := cleaned + "/"
	for other := range m.files {
		if strings.HasPrefix(other, prefix) {
			return memoryError("remove", p, "directory not empty")
		}
	}
	for other := range m.dirs {
		if strings.HasPrefix(other, prefix) {
			return memoryError("remove", p, "directory not empty")
		}
	}
	delete(m.dirs, cleaned)
	delete(m.readOnly, cleaned)
	return nil
}

func (m *Memory) Join(elem ...string) string {
	return path.Join(elem...)
}

func (m *Memory) Base(p string) string {
	return path.Base(p)
}

func (m *Memory) Dir(p string) string {
	return path.Dir(p)
}
