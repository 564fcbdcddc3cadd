package compactor

// ReadingStorage is the interface for storage backends supporting read
// operations.
type ReadingStorage interface {
	// ReadFile returns the entire contents of the file at the given path.
	ReadFile(path string) ([]byte, error)
	// ReadDir lists the entries of a directory. Entries are returned sorted by
	// name so that anything built from a listing is deterministic.
	ReadDir(path string) ([]DirectoryEntry, error)
	// IsWritable returns true if new entries can be created inside `path`.
	IsWritable(path string) bool
	// Exists returns true if a file or directory exists at `path`.
	Exists(path string) bool
}

// WritingStorage is the interface for storage backends supporting write
// operations.
type WritingStorage interface {
	// WriteFile creates the file if needed and replaces its contents with
	// `data`.
	WriteFile(path string, data []byte) error
	// AppendFile writes `data` at the end of an existing file.
	AppendFile(path string, data []byte) error
	// WriteAt overwrites the file's contents starting at `offset`. Writing
	// past the current end of the file extends it.
	WriteAt(path string, offset int64, data []byte) error
	// Mkdir creates a single directory. The parent must already exist. It's
	// not an error if the directory already exists.
	Mkdir(path string) error
	// Remove deletes a file or an empty directory.
	Remove(path string) error
}

// Storage is the interface for backends implementing all storage capabilities.
// Every failure must match [ErrStorageIO] with [errors.Is].
type Storage interface {
	ReadingStorage
	WritingStorage

	// Join builds a path from its components using the backend's separator.
	Join(elem ...string) string
	// Base returns the last element of a path.
	Base(path string) string
	// Dir returns all but the last element of a path.
	Dir(path string) string
}

// DirectoryEntry represents a file or directory encountered while listing a
// folder.
type DirectoryEntry struct {
	Name  string
	IsDir bool
}
