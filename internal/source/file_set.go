package source

import (
	"fmt"

	"fortio.org/safecast"
)

// FileSet maps FileIDs to logical file names. The wrapper pass works on
// modules decoded from snapshots, so only names are tracked here; the
// original text never leaves the front end.
type FileSet struct {
	names []string // index 0 reserved for NoFileID
}

func NewFileSet() *FileSet {
	return &FileSet{names: make([]string, 1, 8)}
}

// Add registers a logical file name and returns its ID.
func (fs *FileSet) Add(name string) FileID {
	value, err := safecast.Conv[uint32](len(fs.names))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	fs.names = append(fs.names, name)
	return FileID(value)
}

// Name returns the registered name or "" for an unknown ID.
func (fs *FileSet) Name(id FileID) string {
	if id == NoFileID || int(id) >= len(fs.names) {
		return ""
	}
	return fs.names[id]
}

// Len reports the number of registered files excluding the sentinel.
func (fs *FileSet) Len() int { return len(fs.names) - 1 }
