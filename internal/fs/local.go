package fs

import (
	"os"
	"path/filepath"
)

// Local implements FS over a directory on the local filesystem.
type Local struct {
	root string
}

// NewLocal returns an FS rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

func (l *Local) resolve(path string) string {
	if path == "" || path == "." {
		return l.root
	}
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// ReadFile reads the file at path, relative to the root.
func (l *Local) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(l.resolve(path))
}

// Stat returns metadata for the object at path, relative to the root.
func (l *Local) Stat(path string) (FileInfo, error) {
	info, err := os.Stat(l.resolve(path))
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// ReadDir lists the immediate children of the directory at path.
func (l *Local) ReadDir(path string) ([]DirEntry, error) {
	entries, err := os.ReadDir(l.resolve(path))
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, len(entries))
	for i, e := range entries {
		out[i] = DirEntry{Name: e.Name(), IsDir: e.IsDir()}
	}
	return out, nil
}
