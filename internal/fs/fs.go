// Package fs abstracts where manifests and materialized output are read from:
// a local directory or a ref in a git object database.
package fs

import "time"

// FileInfo holds file metadata.
type FileInfo struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// DirEntry represents a single directory entry.
type DirEntry struct {
	Name  string
	IsDir bool
}

// FS is the read surface shared by local directories and git refs.
type FS interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (FileInfo, error)
	ReadDir(path string) ([]DirEntry, error)
}

// FindManifests walks fsys from root and returns the relative path of every
// file for which keep returns true, skipping subtrees for which skip returns
// true. Paths use "/" separators regardless of host.
func FindManifests(fsys FS, root string, keep, skip func(path string) bool) ([]string, error) {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var found []string
	for _, e := range entries {
		path := e.Name
		if root != "" {
			path = root + "/" + e.Name
		}
		if skip != nil && skip(path) {
			continue
		}
		if e.IsDir {
			sub, err := FindManifests(fsys, path, keep, skip)
			if err != nil {
				continue
			}
			found = append(found, sub...)
			continue
		}
		if keep(path) {
			found = append(found, path)
		}
	}
	return found, nil
}
