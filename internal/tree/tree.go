// Package tree models a filesystem tree in memory and materializes it on disk.
//
// An Entry is a description of what to create, not a live handle: trees are
// assembled side-effect free and consumed by a single Create call. Creation is
// strictly "create new" — an existing target path is an error, and a failure
// partway through a directory leaves everything created so far in place.
package tree

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName reports a child name that is not a single path segment.
var ErrInvalidName = errors.New("invalid entry name")

// Entry describes a filesystem object to be created. Create materializes the
// entry at path, which must not already exist; the parent directory must.
// Filesystem errors are returned as-is, without wrapping.
type Entry interface {
	Create(path string) error
}

// File is an Entry materialized as a single file containing fixed text.
type File string

// Create writes the file's text into a newly created file at path. The
// handle is flushed and closed before returning.
func (f File) Create(path string) error {
	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	_, werr := io.WriteString(fd, string(f))
	if cerr := fd.Close(); werr == nil {
		werr = cerr
	}
	return werr
}

// Render is an Entry whose text comes from any fmt.Stringer, rendered when
// the entry is created rather than when the tree is built.
type Render struct {
	V fmt.Stringer
}

func (r Render) Create(path string) error {
	return File(r.V.String()).Create(path)
}

// Dir is an Entry materialized as a directory of named children. The map
// owns its children; iteration order among siblings is unspecified, but a
// child is only ever created after the directory itself exists.
type Dir map[string]Entry

// Create makes the directory at path, then materializes every child under
// it. The first child error aborts the remaining children; nothing already
// created is removed.
func (d Dir) Create(path string) error {
	if err := os.Mkdir(path, 0o755); err != nil {
		return err
	}
	for name, child := range d {
		if err := CheckName(name); err != nil {
			return err
		}
		if err := child.Create(filepath.Join(path, name)); err != nil {
			return err
		}
	}
	return nil
}

// CheckName rejects names that are not usable as a single path segment:
// empty, ".", "..", or containing a separator. Trees arrive over HTTP, so a
// name like "../x" must not be able to escape the destination.
func CheckName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return &os.PathError{Op: "create", Path: name, Err: ErrInvalidName}
	}
	return nil
}
