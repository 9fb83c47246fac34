package fs

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Git implements FS by reading a ref (branch, tag, or commit) straight from
// the object database of a repository, so a manifest collection can be
// pinned to a ref without a checkout.
type Git struct {
	repo string
	ref  string
}

// NewGit returns an FS reading the given ref of the repository at repo.
func NewGit(repo, ref string) *Git {
	return &Git{repo: repo, ref: ref}
}

func (g *Git) run(args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", g.repo}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

// treeEntry is one parsed line of `git ls-tree -l` output:
// "<mode> <type> <hash> <size>\t<name>" with "-" as the size of trees.
type treeEntry struct {
	name  string
	isDir bool
	size  int64
}

func (g *Git) lsTree(spec string) ([]treeEntry, error) {
	args := []string{"ls-tree", "-l", g.ref}
	if spec != "" {
		args = append(args, spec)
	}
	out, err := g.run(args...)
	if err != nil {
		return nil, os.ErrNotExist
	}
	return parseList(out), nil
}

// ReadFile reads a blob at path from the ref.
func (g *Git) ReadFile(path string) ([]byte, error) {
	if path == "" || path == "." {
		return nil, fmt.Errorf("cannot read directory as file")
	}
	cmd := exec.Command("git", "-C", g.repo, "show", g.ref+":"+path)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			if strings.Contains(stderr, "not exist") {
				return nil, os.ErrNotExist
			}
			return nil, fmt.Errorf("git show: %s", stderr)
		}
		return nil, err
	}
	return out, nil
}

// Stat returns metadata for the object at path in the ref.
func (g *Git) Stat(path string) (FileInfo, error) {
	if path == "" || path == "." {
		if _, err := g.run("rev-parse", "--verify", g.ref); err != nil {
			return FileInfo{}, os.ErrNotExist
		}
		return FileInfo{Name: g.ref, IsDir: true, ModTime: g.lastCommit("")}, nil
	}

	entries, err := g.lsTree(path)
	if err != nil || len(entries) == 0 {
		// ls-tree on a directory path needs a trailing slash to match.
		entries, err = g.lsTree(path + "/")
		if err != nil || len(entries) == 0 {
			return FileInfo{}, os.ErrNotExist
		}
		return FileInfo{Name: baseName(path), IsDir: true, ModTime: g.lastCommit(path)}, nil
	}

	e := entries[0]
	return FileInfo{
		Name:    baseName(path),
		IsDir:   e.isDir,
		Size:    e.size,
		ModTime: g.lastCommit(path),
	}, nil
}

// ReadDir lists the immediate children of the directory at path in the ref.
func (g *Git) ReadDir(path string) ([]DirEntry, error) {
	spec := ""
	if path != "" && path != "." {
		spec = path + "/"
	}
	entries, err := g.lsTree(spec)
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, len(entries))
	for i, e := range entries {
		out[i] = DirEntry{Name: e.name, IsDir: e.isDir}
	}
	return out, nil
}

func parseList(out string) []treeEntry {
	var entries []treeEntry
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		meta, name, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) < 4 {
			continue
		}
		size, _ := strconv.ParseInt(fields[3], 10, 64)
		entries = append(entries, treeEntry{
			name:  name[strings.LastIndexByte(name, '/')+1:],
			isDir: fields[1] == "tree",
			size:  size,
		})
	}
	return entries
}

func (g *Git) lastCommit(path string) time.Time {
	args := []string{"log", "-1", "--format=%ct", g.ref}
	if path != "" && path != "." {
		args = append(args, "--", path)
	}
	out, err := g.run(args...)
	if err != nil {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
