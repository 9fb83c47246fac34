package handler

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/treeforge/treeforge/internal/config"
	mfs "github.com/treeforge/treeforge/internal/fs"
)

// TreeNode represents a file or directory under the output root.
type TreeNode struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Path     string      `json:"path,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
	ModTime  *time.Time  `json:"modTime,omitempty"`
	Size     int64       `json:"size,omitempty"`
}

// TreeHandler serves the materialized output tree.
type TreeHandler struct {
	cfg *config.Config
}

// NewTreeHandler creates a new tree handler.
func NewTreeHandler(cfg *config.Config) *TreeHandler {
	return &TreeHandler{cfg: cfg}
}

// GetTree returns the recursive listing of the output root. Empty
// directories are kept: an empty directory is a legitimate materialization
// result.
func (h *TreeHandler) GetTree(c *gin.Context) {
	fsys := mfs.NewLocal(h.cfg.Output)
	root, err := h.buildTree(fsys, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read output root: " + err.Error()})
		return
	}
	root.Name = "output"
	c.JSON(http.StatusOK, root)
}

func (h *TreeHandler) buildTree(fsys mfs.FS, relPath string) (*TreeNode, error) {
	info, err := fsys.Stat(relPath)
	if err != nil {
		return nil, err
	}

	node := &TreeNode{
		Name: info.Name,
		Path: relPath,
	}

	if !info.IsDir {
		node.Type = "file"
		modTime := info.ModTime
		node.ModTime = &modTime
		node.Size = info.Size
		return node, nil
	}

	node.Type = "directory"
	entries, err := fsys.ReadDir(relPath)
	if err != nil {
		return nil, err
	}

	// Directories first, then files, both alphabetically.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	for _, entry := range entries {
		if h.cfg.IsExcluded(entry.Name) {
			continue
		}
		childPath := entry.Name
		if relPath != "" {
			childPath = relPath + "/" + entry.Name
		}
		child, err := h.buildTree(fsys, childPath)
		if err != nil {
			continue
		}
		node.Children = append(node.Children, child)
	}

	return node, nil
}
