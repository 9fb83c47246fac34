package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/treeforge/treeforge/internal/config"
	"github.com/treeforge/treeforge/internal/manifest"
	"github.com/treeforge/treeforge/internal/tree"
)

// MaterializeHandler creates trees under the output root.
type MaterializeHandler struct {
	cfg    *config.Config
	notify func(dest string)
}

// NewMaterializeHandler creates a new materialize handler.
func NewMaterializeHandler(cfg *config.Config) *MaterializeHandler {
	return &MaterializeHandler{cfg: cfg}
}

// OnMaterialized registers a callback invoked after every successful
// materialization with the destination path relative to the output root.
func (h *MaterializeHandler) OnMaterialized(cb func(dest string)) {
	h.notify = cb
}

// MaterializeRequest asks for a tree to be created at dest, relative to the
// output root. Either Manifest ("{alias}/{path}") or an inline Tree must be
// given; Vars override the manifest's declared defaults.
type MaterializeRequest struct {
	Manifest string            `json:"manifest"`
	Tree     map[string]any    `json:"tree"`
	Dest     string            `json:"dest" binding:"required"`
	Vars     map[string]string `json:"vars"`
}

// Materialize handles POST /api/materialize. The destination must not
// already exist; on a mid-tree failure whatever was created stays on disk
// and the error says so.
func (h *MaterializeHandler) Materialize(c *gin.Context) {
	var req MaterializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dest is required"})
		return
	}

	dest, err := h.resolveDest(req.Dest)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var entry tree.Entry
	switch {
	case req.Manifest != "" && req.Tree != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "give either manifest or tree, not both"})
		return
	case req.Manifest != "":
		entry, err = h.loadManifestTree(req.Manifest, req.Vars)
	case req.Tree != nil:
		entry, err = inlineTree(req.Tree)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "manifest or tree is required"})
		return
	}
	if err != nil {
		status := http.StatusUnprocessableEntity
		if os.IsNotExist(err) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if err := entry.Create(dest); err != nil {
		switch {
		case errors.Is(err, os.ErrExist):
			c.JSON(http.StatusConflict, gin.H{"error": "destination already exists: " + req.Dest})
		case errors.Is(err, tree.ErrInvalidName):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, os.ErrNotExist):
			c.JSON(http.StatusBadRequest, gin.H{"error": "parent of destination does not exist: " + req.Dest})
		default:
			// No rollback: whatever was created before the failure is
			// still on disk.
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": fmt.Sprintf("materialization failed, partial tree left at %s: %v", req.Dest, err),
			})
		}
		return
	}

	if h.notify != nil {
		h.notify(req.Dest)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "materialized",
		"dest":    req.Dest,
	})
}

// resolveDest maps a request dest to an absolute path under the output
// root. Absolute paths and anything containing ".." are rejected.
func (h *MaterializeHandler) resolveDest(dest string) (string, error) {
	if strings.HasPrefix(dest, "/") || filepath.IsAbs(dest) || strings.Contains(dest, "..") {
		return "", fmt.Errorf("dest must be a relative path inside the output root")
	}
	dest = strings.Trim(dest, "/")
	if dest == "" {
		return "", fmt.Errorf("dest must not be empty")
	}
	return filepath.Join(h.cfg.Output, filepath.FromSlash(dest)), nil
}

func (h *MaterializeHandler) loadManifestTree(ref string, vars map[string]string) (tree.Entry, error) {
	fsys, rel, err := resolveManifestRef(h.cfg, ref)
	if err != nil {
		return nil, err
	}
	data, err := fsys.ReadFile(rel)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, err
	}
	return m.Tree(vars)
}

// inlineTree converts a JSON object into entries: a string value is a file
// body, an object is a directory, null is an empty file.
func inlineTree(spec map[string]any) (tree.Entry, error) {
	dir := make(tree.Dir, len(spec))
	for name, val := range spec {
		if err := tree.CheckName(name); err != nil {
			return nil, err
		}
		switch v := val.(type) {
		case string:
			dir[name] = tree.File(v)
		case nil:
			dir[name] = tree.File("")
		case map[string]any:
			child, err := inlineTree(v)
			if err != nil {
				return nil, err
			}
			dir[name] = child
		default:
			return nil, fmt.Errorf("node %q: value must be a string or an object", name)
		}
	}
	return dir, nil
}
