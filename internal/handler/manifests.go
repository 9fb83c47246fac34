// Package handler provides HTTP handlers for the TreeForge REST API.
package handler

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/treeforge/treeforge/internal/config"
	mfs "github.com/treeforge/treeforge/internal/fs"
	"github.com/treeforge/treeforge/internal/manifest"
)

// sourceFS returns the filesystem backing a manifest source.
func sourceFS(src config.Source) mfs.FS {
	if src.Ref != "" {
		return mfs.NewGit(src.Path, src.Ref)
	}
	return mfs.NewLocal(src.Path)
}

// ManifestHandler handles manifest listing and inspection.
type ManifestHandler struct {
	cfg *config.Config
}

// NewManifestHandler creates a new manifest handler.
func NewManifestHandler(cfg *config.Config) *ManifestHandler {
	return &ManifestHandler{cfg: cfg}
}

// ManifestRef identifies a manifest in a source for list responses.
type ManifestRef struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Path        string            `json:"path"`
	Source      string            `json:"source"`
	SourceID    int               `json:"sourceId"`
	Vars        map[string]string `json:"vars,omitempty"`
}

// List returns every manifest found across all configured sources. Sources
// or manifests that fail to read are skipped rather than failing the whole
// listing.
func (h *ManifestHandler) List(c *gin.Context) {
	refs := []ManifestRef{}
	for i, src := range h.cfg.Sources {
		fsys := sourceFS(src)

		excludes := src.Exclude
		keep := h.cfg.IsManifestFile
		skip := func(path string) bool {
			return h.cfg.IsExcluded(path) || h.cfg.IsSourceExcluded(path, excludes)
		}
		paths, err := mfs.FindManifests(fsys, src.SubPath, keep, skip)
		if err != nil {
			continue
		}

		for _, p := range paths {
			data, err := fsys.ReadFile(p)
			if err != nil {
				continue
			}
			m, err := manifest.Parse(data)
			if err != nil {
				continue
			}
			name := m.Name
			if name == "" {
				name = p
			}
			// Paths from FindManifests include the sub path; the public
			// reference is relative to it.
			rel := p
			if src.SubPath != "" {
				rel = strings.TrimPrefix(p, src.SubPath+"/")
			}
			refs = append(refs, ManifestRef{
				Name:        name,
				Description: m.Description,
				Path:        src.Alias + "/" + rel,
				Source:      src.Alias,
				SourceID:    i,
				Vars:        m.Vars,
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"manifests": refs})
}

// resolveManifest resolves an "{alias}/{relativePath}" reference to its
// source filesystem and relative path.
func (h *ManifestHandler) resolveManifest(ref string) (mfs.FS, string, error) {
	return resolveManifestRef(h.cfg, ref)
}

func resolveManifestRef(cfg *config.Config, ref string) (mfs.FS, string, error) {
	ref = strings.TrimPrefix(ref, "/")
	if ref == "" || strings.Contains(ref, "..") {
		return nil, "", os.ErrNotExist
	}

	prefix, rest, _ := strings.Cut(ref, "/")
	for _, src := range cfg.Sources {
		if src.Alias == prefix {
			rel := rest
			if src.SubPath != "" {
				rel = src.SubPath + "/" + rest
			}
			return sourceFS(src), rel, nil
		}
	}
	return nil, "", os.ErrNotExist
}

// Get returns the parsed manifest at /api/manifest/{alias}/{path}: its
// vars plus a summary of every node it would create.
func (h *ManifestHandler) Get(c *gin.Context) {
	ref := c.Param("path")

	fsys, rel, err := h.resolveManifest(ref)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "manifest not found"})
		return
	}

	data, err := fsys.ReadFile(rel)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "manifest not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	m, err := manifest.Parse(data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":        m.Name,
		"description": m.Description,
		"vars":        m.Vars,
		"nodes":       m.Nodes(),
	})
}
