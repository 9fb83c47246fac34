package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/treeforge/treeforge/internal/config"
)

// SourceHandler manages manifest source configuration over the API.
type SourceHandler struct {
	cfg *config.Config
}

// NewSourceHandler creates a new source handler.
func NewSourceHandler(cfg *config.Config) *SourceHandler {
	return &SourceHandler{cfg: cfg}
}

// GetSources returns the configured sources and global excludes.
func (h *SourceHandler) GetSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sources":       h.cfg.Sources,
		"globalExclude": h.cfg.Exclude,
		"output":        h.cfg.Output,
	})
}

// AddSourceRequest represents a request to add a manifest source.
type AddSourceRequest struct {
	Path    string   `json:"path" binding:"required"`
	Alias   string   `json:"alias"`
	Ref     string   `json:"ref"`
	SubPath string   `json:"sub_path"`
	Exclude []string `json:"exclude"`
}

// AddSource adds a new manifest source to the configuration.
func (h *SourceHandler) AddSource(c *gin.Context) {
	var req AddSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	// The path must be a directory on disk even for ref sources.
	info, err := os.Stat(req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path does not exist: " + req.Path})
		return
	}
	if !info.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is not a directory"})
		return
	}

	if req.SubPath != "" {
		fsys := sourceFS(config.Source{Path: req.Path, Ref: req.Ref})
		if _, err := fsys.Stat(req.SubPath); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sub_path does not exist: " + req.SubPath})
			return
		}
	}

	if err := h.cfg.AddSource(req.Path, req.Alias, req.Ref, req.SubPath, req.Exclude); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "source added",
		"sources": h.cfg.Sources,
	})
}

// UpdateSourceRequest represents a request to update a source by index.
type UpdateSourceRequest struct {
	Index   int      `json:"index"`
	Alias   string   `json:"alias" binding:"required"`
	Ref     string   `json:"ref"`
	SubPath string   `json:"sub_path"`
	Exclude []string `json:"exclude"`
}

// UpdateSource updates a source's settings by index.
func (h *SourceHandler) UpdateSource(c *gin.Context) {
	var req UpdateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "alias is required"})
		return
	}

	if req.Index < 0 || req.Index >= len(h.cfg.Sources) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source index"})
		return
	}

	h.cfg.UpdateSourceByIndex(req.Index, req.Alias, req.Ref, req.SubPath, req.Exclude)

	if err := h.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "source updated",
		"sources": h.cfg.Sources,
	})
}

// RemoveSourceRequest represents a request to remove a source by index.
type RemoveSourceRequest struct {
	Index int `json:"index"`
}

// RemoveSource removes a source from the configuration by index.
func (h *SourceHandler) RemoveSource(c *gin.Context) {
	var req RemoveSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index is required"})
		return
	}

	if req.Index < 0 || req.Index >= len(h.cfg.Sources) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source index"})
		return
	}

	h.cfg.RemoveSourceByIndex(req.Index)

	if err := h.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "source removed",
		"sources": h.cfg.Sources,
	})
}

// UpdateGlobalExcludeRequest represents a request to update global excludes.
type UpdateGlobalExcludeRequest struct {
	Exclude []string `json:"exclude"`
}

// UpdateGlobalExclude updates the global exclude patterns.
func (h *SourceHandler) UpdateGlobalExclude(c *gin.Context) {
	var req UpdateGlobalExcludeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	h.cfg.SetGlobalExclude(req.Exclude)

	if err := h.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "global excludes updated",
		"globalExclude": h.cfg.Exclude,
	})
}
