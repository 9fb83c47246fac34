package handler

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/treeforge/treeforge/internal/config"
	mfs "github.com/treeforge/treeforge/internal/fs"
	"github.com/treeforge/treeforge/internal/preview"
)

// FileResponse represents the response for a materialized file preview.
type FileResponse struct {
	Path    string            `json:"path"`
	Kind    string            `json:"kind"`
	Title   string            `json:"title,omitempty"`
	HTML    string            `json:"html"`
	TOC     []preview.TOCItem `json:"toc,omitempty"`
	ModTime time.Time         `json:"modTime"`
	Size    int64             `json:"size"`
}

// FileHandler serves previews of materialized files.
type FileHandler struct {
	cfg      *config.Config
	renderer *preview.Renderer
}

// NewFileHandler creates a new file handler.
func NewFileHandler(cfg *config.Config) *FileHandler {
	return &FileHandler{
		cfg:      cfg,
		renderer: preview.New(cfg.Theme),
	}
}

// resolveOutput maps a request path to a path relative to the output root.
func (h *FileHandler) resolveOutput(filePath string) (string, error) {
	filePath = strings.TrimPrefix(filePath, "/")
	if filePath == "" {
		return "", os.ErrNotExist
	}
	if strings.Contains(filePath, "..") {
		return "", os.ErrPermission
	}
	return filePath, nil
}

// GetFile returns the rendered preview for a materialized file.
func (h *FileHandler) GetFile(c *gin.Context) {
	rel, err := h.resolveOutput(c.Param("path"))
	if err != nil {
		if os.IsPermission(err) {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid path"})
		} else {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		}
		return
	}

	fsys := mfs.NewLocal(h.cfg.Output)
	info, err := fsys.Stat(rel)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	if info.IsDir {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is a directory"})
		return
	}

	content, err := fsys.ReadFile(rel)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to read file: %v", err)})
		return
	}

	result, err := h.renderer.Render(info.Name, content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render file: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, FileResponse{
		Path:    rel,
		Kind:    result.Kind,
		Title:   result.Title,
		HTML:    result.HTML,
		TOC:     result.TOC,
		ModTime: info.ModTime,
		Size:    info.Size,
	})
}

// GetRaw returns the raw bytes of a materialized file.
func (h *FileHandler) GetRaw(c *gin.Context) {
	rel, err := h.resolveOutput(c.Param("path"))
	if err != nil {
		if os.IsPermission(err) {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid path"})
		} else {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		}
		return
	}

	content, err := mfs.NewLocal(h.cfg.Output).ReadFile(rel)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to read file: %v", err)})
		return
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", content)
}
