// Package main is the entry point for the TreeForge server.
package main

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/exec"
	"runtime"

	"github.com/gin-gonic/gin"

	"github.com/treeforge/treeforge/internal/config"
	"github.com/treeforge/treeforge/internal/handler"
	"github.com/treeforge/treeforge/internal/watcher"
)

//go:embed web/*
var webFS embed.FS

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// All materialization happens under the output root; create it up
	// front so destinations directly beneath it have a parent.
	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		log.Fatalf("Failed to create output root %s: %v", cfg.Output, err)
	}

	log.Printf("TreeForge - Directory Tree Scaffolder")
	log.Printf("Config file: %s", cfg.ConfigFilePath())
	log.Printf("Output root: %s", cfg.Output)
	log.Printf("Serving %d manifest source(s):", len(cfg.Sources))
	for i, s := range cfg.Sources {
		if s.Ref != "" {
			log.Printf("  [%d] %s -> %s (ref: %s)", i, s.Alias, s.Path, s.Ref)
		} else {
			log.Printf("  [%d] %s -> %s", i, s.Alias, s.Path)
		}
	}
	log.Printf("Server starting at: http://localhost:%d", cfg.Port)

	// Create handlers
	manifestHandler := handler.NewManifestHandler(cfg)
	materializeHandler := handler.NewMaterializeHandler(cfg)
	treeHandler := handler.NewTreeHandler(cfg)
	fileHandler := handler.NewFileHandler(cfg)
	sourceHandler := handler.NewSourceHandler(cfg)
	wsHandler := handler.NewWSHandler()

	materializeHandler.OnMaterialized(wsHandler.OnMaterialized)

	// Setup file watcher if enabled
	if cfg.Watch {
		w, err := watcher.New(cfg)
		if err != nil {
			log.Printf("Warning: failed to create file watcher: %v", err)
		} else {
			w.OnChange(wsHandler.OnFileChange)
			if err := w.Start(); err != nil {
				log.Printf("Warning: failed to start file watcher: %v", err)
			}
			defer func() { _ = w.Stop() }()
			log.Printf("File watcher enabled")
		}
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// API routes
	api := r.Group("/api")
	{
		// Manifest and materialization APIs
		api.GET("/manifests", manifestHandler.List)
		api.GET("/manifest/*path", manifestHandler.Get)
		api.POST("/materialize", materializeHandler.Materialize)

		// Output browsing APIs
		api.GET("/tree", treeHandler.GetTree)
		api.GET("/files/*path", fileHandler.GetFile)
		api.GET("/raw/*path", fileHandler.GetRaw)
		api.GET("/ws", wsHandler.HandleWS)

		// Source management APIs
		api.GET("/sources", sourceHandler.GetSources)
		api.POST("/sources", sourceHandler.AddSource)
		api.PUT("/sources", sourceHandler.UpdateSource)
		api.DELETE("/sources", sourceHandler.RemoveSource)
		api.PUT("/exclude", sourceHandler.UpdateGlobalExclude)
	}

	// Serve embedded static files
	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		log.Fatalf("Failed to load web assets: %v", err)
	}
	r.NoRoute(gin.WrapH(http.FileServer(http.FS(webContent))))

	// Open browser if requested
	if cfg.Open {
		go openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
	}

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default: // linux, etc.
		cmd = "xdg-open"
		args = []string{url}
	}

	_ = exec.Command(cmd, args...).Start()
}
