package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.Output != "out" {
		t.Errorf("expected output out, got %s", cfg.Output)
	}
	if !cfg.Watch {
		t.Error("expected watch to be true")
	}
	if !cfg.IsManifestFile("tree.yaml") || !cfg.IsManifestFile("tree.yml") {
		t.Error("expected .yaml and .yml to be manifest extensions")
	}
	if cfg.IsManifestFile("tree.json") {
		t.Error("expected .json NOT to be a manifest extension")
	}
}

func TestAddSource(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.AddSource("./manifests", "Templates", "", "", nil); err != nil {
		t.Fatalf("AddSource failed: %v", err)
	}
	if len(cfg.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(cfg.Sources))
	}
	if cfg.Sources[0].Alias != "Templates" {
		t.Errorf("expected alias Templates, got %s", cfg.Sources[0].Alias)
	}

	// Same path, ref, and sub path: no duplicate.
	if err := cfg.AddSource("./manifests", "Other", "", "", nil); err != nil {
		t.Fatalf("AddSource failed: %v", err)
	}
	if len(cfg.Sources) != 1 {
		t.Errorf("expected duplicate add to be a no-op, got %d sources", len(cfg.Sources))
	}
}

func TestAddSourceDefaultAlias(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.AddSource("./manifests", "", "v2.0", "", nil); err != nil {
		t.Fatalf("AddSource failed: %v", err)
	}
	if cfg.Sources[0].Alias != "manifests (v2.0)" {
		t.Errorf("expected ref-qualified alias, got %q", cfg.Sources[0].Alias)
	}
}

func TestRemoveSourceByIndex(t *testing.T) {
	cfg := DefaultConfig()
	_ = cfg.AddSource("./a", "A", "", "", nil)
	_ = cfg.AddSource("./b", "B", "", "", nil)

	cfg.RemoveSourceByIndex(0)
	if len(cfg.Sources) != 1 || cfg.Sources[0].Alias != "B" {
		t.Errorf("unexpected sources after removal: %+v", cfg.Sources)
	}

	// Out-of-range indexes are ignored.
	cfg.RemoveSourceByIndex(5)
	if len(cfg.Sources) != 1 {
		t.Error("out-of-range removal should be a no-op")
	}
}

func TestIsExcluded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exclude = []string{".git", "node_modules"}

	if !cfg.IsExcluded("/path/to/.git") {
		t.Error("expected .git to be excluded")
	}
	if !cfg.IsExcluded("/path/to/node_modules") {
		t.Error("expected node_modules to be excluded")
	}
	if cfg.IsExcluded("/path/to/basic.yaml") {
		t.Error("expected basic.yaml NOT to be excluded")
	}
}

func TestIsSourceExcluded(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		relPath  string
		patterns []string
		want     bool
	}{
		{"drafts/wip.yaml", []string{"drafts"}, true},
		{"drafts/wip.yaml", []string{"*.yml"}, false},
		{"go/cli.yaml", []string{"cli.yaml"}, true},
		{"go/cli.yaml", []string{"rust"}, false},
		{"go/cli.yaml", nil, false},
	}
	for _, tt := range tests {
		if got := cfg.IsSourceExcluded(tt.relPath, tt.patterns); got != tt.want {
			t.Errorf("IsSourceExcluded(%q, %v) = %v, want %v", tt.relPath, tt.patterns, got, tt.want)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.configPath = tmpFile
	cfg.Port = 9999
	cfg.Sources = []Source{{Path: "/tmp/manifests", Alias: "Temp"}}

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cfg2 := &Config{}
	if err := cfg2.loadFromFile(tmpFile); err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}
	if cfg2.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg2.Port)
	}
	if len(cfg2.Sources) != 1 || cfg2.Sources[0].Alias != "Temp" {
		t.Error("source loading failed")
	}
}
