// Package config manages YAML-based configuration, CLI flags, and manifest
// source settings.
package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source is a place manifests are read from: a local directory, or a git
// ref of a repository when Ref is set.
type Source struct {
	Path    string   `yaml:"path" json:"path"`
	Alias   string   `yaml:"alias" json:"alias"`
	Ref     string   `yaml:"ref,omitempty" json:"ref,omitempty"`
	SubPath string   `yaml:"sub_path,omitempty" json:"sub_path,omitempty"`
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// Config holds all configuration options for TreeForge.
type Config struct {
	Sources []Source `yaml:"sources,omitempty" json:"sources"`

	// Output is the root directory all materialization happens under.
	Output string `yaml:"output"`

	Port       int      `yaml:"port"`
	Theme      string   `yaml:"theme"`
	Watch      bool     `yaml:"watch"`
	Open       bool     `yaml:"open"`
	Extensions []string `yaml:"extensions"`
	Exclude    []string `yaml:"exclude"`

	// Internal: path to config file for saving
	configPath string
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Output:     "out",
		Port:       8080,
		Theme:      "light",
		Watch:      true,
		Open:       false,
		Extensions: []string{".yaml", ".yml"},
		Exclude:    []string{".git", ".svn", "node_modules"},
	}
}

// ConfigDir returns the config directory path.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/treeforge"
	}
	return filepath.Join(home, ".config", "treeforge")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Load loads configuration from file and command line flags.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	source := flag.String("source", "", "Manifest source directory")
	output := flag.String("output", "", "Root directory for materialized trees")
	port := flag.Int("port", 0, "HTTP server port")
	theme := flag.String("theme", "", "Preview theme (light/dark)")
	watch := flag.Bool("watch", true, "Enable file watching")
	open := flag.Bool("open", false, "Open browser on startup")
	configFile := flag.String("config", "", "Configuration file path")

	flag.StringVar(source, "s", "", "Manifest source directory (shorthand)")
	flag.StringVar(output, "o", "", "Root directory for materialized trees (shorthand)")

	flag.Parse()

	// Determine config file path: explicit flag, then the global config,
	// then treeforge.yaml in the working directory.
	var cfgPath string
	if *configFile != "" {
		cfgPath = *configFile
	} else if _, err := os.Stat(ConfigPath()); err == nil {
		cfgPath = ConfigPath()
	} else if _, err := os.Stat("treeforge.yaml"); err == nil {
		cfgPath = "treeforge.yaml"
	}

	if cfgPath != "" {
		if err := cfg.loadFromFile(cfgPath); err != nil && *configFile != "" {
			// Only fail when the user named the file explicitly.
			return nil, err
		}
		cfg.configPath = cfgPath
	} else {
		cfg.configPath = ConfigPath()
	}

	// Command line flags override the config file.
	if *source != "" {
		cfg.Sources = nil
		if err := cfg.AddSource(*source, "", "", "", nil); err != nil {
			return nil, err
		}
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *theme != "" {
		cfg.Theme = *theme
	}
	cfg.Watch = *watch
	cfg.Open = *open

	cfg.normalize()

	return cfg, nil
}

// normalize resolves source and output paths to absolute and fills in
// missing aliases.
func (c *Config) normalize() {
	if abs, err := filepath.Abs(c.Output); err == nil {
		c.Output = abs
	}
	for i := range c.Sources {
		if abs, err := filepath.Abs(c.Sources[i].Path); err == nil {
			c.Sources[i].Path = abs
		}
		if c.Sources[i].Alias == "" {
			alias := filepath.Base(c.Sources[i].Path)
			if c.Sources[i].Ref != "" {
				alias = alias + " (" + c.Sources[i].Ref + ")"
			}
			c.Sources[i].Alias = alias
		}
	}
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Save saves the current configuration to the config file.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o755); err != nil {
		return err
	}

	saveConfig := struct {
		Sources    []Source `yaml:"sources,omitempty"`
		Output     string   `yaml:"output"`
		Port       int      `yaml:"port"`
		Theme      string   `yaml:"theme"`
		Watch      bool     `yaml:"watch"`
		Open       bool     `yaml:"open"`
		Extensions []string `yaml:"extensions"`
		Exclude    []string `yaml:"exclude"`
	}{
		Sources:    c.Sources,
		Output:     c.Output,
		Port:       c.Port,
		Theme:      c.Theme,
		Watch:      c.Watch,
		Open:       c.Open,
		Extensions: c.Extensions,
		Exclude:    c.Exclude,
	}

	data, err := yaml.Marshal(saveConfig)
	if err != nil {
		return err
	}
	return os.WriteFile(c.configPath, data, 0o644)
}

// AddSource adds a manifest source. Adding a source that already exists
// (same path, ref, and sub path) is a no-op.
func (c *Config) AddSource(path, alias, ref, subPath string, exclude []string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	for _, s := range c.Sources {
		if s.Path == absPath && s.Ref == ref && s.SubPath == subPath {
			return nil
		}
	}

	if alias == "" {
		alias = filepath.Base(absPath)
		if ref != "" {
			alias = alias + " (" + ref + ")"
		}
	}

	c.Sources = append(c.Sources, Source{
		Path:    absPath,
		Alias:   alias,
		Ref:     ref,
		SubPath: subPath,
		Exclude: exclude,
	})
	return nil
}

// RemoveSourceByIndex removes a source by its index.
func (c *Config) RemoveSourceByIndex(index int) {
	if index < 0 || index >= len(c.Sources) {
		return
	}
	c.Sources = append(c.Sources[:index], c.Sources[index+1:]...)
}

// UpdateSourceByIndex updates a source's fields by index.
func (c *Config) UpdateSourceByIndex(index int, alias, ref, subPath string, exclude []string) {
	if index < 0 || index >= len(c.Sources) {
		return
	}
	c.Sources[index].Alias = alias
	c.Sources[index].Ref = ref
	c.Sources[index].SubPath = subPath
	c.Sources[index].Exclude = exclude
}

// SetGlobalExclude sets the global exclude patterns.
func (c *Config) SetGlobalExclude(patterns []string) {
	c.Exclude = patterns
}

// IsExcluded checks if a path should be excluded by the global patterns.
func (c *Config) IsExcluded(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range c.Exclude {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// IsSourceExcluded checks if a relative path is excluded by source-level
// patterns: a glob on the full relative path, a glob on the base name, or a
// prefix directory.
func (c *Config) IsSourceExcluded(relPath string, sourceExcludes []string) bool {
	for _, pattern := range sourceExcludes {
		if matched, _ := filepath.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(relPath)); matched {
			return true
		}
		clean := filepath.Clean(pattern)
		if relPath == clean || strings.HasPrefix(relPath, clean+"/") {
			return true
		}
	}
	return false
}

// IsManifestFile checks if a file has a manifest extension.
func (c *Config) IsManifestFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range c.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ConfigFilePath returns the path to the config file.
func (c *Config) ConfigFilePath() string {
	return c.configPath
}
