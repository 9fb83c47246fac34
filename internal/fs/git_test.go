package fs

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// setupManifestRepo creates a temporary git repository holding a small
// manifest collection.
func setupManifestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}

	git("init")
	git("config", "user.email", "test@test.com")
	git("config", "user.name", "Test")

	goDir := filepath.Join(dir, "go")
	if err := os.MkdirAll(goDir, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"basic.yaml":   "name: basic\ntree:\n  README.md: hi\n",
		"go/cli.yaml":  "name: go-cli\ntree:\n  main.go: package main\n",
		"go/notes.txt": "not a manifest\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	git("add", "-A")
	git("commit", "-m", "manifests")

	return dir
}

func TestGitStatRoot(t *testing.T) {
	g := NewGit(setupManifestRepo(t), "HEAD")

	info, err := g.Stat("")
	if err != nil {
		t.Fatalf("Stat('') failed: %v", err)
	}
	if !info.IsDir {
		t.Error("expected root to be a directory")
	}
}

func TestGitStatFile(t *testing.T) {
	g := NewGit(setupManifestRepo(t), "HEAD")

	info, err := g.Stat("go/cli.yaml")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.IsDir {
		t.Error("expected a file")
	}
	if info.Name != "cli.yaml" {
		t.Errorf("name = %q, want cli.yaml", info.Name)
	}
	if info.Size == 0 {
		t.Error("expected non-zero size from ls-tree -l")
	}
}

func TestGitStatDir(t *testing.T) {
	g := NewGit(setupManifestRepo(t), "HEAD")

	info, err := g.Stat("go")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !info.IsDir {
		t.Error("expected a directory")
	}
}

func TestGitReadDir(t *testing.T) {
	g := NewGit(setupManifestRepo(t), "HEAD")

	entries, err := g.ReadDir("")
	if err != nil {
		t.Fatalf("ReadDir('') failed: %v", err)
	}
	names := make(map[string]bool)
	for _, e := range entries {
		names[e.Name] = e.IsDir
	}
	if dir, ok := names["basic.yaml"]; !ok || dir {
		t.Error("expected basic.yaml file in root")
	}
	if dir, ok := names["go"]; !ok || !dir {
		t.Error("expected go directory in root")
	}

	sub, err := g.ReadDir("go")
	if err != nil {
		t.Fatalf("ReadDir('go') failed: %v", err)
	}
	if len(sub) != 2 {
		t.Fatalf("expected 2 entries in go, got %d", len(sub))
	}
}

func TestGitReadFile(t *testing.T) {
	g := NewGit(setupManifestRepo(t), "HEAD")

	content, err := g.ReadFile("basic.yaml")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(content), "name: basic") {
		t.Errorf("unexpected content: %q", content)
	}

	if _, err := g.ReadFile("nope.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFindManifests(t *testing.T) {
	dir := setupManifestRepo(t)

	isManifest := func(path string) bool {
		return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
	}

	for name, fsys := range map[string]FS{
		"local": NewLocal(dir),
		"git":   NewGit(dir, "HEAD"),
	} {
		t.Run(name, func(t *testing.T) {
			skip := func(path string) bool { return filepath.Base(path) == ".git" }
			found, err := FindManifests(fsys, "", isManifest, skip)
			if err != nil {
				t.Fatalf("FindManifests failed: %v", err)
			}
			got := make(map[string]bool)
			for _, p := range found {
				got[p] = true
			}
			if !got["basic.yaml"] || !got["go/cli.yaml"] {
				t.Errorf("manifests missing from %v", found)
			}
			if got["go/notes.txt"] {
				t.Error("non-manifest file listed")
			}
		})
	}
}
