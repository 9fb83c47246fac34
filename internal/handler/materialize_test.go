package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/treeforge/treeforge/internal/config"
)

func newTestRouter(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Output = t.TempDir()

	r := gin.New()
	h := NewMaterializeHandler(cfg)
	r.POST("/api/materialize", h.Materialize)
	return r, cfg
}

func post(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/materialize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMaterializeInlineTree(t *testing.T) {
	r, cfg := newTestRouter(t)

	w := post(t, r, `{
		"dest": "myapp",
		"tree": {
			"README.md": "# myapp\n",
			"src": {"main.go": "package main\n"},
			"docs": {},
			"empty.txt": null
		}
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	readme, err := os.ReadFile(filepath.Join(cfg.Output, "myapp", "README.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(readme) != "# myapp\n" {
		t.Errorf("README.md = %q", readme)
	}

	if _, err := os.ReadFile(filepath.Join(cfg.Output, "myapp", "src", "main.go")); err != nil {
		t.Errorf("nested file missing: %v", err)
	}
	if info, err := os.Stat(filepath.Join(cfg.Output, "myapp", "docs")); err != nil || !info.IsDir() {
		t.Errorf("empty directory missing: %v", err)
	}
	if data, err := os.ReadFile(filepath.Join(cfg.Output, "myapp", "empty.txt")); err != nil || len(data) != 0 {
		t.Errorf("null node should be an empty file: %q, %v", data, err)
	}
}

func TestMaterializeConflict(t *testing.T) {
	r, cfg := newTestRouter(t)

	if err := os.Mkdir(filepath.Join(cfg.Output, "taken"), 0o755); err != nil {
		t.Fatal(err)
	}

	w := post(t, r, `{"dest": "taken", "tree": {}}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestMaterializeRejectsEscapingDest(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, dest := range []string{"../outside", "a/../../b", "/etc/x"} {
		w := post(t, r, `{"dest": "`+dest+`", "tree": {}}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("dest %q: status = %d, want %d", dest, w.Code, http.StatusBadRequest)
		}
	}
}

func TestMaterializeRejectsBadNodeName(t *testing.T) {
	r, cfg := newTestRouter(t)

	w := post(t, r, `{"dest": "x", "tree": {"../evil": "boom"}}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output, "x")); err == nil {
		t.Error("nothing should be created for a rejected inline tree")
	}
}

func TestMaterializeMissingParent(t *testing.T) {
	r, _ := newTestRouter(t)

	w := post(t, r, `{"dest": "no/such/parent", "tree": {}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestMaterializeFromManifest(t *testing.T) {
	r, cfg := newTestRouter(t)

	srcDir := t.TempDir()
	manifestBody := "name: demo\nvars:\n  word: default\ntree:\n  hello.txt: \"{{.word}}\"\n"
	if err := os.WriteFile(filepath.Join(srcDir, "demo.yaml"), []byte(manifestBody), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Sources = []config.Source{{Path: srcDir, Alias: "local"}}

	w := post(t, r, `{"dest": "demo", "manifest": "local/demo.yaml", "vars": {"word": "hi"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	got, err := os.ReadFile(filepath.Join(cfg.Output, "demo", "hello.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hi" {
		t.Errorf("hello.txt = %q, want hi", got)
	}
}

func TestMaterializeNotifies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Output = t.TempDir()

	var notified []string
	h := NewMaterializeHandler(cfg)
	h.OnMaterialized(func(dest string) { notified = append(notified, dest) })

	r := gin.New()
	r.POST("/api/materialize", h.Materialize)

	if w := post(t, r, `{"dest": "a", "tree": {}}`); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(notified) != 1 || notified[0] != "a" {
		t.Errorf("notifications = %v, want [a]", notified)
	}
}
