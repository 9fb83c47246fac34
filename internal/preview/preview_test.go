package preview

import (
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	r := New("")
	source := []byte("# Hello World\n\nThis is a *test*.")

	result, err := r.Render("README.md", source)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if result.Kind != KindMarkdown {
		t.Errorf("kind = %s, want %s", result.Kind, KindMarkdown)
	}
	if !strings.Contains(result.HTML, "<h1") || !strings.Contains(result.HTML, "Hello World</h1>") {
		t.Error("expected H1 tag containing 'Hello World' in HTML")
	}
	if !strings.Contains(result.HTML, "<em>test</em>") {
		t.Error("expected italicized test in HTML")
	}
	if result.Title != "Hello World" {
		t.Errorf("expected title Hello World, got %s", result.Title)
	}
}

func TestRenderMarkdownTOC(t *testing.T) {
	r := New("")
	source := []byte("# Head 1\n## Head 2\n### Head 3")

	result, err := r.Render("doc.markdown", source)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(result.TOC) != 3 {
		t.Fatalf("expected 3 TOC items, got %d", len(result.TOC))
	}
	if result.TOC[0].Level != 1 || result.TOC[0].Title != "Head 1" {
		t.Errorf("TOC item 0 mismatch: %+v", result.TOC[0])
	}
	if result.TOC[2].Level != 3 || result.TOC[2].Title != "Head 3" {
		t.Errorf("TOC item 2 mismatch: %+v", result.TOC[2])
	}
}

func TestRenderCode(t *testing.T) {
	r := New("github")
	source := []byte("package main\n\nfunc main() {}\n")

	result, err := r.Render("main.go", source)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if result.Kind != KindCode {
		t.Errorf("kind = %s, want %s", result.Kind, KindCode)
	}
	if !strings.Contains(result.HTML, "main") {
		t.Error("expected highlighted source in HTML")
	}
	if !strings.Contains(result.HTML, "class=") {
		t.Error("expected CSS classes from the HTML formatter")
	}
}

func TestRenderPlainText(t *testing.T) {
	r := New("")

	result, err := r.Render("data.xyz-unknown", []byte("a < b && c > d"))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if result.Kind != KindText {
		t.Errorf("kind = %s, want %s", result.Kind, KindText)
	}
	if !strings.Contains(result.HTML, "&lt; b &amp;&amp; c &gt;") {
		t.Errorf("expected escaped text, got %q", result.HTML)
	}
	if !strings.HasPrefix(result.HTML, "<pre>") {
		t.Error("expected <pre> wrapper")
	}
}

func TestAnchorFor(t *testing.T) {
	tests := []struct {
		input  string
		output string
	}{
		{"Hello World", "hello-world"},
		{"Test! @# Content", "test-content"},
		{"Multiple   Spaces", "multiple-spaces"},
		{"-Start-and-End-", "start-and-end"},
		{"中文标题", "中文标题"},
	}
	for _, tt := range tests {
		if got := anchorFor(tt.input); got != tt.output {
			t.Errorf("anchorFor(%q) = %q, want %q", tt.input, got, tt.output)
		}
	}
}
