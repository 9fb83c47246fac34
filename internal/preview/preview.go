// Package preview renders materialized files to HTML for the browser UI.
// Markdown gets full rendering with a table of contents, recognized source
// code gets syntax highlighting, and everything else falls back to
// escaped plain text.
package preview

import (
	"html"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Kind says how a file was rendered.
const (
	KindMarkdown = "markdown"
	KindCode     = "code"
	KindText     = "text"
)

// Result is the rendered form of one file.
type Result struct {
	Kind  string    `json:"kind"`
	HTML  string    `json:"html"`
	TOC   []TOCItem `json:"toc,omitempty"`
	Title string    `json:"title,omitempty"`
}

// Renderer renders file contents by name.
type Renderer struct {
	md    *markdownRenderer
	style *chroma.Style
}

// New creates a Renderer using the given chroma style name ("" for the
// default).
func New(styleName string) *Renderer {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &Renderer{
		md:    newMarkdownRenderer(),
		style: style,
	}
}

// Render renders content for display, dispatching on the file name.
func (r *Renderer) Render(name string, content []byte) (*Result, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return r.md.render(content)
	}

	if lexer := lexers.Match(filepath.Base(name)); lexer != nil {
		out, err := r.highlight(lexer, string(content))
		if err == nil {
			return &Result{Kind: KindCode, HTML: out}, nil
		}
		// Fall through to plain text on tokenizer trouble.
	}

	return &Result{
		Kind: KindText,
		HTML: "<pre>" + html.EscapeString(string(content)) + "</pre>",
	}, nil
}

func (r *Renderer) highlight(lexer chroma.Lexer, content string) (string, error) {
	it, err := chroma.Coalesce(lexer).Tokenise(nil, content)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.Format(&buf, r.style, it); err != nil {
		return "", err
	}
	return buf.String(), nil
}
