package preview

import (
	"bytes"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// TOCItem represents a table of contents entry.
type TOCItem struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// markdownRenderer converts markdown with GFM extensions and fenced-code
// highlighting.
type markdownRenderer struct {
	md goldmark.Markdown
}

func newMarkdownRenderer() *markdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle("monokai"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)
	return &markdownRenderer{md: md}
}

// render converts markdown source to HTML and extracts the TOC; the first
// heading becomes the title.
func (m *markdownRenderer) render(source []byte) (*Result, error) {
	var buf bytes.Buffer
	if err := m.md.Convert(source, &buf); err != nil {
		return nil, err
	}

	toc := m.extractTOC(source)
	title := ""
	if len(toc) > 0 {
		title = toc[0].Title
	}

	return &Result{
		Kind:  KindMarkdown,
		HTML:  buf.String(),
		TOC:   toc,
		Title: title,
	}, nil
}

// extractTOC walks the AST to collect headings.
func (m *markdownRenderer) extractTOC(source []byte) []TOCItem {
	reader := text.NewReader(source)
	doc := m.md.Parser().Parse(reader)

	var toc []TOCItem
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			title := headingText(heading, source)
			toc = append(toc, TOCItem{
				Level:  heading.Level,
				Title:  title,
				Anchor: anchorFor(title),
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil
	}
	return toc
}

func headingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}

var (
	anchorStrip    = regexp.MustCompile(`[^a-z0-9\-\p{Han}\p{Hiragana}\p{Katakana}]`)
	anchorCollapse = regexp.MustCompile(`-+`)
)

// anchorFor creates a URL-safe anchor from heading text.
func anchorFor(title string) string {
	anchor := strings.ToLower(title)
	anchor = strings.ReplaceAll(anchor, " ", "-")
	anchor = anchorStrip.ReplaceAllString(anchor, "")
	anchor = anchorCollapse.ReplaceAllString(anchor, "-")
	return strings.Trim(anchor, "-")
}
