package render

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	chtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

const (
	lightCodeStyle = "github"
	darkCodeStyle  = "monokai"

	katexVersion = "0.16.11"
	katexCDN     = "https://cdn.jsdelivr.net/npm/katex@" + katexVersion + "/dist"
	katexLocal   = "/static/katex"
)

const darkOverrides = `
body { background-color: #1d232a; color: #a6adbb; }
a { color: #7dd3fc; }
pre, code { background-color: #272822; }
blockquote { border-left-color: #4b5563; }
table, th, td { border-color: #4b5563; }
`

const baseCSS = `
.wikilink-error { color: #dc2626; font-style: italic; }
.admonition { border-left: 4px solid #3b82f6; padding: 0.5em 1em; }
.admonition.warning, .admonition.caution, .admonition.danger { border-left-color: #f59e0b; }
.admonition-title { font-weight: bold; margin-top: 0; }
`

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en"{{if .Dark}} data-theme="dark"{{end}}>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<link rel="stylesheet" href="{{.MathBase}}/katex.min.css">
<style>
{{.CSS}}
</style>
<script defer src="{{.MathBase}}/katex.min.js"></script>
<script defer src="{{.MathBase}}/contrib/auto-render.min.js"
  onload="renderMathInElement(document.body, {delimiters: [
    {left: '$$', right: '$$', display: true},
    {left: '$', right: '$', display: false},
    {left: '\\[', right: '\\]', display: true},
    {left: '\\(', right: '\\)', display: false}
  ], throwOnError: false});"></script>
</head>
<body>
<div class="markdown-body"{{if .Editable}} contenteditable="true"{{end}}>
{{.Body}}
</div>
</body>
</html>
`))

type pageData struct {
	Dark     bool
	Editable bool
	MathBase string
	CSS      template.CSS
	Body     template.HTML
}

// RenderFullPageHTML renders markdown into a standalone HTML document with
// stylesheets inlined and client-side math rendering wired up.
func (r *Renderer) RenderFullPageHTML(ctx context.Context, markdown string, opts RenderOptions) (string, error) {
	body, err := r.RenderNoteHTML(ctx, markdown, opts)
	if err != nil {
		return "", err
	}

	css, err := r.pageCSS(opts)
	if err != nil {
		return "", err
	}

	data := pageData{
		Dark:     opts.DarkMode,
		Editable: opts.ContentEditable,
		MathBase: katexCDN,
		CSS:      template.CSS(css),
		Body:     template.HTML(body),
	}
	if opts.UseLocalMathAssets {
		data.MathBase = katexLocal
	}

	var b strings.Builder
	if err := pageTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("execute page template: %w", err)
	}
	return b.String(), nil
}

func (r *Renderer) pageCSS(opts RenderOptions) (string, error) {
	var b strings.Builder
	if opts.CSSDir != "" {
		css, err := r.styles.Load(opts.CSSDir)
		if err != nil {
			return "", fmt.Errorf("load stylesheets: %w", err)
		}
		b.WriteString(css)
		b.WriteByte('\n')
	}

	b.WriteString(baseCSS)
	if err := HighlightCSS(&b, opts.DarkMode); err != nil {
		return "", err
	}
	if opts.DarkMode {
		b.WriteString(darkOverrides)
	}
	return b.String(), nil
}

// HighlightCSS writes the chroma class stylesheet for fenced code blocks.
func HighlightCSS(w io.Writer, dark bool) error {
	name := lightCodeStyle
	if dark {
		name = darkCodeStyle
	}
	formatter := chtml.New(chtml.WithClasses(true))
	if err := formatter.WriteCSS(w, styles.Get(name)); err != nil {
		return fmt.Errorf("write %s highlight css: %w", name, err)
	}
	return nil
}

// dirStylesheets reads every *.css file of a directory, sorted by name.
type dirStylesheets struct{}

func (dirStylesheets) Load(dir string) (string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.css"))
	if err != nil {
		return "", err
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", p, err)
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
