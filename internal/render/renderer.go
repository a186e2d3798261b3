// Package render turns note Markdown into HTML. It expands ![[id]]
// transclusions and [[id|label]] wikilinks against a NoteRepository, keeps
// LaTeX math away from the Markdown engine, and rewrites video <img> tags.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	chtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// RenderOptions controls a single render call.
type RenderOptions struct {
	// CSSDir is a directory whose *.css files are inlined into full pages.
	CSSDir string
	// DarkMode selects the dark highlighting style and page overrides.
	DarkMode bool
	// ContentEditable marks the page body editable.
	ContentEditable bool
	// UseLocalMathAssets serves KaTeX from /static/katex instead of the CDN.
	UseLocalMathAssets bool
	// WrapTransclusions puts each transcluded note in a card with links back
	// to the source note and its editor.
	WrapTransclusions bool
}

// StylesheetSource supplies the concatenated stylesheets of a directory.
type StylesheetSource interface {
	Load(dir string) (string, error)
}

// Renderer is safe for concurrent use. Per-call state lives in the parser
// context of each conversion.
type Renderer struct {
	md     goldmark.Markdown
	repo   NoteRepository
	styles StylesheetSource
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStylesheets overrides how full pages read CSSDir.
func WithStylesheets(s StylesheetSource) Option {
	return func(r *Renderer) { r.styles = s }
}

// New builds a Renderer that resolves note references through repo.
func New(repo NoteRepository, opts ...Option) *Renderer {
	r := &Renderer{
		md:     newMarkdown(),
		repo:   repo,
		styles: dirStylesheets{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
			highlighting.NewHighlighting(
				highlighting.WithStyle(lightCodeStyle),
				highlighting.WithFormatOptions(chtml.WithClasses(true)),
			),
			wikilinks{},
			admonitions{},
			tableOfContents{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			html.WithHardWraps(),
		),
	)
}

// RenderNoteHTML renders markdown to an HTML body fragment.
func (r *Renderer) RenderNoteHTML(ctx context.Context, markdown string, opts RenderOptions) (string, error) {
	out, err := r.renderFragment(newNoteResolver(ctx, r.repo), markdown, 0, opts)
	if err != nil {
		return "", err
	}
	return RewriteMediaTags(out), nil
}

// renderFragment converts one document at the given transclusion depth. Each
// call owns its math store and transcluder.
func (r *Renderer) renderFragment(res *noteResolver, markdown string, depth int, opts RenderOptions) (string, error) {
	_, body := SplitFrontMatter(markdown)

	math := NewMathStore()
	body = math.Preserve(body)

	t := newTranscluder(r, res, opts, depth)
	lines, err := t.Process(strings.Split(body, "\n"))
	if err != nil {
		return "", err
	}

	pctx := parser.NewContext()
	pctx.Set(resolverKey, res)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(strings.Join(lines, "\n")), &buf, parser.WithContext(pctx)); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return math.Restore(t.Splice(buf.String())), nil
}
