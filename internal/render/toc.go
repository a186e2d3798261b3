package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const tocMarker = "[TOC]"

// KindTOC is the node kind of a table of contents.
var KindTOC = ast.NewNodeKind("TOC")

type tocEntry struct {
	ID    string
	Text  string
	Level int
}

// TOC replaces a paragraph holding only [TOC] with a nested list linking to
// every heading of the document.
type TOC struct {
	ast.BaseBlock
	Entries []tocEntry
}

func (n *TOC) Kind() ast.NodeKind { return KindTOC }

func (n *TOC) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type tocTransformer struct{}

func (t *tocTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var (
		entries []tocEntry
		markers []*ast.Paragraph
	)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			id, ok := node.AttributeString("id")
			if !ok {
				return ast.WalkSkipChildren, nil
			}
			idBytes, _ := id.([]byte)
			entries = append(entries, tocEntry{
				ID:    string(idBytes),
				Text:  headingText(node, source),
				Level: node.Level,
			})
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if node.Lines().Len() == 1 {
				line := node.Lines().At(0)
				if string(bytes.TrimSpace(line.Value(source))) == tocMarker {
					markers = append(markers, node)
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, para := range markers {
		para.Parent().ReplaceChild(para.Parent(), para, &TOC{Entries: entries})
	}
}

func headingText(n ast.Node, source []byte) string {
	var b bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(source))
		case *ast.String:
			b.Write(c.Value)
		case *WikiLink:
			b.WriteString(c.Label)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

type tocHTMLRenderer struct{}

func (r *tocHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindTOC, r.render)
}

// render nests one <ul> per heading level step. A heading shallower than
// the first one closes back to the outermost list.
func (r *tocHTMLRenderer) render(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	toc := n.(*TOC)

	_, _ = w.WriteString("<div class=\"toc\">\n")
	var open []int
	for _, e := range toc.Entries {
		switch {
		case len(open) == 0:
			_, _ = w.WriteString("<ul>\n")
			open = append(open, e.Level)
		case e.Level > open[len(open)-1]:
			_, _ = w.WriteString("\n<ul>\n")
			open = append(open, e.Level)
		default:
			_, _ = w.WriteString("</li>\n")
			for len(open) > 1 && e.Level < open[len(open)-1] {
				open = open[:len(open)-1]
				_, _ = w.WriteString("</ul>\n</li>\n")
			}
		}
		_, _ = w.WriteString(`<li><a href="#`)
		_, _ = w.Write(util.EscapeHTML([]byte(e.ID)))
		_, _ = w.WriteString(`">`)
		_, _ = w.Write(util.EscapeHTML([]byte(e.Text)))
		_, _ = w.WriteString("</a>")
	}
	if len(open) > 0 {
		_, _ = w.WriteString("</li>\n</ul>\n")
		for range open[1:] {
			_, _ = w.WriteString("</li>\n</ul>\n")
		}
	}
	_, _ = w.WriteString("</div>\n")
	return ast.WalkContinue, nil
}

// tableOfContents registers the [TOC] marker. It runs after admonitions so
// headings inside callouts are listed too.
type tableOfContents struct{}

func (tableOfContents) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&tocTransformer{}, 600),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&tocHTMLRenderer{}, 500),
	))
}
