package render

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	admonitionRe = regexp.MustCompile(`^\[!([A-Za-z]+)\][ \t]*(.*)$`)

	// bangAdmonitionRe matches `!!! kind [more classes] ["title"]`.
	bangAdmonitionRe = regexp.MustCompile(`^!!! ?([\w\-]+(?: +[\w\-]+)*)(?: +"(.*?)")? *$`)
)

var admonitionKinds = map[string]string{
	"note":      "Note",
	"tip":       "Tip",
	"important": "Important",
	"warning":   "Warning",
	"caution":   "Caution",
	"info":      "Info",
	"danger":    "Danger",
}

// admonitionTransformer turns GitHub style alert blockquotes
//
//	> [!WARNING] Optional title
//	> body
//
// into <blockquote class="admonition warning"> with a leading title paragraph.
type admonitionTransformer struct{}

func (t *admonitionTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var quotes []*ast.Blockquote
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if bq, ok := n.(*ast.Blockquote); ok && entering {
			quotes = append(quotes, bq)
		}
		return ast.WalkContinue, nil
	})

	for _, bq := range quotes {
		para, ok := bq.FirstChild().(*ast.Paragraph)
		if !ok || para.Lines().Len() == 0 {
			continue
		}
		first := para.Lines().At(0)
		m := admonitionRe.FindSubmatch(bytes.TrimSpace(first.Value(source)))
		if m == nil {
			continue
		}
		kind := strings.ToLower(string(m[1]))
		title, known := admonitionKinds[kind]
		if !known {
			continue
		}
		if custom := strings.TrimSpace(string(m[2])); custom != "" {
			title = custom
		}

		dropFirstLine(para, first)
		if para.ChildCount() == 0 {
			bq.RemoveChild(bq, para)
		}

		heading := ast.NewParagraph()
		heading.SetAttributeString("class", []byte("admonition-title"))
		heading.AppendChild(heading, ast.NewString([]byte(title)))
		if fc := bq.FirstChild(); fc != nil {
			bq.InsertBefore(bq, fc, heading)
		} else {
			bq.AppendChild(bq, heading)
		}
		bq.SetAttributeString("class", []byte("admonition "+kind))
	}
}

// dropFirstLine removes the inline nodes parsed from the marker line.
func dropFirstLine(para *ast.Paragraph, first text.Segment) {
	for c := para.FirstChild(); c != nil; {
		next := c.NextSibling()
		start := segmentStart(c)
		if start < 0 || start >= first.Stop {
			break
		}
		para.RemoveChild(para, c)
		c = next
	}
}

func segmentStart(n ast.Node) int {
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Start
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if s := segmentStart(c); s >= 0 {
			return s
		}
	}
	return -1
}

// KindAdmonition is the node kind of a !!! admonition block.
var KindAdmonition = ast.NewNodeKind("Admonition")

// Admonition is a callout opened by a `!!! kind "title"` line. Its body is
// the following block of lines indented by four spaces. An empty Title
// renders no title paragraph.
type Admonition struct {
	ast.BaseBlock
	Class string
	Title string
}

func (n *Admonition) Kind() ast.NodeKind { return KindAdmonition }

func (n *Admonition) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Class": n.Class, "Title": n.Title}, nil)
}

type admonitionParser struct{}

func (p *admonitionParser) Trigger() []byte {
	return []byte{'!'}
}

func (p *admonitionParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pc.BlockIndent() > 3 {
		return nil, parser.NoChildren
	}
	m := bangAdmonitionRe.FindSubmatch(util.TrimRightSpace(line[pos:]))
	if m == nil {
		return nil, parser.NoChildren
	}

	class := strings.ToLower(string(m[1]))
	node := &Admonition{Class: strings.Join(strings.Fields(class), " "), Title: string(m[2])}
	if m[2] == nil {
		kind, _, _ := strings.Cut(node.Class, " ")
		node.Title = strings.ToUpper(kind[:1]) + kind[1:]
	}
	reader.AdvanceToEOL()
	return node, parser.HasChildren
}

func (p *admonitionParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, _ := reader.PeekLine()
	if util.IsBlank(line) {
		reader.AdvanceToEOL()
		return parser.Continue | parser.HasChildren
	}
	if indent, _ := util.IndentWidth(line, reader.LineOffset()); indent < 4 {
		return parser.Close
	}
	pos, padding := util.IndentPosition(line, reader.LineOffset(), 4)
	reader.AdvanceAndSetPadding(pos, padding)
	return parser.Continue | parser.HasChildren
}

func (p *admonitionParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *admonitionParser) CanInterruptParagraph() bool { return false }

func (p *admonitionParser) CanAcceptIndentedLine() bool { return false }

type admonitionHTMLRenderer struct{}

func (r *admonitionHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindAdmonition, r.render)
}

func (r *admonitionHTMLRenderer) render(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</div>\n")
		return ast.WalkContinue, nil
	}
	a := n.(*Admonition)
	_, _ = w.WriteString(`<div class="admonition `)
	_, _ = w.Write(util.EscapeHTML([]byte(a.Class)))
	_, _ = w.WriteString("\">\n")
	if a.Title != "" {
		_, _ = w.WriteString(`<p class="admonition-title">`)
		_, _ = w.Write(util.EscapeHTML([]byte(a.Title)))
		_, _ = w.WriteString("</p>\n")
	}
	return ast.WalkContinue, nil
}

// admonitions registers both callout forms: GitHub alert blockquotes and
// `!!!` blocks.
type admonitions struct{}

func (admonitions) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(
			util.Prioritized(&admonitionParser{}, 550),
		),
		parser.WithASTTransformers(
			util.Prioritized(&admonitionTransformer{}, 500),
		),
	)
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&admonitionHTMLRenderer{}, 500),
	))
}
