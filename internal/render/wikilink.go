package render

import (
	"fmt"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindWikiLink is the node kind of a resolved [[id]] reference.
var KindWikiLink = ast.NewNodeKind("WikiLink")

// WikiLink is an inline link to another note. Missing is set when the note
// could not be fetched; Label is then unused.
type WikiLink struct {
	ast.BaseInline
	NoteID  int64
	Label   string
	Missing bool
}

func (n *WikiLink) Kind() ast.NodeKind { return KindWikiLink }

func (n *WikiLink) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"NoteID":  strconv.FormatInt(n.NoteID, 10),
		"Label":   n.Label,
		"Missing": strconv.FormatBool(n.Missing),
	}, nil)
}

var resolverKey = parser.NewContextKey()

type wikilinkParser struct{}

func (p *wikilinkParser) Trigger() []byte {
	return []byte{'['}
}

func (p *wikilinkParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	m := wikilinkRe.FindSubmatch(line)
	if m == nil {
		return nil
	}
	res, _ := pc.Get(resolverKey).(*noteResolver)
	if res == nil {
		return nil
	}
	id, err := strconv.ParseInt(string(m[1]), 10, 64)
	if err != nil {
		return nil
	}
	block.Advance(len(m[0]))

	node := &WikiLink{NoteID: id}
	note, err := res.fetch(id)
	switch {
	case err != nil:
		node.Missing = true
	case len(m[2]) > 0:
		node.Label = string(m[2])
	case note.Title != "":
		node.Label = note.Title
	default:
		node.Label = fmt.Sprintf("# %d", id)
	}
	return node
}

type wikilinkHTMLRenderer struct{}

func (r *wikilinkHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindWikiLink, r.render)
}

func (r *wikilinkHTMLRenderer) render(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	link := n.(*WikiLink)
	if link.Missing {
		fmt.Fprintf(w, `<span class="wikilink-error">[Error: Note %d not found]</span>`, link.NoteID)
		return ast.WalkSkipChildren, nil
	}
	fmt.Fprintf(w, `<a href="/note/%d">`, link.NoteID)
	_, _ = w.Write(util.EscapeHTML([]byte(link.Label)))
	_, _ = w.WriteString("</a>")
	return ast.WalkSkipChildren, nil
}

// wikilinks registers the [[id|label]] parser ahead of the standard link
// parser, which would otherwise claim the opening bracket.
type wikilinks struct{}

func (wikilinks) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&wikilinkParser{}, 199),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&wikilinkHTMLRenderer{}, 500),
	))
}
