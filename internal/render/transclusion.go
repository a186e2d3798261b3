package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// MaxDepth bounds nested transclusion. Markers met at this depth stay literal.
const MaxDepth = 10

// transclusionRef is one parsed ![[...]] marker. Labels keeps any pipe
// segments after the id; they do not influence rendering.
type transclusionRef struct {
	Raw    string
	Token  string
	Labels []string
}

func parseTransclusion(m []string) transclusionRef {
	ref := transclusionRef{Raw: m[0], Token: m[1]}
	if m[2] != "" {
		ref.Labels = strings.Split(m[2][1:], "|")
	}
	return ref
}

// id reports the referenced note id. Only plain ASCII digits are accepted.
func (r transclusionRef) id() (int64, bool) {
	if r.Token == "" {
		return 0, false
	}
	for i := 0; i < len(r.Token); i++ {
		if r.Token[i] < '0' || r.Token[i] > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(r.Token, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// transcluder expands transclusion markers for one fragment render at a
// fixed depth. Rendered notes are kept out of the Markdown source: the marker
// line becomes an isolated splice token and the HTML is substituted after
// conversion.
type transcluder struct {
	r     *Renderer
	res   *noteResolver
	opts  RenderOptions
	depth int

	nonce     string
	fragments []string
}

func newTranscluder(r *Renderer, res *noteResolver, opts RenderOptions, depth int) *transcluder {
	return &transcluder{
		r:     r,
		res:   res,
		opts:  opts,
		depth: depth,
		nonce: strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
}

// Process rewrites lines, replacing every line that carries a marker. Lookup
// failures become inline error text; only engine failures are returned.
func (t *transcluder) Process(lines []string) ([]string, error) {
	if t.depth >= MaxDepth {
		return lines, nil
	}

	out := make([]string, 0, len(lines))
	inFence := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), codeFence) {
			inFence = !inFence
			out = append(out, line)
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}

		masked, spans := maskCodeSpans(line)
		m := transclusionRe.FindStringSubmatch(masked)
		if m == nil {
			out = append(out, line)
			continue
		}
		for i := range m {
			m[i] = unmaskCodeSpans(m[i], spans)
		}

		expanded, err := t.expand(parseTransclusion(m))
		if err != nil {
			return nil, err
		}
		// Keep the marker's indentation so it stays inside its container.
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		for _, e := range expanded {
			if e != "" {
				e = indent + e
			}
			out = append(out, e)
		}
	}
	return out, nil
}

func (t *transcluder) expand(ref transclusionRef) ([]string, error) {
	id, ok := ref.id()
	if !ok {
		return []string{fmt.Sprintf("**Error:** Unable to extract ID from `%s`.", ref.Raw)}, nil
	}

	note, err := t.res.fetch(id)
	if err != nil {
		return []string{
			fmt.Sprintf("**Error:** Unable to find ID #`%d`.", id),
			fmt.Sprintf("**Error:** %s", err),
		}, nil
	}

	key := fragmentKey{id: id, depth: t.depth + 1}
	html, ok := t.res.fragments[key]
	if !ok {
		html, err = t.r.renderFragment(t.res, note.Content, key.depth, t.opts)
		if err != nil {
			return nil, err
		}
		t.res.fragments[key] = html
	}
	if t.opts.WrapTransclusions {
		html = wrapCard(id, html)
	}

	token := t.token(len(t.fragments))
	t.fragments = append(t.fragments, html)
	return []string{"", token, ""}, nil
}

// Splice substitutes rendered notes for their tokens in converted HTML.
func (t *transcluder) Splice(html string) string {
	for i, frag := range t.fragments {
		tok := t.token(i)
		html = strings.ReplaceAll(html, "<p>"+tok+"</p>", frag)
		html = strings.ReplaceAll(html, tok, frag)
	}
	return html
}

func (t *transcluder) token(i int) string {
	return fmt.Sprintf("TRANSCLUDE%sX%dX", t.nonce, i)
}

func wrapCard(id int64, body string) string {
	return fmt.Sprintf(`<div class="card bg-base-100 w-xl shadow-xl">
<div class="card-body">
<b class="card-title"><a href='/note/%[1]d'>↱ #%[1]d</a><span class='text-sm text-gray-500'> | <a href='/edit/%[1]d'>Edit</a></span></b>
<div class="card-content">
%[2]s</div>
</div>
</div>
`, id, body)
}

// maskCodeSpans hides inline code spans behind indexed placeholders so their
// contents are never matched. A backtick run without a closing run of the
// same length is left as is.
func maskCodeSpans(line string) (string, []string) {
	if !strings.Contains(line, "`") {
		return line, nil
	}

	var (
		b     strings.Builder
		spans []string
	)
	i := 0
	for i < len(line) {
		if line[i] != '`' {
			b.WriteByte(line[i])
			i++
			continue
		}
		n := backtickRun(line, i)
		end := closingRun(line, i+n, n)
		if end < 0 {
			b.WriteString(line[i : i+n])
			i += n
			continue
		}
		fmt.Fprintf(&b, "\x00%d\x00", len(spans))
		spans = append(spans, line[i:end])
		i = end
	}
	return b.String(), spans
}

func unmaskCodeSpans(s string, spans []string) string {
	for i, span := range spans {
		s = strings.ReplaceAll(s, fmt.Sprintf("\x00%d\x00", i), span)
	}
	return s
}

func backtickRun(s string, from int) int {
	n := 0
	for from+n < len(s) && s[from+n] == '`' {
		n++
	}
	return n
}

// closingRun returns the index just past the first run of exactly n
// backticks at or after from, or -1.
func closingRun(s string, from, n int) int {
	for i := from; i < len(s); {
		if s[i] != '`' {
			i++
			continue
		}
		run := backtickRun(s, i)
		if run == n {
			return i + run
		}
		i += run
	}
	return -1
}
