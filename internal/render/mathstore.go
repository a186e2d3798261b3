package render

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MathStore swaps math spans for opaque tokens so the Markdown engine cannot
// escape or reinterpret LaTeX delimiters, then swaps them back afterwards.
//
// A store must serve exactly one Preserve/Restore cycle. Tokens embed a
// per-store nonce and are terminated, so no token is a prefix of another and
// tokens from unrelated stores never collide.
type MathStore struct {
	nonce  string
	blocks []string
}

// NewMathStore returns an empty store with a fresh nonce.
func NewMathStore() *MathStore {
	return &MathStore{nonce: strings.ReplaceAll(uuid.NewString(), "-", "")}
}

// Preserve replaces block math first, then inline math, with tokens.
// Block patterns must run first so a $$ pair is never split into two
// inline matches. Fenced code and inline code spans are left alone.
func (m *MathStore) Preserve(text string) string {
	start := len(m.blocks)
	text, code := maskCode(text)
	for _, re := range blockMathRes {
		text = re.ReplaceAllStringFunc(text, m.capture)
	}
	for _, re := range inlineMathRes {
		text = re.ReplaceAllStringFunc(text, m.capture)
	}
	for i := start; i < len(m.blocks); i++ {
		m.blocks[i] = unmaskCode(m.blocks[i], code)
	}
	return unmaskCode(text, code)
}

// Restore puts every captured span back in place of its token. Tokens that
// no longer appear in text are ignored. Later captures may contain earlier
// tokens (an inline span wrapping a block token), so restoration walks the
// captures from last to first.
func (m *MathStore) Restore(text string) string {
	for i := len(m.blocks) - 1; i >= 0; i-- {
		text = strings.ReplaceAll(text, m.token(i), m.blocks[i])
	}
	return text
}

// Len reports how many spans have been captured.
func (m *MathStore) Len() int {
	return len(m.blocks)
}

func (m *MathStore) capture(math string) string {
	placeholder := m.token(len(m.blocks))
	m.blocks = append(m.blocks, math)
	return placeholder
}

func (m *MathStore) token(i int) string {
	return fmt.Sprintf("MATH%sX%dX", m.nonce, i)
}

// maskCode hides fence lines, the lines between them and inline code spans
// behind indexed placeholders.
func maskCode(text string) (string, []string) {
	if !strings.Contains(text, "`") {
		return text, nil
	}

	var code []string
	hide := func(s string) string {
		code = append(code, s)
		return codePlaceholder(len(code) - 1)
	}

	lines := strings.Split(text, "\n")
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), codeFence) {
			inFence = !inFence
			lines[i] = hide(line)
			continue
		}
		if inFence {
			lines[i] = hide(line)
			continue
		}
		masked, spans := maskCodeSpans(line)
		for j, span := range spans {
			masked = strings.Replace(masked, fmt.Sprintf("\x00%d\x00", j), hide(span), 1)
		}
		lines[i] = masked
	}
	return strings.Join(lines, "\n"), code
}

func unmaskCode(s string, code []string) string {
	for i, c := range code {
		s = strings.ReplaceAll(s, codePlaceholder(i), c)
	}
	return s
}

func codePlaceholder(i int) string {
	return fmt.Sprintf("\x00c%d\x00", i)
}
