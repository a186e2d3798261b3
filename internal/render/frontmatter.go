package render

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

// SplitFrontMatter separates a leading YAML block (between --- lines) from
// the Markdown body. Without a well-formed block the whole input is body and
// meta is nil.
func SplitFrontMatter(src string) (meta map[string]any, body string) {
	trimmed := strings.TrimLeft(src, "\r\n")
	if !strings.HasPrefix(trimmed, frontMatterDelim+"\n") && !strings.HasPrefix(trimmed, frontMatterDelim+"\r\n") {
		return nil, src
	}

	rest := trimmed[len(frontMatterDelim):]
	idx := strings.Index(rest, "\n"+frontMatterDelim)
	if idx < 0 {
		return nil, src
	}
	block := rest[:idx]

	after := rest[idx+1+len(frontMatterDelim):]
	// The closing delimiter must stand on its own line.
	if nl := strings.IndexByte(after, '\n'); nl >= 0 {
		if strings.TrimSpace(after[:nl]) != "" {
			return nil, src
		}
		after = after[nl+1:]
	} else if strings.TrimSpace(after) != "" {
		return nil, src
	} else {
		after = ""
	}

	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return nil, src
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return meta, strings.TrimLeft(after, "\r\n")
}

// FrontMatterTitle returns the string "title" key of meta, if any.
func FrontMatterTitle(meta map[string]any) string {
	if t, ok := meta["title"].(string); ok {
		return strings.TrimSpace(t)
	}
	return ""
}
