package render

import "testing"

func TestSplitFrontMatter(t *testing.T) {
	meta, body := SplitFrontMatter("---\ntitle: Hello\ntags:\n  - go\n---\n# Hello\nBody text.\n")
	if FrontMatterTitle(meta) != "Hello" {
		t.Errorf("title = %q, want Hello", FrontMatterTitle(meta))
	}
	if body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", body)
	}
}

func TestSplitFrontMatter_None(t *testing.T) {
	in := "# Just a heading\nSome text.\n"
	meta, body := SplitFrontMatter(in)
	if meta != nil || body != in {
		t.Errorf("meta = %v, body = %q", meta, body)
	}
}

func TestSplitFrontMatter_InvalidYAML(t *testing.T) {
	in := "---\n: invalid: yaml: {{{\n---\nBody\n"
	meta, body := SplitFrontMatter(in)
	if meta != nil || body != in {
		t.Errorf("invalid YAML should leave input as body, got meta=%v body=%q", meta, body)
	}
}

func TestSplitFrontMatter_Unclosed(t *testing.T) {
	in := "---\ntitle: x\nno closing delimiter"
	if meta, body := SplitFrontMatter(in); meta != nil || body != in {
		t.Errorf("meta = %v, body = %q", meta, body)
	}
}

func TestSplitFrontMatter_ThematicBreakIsNotFrontMatter(t *testing.T) {
	in := "---\n\nparagraph\n\n----- trailing"
	if meta, _ := SplitFrontMatter(in); meta != nil {
		t.Errorf("meta = %v, want nil", meta)
	}
}
