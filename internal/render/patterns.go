package render

import "regexp"

var (
	// transclusionRe matches ![[id]] and ![[id|a|b...]]. Group 1 is the
	// leading token, group 2 holds the optional pipe-separated segments.
	transclusionRe = regexp.MustCompile(`!\[\[([^\]|]*)((?:\|[^\]|]*)*)\]\]`)

	// wikilinkRe is anchored because the inline parser matches from the
	// current reader position.
	wikilinkRe = regexp.MustCompile(`^\[\[(\d+)(?:\|([^\]]+))?\]\]`)

	blockMathRes = []*regexp.Regexp{
		regexp.MustCompile(`(?s)\$\$.+?\$\$`),
		regexp.MustCompile(`(?s)\\\[.+?\\\]`),
	}

	inlineMathRes = []*regexp.Regexp{
		regexp.MustCompile(`\$(?:\\.|[^$\\\n])+\$`),
		regexp.MustCompile(`\\\(.+?\\\)`),
	}
)

const codeFence = "```"
