package render

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var videoMIMETypes = map[string]string{
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"ogg":  "video/ogg",
	"ogv":  "video/ogg",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
	"wmv":  "video/x-ms-wmv",
	"flv":  "video/x-flv",
	"mkv":  "video/x-matroska",
}

const videoFallback = "This text is displayed if your browser does not support the video tag."

// videoMIMEType reports the MIME type for src when its extension (the text
// after the last dot, case-insensitive) names a video container.
func videoMIMEType(src string) (string, bool) {
	i := strings.LastIndexByte(src, '.')
	if i < 0 {
		return "", false
	}
	mime, ok := videoMIMETypes[strings.ToLower(src[i+1:])]
	return mime, ok
}

// RewriteMediaTags replaces <img> elements that point at video files with a
// <video> player. All other bytes are copied through unchanged.
func RewriteMediaTags(in string) string {
	if !strings.Contains(strings.ToLower(in), "<img") {
		return in
	}

	z := html.NewTokenizer(strings.NewReader(in))
	var b strings.Builder
	b.Grow(len(in))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF; the tokenizer has no other failure mode for an in-memory reader.
			return b.String()
		}
		// TagName and Token normalise the buffer in place, so copy first.
		raw := string(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			b.WriteString(raw)
			continue
		}
		tok := z.Token()
		if tok.DataAtom != atom.Img {
			b.WriteString(raw)
			continue
		}
		src := attr(tok, "src")
		mime, ok := videoMIMEType(src)
		if !ok {
			b.WriteString(raw)
			continue
		}
		fmt.Fprintf(&b, `<video controls width="300"><source src="%s" type="%s">%s</video>`,
			html.EscapeString(src), mime, videoFallback)
	}
}

func attr(tok html.Token, name string) string {
	for _, a := range tok.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
