package build

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var headClose = regexp.MustCompile(`(?i)</head\s*>`)

// RewriteIndex prepares index.html for production: the <script> that loads
// devEntry is removed and tags for the built entry and its stylesheets are
// inserted before </head>.
func RewriteIndex(doc, devEntry, entry string, css []string) string {
	doc = removeScript(doc, devEntry)

	var tags strings.Builder
	tags.WriteString(`<script type="module" crossorigin src="` + html.EscapeString(entry) + `"></script>` + "\n")
	for _, href := range css {
		tags.WriteString(`<link rel="stylesheet" crossorigin href="` + html.EscapeString(href) + `">` + "\n")
	}

	if loc := headClose.FindStringIndex(doc); loc != nil {
		return doc[:loc[0]] + tags.String() + doc[loc[0]:]
	}
	return tags.String() + doc
}

// removeScript cuts the first <script> element whose src names entry, along
// with the whitespace that follows it.
func removeScript(doc, entry string) string {
	z := html.NewTokenizer(strings.NewReader(doc))

	pos, start := 0, -1
	for {
		tt := z.Next()
		raw := len(z.Raw())
		switch tt {
		case html.ErrorToken:
			return doc
		case html.StartTagToken:
			if start < 0 && scriptSrc(z) == entry {
				start = pos
			}
		case html.EndTagToken:
			if start >= 0 {
				if name, _ := z.TagName(); bytes.Equal(name, []byte("script")) {
					end := pos + raw
					return doc[:start] + strings.TrimLeft(doc[end:], " \t\r\n")
				}
			}
		}
		pos += raw
	}
}

// scriptSrc returns the src of a <script> start tag, normalized to an
// absolute URL path.
func scriptSrc(z *html.Tokenizer) string {
	name, more := z.TagName()
	if string(name) != "script" {
		return ""
	}
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		if string(key) == "src" {
			src := strings.TrimPrefix(string(val), ".")
			if !strings.HasPrefix(src, "/") {
				src = "/" + src
			}
			return src
		}
	}
	return ""
}
