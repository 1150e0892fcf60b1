// Package markdown renders comment text as HTML. Input is treated as plain
// text: everything is escaped, then a small inline subset is applied
// (**bold**, *italic*, `code`, [text](url)). Paragraphs are separated by
// blank lines and single newlines become line breaks.
package markdown

import (
	"bytes"
	"html"
	"net/url"
	"regexp"
	"strings"
)

var (
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic     = regexp.MustCompile(`\*([^*]+)\*`)
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	reParaBreak  = regexp.MustCompile(`\n[ \t]*\n`)
)

// RenderString returns the HTML for text.
func RenderString(text string) string {
	var buf bytes.Buffer
	Render(&buf, text)
	return buf.String()
}

// Render writes the HTML for text to buf.
func Render(buf *bytes.Buffer, text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, para := range reParaBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		buf.WriteString("<p>")
		for i, line := range strings.Split(para, "\n") {
			if i > 0 {
				buf.WriteString("<br>")
			}
			buf.WriteString(FormatInline(strings.TrimSpace(line)))
		}
		buf.WriteString("</p>")
	}
}

// FormatInline escapes s and applies inline formatting. Code spans are left
// unformatted.
func FormatInline(s string) string {
	var b strings.Builder
	last := 0
	for _, m := range reInlineCode.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(formatText(s[last:m[0]]))
		b.WriteString("<code>")
		b.WriteString(html.EscapeString(s[m[2]:m[3]]))
		b.WriteString("</code>")
		last = m[1]
	}
	b.WriteString(formatText(s[last:]))
	return b.String()
}

func formatText(s string) string {
	s = html.EscapeString(s)
	s = reLink.ReplaceAllStringFunc(s, func(m string) string {
		sub := reLink.FindStringSubmatch(m)
		label, href := sub[1], html.UnescapeString(sub[2])
		if !safeURL(href) {
			return label
		}
		return `<a href="` + html.EscapeString(href) + `" rel="nofollow noopener">` + label + `</a>`
	})
	s = reBold.ReplaceAllString(s, "<strong>$1</strong>")
	s = reItalic.ReplaceAllString(s, "<em>$1</em>")
	return s
}

func safeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
		return true
	case "":
		return !strings.HasPrefix(raw, "//")
	}
	return false
}
