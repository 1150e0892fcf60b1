package markdown

import (
	"strings"
	"testing"
)

func TestFormatInline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{"**bold**", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"**bold *italic* text**", "<strong>bold <em>italic</em> text</strong>"},
		{"use `x := 1`", "use <code>x := 1</code>"},
		{"`**not bold**`", "<code>**not bold**</code>"},
		{"[site](https://example.com)", `<a href="https://example.com" rel="nofollow noopener">site</a>`},
		{"[rel](/post/1)", `<a href="/post/1" rel="nofollow noopener">rel</a>`},
	}
	for _, tt := range tests {
		got := FormatInline(tt.input)
		if got != tt.expected {
			t.Errorf("FormatInline(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatInlineEscapesHTML(t *testing.T) {
	got := FormatInline(`<script>alert("x")</script>`)
	if strings.Contains(got, "<script>") {
		t.Fatalf("script tag survived: %q", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Errorf("expected escaped tag, got %q", got)
	}
}

func TestFormatInlineDropsUnsafeLinks(t *testing.T) {
	for _, input := range []string{
		"[x](javascript:alert(1))",
		"[x](data:text/html;base64,AAAA)",
		"[x](//evil.example)",
	} {
		got := FormatInline(input)
		if strings.Contains(got, "<a ") {
			t.Errorf("FormatInline(%q) = %q, expected no link", input, got)
		}
	}
}

func TestFormatInlineLinkQueryEscaped(t *testing.T) {
	got := FormatInline("[q](https://example.com/?a=1&b=2)")
	want := `<a href="https://example.com/?a=1&amp;b=2" rel="nofollow noopener">q</a>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderParagraphs(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"   \n  ", ""},
		{"hello", "<p>hello</p>"},
		{"one\ntwo", "<p>one<br>two</p>"},
		{"one\r\n\r\ntwo", "<p>one</p><p>two</p>"},
		{"a\n  \nb **c**", "<p>a</p><p>b <strong>c</strong></p>"},
	}
	for _, tt := range tests {
		got := RenderString(tt.input)
		if got != tt.expected {
			t.Errorf("RenderString(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
