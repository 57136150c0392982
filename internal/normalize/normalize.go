package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/haneulsoft/newslens/internal/news"
)

// DefaultMaxChars bounds cleaned article text before it is sent to a model.
const DefaultMaxChars = 4000

// Ellipsis marks truncated output.
const Ellipsis = "..."

// Clean strips markup, collapses whitespace and truncates to maxChars.
// It behaves identically whether the input is real scraped text or a
// synthesized fallback string.
func Clean(text string, maxChars int) string {
	return Truncate(CollapseWhitespace(StripMarkup(text)), maxChars)
}

// CleanArticle derives CleanedContent for an article. When the article has
// no raw content, a title+description+source fallback string is
// synthesized so downstream stages always have something to work with.
func CleanArticle(a *news.Article, maxChars int) string {
	if a == nil {
		return ""
	}
	if strings.TrimSpace(a.RawContent) != "" {
		return Clean(a.RawContent, maxChars)
	}
	var b strings.Builder
	b.WriteString(a.Title)
	b.WriteString(". ")
	if a.Description != "" {
		b.WriteString(a.Description)
		b.WriteString(" ")
	}
	b.WriteString("Source: ")
	b.WriteString(a.SourceName)
	b.WriteString(".")
	return Clean(b.String(), maxChars)
}

// StripMarkup parses the input as HTML and returns only its text nodes.
// Plain text passes through unchanged.
func StripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	root, err := html.Parse(strings.NewReader(s))
	if err != nil || root == nil {
		return s
	}
	var b strings.Builder
	var dfs func(*html.Node)
	dfs = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(root)
	return b.String()
}

// CollapseWhitespace reduces any run of whitespace, newlines included, to
// a single space and trims both ends.
func CollapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// Truncate cuts s to at most maxChars runes, breaking at the last space
// before the limit so words are never split, and appends the ellipsis
// marker when anything was cut. With no space before the limit the cut
// happens at the exact rune boundary, ellipsis still appended.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	cut := string(runes[:maxChars])
	if idx := strings.LastIndexByte(cut, ' '); idx >= 0 {
		cut = cut[:idx]
	}
	return cut + Ellipsis
}
