package extract

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Extraction thresholds. A pattern-matched candidate must clear
// minContentChars to be trusted; anything shorter than minViableChars is
// not worth analyzing at all.
const (
	minContentChars = 200
	minViableChars  = 50
)

// contentClass matches class/id values that usually wrap article bodies.
var contentClass = regexp.MustCompile(`(?i)(content|article|body|post)`)

// contentTags are checked in order; earlier tags are more likely to wrap
// the actual article than a bare <p>.
var contentTags = []string{"article", "main", "div", "p"}

// Page is the extracted representation of a scraped article page.
type Page struct {
	Title       string
	Description string
	SourceName  string
	PublishedAt string
	Content     string
}

// FromHTML heuristically recovers article text and metadata from raw HTML.
// pageURL supplies the source-name fallback (host component). The second
// return value is false when the page yields too little extractable text
// to be worth processing — a policy outcome, not an error.
func FromHTML(input []byte, pageURL string) (Page, bool) {
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil || root == nil {
		return Page{}, false
	}

	p := Page{
		Title:       metaTitle(root),
		Description: metaProperty(root, "og:description"),
		SourceName:  sourceName(root, pageURL),
		PublishedAt: publishedAt(root),
		Content:     articleContent(root),
	}

	// Too little content: substitute the description when it is itself
	// substantial, otherwise give up on the page.
	if len(p.Content) < minViableChars {
		if len(p.Description) >= minViableChars {
			p.Content = p.Description
		} else {
			return Page{}, false
		}
	}
	return p, true
}

// articleContent walks candidate containers in tag order and accepts the
// first concatenation that clears the minimum length. Falls back to all
// visible document text, navigation noise included.
func articleContent(root *html.Node) string {
	for _, tag := range contentTags {
		var parts []string
		walk(root, func(n *html.Node) bool {
			if n.Type != html.ElementNode || !strings.EqualFold(n.Data, tag) {
				return true
			}
			if !hasContentMarker(n) {
				return true
			}
			text := strings.TrimSpace(visibleText(n))
			if text != "" {
				parts = append(parts, text)
			}
			return false // matched container consumed whole; skip descendants
		})
		joined := strings.Join(parts, "\n\n")
		if len(joined) > minContentChars {
			return joined
		}
	}
	if body := findFirst(root, "body"); body != nil {
		return strings.TrimSpace(visibleText(body))
	}
	return strings.TrimSpace(visibleText(root))
}

func hasContentMarker(n *html.Node) bool {
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "class" && key != "id" {
			continue
		}
		if contentClass.MatchString(attr.Val) {
			return true
		}
	}
	return false
}

// visibleText collects text nodes beneath n, skipping script/style and
// other invisible subtrees, with newline separation at block boundaries.
func visibleText(n *html.Node) string {
	var b strings.Builder
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if cur.Type == html.ElementNode {
			switch strings.ToLower(cur.Data) {
			case "script", "style", "noscript", "iframe", "template":
				return
			case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "br", "div", "tr":
				b.WriteString("\n")
			}
		}
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(n)
	return b.String()
}

func metaTitle(root *html.Node) string {
	if t := metaProperty(root, "og:title"); t != "" {
		return t
	}
	if t := findFirst(root, "title"); t != nil && t.FirstChild != nil {
		if s := strings.TrimSpace(t.FirstChild.Data); s != "" {
			return s
		}
	}
	return "untitled"
}

func sourceName(root *html.Node, pageURL string) string {
	if s := metaProperty(root, "og:site_name"); s != "" {
		return s
	}
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		return u.Host
	}
	return pageURL
}

// publishedAt reads a fixed priority list of timestamp conventions and
// falls back to the current time.
func publishedAt(root *html.Node) string {
	if s := metaProperty(root, "article:published_time"); s != "" {
		return s
	}
	if s := metaProperty(root, "og:updated_time"); s != "" {
		return s
	}
	var dt string
	walk(root, func(n *html.Node) bool {
		if dt != "" {
			return false
		}
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "time") {
			if v := attrValue(n, "datetime"); v != "" {
				dt = v
				return false
			}
		}
		return true
	})
	if dt != "" {
		return dt
	}
	return time.Now().Format(time.RFC3339)
}

// metaProperty returns content of <meta property=... content=...> or the
// name= variant, empty when absent.
func metaProperty(root *html.Node, property string) string {
	var out string
	walk(root, func(n *html.Node) bool {
		if out != "" {
			return false
		}
		if n.Type != html.ElementNode || !strings.EqualFold(n.Data, "meta") {
			return true
		}
		prop := attrValue(n, "property")
		if prop == "" {
			prop = attrValue(n, "name")
		}
		if strings.EqualFold(prop, property) {
			out = strings.TrimSpace(attrValue(n, "content"))
		}
		return true
	})
	return out
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func findFirst(n *html.Node, tag string) *html.Node {
	var res *html.Node
	walk(n, func(cur *html.Node) bool {
		if res != nil {
			return false
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			res = cur
			return false
		}
		return true
	})
	return res
}

// walk visits nodes depth-first; visit returning false skips the subtree.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}
