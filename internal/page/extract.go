// Package page pulls harvestable text and outbound links out of saved HTML
// pages.
package page

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/knowledge-engine/fwe/internal/feed"
)

const (
	// DefaultMinTokens is the fewest whitespace-separated tokens a text
	// node needs to be kept.
	DefaultMinTokens = 3
	// cssLimit is the number of CSS characters at which a text node is
	// taken for inline styling rather than prose.
	cssLimit = 4
)

// Page is the extracted content of one HTML document
type Page struct {
	URL   string
	Texts []string
	Links []string
}

// Record converts the page into a feed record.
func (p *Page) Record() *feed.Record {
	content := p.Texts
	if content == nil {
		content = []string{}
	}
	return &feed.Record{URL: p.URL, Content: content}
}

// Parse reads an HTML document fetched from rawURL. Relative links are
// resolved against rawURL.
func Parse(rawURL string, r io.Reader, minTokens int) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing error: %w", err)
	}

	p := &Page{URL: rawURL}
	if body := findBody(doc); body != nil {
		p.Texts = bodyTexts(body, minTokens)
	}
	p.Links = links(doc, rawURL)
	return p, nil
}

// ExtractText returns the trimmed text nodes of the document body that
// look like prose: not inside a script, at least minTokens tokens long and
// carrying fewer than four of the characters ; : # { }.
func ExtractText(r io.Reader, minTokens int) ([]string, error) {
	p, err := Parse("", r, minTokens)
	if err != nil {
		return nil, err
	}
	return p.Texts, nil
}

// Extract builds the feed record of a page using DefaultMinTokens.
func Extract(rawURL string, r io.Reader) (*feed.Record, error) {
	p, err := Parse(rawURL, r, DefaultMinTokens)
	if err != nil {
		return nil, err
	}
	return p.Record(), nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func bodyTexts(body *html.Node, minTokens int) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if n.DataAtom != atom.Script && isProse(c.Data, minTokens) {
					out = append(out, strings.TrimSpace(c.Data))
				}
			case html.ElementNode:
				walk(c)
			}
		}
	}
	walk(body)
	return out
}

func isProse(text string, minTokens int) bool {
	if len(strings.Fields(text)) < minTokens {
		return false
	}
	css := 0
	for _, r := range text {
		switch r {
		case ';', ':', '#', '{', '}':
			css++
		}
	}
	return css < cssLimit
}

func links(doc *html.Node, baseURL string) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if link := cleanLink(attr.Val, baseURL); link != "" && !seen[link] {
					seen[link] = true
					out = append(out, link)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

// cleanLink resolves href against baseURL and drops fragments.
func cleanLink(href, baseURL string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base, err := url.Parse(baseURL); err == nil {
		ref = base.ResolveReference(ref)
	}
	ref.Fragment = ""
	return ref.String()
}
