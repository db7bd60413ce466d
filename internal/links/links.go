// Package links extracts article links from wiki HTML pages.
package links

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/go-scripts/pathcrawl/internal/types"
)

// DefaultPrefix is the path every article link starts with
const DefaultPrefix = "/wiki/"

// DefaultExclude lists the namespaces that are not articles
var DefaultExclude = []string{
	"Main_Page",
	"Wikipedia:",
	"Portal:",
	"Template:",
	"Template_talk:",
	"Special:",
	"Help:",
	"Category:",
	"Talk:",
	"File:",
}

// ParseError is returned when page content cannot be turned into links
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Extractor pulls article links out of HTML
type Extractor struct {
	Prefix  string   // path prefix of article links, DefaultPrefix when empty
	Host    string   // absolute links are only accepted for this host, any host when empty
	Exclude []string // title prefixes to drop
}

// New creates an Extractor with the default prefix and exclusion list
func New() *Extractor {
	return &Extractor{
		Prefix:  DefaultPrefix,
		Exclude: append([]string(nil), DefaultExclude...),
	}
}

// Extract parses raw HTML and returns the article links it contains
func (e *Extractor) Extract(raw []byte) (types.LinkSet, error) {
	return e.ExtractReader(bytes.NewReader(raw))
}

// ExtractReader is Extract for a stream
func (e *Extractor) ExtractReader(r io.Reader) (types.LinkSet, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return types.LinkSet{}, &ParseError{Err: err}
	}

	var ids []types.PageID
	for _, href := range hrefs(doc) {
		if id, ok := e.pageID(href); ok {
			ids = append(ids, id)
		}
	}
	return types.NewLinkSet(ids...), nil
}

// pageID converts an href into an article id, reporting false for anything
// that is not an eligible article link
func (e *Extractor) pageID(href string) (types.PageID, bool) {
	prefix := e.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	// url.Parse drops the fragment and query, so "/wiki/C%23#History" keeps its escaped '#'
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host != "" && e.Host != "" && u.Hostname() != e.Host {
		return "", false
	}
	path := u.EscapedPath()

	if !strings.HasPrefix(path, prefix) {
		return "", false
	}

	id := Normalize(strings.TrimPrefix(path, prefix))
	if id == "" || e.excluded(id) {
		return "", false
	}
	return id, true
}

func (e *Extractor) excluded(id types.PageID) bool {
	for _, prefix := range e.Exclude {
		if strings.HasPrefix(string(id), prefix) {
			return true
		}
	}
	return false
}

// Normalize turns a link target or a typed title into a PageID:
// percent escapes are decoded and spaces become underscores.
func Normalize(raw string) types.PageID {
	s := strings.TrimSpace(raw)
	if unescaped, err := url.PathUnescape(s); err == nil {
		s = unescaped
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	return types.PageID(s)
}

// hrefs collects the href attribute of every anchor below n
func hrefs(n *html.Node) []string {
	var out []string

	if n.Type == html.ElementNode && n.Data == "a" {
		for _, a := range n.Attr {
			if a.Key == "href" {
				out = append(out, a.Val)
				break
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, hrefs(c)...)
	}

	return out
}
