// Package dom queries a rendered page snapshot with class-name and CSS locators.
//
// A Page is built from the outer HTML the browser produced after client-side
// rendering, so lookups see the same tree the browser did. Attribute reads for
// URL-valued attributes (href, src) return absolute URLs, resolved against the
// page location, matching what a live DOM property read returns.
package dom

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNotFound is returned when a locator matches no element.
var ErrNotFound = errors.New("no such element")

// By selects how a Locator's value is interpreted.
type By int

const (
	ByClassName By = iota
	ByCSS
)

// Locator identifies elements by class name or CSS selector.
type Locator struct {
	By    By
	Value string
}

// ClassName returns a locator matching elements carrying the class name.
func ClassName(name string) Locator {
	return Locator{By: ByClassName, Value: name}
}

// CSS returns a locator matching a CSS selector.
func CSS(selector string) Locator {
	return Locator{By: ByCSS, Value: selector}
}

// Selector returns the CSS form of the locator.
func (l Locator) Selector() string {
	if l.By == ByClassName {
		return "." + strings.TrimSpace(l.Value)
	}
	return l.Value
}

func (l Locator) String() string {
	if l.By == ByClassName {
		return fmt.Sprintf("class name %q", l.Value)
	}
	return fmt.Sprintf("css selector %q", l.Value)
}

func (l Locator) compile() (cascadia.Selector, error) {
	if strings.TrimSpace(l.Value) == "" {
		return nil, fmt.Errorf("empty %s", l)
	}
	sel, err := cascadia.Compile(l.Selector())
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", l, err)
	}
	return sel, nil
}

// Page is a parsed snapshot of a rendered document.
type Page struct {
	doc    *goquery.Document
	base   *url.URL
	source string
}

// Parse reads an HTML document. location is the URL the document was loaded
// from and is used to absolutize links; it may be empty.
func Parse(r io.Reader, location string) (*Page, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	return ParseString(string(raw), location)
}

// ParseString parses an HTML document held in memory.
func ParseString(source, location string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var base *url.URL
	if location != "" {
		base, err = url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid page location %q: %w", location, err)
		}
	}
	if href, ok := doc.Find("head base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			if base != nil {
				base = base.ResolveReference(ref)
			} else if ref.IsAbs() {
				base = ref
			}
		}
	}

	return &Page{doc: doc, base: base, source: source}, nil
}

// Source returns the raw markup the page was parsed from.
func (p *Page) Source() string {
	return p.source
}

// Preview returns the first n characters of the raw markup.
func (p *Page) Preview(n int) string {
	return Truncate(p.source, n)
}

// Truncate returns the first n characters of s. n <= 0 returns s unchanged.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Root returns the document element.
func (p *Page) Root() *Element {
	return &Element{sel: p.doc.Selection, base: p.base}
}

// FindOne returns the first element in the document matching loc.
func (p *Page) FindOne(loc Locator) (*Element, error) {
	return p.Root().FindOne(loc)
}

// FindAll returns every element in the document matching loc.
func (p *Page) FindAll(loc Locator) ([]*Element, error) {
	return p.Root().FindAll(loc)
}

// Element is a single node of a Page.
type Element struct {
	sel  *goquery.Selection
	base *url.URL
}

// FindOne returns the first descendant matching loc, or ErrNotFound.
func (e *Element) FindOne(loc Locator) (*Element, error) {
	matcher, err := loc.compile()
	if err != nil {
		return nil, err
	}
	found := e.sel.FindMatcher(matcher).First()
	if found.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", loc, ErrNotFound)
	}
	return &Element{sel: found, base: e.base}, nil
}

// FindAll returns every descendant matching loc in document order. An empty
// result is not an error.
func (e *Element) FindAll(loc Locator) ([]*Element, error) {
	matcher, err := loc.compile()
	if err != nil {
		return nil, err
	}
	found := e.sel.FindMatcher(matcher)
	out := make([]*Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{sel: s, base: e.base})
	})
	return out, nil
}

// Text returns the element's rendered text, approximating innerText: <br>
// and block boundaries break lines, other whitespace collapses to one space,
// blank lines drop, and script, style and hidden elements contribute nothing.
func (e *Element) Text() string {
	var b strings.Builder
	for _, n := range e.sel.Nodes {
		renderText(&b, n)
	}
	return collapseText(b.String())
}

// Attribute returns the named attribute. href and src values are resolved
// to absolute URLs against the page location.
func (e *Element) Attribute(name string) (string, bool) {
	val, ok := e.sel.Attr(name)
	if !ok {
		return "", false
	}
	switch strings.ToLower(name) {
	case "href", "src":
		return e.resolve(val), true
	}
	return val, true
}

func (e *Element) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if e.base == nil || ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return e.base.ResolveReference(u).String()
}

// HTML returns the element's outer HTML.
func (e *Element) HTML() string {
	html, err := goquery.OuterHtml(e.sel)
	if err != nil {
		return ""
	}
	return html
}

// Elements that start and end a line of rendered text.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true,
	atom.Table: true, atom.Tr: true, atom.Ul: true,
}

// Elements whose content is never rendered.
var skippedElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Template: true,
	atom.Noscript: true, atom.Head: true, atom.Title: true,
}

func renderText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		writeCollapsed(b, n.Data)
		return
	case html.ElementNode:
		if skippedElements[n.DataAtom] || isHidden(n) {
			return
		}
		if n.DataAtom == atom.Br {
			b.WriteByte('\n')
			return
		}
	case html.DocumentNode:
	default:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}

// writeCollapsed writes s with every whitespace run, newlines included,
// reduced to one space.
func writeCollapsed(b *strings.Builder, s string) {
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	if space {
		b.WriteByte(' ')
	}
}

func isHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "hidden":
			return true
		case "style":
			style := strings.ToLower(strings.Join(strings.Fields(a.Val), ""))
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func collapseText(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
