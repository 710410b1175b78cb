package markup

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/docedit/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Result is a parsed document together with the elements that could not
// be mapped to a kind and were degraded to their content.
type Result struct {
	Doc      *doctree.Node
	Degraded []*doctree.ParseError
}

// ErrNotSingleNode is returned by ParseNode when the markup does not hold
// exactly one top-level node.
var ErrNotSingleNode = errors.New("markup: expected exactly one node")

// ParseString parses an HTML fragment into a document.
func ParseString(s string) (*Result, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads an HTML fragment and builds a document from it. Unknown
// markup never fails the parse; the only errors come from reading r.
func Parse(r io.Reader) (*Result, error) {
	nodes, err := html.ParseFragment(r, bodyContext())
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return FromHTML(nodes...), nil
}

// FromHTML converts already-parsed HTML nodes into a document. Passing a
// full document node works too; html, head and body are handled.
func FromHTML(nodes ...*html.Node) *Result {
	c := &converter{}
	var kids []*doctree.Node
	for _, h := range nodes {
		kids = append(kids, c.convert(h, nil)...)
	}
	doc := &doctree.Node{Kind: doctree.KindDocument, Children: doctree.Fit(doctree.KindDocument, kids)}
	return &Result{Doc: doc, Degraded: c.degraded}
}

// ParseNode parses markup holding a single node, as carried by a drag
// payload. The node is validated and not fitted into any parent.
func ParseNode(s string) (*doctree.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(s), bodyContext())
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	c := &converter{}
	var kids []*doctree.Node
	for _, h := range nodes {
		for _, k := range c.convert(h, nil) {
			if k.Kind == doctree.KindText && strings.TrimSpace(k.Text) == "" {
				continue
			}
			kids = append(kids, k)
		}
	}
	if len(kids) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNotSingleNode, len(kids))
	}
	return doctree.Build(kids[0])
}

func bodyContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
}

type converter struct {
	degraded []*doctree.ParseError
}

func (c *converter) degrade(tag, reason string) {
	c.degraded = append(c.degraded, &doctree.ParseError{Tag: tag, Reason: reason})
}

func (c *converter) children(h *html.Node, marks []doctree.Mark) []*doctree.Node {
	var out []*doctree.Node
	for ch := h.FirstChild; ch != nil; ch = ch.NextSibling {
		out = append(out, c.convert(ch, marks)...)
	}
	return out
}

// convert maps one HTML node to zero or more tree nodes. marks are the
// formatting elements enclosing h.
func (c *converter) convert(h *html.Node, marks []doctree.Mark) []*doctree.Node {
	switch h.Type {
	case html.TextNode:
		if h.Data == "" {
			return nil
		}
		return []*doctree.Node{{Kind: doctree.KindText, Text: h.Data, Marks: doctree.CanonicalMarks(marks)}}
	case html.DocumentNode:
		return c.children(h, marks)
	case html.ElementNode:
	default:
		return nil
	}

	tag := h.Data
	if skipped[tag] {
		return nil
	}
	if tag == "html" || tag == "body" {
		return c.children(h, marks)
	}
	attrs := attrMap(h)
	if m, ok := markFor(tag, attrs); ok {
		return c.children(h, withMark(marks, m))
	}

	spec := doctree.Default.Lookup(tag, attrs)
	if spec == nil {
		_, typed := attrs["data-type"]
		if !transparent[tag] || typed {
			c.degrade(tag, "unknown element")
		}
		return c.children(h, marks)
	}

	nattrs, err := c.attrs(spec, tag, attrs)
	if err != nil {
		c.degrade(tag, err.Error())
		return c.children(h, marks)
	}
	if spec.Content.Leaf() {
		return []*doctree.Node{{Kind: spec.Kind, Attrs: nattrs}}
	}
	kids := c.children(h, marks)
	if spec.Content.Group == doctree.GroupInline && hasBlock(kids) {
		return doctree.Split(spec.Kind, nattrs, kids)
	}
	return []*doctree.Node{{Kind: spec.Kind, Attrs: nattrs, Children: doctree.Fit(spec.Kind, kids)}}
}

// attrs reads the schema attributes of spec from an element.
func (c *converter) attrs(spec *doctree.KindSpec, tag string, raw map[string]string) (doctree.Attrs, error) {
	out := doctree.Attrs{}
	for _, as := range spec.Attrs {
		if as.HTML == "" {
			continue
		}
		v, ok := raw[as.HTML]
		if !ok {
			continue
		}
		switch as.Type {
		case doctree.AttrInt:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				c.degrade(tag, fmt.Sprintf("attribute %s: not an integer: %q", as.HTML, v))
				continue
			}
			out[as.Name] = n
		case doctree.AttrBool:
			out[as.Name] = v != "false"
		default:
			out[as.Name] = v
		}
	}
	if spec.Kind == doctree.KindHeading {
		out[doctree.AttrLevel] = int(tag[1] - '0')
	}
	return doctree.CoerceAttrs(spec.Kind, out)
}

func attrMap(h *html.Node) map[string]string {
	m := make(map[string]string, len(h.Attr))
	for _, a := range h.Attr {
		if a.Namespace != "" {
			continue
		}
		m[a.Key] = a.Val
	}
	return m
}

func markFor(tag string, attrs map[string]string) (doctree.Mark, bool) {
	switch tag {
	case "strong", "b":
		return doctree.Mark{Type: doctree.MarkBold}, true
	case "em", "i":
		return doctree.Mark{Type: doctree.MarkItalic}, true
	case "u":
		return doctree.Mark{Type: doctree.MarkUnderline}, true
	case "s", "strike", "del":
		return doctree.Mark{Type: doctree.MarkStrike}, true
	case "code":
		return doctree.Mark{Type: doctree.MarkCode}, true
	case "a":
		if href, ok := attrs["href"]; ok {
			return doctree.Link(href), true
		}
	}
	return doctree.Mark{}, false
}

func withMark(marks []doctree.Mark, m doctree.Mark) []doctree.Mark {
	out := make([]doctree.Mark, 0, len(marks)+1)
	out = append(out, marks...)
	return append(out, m)
}

func hasBlock(nodes []*doctree.Node) bool {
	for _, n := range nodes {
		spec, ok := doctree.Default.Spec(n.Kind)
		if !ok || spec.Group != doctree.GroupInline {
			return true
		}
	}
	return false
}

// skipped elements carry no document content.
var skipped = map[string]bool{
	"head": true, "title": true, "meta": true, "link": true, "script": true,
	"style": true, "noscript": true, "template": true, "iframe": true,
	"source": true, "track": true,
}

// transparent elements are unwrapped without being reported.
var transparent = map[string]bool{
	"div": true, "span": true, "section": true, "article": true, "main": true,
	"header": true, "footer": true, "nav": true, "aside": true, "figure": true,
	"figcaption": true, "table": true, "thead": true, "tbody": true, "tfoot": true,
	"tr": true, "td": true, "th": true, "pre": true, "sup": true, "sub": true,
	"small": true, "mark": true, "label": true, "font": true, "center": true, "a": true,
}
