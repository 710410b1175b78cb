// Package markup converts document trees to and from their HTML form.
//
// Every kind maps to one external tag, disambiguated by a data attribute
// where tags are shared (see doctree.Default). Serialization is
// deterministic: the distinguishing attribute comes first, followed by the
// schema attributes in declared order.
package markup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/docedit/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Serialize renders n as HTML. A document renders as the concatenation of
// its children.
func Serialize(n *doctree.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var nodes []*html.Node
	if n.Kind == doctree.KindDocument {
		for _, c := range n.Children {
			nodes = append(nodes, toHTML(c))
		}
	} else {
		nodes = []*html.Node{toHTML(n)}
	}
	for _, h := range nodes {
		// Render only fails on writer errors; strings.Builder has none.
		_ = html.Render(&sb, h)
	}
	return sb.String()
}

func toHTML(n *doctree.Node) *html.Node {
	if n.Kind == doctree.KindText {
		return textHTML(n)
	}
	spec, ok := doctree.Default.Spec(n.Kind)
	if !ok || len(spec.Tags) == 0 {
		// Unreachable for built trees; keep the content visible anyway.
		return &html.Node{Type: html.TextNode, Data: doctree.TextContent(n)}
	}
	tag := spec.Tags[0]
	if n.Kind == doctree.KindHeading {
		tag = fmt.Sprintf("h%d", clampLevel(n.Attrs.Int(doctree.AttrLevel)))
	}
	el := element(tag)
	if spec.Match.Attr != "" {
		el.Attr = append(el.Attr, html.Attribute{Key: spec.Match.Attr, Val: spec.Match.Value})
	}
	for _, as := range spec.Attrs {
		if as.HTML == "" {
			continue
		}
		v, ok := n.Attrs[as.Name]
		if !ok || v == nil {
			continue
		}
		el.Attr = append(el.Attr, html.Attribute{Key: as.HTML, Val: formatAttr(as, v)})
	}
	switch {
	case n.Kind == doctree.KindFootnoteReference:
		// The visible marker is the rank; it is derived, never parsed back.
		el.AppendChild(&html.Node{Type: html.TextNode, Data: strconv.Itoa(n.Attrs.Int(doctree.AttrReferenceNumber))})
	case !spec.Content.Leaf():
		for _, c := range n.Children {
			el.AppendChild(toHTML(c))
		}
	}
	return el
}

// textHTML nests mark elements outermost-first around the text.
func textHTML(n *doctree.Node) *html.Node {
	leaf := &html.Node{Type: html.TextNode, Data: n.Text}
	out := leaf
	for i := len(n.Marks) - 1; i >= 0; i-- {
		m := n.Marks[i]
		el := element(markTag(m.Type))
		if m.Type == doctree.MarkLink {
			el.Attr = []html.Attribute{{Key: "href", Val: m.Attrs.String(doctree.AttrHref)}}
		}
		el.AppendChild(out)
		out = el
	}
	return out
}

func element(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

func markTag(t doctree.MarkType) string {
	switch t {
	case doctree.MarkLink:
		return "a"
	case doctree.MarkBold:
		return "strong"
	case doctree.MarkItalic:
		return "em"
	case doctree.MarkUnderline:
		return "u"
	case doctree.MarkStrike:
		return "s"
	case doctree.MarkCode:
		return "code"
	}
	return "span"
}

func formatAttr(as doctree.AttrSpec, v any) string {
	switch as.Type {
	case doctree.AttrInt:
		return strconv.Itoa(doctree.Attrs{as.Name: v}.Int(as.Name))
	case doctree.AttrBool:
		b, _ := v.(bool)
		return strconv.FormatBool(b)
	}
	s, _ := v.(string)
	return s
}

func clampLevel(l int) int {
	switch {
	case l < 1:
		return 1
	case l > 6:
		return 6
	}
	return l
}
