// Package doctree holds the document tree model: typed nodes, the kind
// registry, paths, and the transaction machinery that edits trees.
package doctree

import "strings"

// Kind discriminates node types. The set is closed; see registry.go.
type Kind string

const (
	KindDocument             Kind = "doc"
	KindParagraph            Kind = "paragraph"
	KindHeading              Kind = "heading"
	KindText                 Kind = "text"
	KindHardBreak            Kind = "hardBreak"
	KindBlockquote           Kind = "blockquote"
	KindBulletList           Kind = "bulletList"
	KindOrderedList          Kind = "orderedList"
	KindListItem             Kind = "listItem"
	KindFootnoteReference    Kind = "footnoteReference"
	KindFootnoteBody         Kind = "footnote"
	KindFootnoteContainer    Kind = "footnotes"
	KindAudio                Kind = "audio"
	KindVideo                Kind = "video"
	KindDocumentAttachment   Kind = "documentAttachment"
	KindImage                Kind = "image"
	KindQuoteWithSource      Kind = "quoteWithSource"
	KindQuoteWithTranslation Kind = "quoteWithTranslation"
	KindLayout               Kind = "layout"
	KindLayoutColumn         Kind = "layoutColumn"
)

// Attribute names shared across packages.
const (
	AttrFootnoteID      = "footnoteId"
	AttrReferenceNumber = "referenceNumber"
	AttrLevel           = "level"
	AttrStart           = "start"
	AttrSrc             = "src"
	AttrTitle           = "title"
	AttrAlt             = "alt"
	AttrPoster          = "poster"
	AttrAutoplay        = "autoplay"
	AttrMimeType        = "mimeType"
	AttrSourceLabel     = "sourceLabel"
	AttrSourceURL       = "sourceUrl"
	AttrSourceLanguage  = "sourceLanguage"
	AttrTranslation     = "translation"
	AttrColumns         = "columns"
	AttrWidth           = "width"
	AttrHref            = "href"
)

// Node is one element of a document tree. Text and Marks are only used by
// text nodes; every other kind carries its data in Attrs and Children.
type Node struct {
	Kind     Kind    `json:"kind" yaml:"kind"`
	Attrs    Attrs   `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Text     string  `json:"text,omitempty" yaml:"text,omitempty"`
	Marks    []Mark  `json:"marks,omitempty" yaml:"marks,omitempty"`
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsAtomic reports whether the node is a cursor-opaque unit.
func (n *Node) IsAtomic() bool {
	spec, ok := Default.Spec(n.Kind)
	return ok && spec.Atomic
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Kind:  n.Kind,
		Attrs: n.Attrs.Clone(),
		Text:  n.Text,
	}
	if len(n.Marks) > 0 {
		c.Marks = make([]Mark, len(n.Marks))
		for i, m := range n.Marks {
			c.Marks[i] = Mark{Type: m.Type, Attrs: m.Attrs.Clone()}
		}
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// Equal reports whether two trees are structurally identical.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Text != b.Text || !a.Attrs.Equal(b.Attrs) {
		return false
	}
	if len(a.Marks) != len(b.Marks) || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Marks {
		if !a.Marks[i].Equal(b.Marks[i]) {
			return false
		}
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Walk visits n and its descendants in document order. The path handed to
// fn is only valid for the duration of the call. Returning false skips the
// node's children.
func Walk(n *Node, fn func(n *Node, path Path) bool) {
	var visit func(n *Node, path Path)
	visit = func(n *Node, path Path) {
		if !fn(n, path) {
			return
		}
		for i, c := range n.Children {
			visit(c, append(path, i))
		}
	}
	visit(n, Path{})
}

// Find returns the nodes of the given kind in document order.
func Find(n *Node, kind Kind) []*Node {
	var out []*Node
	Walk(n, func(c *Node, _ Path) bool {
		if c.Kind == kind {
			out = append(out, c)
		}
		return true
	})
	return out
}

// TextContent concatenates the text of every text node under n.
func TextContent(n *Node) string {
	var sb strings.Builder
	Walk(n, func(c *Node, _ Path) bool {
		if c.Kind == KindText {
			sb.WriteString(c.Text)
		}
		return true
	})
	return sb.String()
}

// Contains reports whether n or any descendant has one of the kinds.
func Contains(n *Node, kinds ...Kind) bool {
	found := false
	Walk(n, func(c *Node, _ Path) bool {
		if found {
			return false
		}
		for _, k := range kinds {
			if c.Kind == k {
				found = true
				return false
			}
		}
		return true
	})
	return found
}
