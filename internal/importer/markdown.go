package importer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docedit/internal/doctree"
	"github.com/dgallion1/docedit/internal/markup"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownImporter handles Markdown files using goldmark. Footnotes written
// as [^label] become reference and body pairs whose id is IDPrefix+label.
type MarkdownImporter struct {
	IDPrefix string
}

func (p *MarkdownImporter) Import(r io.Reader, filename string) (*Result, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Footnote, extension.Strikethrough))
	doc := md.Parser().Parse(text.NewReader(src))

	c := &mdConverter{src: src, prefix: p.IDPrefix, labels: map[int]string{}}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if fn, ok := n.(*east.Footnote); ok && entering {
			c.labels[fn.Index] = string(fn.Ref)
		}
		return ast.WalkContinue, nil
	})

	blocks := c.blocks(doc)
	return finish(baseTitle(filename), blocks, c.degraded)
}

type mdConverter struct {
	src      []byte
	prefix   string
	labels   map[int]string
	degraded []*doctree.ParseError
}

func (c *mdConverter) id(index int) string {
	if label, ok := c.labels[index]; ok {
		return c.prefix + label
	}
	return fmt.Sprintf("%s%d", c.prefix, index)
}

func (c *mdConverter) blocks(n ast.Node) []*doctree.Node {
	var out []*doctree.Node
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		out = append(out, c.block(ch)...)
	}
	return out
}

func (c *mdConverter) block(n ast.Node) []*doctree.Node {
	switch node := n.(type) {
	case *ast.Heading:
		kids := c.inlines(node, nil)
		attrs := doctree.Attrs{doctree.AttrLevel: node.Level}
		return doctree.Split(doctree.KindHeading, attrs, kids)
	case *ast.Paragraph, *ast.TextBlock:
		return doctree.Split(doctree.KindParagraph, nil, c.inlines(node, nil))
	case *ast.Blockquote:
		return []*doctree.Node{c.container(doctree.KindBlockquote, nil, node)}
	case *ast.List:
		if node.IsOrdered() {
			return []*doctree.Node{c.container(doctree.KindOrderedList, doctree.Attrs{doctree.AttrStart: node.Start}, node)}
		}
		return []*doctree.Node{c.container(doctree.KindBulletList, nil, node)}
	case *ast.ListItem:
		return []*doctree.Node{c.container(doctree.KindListItem, nil, node)}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return []*doctree.Node{paragraph(c.lines(node), doctree.Mark{Type: doctree.MarkCode})}
	case *ast.HTMLBlock:
		raw := strings.Join(c.lines(node), "\n")
		if node.HasClosure() {
			raw += "\n" + string(node.ClosureLine.Value(c.src))
		}
		res, err := markup.ParseString(raw)
		if err != nil {
			c.degraded = append(c.degraded, &doctree.ParseError{Tag: "html", Reason: err.Error()})
			return nil
		}
		c.degraded = append(c.degraded, res.Degraded...)
		return res.Doc.Children
	case *ast.ThematicBreak:
		return nil
	case *east.FootnoteList:
		return []*doctree.Node{c.container(doctree.KindFootnoteContainer, nil, node)}
	case *east.Footnote:
		return []*doctree.Node{c.container(doctree.KindFootnoteBody, doctree.Attrs{doctree.AttrFootnoteID: c.id(node.Index)}, node)}
	default:
		return c.blocks(n)
	}
}

func (c *mdConverter) container(kind doctree.Kind, attrs doctree.Attrs, n ast.Node) *doctree.Node {
	return &doctree.Node{Kind: kind, Attrs: attrs, Children: doctree.Fit(kind, c.blocks(n))}
}

func (c *mdConverter) lines(n ast.Node) []string {
	segs := n.Lines()
	out := make([]string, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(c.src)), "\r\n"))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

// inlines converts the inline children of n. marks are the formatting
// nodes enclosing them.
func (c *mdConverter) inlines(n ast.Node, marks []doctree.Mark) []*doctree.Node {
	var out []*doctree.Node
	emit := func(s string) {
		if s != "" {
			out = append(out, &doctree.Node{Kind: doctree.KindText, Text: s, Marks: doctree.CanonicalMarks(marks)})
		}
	}
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		switch node := ch.(type) {
		case *ast.Text:
			emit(string(node.Segment.Value(c.src)))
			switch {
			case node.HardLineBreak():
				out = append(out, &doctree.Node{Kind: doctree.KindHardBreak})
			case node.SoftLineBreak():
				emit(" ")
			}
		case *ast.String:
			emit(string(node.Value))
		case *ast.Emphasis:
			t := doctree.MarkItalic
			if node.Level >= 2 {
				t = doctree.MarkBold
			}
			out = append(out, c.inlines(node, append(marks[:len(marks):len(marks)], doctree.Mark{Type: t}))...)
		case *east.Strikethrough:
			out = append(out, c.inlines(node, append(marks[:len(marks):len(marks)], doctree.Mark{Type: doctree.MarkStrike}))...)
		case *ast.CodeSpan:
			out = append(out, c.inlines(node, append(marks[:len(marks):len(marks)], doctree.Mark{Type: doctree.MarkCode}))...)
		case *ast.Link:
			out = append(out, c.inlines(node, append(marks[:len(marks):len(marks)], doctree.Link(string(node.Destination))))...)
		case *ast.AutoLink:
			label := string(node.Label(c.src))
			link := doctree.Link(string(node.URL(c.src)))
			if label != "" {
				out = append(out, &doctree.Node{
					Kind:  doctree.KindText,
					Text:  label,
					Marks: doctree.CanonicalMarks(append(marks[:len(marks):len(marks)], link)),
				})
			}
		case *ast.Image:
			alt := doctree.TextContent(&doctree.Node{Children: c.inlines(node, nil)})
			out = append(out, &doctree.Node{Kind: doctree.KindImage, Attrs: doctree.Attrs{
				doctree.AttrSrc:   string(node.Destination),
				doctree.AttrAlt:   alt,
				doctree.AttrTitle: string(node.Title),
			}})
		case *ast.RawHTML:
			if isBreakTag(c.rawHTML(node)) {
				out = append(out, &doctree.Node{Kind: doctree.KindHardBreak})
			}
		case *east.FootnoteLink:
			out = append(out, &doctree.Node{Kind: doctree.KindFootnoteReference, Attrs: doctree.Attrs{
				doctree.AttrFootnoteID:      c.id(node.Index),
				doctree.AttrReferenceNumber: node.Index,
			}})
		case *east.FootnoteBacklink:
		default:
			out = append(out, c.inlines(node, marks)...)
		}
	}
	return out
}

func (c *mdConverter) rawHTML(n *ast.RawHTML) string {
	var buf bytes.Buffer
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		buf.Write(seg.Value(c.src))
	}
	return buf.String()
}

func isBreakTag(s string) bool {
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))
	return s == "<br>" || s == "<br/>"
}
