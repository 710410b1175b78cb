package doctree

import "strings"

// Fit rearranges children so they satisfy kind's content model. It is used
// when a tree is assembled from loose input (markup, importers) rather than
// built node by node:
//
//   - inline parents flatten block children down to their inline content
//   - block parents wrap runs of inline nodes in paragraphs and unwrap
//     children they do not admit
//   - list-like parents wrap strays in their item kind
//
// Adjacent text with equal marks is merged and an unmet minimum is filled
// with empty nodes. The input slice is not modified.
func Fit(kind Kind, children []*Node) []*Node {
	spec, ok := Default.Spec(kind)
	if !ok || spec.Content.Leaf() {
		return nil
	}
	var out []*Node
	switch spec.Content.Group {
	case GroupInline:
		for _, c := range children {
			out = append(out, inlineContent(c)...)
		}
		out = mergeText(out)
	case GroupBlock:
		out = fitBlocks(spec, children)
	default:
		out = fitKinds(spec, children)
	}
	for len(out) < spec.Content.Min {
		out = append(out, fillerFor(spec))
	}
	return out
}

// Split turns an inline-content node whose children include blocks into a
// sequence of siblings. Inline runs become nodes of kind carrying attrs, and
// blocks are lifted out in place. Without blocks it returns a single node.
func Split(kind Kind, attrs Attrs, children []*Node) []*Node {
	var (
		out []*Node
		run []*Node
	)
	flush := func(force bool) {
		if len(run) == 0 && !force {
			return
		}
		if !force && blank(run) {
			run = nil
			return
		}
		out = append(out, &Node{Kind: kind, Attrs: attrs.Clone(), Children: Fit(kind, run)})
		run = nil
	}
	for _, c := range children {
		if isInline(c) {
			run = append(run, c)
			continue
		}
		flush(false)
		out = append(out, c)
	}
	flush(len(out) == 0)
	return out
}

func fitBlocks(spec *KindSpec, children []*Node) []*Node {
	var (
		out []*Node
		run []*Node
	)
	flush := func() {
		if len(run) > 0 && !blank(run) {
			out = append(out, &Node{Kind: KindParagraph, Children: mergeText(run)})
		}
		run = nil
	}
	for _, c := range children {
		cs, ok := Default.Spec(c.Kind)
		switch {
		case ok && cs.Group == GroupInline:
			run = append(run, c)
		case ok && spec.Content.Allows(cs):
			flush()
			out = append(out, c)
		default:
			flush()
			out = append(out, fitBlocks(spec, c.Children)...)
		}
	}
	flush()
	return out
}

func fitKinds(spec *KindSpec, children []*Node) []*Node {
	target := spec.Content.Kinds[0]
	var (
		out []*Node
		run []*Node
	)
	flush := func() {
		if len(run) > 0 && !blank(run) {
			out = append(out, &Node{Kind: target, Attrs: defaultsOf(target), Children: Fit(target, run)})
		}
		run = nil
	}
	for _, c := range children {
		cs, ok := Default.Spec(c.Kind)
		if ok && spec.Content.Allows(cs) {
			flush()
			out = append(out, c)
			continue
		}
		// The container only ever holds bodies; anything else in it is noise.
		if spec.Kind == KindFootnoteContainer {
			continue
		}
		run = append(run, c)
	}
	flush()
	return out
}

func inlineContent(n *Node) []*Node {
	if isInline(n) {
		return []*Node{n}
	}
	var out []*Node
	for _, c := range n.Children {
		out = append(out, inlineContent(c)...)
	}
	return out
}

// mergeText joins adjacent text nodes with equal marks and drops empty ones.
func mergeText(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind == KindText {
			if n.Text == "" {
				continue
			}
			if len(out) > 0 {
				prev := out[len(out)-1]
				if prev.Kind == KindText && marksEqual(prev.Marks, n.Marks) {
					out[len(out)-1] = &Node{Kind: KindText, Text: prev.Text + n.Text, Marks: prev.Marks}
					continue
				}
			}
		}
		out = append(out, n)
	}
	return out
}

func isInline(n *Node) bool {
	spec, ok := Default.Spec(n.Kind)
	return ok && spec.Group == GroupInline
}

// blank reports whether a run holds nothing but whitespace text.
func blank(run []*Node) bool {
	for _, n := range run {
		if n.Kind != KindText || strings.TrimSpace(n.Text) != "" {
			return false
		}
	}
	return true
}

func fillerFor(spec *KindSpec) *Node {
	if spec.Content.Group == GroupBlock {
		return &Node{Kind: KindParagraph}
	}
	return EmptyNode(spec.Content.Kinds[0])
}

func defaultsOf(kind Kind) Attrs {
	spec, ok := Default.Spec(kind)
	if !ok {
		return nil
	}
	return spec.Defaults()
}

// EmptyNode returns the smallest valid node of kind: default attributes and
// just enough empty children to meet the content minimum.
func EmptyNode(kind Kind) *Node {
	spec, ok := Default.Spec(kind)
	if !ok {
		return &Node{Kind: kind}
	}
	n := &Node{Kind: kind, Attrs: spec.Defaults()}
	for len(n.Children) < spec.Content.Min {
		n.Children = append(n.Children, fillerFor(spec))
	}
	return n
}
