// Package outline splits a document into heading-delimited sections, each
// carrying the breadcrumb of headings above it.
package outline

import (
	"strings"

	"github.com/dgallion1/docedit/internal/doctree"
)

// Config controls which sections are emitted.
type Config struct {
	MinTokens int // Sections estimated below this are dropped. Headings-only sections always survive.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MinTokens: 0}
}

// Section is one run of blocks under a heading.
type Section struct {
	Index      int          `json:"index"`
	Level      int          `json:"level"`
	Title      string       `json:"title"`
	Breadcrumb []string     `json:"breadcrumb,omitempty"`
	Path       doctree.Path `json:"path"`
	Text       string       `json:"text"`
	Tokens     int          `json:"tokens"`
	Footnotes  []string     `json:"footnotes,omitempty"`
}

type heading struct {
	level int
	title string
}

// Build walks the top level of root and produces its sections. Content
// before the first heading lands in an untitled level-0 section. The
// footnote container is not part of any section.
func Build(root *doctree.Node, cfg Config) []Section {
	if root == nil {
		return nil
	}

	var (
		sections []Section
		stack    []heading
		cur      *Section
		text     []string
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = strings.Join(text, "\n\n")
		cur.Tokens = EstimateTokens(cur.Text)
		if cur.Level > 0 || (cur.Tokens > 0 && cur.Tokens >= cfg.MinTokens) {
			cur.Index = len(sections)
			sections = append(sections, *cur)
		}
		cur, text = nil, nil
	}

	for i, block := range root.Children {
		switch block.Kind {
		case doctree.KindFootnoteContainer:
			continue
		case doctree.KindHeading:
			flush()
			level := block.Attrs.Int(doctree.AttrLevel)
			for len(stack) > 0 && stack[len(stack)-1].level >= level {
				stack = stack[:len(stack)-1]
			}
			title := strings.TrimSpace(doctree.TextContent(block))
			cur = &Section{
				Level:      level,
				Title:      title,
				Breadcrumb: breadcrumb(stack),
				Path:       doctree.Path{i},
			}
			stack = append(stack, heading{level: level, title: title})
			cur.Footnotes = appendRefs(cur.Footnotes, block)
			continue
		}
		if cur == nil {
			cur = &Section{Breadcrumb: breadcrumb(stack), Path: doctree.Path{i}}
		}
		text = append(text, blockText(block)...)
		cur.Footnotes = appendRefs(cur.Footnotes, block)
	}
	flush()
	return sections
}

// blockText returns the text of every textblock under n, in order.
func blockText(n *doctree.Node) []string {
	var out []string
	doctree.Walk(n, func(c *doctree.Node, _ doctree.Path) bool {
		switch c.Kind {
		case doctree.KindParagraph, doctree.KindHeading:
			if s := strings.TrimSpace(doctree.TextContent(c)); s != "" {
				out = append(out, s)
			}
			return false
		}
		return true
	})
	return out
}

func appendRefs(ids []string, n *doctree.Node) []string {
	for _, ref := range doctree.Find(n, doctree.KindFootnoteReference) {
		ids = append(ids, ref.Attrs.String(doctree.AttrFootnoteID))
	}
	return ids
}

func breadcrumb(stack []heading) []string {
	if len(stack) == 0 {
		return nil
	}
	out := make([]string, len(stack))
	for i, h := range stack {
		out[i] = h.title
	}
	return out
}
