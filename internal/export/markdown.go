// Package export renders documents into formats meant for other tools.
package export

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/dgallion1/docedit/internal/doctree"
	"github.com/dgallion1/docedit/internal/markup"
)

// Reference numbers travel through the HTML converter wrapped in
// private-use runes, which the converter leaves alone, then become [^n]
// again. The same runes are stripped from document text first so nothing
// the author wrote can turn into a reference.
const (
	refOpen  = '\uE000'
	refClose = '\uE001'
)

var (
	placeholder = regexp.MustCompile(`\x{E000}(\d+)\x{E001}`)
	stripMarks  = strings.NewReplacer(string(refOpen), "", string(refClose), "")
)

// Markdown renders root as CommonMark. Footnote references become [^n] and
// the bodies follow the content as [^n]: definitions.
func Markdown(root *doctree.Node) (string, error) {
	if root == nil {
		return "", nil
	}
	doc := root.Clone()

	var main, bodies []*doctree.Node
	for _, c := range doc.Children {
		if c.Kind == doctree.KindFootnoteContainer {
			bodies = append(bodies, c.Children...)
			continue
		}
		main = append(main, c)
	}

	numbers := map[string]int{}
	for _, n := range append(main, bodies...) {
		replaceRefs(n, numbers)
	}

	out, err := convert(main)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(out)
	for i, b := range bodies {
		n, ok := numbers[b.Attrs.String(doctree.AttrFootnoteID)]
		if !ok {
			n = i + 1
		}
		text, err := convert(b.Children)
		if err != nil {
			return "", fmt.Errorf("footnote %d: %w", n, err)
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[^%d]: %s", n, strings.ReplaceAll(text, "\n", "\n    "))
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func convert(blocks []*doctree.Node) (string, error) {
	if len(blocks) == 0 {
		return "", nil
	}
	html := markup.Serialize(&doctree.Node{Kind: doctree.KindDocument, Children: blocks})
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	md = placeholder.ReplaceAllString(md, "[^$1]")
	return strings.TrimSpace(md), nil
}

// replaceRefs swaps every footnote reference under n for its placeholder
// and records the reference number per footnote id.
func replaceRefs(n *doctree.Node, numbers map[string]int) {
	for i, c := range n.Children {
		if c.Kind == doctree.KindText {
			c.Text = stripMarks.Replace(c.Text)
			continue
		}
		if c.Kind != doctree.KindFootnoteReference {
			replaceRefs(c, numbers)
			continue
		}
		num := c.Attrs.Int(doctree.AttrReferenceNumber)
		if _, seen := numbers[c.Attrs.String(doctree.AttrFootnoteID)]; !seen {
			numbers[c.Attrs.String(doctree.AttrFootnoteID)] = num
		}
		n.Children[i] = &doctree.Node{Kind: doctree.KindText, Text: fmt.Sprintf("%c%d%c", refOpen, num, refClose)}
	}
}
