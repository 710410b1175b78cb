package importer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/docedit/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXImporter handles .docx files. Heading styles map to headings, run
// formatting maps to marks, and hyperlinks keep their targets.
type DOCXImporter struct{}

func (p *DOCXImporter) Import(r io.Reader, filename string) (*Result, error) {
	// go-docx needs a ReaderAt+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docedit-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	defer tmp.Close()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	doc, err := docx.Parse(tmp, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var blocks []*doctree.Node
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		kids := docxInlines(doc, para)
		if level := docxHeadingLevel(para); level > 0 {
			blocks = append(blocks, &doctree.Node{
				Kind:     doctree.KindHeading,
				Attrs:    doctree.Attrs{doctree.AttrLevel: level},
				Children: doctree.Fit(doctree.KindHeading, kids),
			})
			continue
		}
		if strings.TrimSpace(doctree.TextContent(&doctree.Node{Children: kids})) == "" {
			continue
		}
		blocks = append(blocks, &doctree.Node{Kind: doctree.KindParagraph, Children: doctree.Fit(doctree.KindParagraph, kids)})
	}
	return finish(baseTitle(filename), blocks, nil)
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if style == "title" {
		return 1
	}
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch strings.TrimPrefix(style, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}

func docxInlines(doc *docx.Docx, para *docx.Paragraph) []*doctree.Node {
	var out []*doctree.Node
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			out = append(out, docxRun(c, nil)...)
		case *docx.Hyperlink:
			var marks []doctree.Mark
			if target, err := doc.ReferTarget(c.ID); err == nil && target != "" {
				marks = append(marks, doctree.Link(target))
			}
			out = append(out, docxRun(&c.Run, marks)...)
		}
	}
	return out
}

func docxRun(run *docx.Run, marks []doctree.Mark) []*doctree.Node {
	marks = append(marks, runMarks(run.RunProperties)...)
	text := func(s string) *doctree.Node {
		return &doctree.Node{Kind: doctree.KindText, Text: s, Marks: doctree.CanonicalMarks(marks)}
	}

	var out []*doctree.Node
	if run.InstrText != "" && len(run.Children) == 0 {
		out = append(out, text(run.InstrText))
	}
	for _, rc := range run.Children {
		switch c := rc.(type) {
		case *docx.Text:
			if c.Text != "" {
				out = append(out, text(c.Text))
			}
		case *docx.Tab:
			out = append(out, text("\t"))
		case *docx.BarterRabbet:
			out = append(out, &doctree.Node{Kind: doctree.KindHardBreak})
		}
	}
	return out
}

func runMarks(props *docx.RunProperties) []doctree.Mark {
	if props == nil {
		return nil
	}
	var marks []doctree.Mark
	if props.Bold != nil {
		marks = append(marks, doctree.Mark{Type: doctree.MarkBold})
	}
	if props.Italic != nil {
		marks = append(marks, doctree.Mark{Type: doctree.MarkItalic})
	}
	if props.Underline != nil && props.Underline.Val != "none" {
		marks = append(marks, doctree.Mark{Type: doctree.MarkUnderline})
	}
	if props.Strike != nil && props.Strike.Val != "false" && props.Strike.Val != "0" {
		marks = append(marks, doctree.Mark{Type: doctree.MarkStrike})
	}
	return marks
}
