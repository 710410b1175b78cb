// Package importer converts uploaded files into document trees. Every
// importer produces a fitted, valid tree; footnote numbering is left to
// the editor's normalize pass.
package importer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docedit/internal/doctree"
	"github.com/dgallion1/docedit/internal/footnote"
)

// Importer converts raw file bytes into a document.
type Importer interface {
	Import(r io.Reader, filename string) (*Result, error)
}

// Result is an imported document.
type Result struct {
	Title    string
	Doc      *doctree.Node
	Degraded []*doctree.ParseError
}

// Options tune the importers returned by ForFile.
type Options struct {
	// PDFFallbackPdftotext shells out to pdftotext when the Go PDF reader
	// fails.
	PDFFallbackPdftotext bool
	// IDPrefix is prepended to Markdown footnote labels to form ids.
	IDPrefix string
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate importer for a filename.
func ForFile(filename string, opts Options) (Importer, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextImporter{}, nil
	case ".md", ".markdown":
		prefix := opts.IDPrefix
		if prefix == "" {
			prefix = footnote.DefaultIDPrefix
		}
		return &MarkdownImporter{IDPrefix: prefix}, nil
	case ".html", ".htm":
		return &HTMLImporter{}, nil
	case ".pdf":
		return &PDFImporter{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXImporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// baseTitle strips the directory and extension from a filename.
func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// finish fits blocks into a document and validates the result.
func finish(title string, blocks []*doctree.Node, degraded []*doctree.ParseError) (*Result, error) {
	doc := &doctree.Node{Kind: doctree.KindDocument, Children: doctree.Fit(doctree.KindDocument, blocks)}
	built, err := doctree.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}
	return &Result{Title: title, Doc: built, Degraded: degraded}, nil
}

// paragraph builds a paragraph from lines joined by hard breaks.
func paragraph(lines []string, marks ...doctree.Mark) *doctree.Node {
	var kids []*doctree.Node
	for i, l := range lines {
		if i > 0 {
			kids = append(kids, &doctree.Node{Kind: doctree.KindHardBreak})
		}
		if l != "" {
			kids = append(kids, &doctree.Node{Kind: doctree.KindText, Text: l, Marks: doctree.CanonicalMarks(marks)})
		}
	}
	return &doctree.Node{Kind: doctree.KindParagraph, Children: kids}
}
