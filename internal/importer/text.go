package importer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docedit/internal/doctree"
)

// TextImporter handles plain text files. Blank lines separate paragraphs
// and single newlines become hard breaks.
type TextImporter struct{}

func (p *TextImporter) Import(r io.Reader, filename string) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		blocks  []*doctree.Node
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, paragraph(current))
			current = nil
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return finish(baseTitle(filename), blocks, nil)
}
