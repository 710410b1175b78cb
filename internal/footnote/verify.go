package footnote

import (
	"errors"
	"fmt"

	"github.com/dgallion1/docedit/internal/doctree"
)

// ErrInconsistent wraps every invariant violation reported by Verify.
var ErrInconsistent = errors.New("footnotes inconsistent")

// Verify checks that root satisfies the footnote pair invariant: unique
// non-empty reference ids, references numbered by rank, and exactly one
// container, last, holding one body per reference in reference order.
func Verify(root *doctree.Node) error {
	if root == nil {
		return nil
	}
	ci := -1
	containers := 0
	doctree.Walk(root, func(n *doctree.Node, path doctree.Path) bool {
		if n.Kind == doctree.KindFootnoteContainer {
			containers++
			if len(path) == 1 {
				ci = path[0]
			}
		}
		return true
	})
	switch {
	case containers > 1:
		return fmt.Errorf("%w: %d containers", ErrInconsistent, containers)
	case containers == 1 && ci != len(root.Children)-1:
		return fmt.Errorf("%w: container is not the last top-level node", ErrInconsistent)
	}

	refs := doctree.Find(root, doctree.KindFootnoteReference)
	var bodies []*doctree.Node
	if ci >= 0 {
		bodies = root.Children[ci].Children
		if len(bodies) == 0 {
			return fmt.Errorf("%w: empty container", ErrInconsistent)
		}
	}
	if len(refs) != len(bodies) {
		return fmt.Errorf("%w: %d references, %d bodies", ErrInconsistent, len(refs), len(bodies))
	}
	seen := make(map[string]bool, len(refs))
	for i, ref := range refs {
		id := ref.Attrs.String(doctree.AttrFootnoteID)
		switch {
		case id == "":
			return fmt.Errorf("%w: reference %d has no id", ErrInconsistent, i+1)
		case seen[id]:
			return fmt.Errorf("%w: duplicate id %q", ErrInconsistent, id)
		case ref.Attrs.Int(doctree.AttrReferenceNumber) != i+1:
			return fmt.Errorf("%w: reference %q numbered %d, want %d",
				ErrInconsistent, id, ref.Attrs.Int(doctree.AttrReferenceNumber), i+1)
		case bodies[i].Attrs.String(doctree.AttrFootnoteID) != id:
			return fmt.Errorf("%w: body %d has id %q, want %q",
				ErrInconsistent, i+1, bodies[i].Attrs.String(doctree.AttrFootnoteID), id)
		}
		seen[id] = true
	}
	return nil
}
