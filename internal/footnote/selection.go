package footnote

import (
	"errors"
	"fmt"

	"github.com/dgallion1/docedit/internal/doctree"
)

// ErrSelectionRejected is returned when a transaction's selection would let
// one edit reach ordinary content and footnote bodies together, or several
// bodies at once.
var ErrSelectionRejected = errors.New("selection spans footnote boundary")

// CheckSelection applies the selection guard to root. A nil or collapsed
// selection always passes.
func CheckSelection(root *doctree.Node, sel *doctree.Selection) error {
	if root == nil || sel == nil || sel.Empty() {
		return nil
	}
	ci := containerIndex(root)
	if ci < 0 {
		return nil
	}
	from, to := sel.Range()
	fromTop, toTop := 0, len(root.Children)-1
	if len(from) > 0 {
		fromTop = from[0]
	}
	if len(to) > 0 {
		toTop = to[0]
	}
	if ci < fromTop || ci > toTop {
		return nil
	}

	outside := fromTop < ci || toTop > ci
	if outside {
		return fmt.Errorf("%w: selection %s..%s covers content and the footnote container", ErrSelectionRejected, from, to)
	}

	bodies := len(root.Children[ci].Children)
	lo, hi := 0, bodies-1
	if len(from) > 1 {
		lo = from[1]
	}
	if len(to) > 1 {
		hi = to[1]
	}
	if hi > lo {
		return fmt.Errorf("%w: selection %s..%s covers %d footnotes", ErrSelectionRejected, from, to, hi-lo+1)
	}
	return nil
}

func containerIndex(root *doctree.Node) int {
	for i := len(root.Children) - 1; i >= 0; i-- {
		if root.Children[i].Kind == doctree.KindFootnoteContainer {
			return i
		}
	}
	return -1
}
