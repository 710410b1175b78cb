// Package editor runs the single mutation pipeline: apply a transaction,
// check the selection guard, then let the footnote engine repair whatever
// the edit disturbed.
package editor

import (
	"log/slog"

	"github.com/dgallion1/docedit/internal/doctree"
	"github.com/dgallion1/docedit/internal/footnote"
)

// Editor is stateless; every method is a function of its arguments.
type Editor struct {
	log       *slog.Logger
	footnotes *footnote.Engine
}

// New creates an Editor. A nil engine gets a default one logging to log.
func New(log *slog.Logger, footnotes *footnote.Engine) *Editor {
	if log == nil {
		log = slog.Default()
	}
	if footnotes == nil {
		footnotes = footnote.New(log, footnote.DefaultIDPrefix)
	}
	return &Editor{log: log, footnotes: footnotes}
}

// Result is the outcome of an accepted transaction.
type Result struct {
	Root      *doctree.Node
	Footnotes footnote.Report
	// Corrected is set when the footnote pass ran.
	Corrected bool
}

// Apply runs tx against root. On any error root is returned unchanged
// together with the error: *doctree.InvalidEditError for a bad step, or
// footnote.ErrSelectionRejected from the selection guard.
func (e *Editor) Apply(root *doctree.Node, tx *doctree.Transaction) (*Result, error) {
	applied, err := doctree.Apply(root, tx)
	if err != nil {
		e.log.Warn("transaction rejected", "error", err)
		return &Result{Root: root}, err
	}
	if err := footnote.CheckSelection(applied.Root, tx.Selection); err != nil {
		e.log.Warn("transaction rejected", "error", err)
		return &Result{Root: root}, err
	}

	res := &Result{Root: applied.Root}
	if needsCorrection(applied) {
		res.Root, res.Footnotes = e.footnotes.Correct(root, applied.Root)
		res.Corrected = true
	}
	return res, nil
}

// Normalize runs the footnote pass over a tree that did not come from a
// transaction, such as freshly parsed or imported markup.
func (e *Editor) Normalize(root *doctree.Node) (*doctree.Node, footnote.Report) {
	return e.footnotes.Correct(nil, root)
}

func needsCorrection(a *doctree.Applied) bool {
	if a.Touched.Has(doctree.KindFootnoteReference, doctree.KindFootnoteBody, doctree.KindFootnoteContainer) {
		return true
	}
	kids := a.Root.Children
	for i, c := range kids {
		if c.Kind == doctree.KindFootnoteContainer && i != len(kids)-1 {
			return true
		}
	}
	return false
}
