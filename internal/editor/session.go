package editor

import (
	"errors"

	"github.com/dgallion1/docedit/internal/doctree"
	"github.com/dgallion1/docedit/internal/drag"
	"github.com/dgallion1/docedit/internal/markup"
)

// ErrNoDrag is returned by Drop when no drag is in progress.
var ErrNoDrag = errors.New("no drag in progress")

// Session owns one document for the length of an editing session. It is
// not safe for concurrent use.
type Session struct {
	ed      *Editor
	root    *doctree.Node
	pending *drag.Payload
}

// NewSession starts a session over root after normalizing its footnotes.
func NewSession(ed *Editor, root *doctree.Node) *Session {
	if root == nil {
		root = &doctree.Node{Kind: doctree.KindDocument}
	}
	norm, _ := ed.Normalize(root)
	return &Session{ed: ed, root: norm}
}

// Root returns the current tree. Callers must not modify it.
func (s *Session) Root() *doctree.Node { return s.root }

// Markup returns the current tree serialized.
func (s *Session) Markup() string { return markup.Serialize(s.root) }

// Dispatch applies tx. A rejected transaction leaves the document as it
// was.
func (s *Session) Dispatch(tx *doctree.Transaction) (*Result, error) {
	res, err := s.ed.Apply(s.root, tx)
	if err != nil {
		return res, err
	}
	s.root = res.Root
	return res, nil
}

// BeginDrag picks up the node at path. Any earlier drag is abandoned.
func (s *Session) BeginDrag(path doctree.Path) (*drag.Payload, error) {
	p, err := drag.Begin(s.root, path)
	if err != nil {
		return nil, err
	}
	s.pending = p
	return p, nil
}

// CancelDrag abandons the drag in progress.
func (s *Session) CancelDrag() { s.pending = nil }

// Drop completes the pending drag at a target observed before the source
// is removed. The drag ends whether or not the drop succeeds.
func (s *Session) Drop(observed doctree.Path) (*Result, error) {
	p := s.pending
	s.pending = nil
	if p == nil {
		return nil, ErrNoDrag
	}
	tx, err := drag.DropAt(s.root, p, observed)
	if err != nil {
		return nil, err
	}
	return s.Dispatch(tx)
}
