// Package drag implements detach-and-reinsert of atomic and draggable
// nodes. A drag starts with a portable Payload snapshot and completes with
// an ordinary transaction, so drops go through the same edit pipeline as
// everything else.
package drag

import (
	"errors"
	"fmt"

	"github.com/dgallion1/docedit/internal/doctree"
	"github.com/dgallion1/docedit/internal/markup"
)

// ErrDropIntoSelf rejects a drop target inside the dragged node.
var ErrDropIntoSelf = errors.New("drop target is inside the dragged node")

// NotDraggableError is returned by Begin for kinds that cannot be dragged.
type NotDraggableError struct {
	Kind doctree.Kind
	Path doctree.Path
}

func (e *NotDraggableError) Error() string {
	return fmt.Sprintf("drag: %s at %s is not draggable", e.Kind, e.Path)
}

// StaleDragError is returned when the source of a drag no longer holds the
// node that was picked up.
type StaleDragError struct {
	Path   doctree.Path
	Reason string
}

func (e *StaleDragError) Error() string {
	return fmt.Sprintf("drag: stale source %s: %s", e.Path, e.Reason)
}

// Payload is the portable snapshot of a dragged node.
type Payload struct {
	SourcePath doctree.Path  `json:"sourcePath" yaml:"sourcePath"`
	Node       *doctree.Node `json:"node" yaml:"node"`
	Markup     string        `json:"markup" yaml:"markup"`
}

// Begin picks up the node at path.
func Begin(root *doctree.Node, path doctree.Path) (*Payload, error) {
	n, err := doctree.Resolve(root, path)
	if err != nil {
		return nil, fmt.Errorf("begin drag: %w", err)
	}
	spec, ok := doctree.Default.Spec(n.Kind)
	if len(path) == 0 || !ok || !(spec.Atomic || spec.Draggable) {
		return nil, &NotDraggableError{Kind: n.Kind, Path: path.Clone()}
	}
	return &Payload{
		SourcePath: path.Clone(),
		Node:       n.Clone(),
		Markup:     markup.Serialize(n),
	}, nil
}

// CompleteDrop turns a drop at target into a transaction deleting the
// source and inserting the snapshot. target addresses the post-delete tree;
// use AdjustTarget to convert a position observed before the delete.
func CompleteDrop(root *doctree.Node, p *Payload, target doctree.Path) (*doctree.Transaction, error) {
	if p == nil {
		return nil, &StaleDragError{Reason: "no payload"}
	}
	cur, err := doctree.Resolve(root, p.SourcePath)
	if err != nil {
		return nil, &StaleDragError{Path: p.SourcePath, Reason: err.Error()}
	}
	if markup.Serialize(cur) != p.Markup {
		return nil, &StaleDragError{Path: p.SourcePath, Reason: "node changed since the drag began"}
	}
	if len(target) == 0 {
		return nil, fmt.Errorf("complete drop: %w: empty target", doctree.ErrPathNotFound)
	}
	node, err := markup.ParseNode(p.Markup)
	if err != nil {
		return nil, fmt.Errorf("complete drop: %w", err)
	}
	return doctree.NewTransaction(
		doctree.Delete(p.SourcePath, 1),
		doctree.Insert(target, node),
	), nil
}

// DropAt is CompleteDrop for a target observed in the pre-delete tree, as a
// pointer position usually is. A target inside the dragged node is rejected.
func DropAt(root *doctree.Node, p *Payload, observed doctree.Path) (*doctree.Transaction, error) {
	if p == nil {
		return nil, &StaleDragError{Reason: "no payload"}
	}
	if len(observed) > len(p.SourcePath) && observed.HasPrefix(p.SourcePath) {
		return nil, ErrDropIntoSelf
	}
	return CompleteDrop(root, p, AdjustTarget(p.SourcePath, observed))
}

// AdjustTarget converts a target observed in the pre-delete tree into the
// equivalent post-delete path. Removing the source shifts its later
// siblings, and everything under them, one index down.
func AdjustTarget(source, target doctree.Path) doctree.Path {
	out := target.Clone()
	if len(source) == 0 {
		return out
	}
	depth := len(source) - 1
	if len(out) <= depth || !out[:depth].HasPrefix(source[:depth]) {
		return out
	}
	if out[depth] > source[depth] {
		out[depth]--
	}
	return out
}
