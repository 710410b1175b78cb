package doctree

import (
	"errors"
	"fmt"
)

// Op is an elementary edit.
type Op string

const (
	OpInsert   Op = "insert"
	OpDelete   Op = "delete"
	OpSetAttrs Op = "setAttrs"
	OpSetText  Op = "setText"
)

// Step is one edit in a transaction. Path addresses the insertion point for
// insert (the index the first new node will occupy) and the first node
// otherwise.
type Step struct {
	Op   Op   `json:"op" yaml:"op"`
	Path Path `json:"path" yaml:"path"`
	// Count is the number of siblings removed by delete; zero means one.
	Count int     `json:"count,omitempty" yaml:"count,omitempty"`
	Nodes []*Node `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Attrs Attrs   `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Text  string  `json:"text,omitempty" yaml:"text,omitempty"`
}

// Insert places nodes so that the first one ends up at path at.
func Insert(at Path, nodes ...*Node) Step {
	return Step{Op: OpInsert, Path: at, Nodes: nodes}
}

// Delete removes count siblings starting at at.
func Delete(at Path, count int) Step {
	return Step{Op: OpDelete, Path: at, Count: count}
}

// SetAttrs merges attrs into the node at at. A nil value resets the
// attribute to its default.
func SetAttrs(at Path, attrs Attrs) Step {
	return Step{Op: OpSetAttrs, Path: at, Attrs: attrs}
}

// SetText replaces the content of the text node at at.
func SetText(at Path, text string) Step {
	return Step{Op: OpSetText, Path: at, Text: text}
}

// Selection is the editor selection after a transaction, as two paths.
type Selection struct {
	Anchor Path `json:"anchor" yaml:"anchor"`
	Head   Path `json:"head" yaml:"head"`
}

// Empty reports whether the selection is collapsed.
func (s Selection) Empty() bool {
	return s.Anchor.Compare(s.Head) == 0
}

// Range returns the selection endpoints in document order.
func (s Selection) Range() (from, to Path) {
	if s.Anchor.Compare(s.Head) <= 0 {
		return s.Anchor, s.Head
	}
	return s.Head, s.Anchor
}

// Transaction is a batch of steps applied atomically.
type Transaction struct {
	Steps     []Step     `json:"steps" yaml:"steps"`
	Selection *Selection `json:"selection,omitempty" yaml:"selection,omitempty"`
}

// NewTransaction builds a transaction from steps.
func NewTransaction(steps ...Step) *Transaction {
	return &Transaction{Steps: steps}
}

// WithSelection sets the resulting selection and returns t.
func (t *Transaction) WithSelection(anchor, head Path) *Transaction {
	t.Selection = &Selection{Anchor: anchor, Head: head}
	return t
}

// KindSet records which kinds a transaction touched.
type KindSet map[Kind]bool

// Has reports whether any of kinds is in the set.
func (s KindSet) Has(kinds ...Kind) bool {
	for _, k := range kinds {
		if s[k] {
			return true
		}
	}
	return false
}

func (s KindSet) addTree(n *Node) {
	Walk(n, func(c *Node, _ Path) bool {
		s[c.Kind] = true
		return true
	})
}

// Applied is the outcome of a successful Apply.
type Applied struct {
	Root    *Node
	Touched KindSet
}

var (
	errRootEdit   = errors.New("the root cannot be inserted or deleted")
	errTextOnly   = errors.New("target is not a text node")
	errNotText    = errors.New("text nodes have no attributes")
	errNoNodes    = errors.New("nothing to insert")
	errEmptyText  = errors.New("empty text; delete the node instead")
	errUnknownOp  = errors.New("unknown op")
	errBadCount   = errors.New("count out of range")
	errNilTxn     = errors.New("nil transaction")
	errNilRoot    = errors.New("nil root")
)

// Apply runs tx against a copy of root. Either every step succeeds and the
// new tree is returned, or the first failing step is reported as an
// *InvalidEditError and root is untouched.
func Apply(root *Node, tx *Transaction) (*Applied, error) {
	if root == nil {
		return nil, errNilRoot
	}
	if tx == nil {
		return nil, errNilTxn
	}
	out := &Applied{Root: root.Clone(), Touched: KindSet{}}
	for i, step := range tx.Steps {
		if err := applyStep(out, step); err != nil {
			return nil, &InvalidEditError{Step: i, Op: step.Op, Path: step.Path, Err: err}
		}
	}
	return out, nil
}

func applyStep(a *Applied, step Step) error {
	switch step.Op {
	case OpInsert:
		return applyInsert(a, step)
	case OpDelete:
		return applyDelete(a, step)
	case OpSetAttrs:
		return applySetAttrs(a, step)
	case OpSetText:
		return applySetText(a, step)
	default:
		return fmt.Errorf("%w %q", errUnknownOp, step.Op)
	}
}

func applyInsert(a *Applied, step Step) error {
	if len(step.Path) == 0 {
		return errRootEdit
	}
	if len(step.Nodes) == 0 {
		return errNoNodes
	}
	parent, err := Resolve(a.Root, step.Path.Parent())
	if err != nil {
		return err
	}
	idx := step.Path.Index()
	if idx < 0 || idx > len(parent.Children) {
		return fmt.Errorf("%w: index %d outside 0..%d", ErrPathNotFound, idx, len(parent.Children))
	}
	spec, _ := Default.Spec(parent.Kind)
	built := make([]*Node, 0, len(step.Nodes))
	for _, n := range step.Nodes {
		b, err := Build(n)
		if err != nil {
			return err
		}
		cs, _ := Default.Spec(b.Kind)
		if spec == nil || !spec.Content.Allows(cs) {
			return &SchemaError{Kind: parent.Kind, Reason: fmt.Sprintf("%s not allowed as a child", b.Kind)}
		}
		built = append(built, b)
	}
	kids := make([]*Node, 0, len(parent.Children)+len(built))
	kids = append(kids, parent.Children[:idx]...)
	kids = append(kids, built...)
	kids = append(kids, parent.Children[idx:]...)
	parent.Children = kids
	for _, b := range built {
		a.Touched.addTree(b)
	}
	return nil
}

func applyDelete(a *Applied, step Step) error {
	if len(step.Path) == 0 {
		return errRootEdit
	}
	count := step.Count
	if count == 0 {
		count = 1
	}
	parent, err := Resolve(a.Root, step.Path.Parent())
	if err != nil {
		return err
	}
	idx := step.Path.Index()
	if idx < 0 || idx >= len(parent.Children) {
		return fmt.Errorf("%w: index %d outside 0..%d", ErrPathNotFound, idx, len(parent.Children)-1)
	}
	if count < 0 || idx+count > len(parent.Children) {
		return fmt.Errorf("%w: %d from index %d of %d", errBadCount, count, idx, len(parent.Children))
	}
	spec, _ := Default.Spec(parent.Kind)
	if remaining := len(parent.Children) - count; spec != nil && remaining < spec.Content.Min {
		return &SchemaError{
			Kind:   parent.Kind,
			Reason: fmt.Sprintf("needs at least %d child(ren), would have %d", spec.Content.Min, remaining),
		}
	}
	for _, gone := range parent.Children[idx : idx+count] {
		a.Touched.addTree(gone)
	}
	kids := make([]*Node, 0, len(parent.Children)-count)
	kids = append(kids, parent.Children[:idx]...)
	kids = append(kids, parent.Children[idx+count:]...)
	parent.Children = kids
	return nil
}

func applySetAttrs(a *Applied, step Step) error {
	n, err := Resolve(a.Root, step.Path)
	if err != nil {
		return err
	}
	if n.Kind == KindText {
		return errNotText
	}
	merged := n.Attrs.Clone()
	if merged == nil {
		merged = Attrs{}
	}
	for k, v := range step.Attrs {
		merged[k] = v
	}
	norm, err := CoerceAttrs(n.Kind, merged)
	if err != nil {
		return err
	}
	n.Attrs = norm
	a.Touched[n.Kind] = true
	return nil
}

func applySetText(a *Applied, step Step) error {
	n, err := Resolve(a.Root, step.Path)
	if err != nil {
		return err
	}
	if n.Kind != KindText {
		return errTextOnly
	}
	if step.Text == "" {
		return errEmptyText
	}
	n.Text = step.Text
	a.Touched[KindText] = true
	return nil
}
