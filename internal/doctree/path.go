package doctree

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a node by child indexes from the root. The empty path is
// the root itself.
type Path []int

// Clone returns a copy of p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Parent returns the path of p's parent. The root has no parent.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1].Clone()
}

// Index returns the last component of p.
func (p Path) Index() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// HasPrefix reports whether q is an ancestor-or-self of p.
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Compare orders paths in document order. An ancestor sorts before its
// descendants.
func (p Path) Compare(q Path) int {
	for i := 0; i < len(p) && i < len(q); i++ {
		switch {
		case p[i] < q[i]:
			return -1
		case p[i] > q[i]:
			return 1
		}
	}
	switch {
	case len(p) < len(q):
		return -1
	case len(p) > len(q):
		return 1
	}
	return 0
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return "/" + strings.Join(parts, "/")
}

// Resolve returns the node at p.
func Resolve(root *Node, p Path) (*Node, error) {
	n := root
	for depth, i := range p {
		if n == nil || i < 0 || i >= len(n.Children) {
			return nil, fmt.Errorf("%w: %s (depth %d)", ErrPathNotFound, p, depth)
		}
		n = n.Children[i]
	}
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, p)
	}
	return n, nil
}

// PathOf returns the path of target inside root, compared by identity.
func PathOf(root, target *Node) (Path, bool) {
	var found Path
	Walk(root, func(n *Node, path Path) bool {
		if found != nil {
			return false
		}
		if n == target {
			found = path.Clone()
			if found == nil {
				found = Path{}
			}
			return false
		}
		return true
	})
	return found, found != nil
}
