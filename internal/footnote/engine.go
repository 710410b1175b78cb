// Package footnote keeps footnote references and bodies paired.
//
// A reference carries a stable footnoteId and a referenceNumber that is
// recomputed from document order. Bodies live in a single container that
// is the last child of the document, ordered like their references.
// Correct restores that state after an arbitrary edit without ever
// discarding the content of a body that is still referenced.
package footnote

import (
	"log/slog"
	"slices"

	"github.com/dgallion1/docedit/internal/doctree"
	"github.com/google/uuid"
)

// DefaultIDPrefix prefixes generated footnote ids.
const DefaultIDPrefix = "fn-"

// Engine corrects footnote state. The zero value is usable.
type Engine struct {
	Log *slog.Logger
	// NewID returns a fresh footnote id. Collisions with ids already in the
	// document are retried.
	NewID func() string
}

// New returns an engine generating ids as prefix followed by a UUID.
func New(log *slog.Logger, prefix string) *Engine {
	if prefix == "" {
		prefix = DefaultIDPrefix
	}
	return &Engine{
		Log:   log,
		NewID: func() string { return prefix + uuid.NewString() },
	}
}

// Report summarizes what a correction pass changed.
type Report struct {
	// Renumbered counts references whose referenceNumber changed.
	Renumbered int `json:"renumbered"`
	// Created lists ids that got a new empty body.
	Created []string `json:"created,omitempty"`
	// Removed lists ids of bodies dropped because nothing references them.
	Removed []string `json:"removed,omitempty"`
	// RemovedReferences counts references dropped because their body was
	// deleted, directly or inside a removed body.
	RemovedReferences int `json:"removedReferences"`
	// Reassigned maps replacement ids to the duplicate or empty id they
	// replaced.
	Reassigned map[string]string `json:"reassigned,omitempty"`
	// Reordered is set when the container's bodies changed order.
	Reordered bool `json:"reordered"`
	// ContainerMoved is set when containers were merged or moved to the end.
	ContainerMoved bool `json:"containerMoved"`

	changed bool
}

// Changed reports whether the pass altered the tree at all.
func (r Report) Changed() bool { return r.changed }

func (e *Engine) log() *slog.Logger {
	if e == nil || e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

func (e *Engine) freshID(used map[string]bool) string {
	gen := func() string { return DefaultIDPrefix + uuid.NewString() }
	if e != nil && e.NewID != nil {
		gen = e.NewID
	}
	for {
		id := gen()
		if id != "" && !used[id] {
			used[id] = true
			return id
		}
	}
}

// Correct returns a copy of root satisfying the footnote pair invariant.
// old is the tree before the edit, or nil; when given, bodies that existed
// in old and are gone now take their references with them. Correct never
// fails: inconsistencies are resolved and logged.
func (e *Engine) Correct(old, root *doctree.Node) (*doctree.Node, Report) {
	var rep Report
	if root == nil {
		return nil, rep
	}
	doc := root.Clone()
	log := e.log()

	bodies, containers, wasLast := detachContainers(doc)
	if containers > 1 || (containers == 1 && !wasLast) {
		rep.ContainerMoved = true
	}

	used := map[string]bool{}
	doctree.Walk(doc, func(n *doctree.Node, _ doctree.Path) bool {
		if n.Kind == doctree.KindFootnoteReference {
			used[n.Attrs.String(doctree.AttrFootnoteID)] = true
		}
		return true
	})
	pool := map[string][]*doctree.Node{}
	var originalOrder []*doctree.Node
	for _, b := range bodies {
		id := b.Attrs.String(doctree.AttrFootnoteID)
		used[id] = true
		pool[id] = append(pool[id], b)
		originalOrder = append(originalOrder, b)
		doctree.Walk(b, func(n *doctree.Node, _ doctree.Path) bool {
			if n.Kind == doctree.KindFootnoteReference {
				used[n.Attrs.String(doctree.AttrFootnoteID)] = true
			}
			return true
		})
	}

	if old != nil {
		gone := deletedBodyIDs(old, pool)
		if len(gone) > 0 {
			drop := func(n *doctree.Node) bool {
				return n.Kind == doctree.KindFootnoteReference && gone[n.Attrs.String(doctree.AttrFootnoteID)]
			}
			rep.RemovedReferences += removeWhere(doc, drop)
			for _, b := range bodies {
				rep.RemovedReferences += removeWhere(b, drop)
			}
			log.Debug("footnote bodies deleted, dropping their references", "ids", sortedKeys(gone))
		}
	}

	// Walk references reachable from the main content, then from each
	// claimed body in turn. Claim order is the final body order.
	var (
		claimed []*doctree.Node
		rank    int
		seen    = map[string]bool{}
		claims  = map[string]int{}
	)
	visit := func(ref *doctree.Node) {
		if ref.Attrs == nil {
			ref.Attrs = doctree.Attrs{}
		}
		id := ref.Attrs.String(doctree.AttrFootnoteID)
		origID := id
		if id == "" || seen[id] {
			id = e.freshID(used)
			if rep.Reassigned == nil {
				rep.Reassigned = map[string]string{}
			}
			rep.Reassigned[id] = origID
			log.Warn("footnote id reassigned", "old_id", origID, "new_id", id)
			ref.Attrs[doctree.AttrFootnoteID] = id
		}
		seen[id] = true

		// Duplicates pair up with duplicate bodies positionally so their
		// content follows them.
		k := claims[origID]
		claims[origID] = k + 1
		var body *doctree.Node
		if cands := pool[origID]; k < len(cands) {
			body = cands[k]
			cands[k] = nil
			body.Attrs[doctree.AttrFootnoteID] = id
		} else {
			body = doctree.EmptyNode(doctree.KindFootnoteBody)
			body.Attrs[doctree.AttrFootnoteID] = id
			rep.Created = append(rep.Created, id)
		}
		claimed = append(claimed, body)

		rank++
		if ref.Attrs.Int(doctree.AttrReferenceNumber) != rank {
			rep.Renumbered++
		}
		ref.Attrs[doctree.AttrReferenceNumber] = rank
	}
	for _, ref := range doctree.Find(doc, doctree.KindFootnoteReference) {
		visit(ref)
	}
	for i := 0; i < len(claimed); i++ {
		for _, ref := range doctree.Find(claimed[i], doctree.KindFootnoteReference) {
			visit(ref)
		}
	}

	for _, b := range originalOrder {
		if slices.Contains(claimed, b) {
			continue
		}
		id := b.Attrs.String(doctree.AttrFootnoteID)
		rep.Removed = append(rep.Removed, id)
		rep.RemovedReferences += len(doctree.Find(b, doctree.KindFootnoteReference))
	}
	rep.Reordered = reordered(originalOrder, claimed)

	if len(claimed) > 0 {
		doc.Children = append(doc.Children, &doctree.Node{
			Kind:     doctree.KindFootnoteContainer,
			Children: claimed,
		})
	}

	rep.changed = !doctree.Equal(doc, root)
	if rep.changed {
		log.Debug("footnotes corrected",
			"references", len(claimed),
			"renumbered", rep.Renumbered,
			"created", len(rep.Created),
			"removed", len(rep.Removed),
			"removed_references", rep.RemovedReferences,
		)
	}
	return doc, rep
}

// detachContainers removes every footnote container from doc and returns
// their bodies in document order. wasLast reports whether a single
// container was already the last top-level child.
func detachContainers(doc *doctree.Node) (bodies []*doctree.Node, count int, wasLast bool) {
	if n := len(doc.Children); n > 0 && doc.Children[n-1].Kind == doctree.KindFootnoteContainer {
		wasLast = true
	}
	var strip func(n *doctree.Node)
	strip = func(n *doctree.Node) {
		kept := n.Children[:0]
		for _, c := range n.Children {
			if c.Kind == doctree.KindFootnoteContainer {
				count++
				bodies = append(bodies, collectBodies(c)...)
				continue
			}
			strip(c)
			kept = append(kept, c)
		}
		n.Children = kept
		if n != doc {
			if spec, ok := doctree.Default.Spec(n.Kind); ok && len(n.Children) < spec.Content.Min {
				n.Children = doctree.Fit(n.Kind, n.Children)
			}
		}
	}
	strip(doc)
	return bodies, count, wasLast
}

// collectBodies returns the bodies of a container. A container nested in a
// body is flattened into the list right after that body.
func collectBodies(container *doctree.Node) []*doctree.Node {
	var out []*doctree.Node
	for _, b := range container.Children {
		if b.Kind != doctree.KindFootnoteBody {
			continue
		}
		if b.Attrs == nil {
			b.Attrs = doctree.Attrs{}
		}
		nested, _, _ := detachContainers(b)
		if len(b.Children) == 0 {
			b.Children = doctree.Fit(b.Kind, nil)
		}
		out = append(out, b)
		out = append(out, nested...)
	}
	return out
}

// deletedBodyIDs returns ids that had a body in old but have none now.
func deletedBodyIDs(old *doctree.Node, pool map[string][]*doctree.Node) map[string]bool {
	gone := map[string]bool{}
	for _, b := range doctree.Find(old, doctree.KindFootnoteBody) {
		id := b.Attrs.String(doctree.AttrFootnoteID)
		if id == "" {
			continue
		}
		if len(pool[id]) == 0 {
			gone[id] = true
		}
	}
	return gone
}

// removeWhere deletes every descendant of n matching drop and returns how
// many were removed.
func removeWhere(n *doctree.Node, drop func(*doctree.Node) bool) int {
	removed := 0
	kept := n.Children[:0]
	for _, c := range n.Children {
		if drop(c) {
			removed++
			continue
		}
		removed += removeWhere(c, drop)
		kept = append(kept, c)
	}
	n.Children = kept
	return removed
}

// reordered reports whether bodies that survived changed relative order.
func reordered(before, after []*doctree.Node) bool {
	var survivors []*doctree.Node
	for _, b := range after {
		if slices.Contains(before, b) {
			survivors = append(survivors, b)
		}
	}
	i := 0
	for _, b := range before {
		if i < len(survivors) && b == survivors[i] {
			i++
		}
	}
	return i != len(survivors)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
