package doctree

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// Attrs maps attribute names to scalar values: string, int, bool, or nil.
type Attrs map[string]any

// Clone returns a shallow copy; values are scalars so this is a full copy.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	c := make(Attrs, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// String returns the attribute as a string, or "" when absent.
func (a Attrs) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Int returns the attribute as an int, or 0 when absent or not numeric.
func (a Attrs) Int(key string) int {
	n, _ := toInt(a[key])
	return n
}

// Bool returns the attribute as a bool.
func (a Attrs) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Equal compares attribute sets. A missing key and a nil value are equal.
func (a Attrs) Equal(b Attrs) bool {
	for k, v := range a {
		if !scalarEqual(v, b[k]) {
			return false
		}
	}
	for k, v := range b {
		if _, ok := a[k]; !ok && v != nil {
			return false
		}
	}
	return true
}

func scalarEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := toInt(a); ok {
		y, ok := toInt(b)
		return ok && x == y
	}
	return a == b
}

// toInt accepts the numeric shapes produced by Go code, encoding/json and
// yaml.v3. Non-integral floats are rejected.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := strconv.Atoi(string(n))
		return i, err == nil
	}
	return 0, false
}

// MarkType names an inline formatting mark on text.
type MarkType string

const (
	MarkLink      MarkType = "link"
	MarkBold      MarkType = "bold"
	MarkItalic    MarkType = "italic"
	MarkUnderline MarkType = "underline"
	MarkStrike    MarkType = "strike"
	MarkCode      MarkType = "code"
)

// markRank fixes the canonical nesting order, outermost first.
var markRank = map[MarkType]int{
	MarkLink:      0,
	MarkBold:      1,
	MarkItalic:    2,
	MarkUnderline: 3,
	MarkStrike:    4,
	MarkCode:      5,
}

// Mark is a formatting mark applied to a text node.
type Mark struct {
	Type  MarkType `json:"type" yaml:"type"`
	Attrs Attrs    `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// Equal compares two marks.
func (m Mark) Equal(o Mark) bool {
	return m.Type == o.Type && m.Attrs.Equal(o.Attrs)
}

// Link builds a link mark.
func Link(href string) Mark {
	return Mark{Type: MarkLink, Attrs: Attrs{AttrHref: href}}
}

// CanonicalMarks returns marks sorted into nesting order with duplicate
// types removed (the first occurrence wins).
func CanonicalMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	seen := make(map[MarkType]bool, len(marks))
	out := make([]Mark, 0, len(marks))
	for _, m := range marks {
		if seen[m.Type] {
			continue
		}
		seen[m.Type] = true
		out = append(out, Mark{Type: m.Type, Attrs: m.Attrs.Clone()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return markRank[out[i].Type] < markRank[out[j].Type]
	})
	return out
}

func marksEqual(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
