package doctree

import "fmt"

// NewNode creates a node of kind after checking attrs against the kind's
// schema and children against its content model. Missing attributes take
// their defaults.
func NewNode(kind Kind, attrs Attrs, children ...*Node) (*Node, error) {
	if kind == KindText {
		return nil, &SchemaError{Kind: kind, Reason: "text nodes are built with NewText"}
	}
	spec, ok := Default.Spec(kind)
	if !ok {
		return nil, &SchemaError{Kind: kind, Reason: "unknown kind"}
	}
	norm, err := CoerceAttrs(kind, attrs)
	if err != nil {
		return nil, err
	}
	n := &Node{Kind: kind, Attrs: norm}
	for _, c := range children {
		built, err := Build(c)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, built)
	}
	if spec.Content.Group == GroupInline {
		// Adjacent text with equal marks serializes as one run.
		n.Children = mergeText(n.Children)
	}
	if err := checkContent(spec, n.Children); err != nil {
		return nil, err
	}
	return n, nil
}

// MustNode is NewNode for statically known trees; it panics on error.
func MustNode(kind Kind, attrs Attrs, children ...*Node) *Node {
	n, err := NewNode(kind, attrs, children...)
	if err != nil {
		panic(err)
	}
	return n
}

// NewText creates a text node. Empty text is rejected; delete the node
// instead.
func NewText(text string, marks ...Mark) (*Node, error) {
	if text == "" {
		return nil, &SchemaError{Kind: KindText, Reason: "empty text"}
	}
	for _, m := range marks {
		if err := checkMark(m); err != nil {
			return nil, err
		}
	}
	return &Node{Kind: KindText, Text: text, Marks: CanonicalMarks(marks)}, nil
}

// checkMark accepts only the attributes a mark serializes: a string href on
// links and nothing on the others.
func checkMark(m Mark) error {
	if _, ok := markRank[m.Type]; !ok {
		return &SchemaError{Kind: KindText, Reason: fmt.Sprintf("unknown mark %q", m.Type)}
	}
	if m.Type != MarkLink {
		if len(m.Attrs) > 0 {
			return &SchemaError{Kind: KindText, Reason: fmt.Sprintf("%s mark takes no attributes", m.Type)}
		}
		return nil
	}
	for name := range m.Attrs {
		if name != AttrHref {
			return &SchemaError{Kind: KindText, Attr: name, Reason: "unknown link attribute"}
		}
	}
	if _, ok := m.Attrs[AttrHref].(string); !ok {
		return &SchemaError{Kind: KindText, Attr: AttrHref, Reason: "link mark needs a string href"}
	}
	return nil
}

// Text is NewText for literals; it panics on empty text.
func Text(text string, marks ...Mark) *Node {
	n, err := NewText(text, marks...)
	if err != nil {
		panic(err)
	}
	return n
}

// Build validates an untrusted tree, typically decoded from JSON or YAML,
// and returns a normalized deep copy.
func Build(n *Node) (*Node, error) {
	if n == nil {
		return nil, &SchemaError{Reason: "nil node"}
	}
	if n.Kind == KindText {
		if len(n.Attrs) > 0 || len(n.Children) > 0 {
			return nil, &SchemaError{Kind: KindText, Reason: "text nodes carry no attributes or children"}
		}
		return NewText(n.Text, n.Marks...)
	}
	if n.Text != "" || len(n.Marks) > 0 {
		return nil, &SchemaError{Kind: n.Kind, Reason: "only text nodes carry text or marks"}
	}
	return NewNode(n.Kind, n.Attrs, n.Children...)
}

// Validate checks a whole tree without copying the result.
func Validate(n *Node) error {
	_, err := Build(n)
	return err
}

// CoerceAttrs checks attrs against kind's schema, converts numeric shapes to
// int, and fills defaults. A nil value resets an attribute to its default.
func CoerceAttrs(kind Kind, attrs Attrs) (Attrs, error) {
	spec, ok := Default.Spec(kind)
	if !ok {
		return nil, &SchemaError{Kind: kind, Reason: "unknown kind"}
	}
	out := spec.Defaults()
	for name, v := range attrs {
		as, ok := spec.Attr(name)
		if !ok {
			return nil, &SchemaError{Kind: kind, Attr: name, Reason: "unknown attribute"}
		}
		if v == nil {
			continue
		}
		cv, err := coerce(as, v)
		if err != nil {
			return nil, &SchemaError{Kind: kind, Attr: name, Reason: err.Error()}
		}
		if out == nil {
			out = Attrs{}
		}
		out[name] = cv
	}
	if kind == KindHeading {
		if lvl := out.Int(AttrLevel); lvl < 1 || lvl > 6 {
			return nil, &SchemaError{Kind: kind, Attr: AttrLevel, Reason: fmt.Sprintf("level %d out of range 1..6", lvl)}
		}
	}
	return out, nil
}

func coerce(as AttrSpec, v any) (any, error) {
	switch as.Type {
	case AttrString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case AttrInt:
		if n, ok := toInt(v); ok {
			return n, nil
		}
	case AttrBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("unexpected value %v (%T)", v, v)
}

func checkContent(spec *KindSpec, children []*Node) error {
	if spec.Content.Leaf() {
		if len(children) > 0 {
			return &SchemaError{Kind: spec.Kind, Reason: "leaf kind given children"}
		}
		return nil
	}
	for _, c := range children {
		cs, ok := Default.Spec(c.Kind)
		if !ok || !spec.Content.Allows(cs) {
			return &SchemaError{Kind: spec.Kind, Reason: fmt.Sprintf("%s not allowed as a child", c.Kind)}
		}
	}
	if len(children) < spec.Content.Min {
		return &SchemaError{
			Kind:   spec.Kind,
			Reason: fmt.Sprintf("needs at least %d child(ren), has %d", spec.Content.Min, len(children)),
		}
	}
	return nil
}

