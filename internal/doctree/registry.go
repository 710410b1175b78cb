package doctree

import (
	"fmt"
	"sort"
)

// Group classifies kinds for content-model matching.
type Group int

const (
	// GroupNone kinds are only allowed where a parent lists them explicitly.
	GroupNone Group = iota
	GroupBlock
	GroupInline
)

// AttrType is the scalar type of an attribute.
type AttrType int

const (
	AttrString AttrType = iota
	AttrInt
	AttrBool
)

// AttrSpec declares one attribute of a kind.
type AttrSpec struct {
	Name    string
	Type    AttrType
	Default any
	// HTML is the external attribute name. Empty means the value is carried
	// some other way (heading level lives in the tag name).
	HTML string
}

// Content is a kind's content model. A child is allowed when it belongs to
// Group or is listed in Kinds. A zero Content is a leaf.
type Content struct {
	Group Group
	Kinds []Kind
	Min   int
}

// Leaf reports whether the content model admits no children.
func (c Content) Leaf() bool {
	return c.Group == GroupNone && len(c.Kinds) == 0
}

// Allows reports whether a child of the given spec fits this content model.
func (c Content) Allows(child *KindSpec) bool {
	if c.Group != GroupNone && child.Group == c.Group {
		return true
	}
	for _, k := range c.Kinds {
		if k == child.Kind {
			return true
		}
	}
	return false
}

// Match is the distinguishing attribute used to tell kinds sharing a tag
// apart. An empty Value matches on presence alone.
type Match struct {
	Attr  string
	Value string
}

// KindSpec is one registry entry.
type KindSpec struct {
	Kind    Kind
	Group   Group
	Content Content
	Attrs   []AttrSpec
	// Tags lists the external tag names. The first is canonical.
	Tags       []string
	Match      Match
	Atomic     bool
	Draggable  bool
	Selectable bool
}

// Attr returns the attribute spec for name.
func (s *KindSpec) Attr(name string) (AttrSpec, bool) {
	for _, a := range s.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return AttrSpec{}, false
}

// Defaults returns the default attribute values of the kind.
func (s *KindSpec) Defaults() Attrs {
	var out Attrs
	for _, a := range s.Attrs {
		if a.Default == nil {
			continue
		}
		if out == nil {
			out = Attrs{}
		}
		out[a.Name] = a.Default
	}
	return out
}

// Registry is the table of node kinds.
type Registry struct {
	specs map[Kind]*KindSpec
	byTag map[string][]*KindSpec
}

// NewRegistry builds a registry, failing with *RegistryConflictError when
// two kinds cannot be told apart by tag and distinguishing attribute.
func NewRegistry(specs ...KindSpec) (*Registry, error) {
	r := &Registry{
		specs: make(map[Kind]*KindSpec, len(specs)),
		byTag: make(map[string][]*KindSpec),
	}
	for i := range specs {
		spec := &specs[i]
		if _, dup := r.specs[spec.Kind]; dup {
			return nil, fmt.Errorf("registry: kind %q registered twice", spec.Kind)
		}
		for _, tag := range spec.Tags {
			for _, other := range r.byTag[tag] {
				if ambiguous(spec.Match, other.Match) {
					return nil, &RegistryConflictError{
						Tag:   tag,
						Attr:  spec.Match.Attr,
						Value: spec.Match.Value,
						Kinds: [2]Kind{other.Kind, spec.Kind},
					}
				}
			}
			r.byTag[tag] = append(r.byTag[tag], spec)
		}
		r.specs[spec.Kind] = spec
	}
	return r, nil
}

// ambiguous reports whether one element could satisfy both matches. A plain
// entry only acts as the fallback for its tag, so it clashes with another
// plain entry alone. Discriminators on different attributes clash because
// an element may carry both.
func ambiguous(a, b Match) bool {
	if a.Attr == "" || b.Attr == "" {
		return a.Attr == b.Attr
	}
	if a.Attr != b.Attr {
		return true
	}
	return a.Value == "" || b.Value == "" || a.Value == b.Value
}

// MustRegistry is NewRegistry that panics on conflict. Used at init so a
// misconfigured table fails before any document is loaded.
func MustRegistry(specs ...KindSpec) *Registry {
	r, err := NewRegistry(specs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Spec returns the entry for kind.
func (r *Registry) Spec(kind Kind) (*KindSpec, bool) {
	s, ok := r.specs[kind]
	return s, ok
}

// Kinds returns every registered kind, sorted.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.specs))
	for k := range r.specs {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Lookup resolves an external element to a kind. Entries with a matching
// distinguishing attribute win over a plain-tag entry.
func (r *Registry) Lookup(tag string, attrs map[string]string) *KindSpec {
	var plain *KindSpec
	for _, spec := range r.byTag[tag] {
		if spec.Match.Attr == "" {
			plain = spec
			continue
		}
		v, ok := attrs[spec.Match.Attr]
		if ok && (spec.Match.Value == "" || spec.Match.Value == v) {
			return spec
		}
	}
	return plain
}

// Default is the registry of built-in kinds.
var Default = MustRegistry(builtinSpecs()...)

func builtinSpecs() []KindSpec {
	blocks := Content{Group: GroupBlock, Min: 1}
	inlines := Content{Group: GroupInline}
	media := func(kind Kind, tag, match string, extra ...AttrSpec) KindSpec {
		attrs := []AttrSpec{
			{Name: AttrSrc, Type: AttrString, HTML: "src"},
			{Name: AttrTitle, Type: AttrString, HTML: "title"},
		}
		return KindSpec{
			Kind:       kind,
			Group:      GroupBlock,
			Attrs:      append(attrs, extra...),
			Tags:       []string{tag},
			Match:      Match{Attr: match},
			Atomic:     true,
			Draggable:  true,
			Selectable: true,
		}
	}

	return []KindSpec{
		{
			Kind:    KindDocument,
			Content: Content{Group: GroupBlock, Kinds: []Kind{KindFootnoteContainer}},
		},
		{Kind: KindText, Group: GroupInline},
		{Kind: KindParagraph, Group: GroupBlock, Content: inlines, Tags: []string{"p"}},
		{
			Kind:    KindHeading,
			Group:   GroupBlock,
			Content: inlines,
			Attrs:   []AttrSpec{{Name: AttrLevel, Type: AttrInt, Default: 1}},
			Tags:    []string{"h1", "h2", "h3", "h4", "h5", "h6"},
		},
		{Kind: KindHardBreak, Group: GroupInline, Tags: []string{"br"}, Atomic: true},
		{Kind: KindBlockquote, Group: GroupBlock, Content: blocks, Tags: []string{"blockquote"}},
		{
			Kind:    KindBulletList,
			Group:   GroupBlock,
			Content: Content{Kinds: []Kind{KindListItem}, Min: 1},
			Tags:    []string{"ul"},
		},
		{
			Kind:    KindOrderedList,
			Group:   GroupBlock,
			Content: Content{Kinds: []Kind{KindListItem}, Min: 1},
			Attrs:   []AttrSpec{{Name: AttrStart, Type: AttrInt, Default: 1, HTML: "start"}},
			Tags:    []string{"ol"},
		},
		{Kind: KindListItem, Content: blocks, Tags: []string{"li"}},
		{
			Kind:  KindFootnoteReference,
			Group: GroupInline,
			Attrs: []AttrSpec{
				{Name: AttrFootnoteID, Type: AttrString, Default: "", HTML: "data-footnote-id"},
				{Name: AttrReferenceNumber, Type: AttrInt, Default: 0, HTML: "data-reference-number"},
			},
			Tags:       []string{"span"},
			Match:      Match{Attr: "data-type", Value: "footnote-reference-v2"},
			Atomic:     true,
			Selectable: true,
		},
		{
			Kind:    KindFootnoteBody,
			Content: blocks,
			Attrs: []AttrSpec{
				{Name: AttrFootnoteID, Type: AttrString, Default: "", HTML: "data-footnote-id"},
			},
			Tags:  []string{"li"},
			Match: Match{Attr: "data-type", Value: "footnote-v2"},
		},
		{
			Kind:    KindFootnoteContainer,
			Content: Content{Kinds: []Kind{KindFootnoteBody}},
			Tags:    []string{"div"},
			Match:   Match{Attr: "data-type", Value: "footnotes-v2"},
		},
		media(KindAudio, "audio", "data-audio"),
		media(KindVideo, "video", "data-video",
			AttrSpec{Name: AttrPoster, Type: AttrString, HTML: "poster"},
			AttrSpec{Name: AttrAutoplay, Type: AttrBool, Default: false, HTML: "data-autoplay"},
		),
		{
			Kind:  KindDocumentAttachment,
			Group: GroupBlock,
			Attrs: []AttrSpec{
				{Name: AttrSrc, Type: AttrString, HTML: "data-src"},
				{Name: AttrTitle, Type: AttrString, HTML: "data-title"},
				{Name: AttrMimeType, Type: AttrString, HTML: "data-mime-type"},
			},
			Tags:       []string{"div"},
			Match:      Match{Attr: "data-type", Value: "document"},
			Atomic:     true,
			Draggable:  true,
			Selectable: true,
		},
		{
			Kind:  KindImage,
			Group: GroupBlock,
			Attrs: []AttrSpec{
				{Name: AttrSrc, Type: AttrString, HTML: "src"},
				{Name: AttrAlt, Type: AttrString, HTML: "alt"},
				{Name: AttrTitle, Type: AttrString, HTML: "title"},
			},
			Tags:       []string{"img"},
			Atomic:     true,
			Draggable:  true,
			Selectable: true,
		},
		{
			Kind:    KindQuoteWithSource,
			Group:   GroupBlock,
			Content: blocks,
			Attrs: []AttrSpec{
				{Name: AttrSourceLabel, Type: AttrString, HTML: "data-source-label"},
				{Name: AttrSourceURL, Type: AttrString, HTML: "data-source-url"},
			},
			Tags:       []string{"blockquote"},
			Match:      Match{Attr: "data-quote-type", Value: "quote-with-source"},
			Draggable:  true,
			Selectable: true,
		},
		{
			Kind:    KindQuoteWithTranslation,
			Group:   GroupBlock,
			Content: blocks,
			Attrs: []AttrSpec{
				{Name: AttrSourceLanguage, Type: AttrString, HTML: "data-source-language"},
				{Name: AttrTranslation, Type: AttrString, HTML: "data-translation"},
			},
			Tags:       []string{"blockquote"},
			Match:      Match{Attr: "data-quote-type", Value: "quote-with-translation"},
			Draggable:  true,
			Selectable: true,
		},
		{
			Kind:      KindLayout,
			Group:     GroupBlock,
			Content:   Content{Kinds: []Kind{KindLayoutColumn}, Min: 1},
			Attrs:     []AttrSpec{{Name: AttrColumns, Type: AttrInt, Default: 2, HTML: "data-columns"}},
			Tags:      []string{"div"},
			Match:     Match{Attr: "data-type", Value: "layout"},
			Draggable: true,
		},
		{
			Kind:    KindLayoutColumn,
			Content: blocks,
			Attrs:   []AttrSpec{{Name: AttrWidth, Type: AttrString, HTML: "data-width"}},
			Tags:    []string{"div"},
			Match:   Match{Attr: "data-type", Value: "layout-column"},
		},
	}
}
