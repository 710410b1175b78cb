package doctree

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func para(text string) *Node {
	return MustNode(KindParagraph, nil, Text(text))
}

func sampleDoc() *Node {
	return MustNode(KindDocument, nil,
		para("one"),
		MustNode(KindImage, Attrs{AttrSrc: "/a.png", AttrAlt: "a"}),
		para("two"),
	)
}

func TestDefaultRegistryHasEveryKind(t *testing.T) {
	kinds := Default.Kinds()
	assert.Len(t, kinds, 20)
	for _, k := range kinds {
		spec, ok := Default.Spec(k)
		require.True(t, ok)
		assert.Equal(t, k, spec.Kind)
	}
}

func TestRegistryConflict(t *testing.T) {
	_, err := NewRegistry(
		KindSpec{Kind: "a", Tags: []string{"div"}, Match: Match{Attr: "data-type", Value: "x"}},
		KindSpec{Kind: "b", Tags: []string{"div"}, Match: Match{Attr: "data-type", Value: "x"}},
	)
	var conflict *RegistryConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "div", conflict.Tag)
	assert.Equal(t, [2]Kind{"a", "b"}, conflict.Kinds)

	_, err = NewRegistry(
		KindSpec{Kind: "a", Tags: []string{"p"}},
		KindSpec{Kind: "b", Tags: []string{"p"}},
	)
	require.ErrorAs(t, err, &conflict)

	_, err = NewRegistry(
		KindSpec{Kind: "a", Tags: []string{"div"}, Match: Match{Attr: "data-type", Value: "x"}},
		KindSpec{Kind: "b", Tags: []string{"div"}, Match: Match{Attr: "data-type", Value: "y"}},
		KindSpec{Kind: "c", Tags: []string{"div"}},
	)
	require.NoError(t, err)

	// <div data-type="x" data-role="y"> would match both.
	_, err = NewRegistry(
		KindSpec{Kind: "a", Tags: []string{"div"}, Match: Match{Attr: "data-type", Value: "x"}},
		KindSpec{Kind: "b", Tags: []string{"div"}, Match: Match{Attr: "data-role", Value: "y"}},
	)
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, [2]Kind{"a", "b"}, conflict.Kinds)
	assert.Equal(t, "data-role", conflict.Attr)

	_, err = NewRegistry(
		KindSpec{Kind: "a", Tags: []string{"div"}, Match: Match{Attr: "data-type", Value: "x"}},
		KindSpec{Kind: "b", Tags: []string{"span"}, Match: Match{Attr: "data-role", Value: "y"}},
	)
	require.NoError(t, err, "different tags never clash")
}

func TestMustRegistryPanicsOnConflict(t *testing.T) {
	assert.Panics(t, func() {
		MustRegistry(
			KindSpec{Kind: "a", Tags: []string{"p"}},
			KindSpec{Kind: "b", Tags: []string{"p"}},
		)
	})
}

func TestLookup(t *testing.T) {
	tests := []struct {
		tag   string
		attrs map[string]string
		want  Kind
	}{
		{"blockquote", nil, KindBlockquote},
		{"blockquote", map[string]string{"data-quote-type": "quote-with-source"}, KindQuoteWithSource},
		{"blockquote", map[string]string{"data-quote-type": "quote-with-translation"}, KindQuoteWithTranslation},
		{"blockquote", map[string]string{"data-quote-type": "other"}, KindBlockquote},
		{"li", nil, KindListItem},
		{"li", map[string]string{"data-type": "footnote-v2"}, KindFootnoteBody},
		{"audio", map[string]string{"data-audio": ""}, KindAudio},
		{"div", map[string]string{"data-type": "footnotes-v2"}, KindFootnoteContainer},
		{"div", map[string]string{"data-type": "layout-column"}, KindLayoutColumn},
		{"h4", nil, KindHeading},
	}
	for _, tt := range tests {
		spec := Default.Lookup(tt.tag, tt.attrs)
		require.NotNil(t, spec, tt.tag)
		assert.Equal(t, tt.want, spec.Kind, "%s %v", tt.tag, tt.attrs)
	}
	assert.Nil(t, Default.Lookup("audio", nil), "audio without data-audio is not registered")
	assert.Nil(t, Default.Lookup("marquee", nil))
}

func TestNewNodeSchemaErrors(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		attrs    Attrs
		children []*Node
	}{
		{"unknown attribute", KindAudio, Attrs{"volume": 3}, nil},
		{"wrong type", KindVideo, Attrs{AttrAutoplay: "yes"}, nil},
		{"leaf with children", KindImage, nil, []*Node{Text("x")}},
		{"block in paragraph", KindParagraph, nil, []*Node{para("x")}},
		{"empty list", KindBulletList, nil, nil},
		{"paragraph in container", KindFootnoteContainer, nil, []*Node{para("x")}},
		{"heading level", KindHeading, Attrs{AttrLevel: 9}, nil},
		{"unknown kind", Kind("marquee"), nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNode(tt.kind, tt.attrs, tt.children...)
			var se *SchemaError
			require.ErrorAs(t, err, &se)
		})
	}
}

func TestNewNodeDefaults(t *testing.T) {
	n := MustNode(KindOrderedList, nil, MustNode(KindListItem, nil, para("x")))
	assert.Equal(t, 1, n.Attrs.Int(AttrStart))

	ref := MustNode(KindFootnoteReference, Attrs{AttrFootnoteID: "fn-1"})
	assert.Equal(t, 0, ref.Attrs.Int(AttrReferenceNumber))
	assert.True(t, ref.IsAtomic())
}

func TestNewNodeMergesAdjacentText(t *testing.T) {
	n := MustNode(KindParagraph, nil, Text("a"), Text("b"), Text("c", Mark{Type: MarkBold}), Text("d", Mark{Type: MarkBold}))
	require.Len(t, n.Children, 2)
	assert.Equal(t, "ab", n.Children[0].Text)
	assert.Equal(t, "cd", n.Children[1].Text)

	built, err := Build(&Node{Kind: KindParagraph, Children: []*Node{
		{Kind: KindText, Text: "x"}, {Kind: KindText, Text: "y"},
		{Kind: KindHardBreak}, {Kind: KindText, Text: "z"},
	}})
	require.NoError(t, err)
	require.Len(t, built.Children, 3)
	assert.Equal(t, "xy", built.Children[0].Text)

	doc := MustNode(KindDocument, nil, para("a"), para("b"))
	assert.Len(t, doc.Children, 2, "block children are left alone")
}

func TestNewTextRejectsEmpty(t *testing.T) {
	_, err := NewText("")
	var se *SchemaError
	require.ErrorAs(t, err, &se)

	_, err = NewText("x", Mark{Type: "blink"})
	require.ErrorAs(t, err, &se)

	_, err = NewText("x", Mark{Type: MarkLink})
	require.ErrorAs(t, err, &se, "link without href")
	_, err = NewText("x", Mark{Type: MarkLink, Attrs: Attrs{AttrHref: 3}})
	require.ErrorAs(t, err, &se, "non-string href")
	_, err = NewText("x", Mark{Type: MarkLink, Attrs: Attrs{AttrHref: "/a", "target": "_blank"}})
	require.ErrorAs(t, err, &se, "extra link attribute")
	_, err = NewText("x", Mark{Type: MarkBold, Attrs: Attrs{AttrHref: "/a"}})
	require.ErrorAs(t, err, &se, "attribute on bold")
	_, err = NewText("x", Link(""))
	require.NoError(t, err)

	n := Text("x", Mark{Type: MarkCode}, Link("/a"), Mark{Type: MarkBold}, Mark{Type: MarkCode})
	require.Len(t, n.Marks, 3)
	assert.Equal(t, MarkLink, n.Marks[0].Type)
	assert.Equal(t, MarkBold, n.Marks[1].Type)
	assert.Equal(t, MarkCode, n.Marks[2].Type)
}

func TestBuildCoercesJSONNumbers(t *testing.T) {
	raw := `{"kind":"doc","children":[
		{"kind":"heading","attrs":{"level":2},"children":[{"kind":"text","text":"T"}]},
		{"kind":"paragraph","children":[
			{"kind":"footnoteReference","attrs":{"footnoteId":"fn-1","referenceNumber":1}}
		]}
	]}`
	var n Node
	require.NoError(t, json.Unmarshal([]byte(raw), &n))
	built, err := Build(&n)
	require.NoError(t, err)
	assert.Equal(t, 2, built.Children[0].Attrs[AttrLevel])
	assert.Equal(t, 1, built.Children[1].Children[0].Attrs[AttrReferenceNumber])
}

func TestBuildRejectsTextOnContainer(t *testing.T) {
	_, err := Build(&Node{Kind: KindParagraph, Text: "x"})
	require.Error(t, err)
	_, err = Build(nil)
	require.Error(t, err)
}

func TestPath(t *testing.T) {
	p := Path{1, 2, 3}
	assert.Equal(t, Path{1, 2}, p.Parent())
	assert.Equal(t, 3, p.Index())
	assert.True(t, p.HasPrefix(Path{1, 2}))
	assert.True(t, p.HasPrefix(Path{}))
	assert.False(t, p.HasPrefix(Path{1, 3}))
	assert.Equal(t, "/1/2/3", p.String())
	assert.Equal(t, -1, Path{1}.Compare(Path{1, 0}))
	assert.Equal(t, 1, Path{2}.Compare(Path{1, 9}))
	assert.Equal(t, 0, Path{}.Compare(nil))
}

func TestResolveAndPathOf(t *testing.T) {
	doc := sampleDoc()
	img, err := Resolve(doc, Path{1})
	require.NoError(t, err)
	assert.Equal(t, KindImage, img.Kind)

	p, ok := PathOf(doc, img)
	require.True(t, ok)
	assert.Equal(t, Path{1}, p)

	_, err = Resolve(doc, Path{7})
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestApplyInsertDeleteSetAttrs(t *testing.T) {
	doc := sampleDoc()
	tx := NewTransaction(
		Delete(Path{1}, 1),
		Insert(Path{2}, MustNode(KindAudio, Attrs{AttrSrc: "/a.mp3"})),
		SetAttrs(Path{2}, Attrs{AttrTitle: "song"}),
		SetText(Path{0, 0}, "uno"),
	)
	applied, err := Apply(doc, tx)
	require.NoError(t, err)

	root := applied.Root
	require.Len(t, root.Children, 3)
	assert.Equal(t, KindAudio, root.Children[2].Kind)
	assert.Equal(t, "song", root.Children[2].Attrs.String(AttrTitle))
	assert.Equal(t, "/a.mp3", root.Children[2].Attrs.String(AttrSrc))
	assert.Equal(t, "uno", TextContent(root.Children[0]))
	assert.True(t, applied.Touched.Has(KindImage))
	assert.True(t, applied.Touched.Has(KindAudio))
	assert.False(t, applied.Touched.Has(KindFootnoteReference))

	assert.True(t, Equal(doc, sampleDoc()), "input tree must not change")
}

func TestApplyIsAtomic(t *testing.T) {
	doc := sampleDoc()
	tx := NewTransaction(
		Delete(Path{0}, 1),
		Insert(Path{0, 0}, para("nested")),
	)
	_, err := Apply(doc, tx)
	var ie *InvalidEditError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 1, ie.Step)
	assert.Equal(t, OpInsert, ie.Op)
	assert.True(t, Equal(doc, sampleDoc()))
}

func TestApplyErrors(t *testing.T) {
	list := MustNode(KindDocument, nil,
		MustNode(KindBulletList, nil, MustNode(KindListItem, nil, para("only"))),
	)
	tests := []struct {
		name string
		tx   *Transaction
	}{
		{"delete root", NewTransaction(Delete(Path{}, 1))},
		{"last list item", NewTransaction(Delete(Path{0, 0}, 1))},
		{"out of range", NewTransaction(Insert(Path{5}, para("x")))},
		{"count too large", NewTransaction(Delete(Path{0}, 4))},
		{"set text on block", NewTransaction(SetText(Path{0}, "x"))},
		{"empty text", NewTransaction(SetText(Path{0, 0, 0, 0}, ""))},
		{"unknown attr", NewTransaction(SetAttrs(Path{0}, Attrs{"bogus": 1}))},
		{"unknown op", NewTransaction(Step{Op: "move", Path: Path{0}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(list, tt.tx)
			var ie *InvalidEditError
			require.ErrorAs(t, err, &ie)
		})
	}
}

func TestApplySetAttrsNilResets(t *testing.T) {
	doc := MustNode(KindDocument, nil,
		MustNode(KindHeading, Attrs{AttrLevel: 3}, Text("t")),
	)
	applied, err := Apply(doc, NewTransaction(SetAttrs(Path{0}, Attrs{AttrLevel: nil})))
	require.NoError(t, err)
	assert.Equal(t, 1, applied.Root.Children[0].Attrs.Int(AttrLevel))
}

func TestApplyPathNotFoundIsWrapped(t *testing.T) {
	_, err := Apply(sampleDoc(), NewTransaction(SetText(Path{9, 0}, "x")))
	require.True(t, errors.Is(err, ErrPathNotFound))
}

func TestSelectionRange(t *testing.T) {
	s := Selection{Anchor: Path{3, 1}, Head: Path{0}}
	from, to := s.Range()
	assert.Equal(t, Path{0}, from)
	assert.Equal(t, Path{3, 1}, to)
	assert.False(t, s.Empty())
	assert.True(t, Selection{Anchor: Path{1}, Head: Path{1}}.Empty())
}

func TestFitBlockWrapsInlineRuns(t *testing.T) {
	got := Fit(KindDocument, []*Node{
		Text("a"),
		Text("b"),
		MustNode(KindImage, nil),
		Text("  \n "),
		MustNode(KindListItem, nil, para("lifted")),
	})
	require.Len(t, got, 3)
	assert.Equal(t, KindParagraph, got[0].Kind)
	assert.Equal(t, "ab", TextContent(got[0]))
	require.Len(t, got[0].Children, 1, "adjacent text merges")
	assert.Equal(t, KindImage, got[1].Kind)
	assert.Equal(t, "lifted", TextContent(got[2]))
}

func TestFitInlineFlattensBlocks(t *testing.T) {
	got := Fit(KindParagraph, []*Node{
		Text("a"),
		para("b"),
		{Kind: KindText, Text: ""},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "ab", got[0].Text)
}

func TestFitListWrapsStrays(t *testing.T) {
	got := Fit(KindBulletList, []*Node{Text("loose"), MustNode(KindListItem, nil, para("kept"))})
	require.Len(t, got, 2)
	assert.Equal(t, KindListItem, got[0].Kind)
	assert.Equal(t, KindParagraph, got[0].Children[0].Kind)

	empty := Fit(KindOrderedList, nil)
	require.Len(t, empty, 1)
	assert.NoError(t, Validate(MustNode(KindOrderedList, nil, empty...)))
}

func TestFitContainerDropsNonBodies(t *testing.T) {
	body := MustNode(KindFootnoteBody, Attrs{AttrFootnoteID: "fn-1"}, para("x"))
	got := Fit(KindFootnoteContainer, []*Node{para("stray"), body})
	require.Len(t, got, 1)
	assert.Same(t, body, got[0])
}

func TestSplit(t *testing.T) {
	got := Split(KindHeading, Attrs{AttrLevel: 2}, []*Node{
		Text("title"),
		MustNode(KindImage, nil),
		Text("more"),
	})
	require.Len(t, got, 3)
	assert.Equal(t, KindHeading, got[0].Kind)
	assert.Equal(t, 2, got[2].Attrs.Int(AttrLevel))
	assert.Equal(t, KindImage, got[1].Kind)

	single := Split(KindParagraph, nil, nil)
	require.Len(t, single, 1)
	assert.Empty(t, single[0].Children)
}

func TestEmptyNode(t *testing.T) {
	for _, k := range Default.Kinds() {
		if k == KindText {
			continue
		}
		assert.NoError(t, Validate(EmptyNode(k)), k)
	}
}
