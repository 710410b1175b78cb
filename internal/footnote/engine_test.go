package footnote

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/dgallion1/docedit/internal/doctree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func para(children ...*doctree.Node) *doctree.Node {
	return doctree.MustNode(doctree.KindParagraph, nil, children...)
}

func ref(id string, num int) *doctree.Node {
	return doctree.MustNode(doctree.KindFootnoteReference, doctree.Attrs{
		doctree.AttrFootnoteID:      id,
		doctree.AttrReferenceNumber: num,
	})
}

func body(id string, text string) *doctree.Node {
	p := para()
	if text != "" {
		p = para(doctree.Text(text))
	}
	return doctree.MustNode(doctree.KindFootnoteBody, doctree.Attrs{doctree.AttrFootnoteID: id}, p)
}

func container(bodies ...*doctree.Node) *doctree.Node {
	return doctree.MustNode(doctree.KindFootnoteContainer, nil, bodies...)
}

func doc(children ...*doctree.Node) *doctree.Node {
	return doctree.MustNode(doctree.KindDocument, nil, children...)
}

func testEngine() *Engine {
	n := 0
	return &Engine{
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewID: func() string {
			n++
			return fmt.Sprintf("gen-%d", n)
		},
	}
}

func refIDs(root *doctree.Node) (ids []string, nums []int) {
	for _, r := range doctree.Find(root, doctree.KindFootnoteReference) {
		ids = append(ids, r.Attrs.String(doctree.AttrFootnoteID))
		nums = append(nums, r.Attrs.Int(doctree.AttrReferenceNumber))
	}
	return ids, nums
}

func bodyTexts(root *doctree.Node) map[string]string {
	out := map[string]string{}
	for _, b := range doctree.Find(root, doctree.KindFootnoteBody) {
		out[b.Attrs.String(doctree.AttrFootnoteID)] = doctree.TextContent(b)
	}
	return out
}

func bodyIDs(root *doctree.Node) []string {
	var ids []string
	for _, b := range doctree.Find(root, doctree.KindFootnoteBody) {
		ids = append(ids, b.Attrs.String(doctree.AttrFootnoteID))
	}
	return ids
}

func apply(t *testing.T, e *Engine, root *doctree.Node, steps ...doctree.Step) (*doctree.Node, Report) {
	t.Helper()
	applied, err := doctree.Apply(root, doctree.NewTransaction(steps...))
	require.NoError(t, err)
	out, rep := e.Correct(root, applied.Root)
	require.NoError(t, Verify(out))
	require.NoError(t, doctree.Validate(out))
	return out, rep
}

// Two paragraphs, one reference with an empty body; a second reference is
// typed into the second paragraph.
func TestInsertSecondReference(t *testing.T) {
	before := doc(
		para(doctree.Text("first"), ref("fn-1", 1)),
		para(doctree.Text("second")),
		container(body("fn-1", "")),
	)
	after, rep := apply(t, testEngine(), before,
		doctree.Insert(doctree.Path{1, 1}, ref("fn-2", 0)),
	)

	ids, nums := refIDs(after)
	assert.Equal(t, []string{"fn-1", "fn-2"}, ids)
	assert.Equal(t, []int{1, 2}, nums)
	assert.Equal(t, []string{"fn-1", "fn-2"}, bodyIDs(after))
	assert.Equal(t, []string{"fn-2"}, rep.Created)
	assert.True(t, doctree.Equal(before.Children[2].Children[0], after.Children[2].Children[0]),
		"first body must be untouched")
}

// The reference to fn-1 was dragged after the one to fn-2.
func TestReorderKeepsBodyContent(t *testing.T) {
	before := doc(
		para(ref("fn-2", 2), doctree.Text(" then "), ref("fn-1", 1)),
		container(body("fn-1", "a"), body("fn-2", "")),
	)
	after, rep := testEngine().Correct(nil, before)
	require.NoError(t, Verify(after))

	ids, nums := refIDs(after)
	assert.Equal(t, []string{"fn-2", "fn-1"}, ids)
	assert.Equal(t, []int{1, 2}, nums)
	assert.Equal(t, []string{"fn-2", "fn-1"}, bodyIDs(after))
	assert.Equal(t, "a", bodyTexts(after)["fn-1"])
	assert.Equal(t, "", bodyTexts(after)["fn-2"])
	assert.True(t, rep.Reordered)
	assert.Equal(t, 2, rep.Renumbered)
	assert.True(t, rep.Changed())
}

func TestReorderByDeleteInsertPreservesBytes(t *testing.T) {
	before := doc(
		para(ref("fn-1", 1)),
		para(ref("fn-2", 2)),
		para(ref("fn-3", 3)),
		container(body("fn-1", "one"), body("fn-2", "two"), body("fn-3", "three")),
	)
	after, _ := apply(t, testEngine(), before,
		doctree.Delete(doctree.Path{0}, 1),
		doctree.Insert(doctree.Path{2}, para(ref("fn-1", 1))),
	)
	assert.Equal(t, []string{"fn-2", "fn-3", "fn-1"}, bodyIDs(after))
	assert.Equal(t, map[string]string{"fn-1": "one", "fn-2": "two", "fn-3": "three"}, bodyTexts(after))
}

func TestDeleteReferenceRemovesOnlyItsBody(t *testing.T) {
	before := doc(
		para(doctree.Text("x"), ref("fn-1", 1), ref("fn-2", 2)),
		container(body("fn-1", "a"), body("fn-2", "b")),
	)
	after, rep := apply(t, testEngine(), before, doctree.Delete(doctree.Path{0, 1}, 1))
	assert.Equal(t, []string{"fn-2"}, bodyIDs(after))
	assert.Equal(t, "b", bodyTexts(after)["fn-2"])
	assert.Equal(t, []string{"fn-1"}, rep.Removed)
	assert.Equal(t, "x", doctree.TextContent(after.Children[0]))
}

func TestDeleteBodyRemovesItsReference(t *testing.T) {
	before := doc(
		para(ref("fn-1", 1), doctree.Text(" and "), ref("fn-2", 2)),
		container(body("fn-1", "a"), body("fn-2", "b")),
	)
	after, rep := apply(t, testEngine(), before, doctree.Delete(doctree.Path{1, 0}, 1))
	ids, nums := refIDs(after)
	assert.Equal(t, []string{"fn-2"}, ids)
	assert.Equal(t, []int{1}, nums)
	assert.Equal(t, 1, rep.RemovedReferences)
	assert.Equal(t, "b", bodyTexts(after)["fn-2"])
}

func TestDeleteLastReferenceDropsContainer(t *testing.T) {
	before := doc(
		para(doctree.Text("x"), ref("fn-1", 1)),
		container(body("fn-1", "a")),
	)
	after, _ := apply(t, testEngine(), before, doctree.Delete(doctree.Path{0, 1}, 1))
	require.Len(t, after.Children, 1)
	assert.False(t, doctree.Contains(after, doctree.KindFootnoteContainer, doctree.KindFootnoteBody))
}

func TestMissingContainerIsCreatedLast(t *testing.T) {
	before := doc(para(ref("", 0)), para(doctree.Text("tail")))
	after, rep := testEngine().Correct(nil, before)
	require.NoError(t, Verify(after))
	require.Len(t, after.Children, 3)
	assert.Equal(t, doctree.KindFootnoteContainer, after.Children[2].Kind)
	assert.Equal(t, map[string]string{"gen-1": ""}, rep.Reassigned)
	assert.Equal(t, []string{"gen-1"}, rep.Created)
}

func TestMisplacedAndDuplicateContainersMerge(t *testing.T) {
	before := doc(
		container(body("fn-1", "a")),
		para(ref("fn-1", 1), ref("fn-2", 2)),
		container(body("fn-2", "b")),
	)
	after, rep := testEngine().Correct(nil, before)
	require.NoError(t, Verify(after))
	assert.True(t, rep.ContainerMoved)
	require.Len(t, after.Children, 2)
	assert.Equal(t, map[string]string{"fn-1": "a", "fn-2": "b"}, bodyTexts(after))
}

func TestDuplicateIDsAreReassignedAndKeepContent(t *testing.T) {
	before := doc(
		para(ref("fn-1", 1), ref("fn-1", 2)),
		container(body("fn-1", "first"), body("fn-1", "second")),
	)
	after, rep := testEngine().Correct(nil, before)
	require.NoError(t, Verify(after))

	ids, _ := refIDs(after)
	assert.Equal(t, []string{"fn-1", "gen-1"}, ids)
	assert.Equal(t, map[string]string{"fn-1": "first", "gen-1": "second"}, bodyTexts(after))
	assert.Equal(t, map[string]string{"gen-1": "fn-1"}, rep.Reassigned)
	assert.Empty(t, rep.Created)
}

func TestFreshIDsAvoidExistingOnes(t *testing.T) {
	e := testEngine()
	before := doc(
		para(ref("gen-1", 1), ref("gen-1", 2)),
		container(body("gen-1", "x")),
	)
	after, _ := e.Correct(nil, before)
	ids, _ := refIDs(after)
	assert.Equal(t, []string{"gen-1", "gen-2"}, ids)
}

func TestNestedCascadeIsTransitive(t *testing.T) {
	// fn-1's body references fn-2; removing the only reference to fn-1
	// must take fn-2's body with it.
	before := doc(
		para(doctree.Text("x"), ref("fn-1", 1)),
		container(
			doctree.MustNode(doctree.KindFootnoteBody, doctree.Attrs{doctree.AttrFootnoteID: "fn-1"},
				para(doctree.Text("see"), ref("fn-2", 2))),
			body("fn-2", "deep"),
		),
	)
	kept, _ := testEngine().Correct(nil, before)
	require.NoError(t, Verify(kept))
	assert.Equal(t, []string{"fn-1", "fn-2"}, bodyIDs(kept))

	after, rep := apply(t, testEngine(), before, doctree.Delete(doctree.Path{0, 1}, 1))
	assert.False(t, doctree.Contains(after, doctree.KindFootnoteContainer))
	assert.ElementsMatch(t, []string{"fn-1", "fn-2"}, rep.Removed)
	assert.Equal(t, 1, rep.RemovedReferences)
}

func TestNestedReferenceWithoutBodyGetsOne(t *testing.T) {
	before := doc(
		para(ref("fn-1", 1)),
		container(doctree.MustNode(doctree.KindFootnoteBody, doctree.Attrs{doctree.AttrFootnoteID: "fn-1"},
			para(ref("fn-2", 0)))),
	)
	after, rep := testEngine().Correct(nil, before)
	require.NoError(t, Verify(after))
	assert.Equal(t, []string{"fn-2"}, rep.Created)
	_, nums := refIDs(after)
	assert.Equal(t, []int{1, 2}, nums)
}

func TestStrayBodyIsRemoved(t *testing.T) {
	before := doc(
		para(ref("fn-1", 1)),
		container(body("fn-1", "a"), body("orphan", "lost")),
	)
	after, rep := testEngine().Correct(nil, before)
	require.NoError(t, Verify(after))
	assert.Equal(t, []string{"orphan"}, rep.Removed)
}

func TestConsistentDocumentIsUnchanged(t *testing.T) {
	before := doc(
		para(ref("fn-1", 1)),
		container(body("fn-1", "a")),
	)
	after, rep := testEngine().Correct(before, before)
	assert.False(t, rep.Changed())
	assert.True(t, doctree.Equal(before, after))
	assert.NotSame(t, before, after)
}

func TestCorrectDoesNotMutateInput(t *testing.T) {
	before := doc(para(ref("fn-1", 7)))
	snapshot := before.Clone()
	_, _ = testEngine().Correct(nil, before)
	assert.True(t, doctree.Equal(snapshot, before))
}

func TestNewUsesPrefix(t *testing.T) {
	e := New(nil, "note-")
	after, _ := e.Correct(nil, doc(para(ref("", 0))))
	ids, _ := refIDs(after)
	require.Len(t, ids, 1)
	assert.Regexp(t, `^note-[0-9a-f-]{36}$`, ids[0])
}

func TestVerifyReportsViolations(t *testing.T) {
	tests := []struct {
		name string
		root *doctree.Node
	}{
		{"missing body", doc(para(ref("fn-1", 1)))},
		{"wrong number", doc(para(ref("fn-1", 2)), container(body("fn-1", "")))},
		{"wrong order", doc(para(ref("fn-1", 1), ref("fn-2", 2)), container(body("fn-2", ""), body("fn-1", "")))},
		{"container not last", doc(container(body("fn-1", "")), para(ref("fn-1", 1)))},
		{"empty container", doc(para(), container())},
		{"duplicate", doc(para(ref("fn-1", 1), ref("fn-1", 2)), container(body("fn-1", ""), body("fn-1", "")))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Verify(tt.root), ErrInconsistent)
		})
	}
	assert.NoError(t, Verify(doc(para())))
}
