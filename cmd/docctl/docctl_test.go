package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/docedit/internal/doctree"
	"github.com/dgallion1/docedit/internal/footnote"
	"github.com/dgallion1/docedit/internal/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const missingBody = `<p>x<span data-type="footnote-reference-v2" data-footnote-id="fn-9" data-reference-number="4">4</span></p>`

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.html", "<p>a</p>")
	b := writeTemp(t, dir, "sub/b.html", "<p>b</p>")
	writeTemp(t, dir, "c.txt", "c")

	pattern := filepath.Join(dir, "**", "*.html")
	files, err := expandGlobs([]string{pattern, pattern})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, files)

	_, err = expandGlobs([]string{filepath.Join(dir, "[")})
	assert.Error(t, err)
}

func TestNormalizeFile(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "doc.html", missingBody)
	ed := newEditor()

	out, report, err := normalizeFile(ed, path, false)
	require.NoError(t, err)
	assert.True(t, report.Changed())
	assert.Equal(t, []string{"fn-9"}, report.Created)
	assert.Contains(t, out, `data-type="footnotes-v2"`)

	untouched, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, missingBody, string(untouched))

	_, _, err = normalizeFile(ed, path, true)
	require.NoError(t, err)
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(written))

	again, report, err := normalizeFile(ed, path, true)
	require.NoError(t, err)
	assert.False(t, report.Changed())
	assert.Equal(t, out, again)
}

func TestLoadDocumentUsesImporter(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "notes.md", "Hello[^a].\n\n[^a]: World.\n")
	root, degraded, err := loadDocument(path)
	require.NoError(t, err)
	assert.Empty(t, degraded)

	refs := doctree.Find(root, doctree.KindFootnoteReference)
	require.Len(t, refs, 1)
	assert.Equal(t, "fn-a", refs[0].Attrs.String(doctree.AttrFootnoteID))

	_, _, err = loadDocument(filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)
}

func TestReadTransaction(t *testing.T) {
	dir := t.TempDir()
	yamlTx := writeTemp(t, dir, "tx.yaml", "steps:\n  - op: setText\n    path: [0, 0]\n    text: hello\n")
	jsonTx := writeTemp(t, dir, "tx.json", `{"steps":[{"op":"delete","path":[0],"count":1}]}`)
	empty := writeTemp(t, dir, "empty.yml", "steps: []\n")

	tx, err := readTransaction(yamlTx)
	require.NoError(t, err)
	require.Len(t, tx.Steps, 1)
	assert.Equal(t, doctree.OpSetText, tx.Steps[0].Op)
	assert.Equal(t, doctree.Path{0, 0}, tx.Steps[0].Path)
	assert.Equal(t, "hello", tx.Steps[0].Text)

	tx, err = readTransaction(jsonTx)
	require.NoError(t, err)
	assert.Equal(t, doctree.OpDelete, tx.Steps[0].Op)
	assert.Equal(t, 1, tx.Steps[0].Count)

	_, err = readTransaction(empty)
	assert.Error(t, err)
}

func TestApplyTransactionFromYAML(t *testing.T) {
	dir := t.TempDir()
	doc := writeTemp(t, dir, "doc.html", "<p>hi</p>")
	txPath := writeTemp(t, dir, "tx.yaml", "steps:\n  - op: setText\n    path: [0, 0]\n    text: hello\n")

	tx, err := readTransaction(txPath)
	require.NoError(t, err)
	root, _, err := loadDocument(doc)
	require.NoError(t, err)

	res, err := newEditor().Apply(root, tx)
	require.NoError(t, err)
	assert.Equal(t, "hello", doctree.TextContent(res.Root))
}

func TestMatches(t *testing.T) {
	dir := filepath.Join("srv", "docs")
	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(dir, "a.html"), true},
		{filepath.Join(dir, "x", "y", "b.html"), true},
		{filepath.Join(dir, "notes.md"), false},
		{filepath.Join(dir, ".docctl-123"), false},
		{filepath.Join("elsewhere", "a.html"), false},
		{filepath.Join("srv", "a.html"), false},
		{filepath.Join("srv", "docs..html"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matches(dir, "**/*.html", tt.path), tt.path)
	}
}

func TestWriteFileKeepsMode(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "doc.html", "old")
	require.NoError(t, os.Chmod(path, 0o600))

	require.NoError(t, writeFile(path, []byte("new")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "unchanged", summarize(footnote.Report{}))

	root, _, err := loadDocument(writeTemp(t, t.TempDir(), "doc.html", missingBody))
	require.NoError(t, err)
	_, report := newEditor().Normalize(root)
	got := summarize(report)
	assert.Contains(t, got, "created fn-9")
	assert.Contains(t, got, "renumbered 1")
}

func TestFormatSection(t *testing.T) {
	s := outline.Section{Level: 2, Title: "Install", Path: doctree.Path{3}, Tokens: 12, Footnotes: []string{"fn-1"}}
	assert.Equal(t, "  Install  [/3] ~12 tokens, 1 footnotes", formatSection(s))
	assert.Equal(t, "(untitled)  [/0] ~0 tokens", formatSection(outline.Section{Path: doctree.Path{0}}))
}
