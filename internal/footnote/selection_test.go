package footnote

import (
	"testing"

	"github.com/dgallion1/docedit/internal/doctree"
	"github.com/stretchr/testify/assert"
)

func TestCheckSelection(t *testing.T) {
	root := doc(
		para(doctree.Text("a"), ref("fn-1", 1)),
		para(doctree.Text("b"), ref("fn-2", 2)),
		container(body("fn-1", "one"), body("fn-2", "two")),
	)
	tests := []struct {
		name   string
		sel    *doctree.Selection
		reject bool
	}{
		{"none", nil, false},
		{"collapsed in body", &doctree.Selection{Anchor: doctree.Path{2, 0, 0}, Head: doctree.Path{2, 0, 0}}, false},
		{"main content only", &doctree.Selection{Anchor: doctree.Path{0, 0}, Head: doctree.Path{1, 1}}, false},
		{"inside one body", &doctree.Selection{Anchor: doctree.Path{2, 1, 0}, Head: doctree.Path{2, 1, 0, 0}}, false},
		{"content into body", &doctree.Selection{Anchor: doctree.Path{1, 0}, Head: doctree.Path{2, 0, 0}}, true},
		{"reversed content into body", &doctree.Selection{Anchor: doctree.Path{2, 1}, Head: doctree.Path{0}}, true},
		{"two bodies", &doctree.Selection{Anchor: doctree.Path{2, 0, 0}, Head: doctree.Path{2, 1, 0}}, true},
		{"whole container", &doctree.Selection{Anchor: doctree.Path{2}, Head: doctree.Path{2, 1}}, true},
		{"select all", &doctree.Selection{Anchor: doctree.Path{}, Head: doctree.Path{2, 1, 0}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSelection(root, tt.sel)
			if tt.reject {
				assert.ErrorIs(t, err, ErrSelectionRejected)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckSelectionWithoutFootnotes(t *testing.T) {
	root := doc(para(doctree.Text("a")), para(doctree.Text("b")))
	sel := &doctree.Selection{Anchor: doctree.Path{}, Head: doctree.Path{1, 0}}
	assert.NoError(t, CheckSelection(root, sel))
}
