package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docedit/internal/doctree"
	"github.com/dgallion1/docedit/internal/footnote"
	"github.com/dgallion1/docedit/internal/importer"
	"github.com/dgallion1/docedit/internal/markup"
	"gopkg.in/yaml.v3"
)

// isMarkup reports whether path holds editor markup rather than a foreign
// format that needs an importer.
func isMarkup(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// loadDocument reads path as markup, or through the matching importer for
// any other supported format. Degraded markup is logged by the caller.
func loadDocument(path string) (*doctree.Node, []*doctree.ParseError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if isMarkup(path) {
		res, err := markup.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return res.Doc, res.Degraded, nil
	}

	imp, err := importer.ForFile(path, importer.Options{IDPrefix: idPrefix})
	if err != nil {
		return nil, nil, err
	}
	res, err := imp.Import(bytes.NewReader(data), filepath.Base(path))
	if err != nil {
		return nil, nil, fmt.Errorf("import %s: %w", path, err)
	}
	return res.Doc, res.Degraded, nil
}

// readTransaction decodes a transaction file. .yaml and .yml files are
// YAML, everything else JSON.
func readTransaction(path string) (*doctree.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tx doctree.Transaction
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &tx)
	default:
		err = json.Unmarshal(data, &tx)
	}
	if err != nil {
		return nil, fmt.Errorf("decode transaction %s: %w", path, err)
	}
	if len(tx.Steps) == 0 {
		return nil, fmt.Errorf("transaction %s has no steps", path)
	}
	return &tx, nil
}

// writeFile replaces path atomically with data.
func writeFile(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".docctl-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// summarize renders a footnote report on one line.
func summarize(r footnote.Report) string {
	if !r.Changed() {
		return "unchanged"
	}
	var parts []string
	if r.Renumbered > 0 {
		parts = append(parts, fmt.Sprintf("renumbered %d", r.Renumbered))
	}
	if len(r.Created) > 0 {
		parts = append(parts, fmt.Sprintf("created %s", strings.Join(r.Created, ",")))
	}
	if len(r.Removed) > 0 {
		parts = append(parts, fmt.Sprintf("removed %s", strings.Join(r.Removed, ",")))
	}
	if r.RemovedReferences > 0 {
		parts = append(parts, fmt.Sprintf("dropped %d references", r.RemovedReferences))
	}
	if len(r.Reassigned) > 0 {
		parts = append(parts, fmt.Sprintf("reassigned %d ids", len(r.Reassigned)))
	}
	if r.Reordered {
		parts = append(parts, "reordered")
	}
	if r.ContainerMoved {
		parts = append(parts, "moved container")
	}
	if len(parts) == 0 {
		return "normalized"
	}
	return strings.Join(parts, ", ")
}
