package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dgallion1/docedit/internal/doctree"
	"github.com/dgallion1/docedit/internal/drag"
	"github.com/dgallion1/docedit/internal/editor"
	"github.com/dgallion1/docedit/internal/export"
	"github.com/dgallion1/docedit/internal/footnote"
	"github.com/dgallion1/docedit/internal/markup"
	"github.com/dgallion1/docedit/internal/outline"
)

// documentRequest carries a document as markup or as a node tree. When
// both are set the tree wins.
type documentRequest struct {
	Markup      string               `json:"markup"`
	Document    *doctree.Node        `json:"document,omitempty"`
	Transaction *doctree.Transaction `json:"transaction,omitempty"`
	Path        doctree.Path         `json:"path,omitempty"`
	Payload     *drag.Payload        `json:"payload,omitempty"`
	Target      doctree.Path         `json:"target,omitempty"`
}

type documentResponse struct {
	Markup    string           `json:"markup"`
	Document  *doctree.Node    `json:"document"`
	Footnotes *footnote.Report `json:"footnotes,omitempty"`
	Corrected bool             `json:"corrected"`
	Degraded  []string         `json:"degraded,omitempty"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*documentRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

// load builds the request's document. Degraded markup is reported, not
// rejected.
func (s *Server) load(req *documentRequest) (*doctree.Node, []string, error) {
	if req.Document != nil {
		root, err := doctree.Build(req.Document)
		if err != nil {
			return nil, nil, err
		}
		if root.Kind != doctree.KindDocument {
			return nil, nil, &doctree.SchemaError{Kind: root.Kind, Reason: "root must be a document"}
		}
		return root, nil, nil
	}
	res, err := markup.ParseString(req.Markup)
	if err != nil {
		return nil, nil, err
	}
	var degraded []string
	for _, d := range res.Degraded {
		degraded = append(degraded, d.Error())
	}
	return res.Doc, degraded, nil
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	root, degraded, err := s.load(req)
	if err != nil {
		s.engineError(w, err)
		return
	}
	out, report := s.editor.Normalize(root)
	writeJSON(w, http.StatusOK, documentResponse{
		Markup:    markup.Serialize(out),
		Document:  out,
		Footnotes: &report,
		Corrected: report.Changed(),
		Degraded:  degraded,
	})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	if req.Transaction == nil {
		jsonError(w, "transaction is required", http.StatusBadRequest)
		return
	}
	root, degraded, err := s.load(req)
	if err != nil {
		s.engineError(w, err)
		return
	}
	res, err := s.editor.Apply(root, req.Transaction)
	s.stats.Transactions.Since(start)
	if err != nil {
		s.engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse(res, degraded))
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	root, _, err := s.load(req)
	if err != nil {
		s.engineError(w, err)
		return
	}
	out, _ := s.editor.Normalize(root)
	md, err := export.Markdown(out)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"markdown": md})
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	root, _, err := s.load(req)
	if err != nil {
		s.engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sections": outline.Build(root, outline.DefaultConfig()),
	})
}

func (s *Server) handleDragBegin(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	root, _, err := s.load(req)
	if err != nil {
		s.engineError(w, err)
		return
	}
	p, err := drag.Begin(root, req.Path)
	if err != nil {
		s.engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleDragDrop completes a drag. target is a position in the tree the
// client sees, before the source is removed.
func (s *Server) handleDragDrop(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	if req.Payload == nil {
		jsonError(w, "payload is required", http.StatusBadRequest)
		return
	}
	root, degraded, err := s.load(req)
	if err != nil {
		s.engineError(w, err)
		return
	}
	tx, err := drag.DropAt(root, req.Payload, req.Target)
	if err != nil {
		s.engineError(w, err)
		return
	}
	res, err := s.editor.Apply(root, tx)
	s.stats.Transactions.Since(start)
	if err != nil {
		s.engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":      resultResponse(res, degraded),
		"transaction": tx,
	})
}

func resultResponse(res *editor.Result, degraded []string) documentResponse {
	out := documentResponse{
		Markup:    markup.Serialize(res.Root),
		Document:  res.Root,
		Corrected: res.Corrected,
		Degraded:  degraded,
	}
	if res.Corrected {
		out.Footnotes = &res.Footnotes
	}
	return out
}

// engineError maps engine errors onto status codes: conflicts with the
// current document state are 409, well-formed but invalid requests 422.
func (s *Server) engineError(w http.ResponseWriter, err error) {
	var (
		schema  *doctree.SchemaError
		invalid *doctree.InvalidEditError
		notDrag *drag.NotDraggableError
		stale   *drag.StaleDragError
	)
	code := http.StatusBadRequest
	switch {
	case errors.Is(err, footnote.ErrSelectionRejected), errors.As(err, &stale):
		code = http.StatusConflict
	case errors.As(err, &invalid), errors.As(err, &schema), errors.As(err, &notDrag),
		errors.Is(err, drag.ErrDropIntoSelf), errors.Is(err, doctree.ErrPathNotFound):
		code = http.StatusUnprocessableEntity
	}
	s.log.Debug("request rejected", "status", code, "error", err)
	jsonError(w, fmt.Sprint(err), code)
}
