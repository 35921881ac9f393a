package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/agentic-research/trellis/internal/docpath"
	"github.com/agentic-research/trellis/internal/editor"
	"github.com/agentic-research/trellis/internal/store"

	"github.com/agentic-research/trellis/api"
)

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetDocument handles GET /api/document. With ?raw the canonical text is
// returned bare instead of wrapped in a DocumentView.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	text, err := s.docs.CurrentText(r.Context())
	if errors.Is(err, store.ErrNoDocument) {
		s.fail(w, http.StatusNotFound, "no_document", err)
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "internal", err)
		return
	}

	if r.URL.Query().Has("raw") {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(text)
		return
	}
	s.respond(w, http.StatusOK, api.DocumentView{
		Text:       string(text),
		Bytes:      len(text),
		Generation: s.graphs.Generation(),
	})
}

// PutDocument handles PUT /api/document: replace the whole document.
func (s *Server) PutDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	ap, err := s.editor.Replace(r.Context(), body)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	s.respond(w, http.StatusOK, s.editResponse(ap))
}

// GetGraph handles GET /api/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	g := s.graphs.Current()
	if g == nil {
		s.fail(w, http.StatusNotFound, "no_document", errors.New("no document loaded"))
		return
	}
	s.respond(w, http.StatusOK, api.FromGraph(g, s.graphs.Generation()))
}

// GetNode handles GET /api/node?path=$["customer"][2] (or ?id=/customer/2).
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	g := s.graphs.Current()
	if g == nil {
		s.fail(w, http.StatusNotFound, "no_document", errors.New("no document loaded"))
		return
	}

	if id := r.URL.Query().Get("id"); id != "" {
		n, err := g.NodeByID(id)
		if err != nil {
			s.fail(w, http.StatusNotFound, "not_found", fmt.Errorf("node %s: %w", id, err))
			return
		}
		s.respond(w, http.StatusOK, api.FromNode(n))
		return
	}

	raw := r.URL.Query().Get("path")
	if raw == "" {
		s.fail(w, http.StatusBadRequest, "bad_request", errors.New("path or id query parameter required"))
		return
	}
	p, err := docpath.Parse(raw)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "bad_path", err)
		return
	}
	n := g.FindByPath(p)
	if n == nil {
		s.fail(w, http.StatusNotFound, "not_found", fmt.Errorf("no node at %s", p))
		return
	}
	s.respond(w, http.StatusOK, api.FromNode(n))
}

// Edit handles POST /api/edit: write a value at one path and resync.
func (s *Server) Edit(w http.ResponseWriter, r *http.Request) {
	var req api.EditRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	p, err := docpath.Parse(req.Path)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "bad_path", err)
		return
	}
	ap, err := s.editor.ApplyEdit(r.Context(), p, req.Value)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	s.respond(w, http.StatusOK, s.editResponse(ap))
}

// Patch handles POST /api/patch. The Content-Type picks the dialect:
// application/json-patch+json applies RFC 6902 operations,
// application/merge-patch+json applies an RFC 7386 merge. A plain JSON
// body is treated as operations when it is an array, a merge otherwise.
func (s *Server) Patch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var ap *editor.Applied
	switch dialect(r.Header.Get("Content-Type"), body) {
	case "ops":
		ap, err = s.editor.ApplyPatchOps(r.Context(), body)
	default:
		ap, err = s.editor.ApplyMergePatch(r.Context(), body)
	}
	if err != nil {
		s.fail(w, http.StatusUnprocessableEntity, "patch_error", err)
		return
	}
	s.respond(w, http.StatusOK, s.editResponse(ap))
}

// GetSelection handles GET /api/selection.
func (s *Server) GetSelection(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.graphs.Selected()
	if !ok {
		s.respond(w, http.StatusOK, api.SelectionView{Selected: false})
		return
	}
	s.respond(w, http.StatusOK, api.SelectionView{Path: sel.String(), Selected: true})
}

// PostSelection handles POST /api/selection. An empty path clears the
// selection; otherwise the path must name an existing node.
func (s *Server) PostSelection(w http.ResponseWriter, r *http.Request) {
	var req api.SelectionView
	if err := decodeJSON(r.Body, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.Path == "" {
		s.graphs.ClearSelected()
		s.respond(w, http.StatusOK, api.SelectionView{Selected: false})
		return
	}
	p, err := docpath.Parse(req.Path)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "bad_path", err)
		return
	}
	g := s.graphs.Current()
	if g == nil || g.FindByPath(p) == nil {
		s.fail(w, http.StatusNotFound, "not_found", fmt.Errorf("no node at %s", p))
		return
	}
	s.graphs.SetSelected(p)
	s.respond(w, http.StatusOK, api.SelectionView{Path: p.String(), Selected: true})
}

// GetStats handles GET /api/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	g := s.graphs.Current()
	if g == nil {
		s.fail(w, http.StatusNotFound, "no_document", errors.New("no document loaded"))
		return
	}
	s.respond(w, http.StatusOK, api.FromStats(g.Stats(), s.graphs.Generation()))
}

func decodeJSON(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// dialect decides how a patch body should be applied.
func dialect(contentType string, body []byte) string {
	switch {
	case strings.Contains(contentType, "json-patch+json"):
		return "ops"
	case strings.Contains(contentType, "merge-patch+json"):
		return "merge"
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		return "ops"
	}
	return "merge"
}
