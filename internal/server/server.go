// Package server exposes the document, its graph, and the edit pipeline
// over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agentic-research/trellis/internal/document"
	"github.com/agentic-research/trellis/internal/editor"
	"github.com/agentic-research/trellis/internal/store"

	"github.com/agentic-research/trellis/api"
)

// Server holds the HTTP server dependencies.
type Server struct {
	editor *editor.Editor
	docs   store.DocumentStore
	graphs store.GraphStore
	log    *log.Logger
}

// New creates a new API server.
func New(ed *editor.Editor, docs store.DocumentStore, graphs store.GraphStore, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{editor: ed, docs: docs, graphs: graphs, log: logger}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/health", s.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/document", s.GetDocument)
		r.Put("/document", s.PutDocument)
		r.Get("/graph", s.GetGraph)
		r.Get("/node", s.GetNode)
		r.Post("/edit", s.Edit)
		r.Post("/patch", s.Patch)
		r.Get("/selection", s.GetSelection)
		r.Post("/selection", s.PostSelection)
		r.Get("/stats", s.GetStats)
	})

	return r
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// fail writes an ErrorView. Parse errors map to 422 with their byte
// offset; everything else keeps the given kind and status.
func (s *Server) fail(w http.ResponseWriter, status int, kind string, err error) {
	view := api.ErrorView{Kind: kind, Message: err.Error()}
	var perr *document.ParseError
	if errors.As(err, &perr) {
		status = http.StatusUnprocessableEntity
		view.Kind = "parse_error"
		view.Offset = perr.Offset
	}
	if status >= http.StatusInternalServerError {
		s.log.Errorf("api: %v", err)
	}
	s.respond(w, status, view)
}

func (s *Server) editResponse(ap *editor.Applied) api.EditResponse {
	return api.EditResponse{
		EditID:     ap.EditID,
		Changed:    ap.Changed,
		Generation: ap.Generation,
		Node:       api.FromNode(ap.Node),
		Text:       string(ap.Text),
		Diff:       ap.Diff,
	}
}
