// Package server exposes the board over HTTP: a JSON API for gestures and
// state, an SSE stream of playback events, the embedded board page, and
// the static assets (manifest and audio files) the page needs.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/telagraphic/sfx-board/catalog"
	"github.com/telagraphic/sfx-board/importjob"
	"github.com/telagraphic/sfx-board/logger"
	"github.com/telagraphic/sfx-board/playback"
)

// Controller is the slice of the playback controller the server drives
type Controller interface {
	Activate(ctx context.Context, name string) error
	ToggleLoop(ctx context.Context, name string) (bool, error)
	Snapshot() map[string]playback.Status
}

// Server handles the board's HTTP surface
type Server struct {
	catalog    *catalog.Service
	controller Controller
	imports    *importjob.Service
	assetRoot  string
	events     *broadcaster
	log        *slog.Logger
	httpServer *http.Server
}

// New creates a server over the given components
func New(addr, assetRoot string, cat *catalog.Service, ctrl Controller, imports *importjob.Service) *Server {
	s := &Server{
		catalog:    cat,
		controller: ctrl,
		imports:    imports,
		assetRoot:  assetRoot,
		events:     newBroadcaster(),
		log:        logger.WithComponent("server"),
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Publish forwards a playback event to every connected SSE subscriber
func (s *Server) Publish(ev playback.Event) {
	s.events.publish(ev)
}

// ListenAndServe runs the HTTP server until Shutdown
func (s *Server) ListenAndServe() error {
	s.log.Info("Listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	s.events.close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/clips", s.handleClips)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/clips/{name}/activate", s.handleActivate)
	mux.HandleFunc("POST /api/clips/{name}/loop", s.handleToggleLoop)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/import/{id}", s.handleImportStatus)
	mux.HandleFunc("POST /api/reload", s.handleReload)

	// Catch-all: the board page on /, anything else resolved under the
	// asset root.
	mux.HandleFunc("/", s.handleStatic)

	return mux
}

// Handler returns the server's routing table, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// handleHealth returns a simple health check response.
// GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleClips returns the loaded clip list in manifest order.
// GET /api/clips
func (s *Server) handleClips(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.Clips())
}

// handleState returns the per-clip visible state.
// GET /api/state
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

// handleActivate forwards the primary gesture.
// POST /api/clips/{name}/activate
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.controller.Activate(r.Context(), name); err != nil {
		s.writePlaybackError(w, name, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleLoop forwards the secondary gesture and reports the new
// loop flag.
// POST /api/clips/{name}/loop
func (s *Server) handleToggleLoop(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	loop, err := s.controller.ToggleLoop(r.Context(), name)
	if err != nil {
		s.writePlaybackError(w, name, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"loop": loop})
}

// importRequest is the body of POST /api/import
type importRequest struct {
	Kind   importjob.Kind `json:"kind"`
	Source string         `json:"source"`
}

// handleImport starts a simulated upload or YouTube import job.
// POST /api/import
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	job, err := s.imports.Start(req.Kind, req.Source)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, job)
}

// handleImportStatus reports one import job.
// GET /api/import/{id}
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.imports.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "no such import job")
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

// handleReload re-fetches the manifest.
// POST /api/reload
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Load(r.Context()); err != nil {
		s.log.Error("Manifest reload failed", logger.Err(err))
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.catalog.Clips())
}

// handleStatic serves the board page on / and resolves every other path
// under the asset root. Cleaned paths cannot escape the root; anything
// missing is a 404.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if r.URL.Path == "/" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexPage)
		return
	}

	rel := filepath.Clean("/" + filepath.FromSlash(r.URL.Path))
	path := filepath.Join(s.assetRoot, rel)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	http.ServeFile(w, r, path)
}

// statusClientClosedRequest is the nginx convention for a request the
// client abandoned before a response was written
const statusClientClosedRequest = 499

// writePlaybackError maps controller failures to HTTP statuses
func (s *Server) writePlaybackError(w http.ResponseWriter, name string, err error) {
	var (
		notFound    *playback.NotFoundError
		timeout     *playback.TimeoutError
		unreachable *playback.UnreachableError
		decode      *playback.DecodeError
	)
	switch {
	case errors.Is(err, context.Canceled):
		// the client went away mid-gesture; not a server failure
		s.log.Warn("Gesture abandoned", "clip", name)
		s.writeError(w, statusClientClosedRequest, err.Error())
	case errors.As(err, &notFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &timeout):
		s.writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &unreachable), errors.As(err, &decode):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.log.Error("Gesture failed", "clip", name, logger.Err(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Failed to encode response", logger.Err(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
