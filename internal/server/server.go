// Package server exposes a Session over a JSON HTTP API, the transport the
// UI layer drives the editor through.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dannyswat/vcedit"
)

// maxDocumentBytes bounds request bodies, documents included.
const maxDocumentBytes = 16 << 20

// Server routes HTTP requests to one editing session.
type Server struct {
	session *vcedit.Session
	log     *zap.Logger
	router  chi.Router
}

// New builds the router for session.
func New(session *vcedit.Session, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{session: session, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxDocumentBytes))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/state", s.handleState)
	r.Get("/document", s.handleDocument)
	r.Post("/document", s.handleLoad)
	r.Post("/surface-loaded", s.handleSurfaceLoaded)
	r.Get("/download", s.handleDownload)
	r.Get("/inspect", s.handleInspect)
	r.Post("/mode", s.handleMode)

	r.Route("/events", func(r chi.Router) {
		r.Post("/click", s.handleClick)
		r.Post("/hover", s.handleHover)
		r.Post("/blur", s.handleBlur)
		r.Post("/input", s.handleInput)
	})

	r.Post("/style", s.handleStyle)
	r.Post("/delete", s.handleDelete)
	r.Post("/duplicate", s.handleDuplicate)
	r.Post("/depth", s.handleDepth)
	r.Post("/release", s.handleRelease)

	r.Route("/picker", func(r chi.Router) {
		r.Post("/pick", s.handlePick)
		r.Post("/preview", s.handlePreview)
		r.Post("/close", s.handleClosePicker)
	})

	r.Post("/undo", s.handleUndo)
	r.Post("/redo", s.handleRedo)
	r.Post("/reset", s.handleReset)
	r.Get("/history/changes", s.handleChanges)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type loadRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	// Defer leaves the session not-ready until /surface-loaded is posted.
	Defer bool `json:"defer"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type hoverRequest struct {
	Target vcedit.ElementPath `json:"target"`
	Leave  bool               `json:"leave"`
}

type inputRequest struct {
	Text string `json:"text"`
}

type pathsRequest struct {
	Paths     []vcedit.ElementPath `json:"paths"`
	Confirmed bool                 `json:"confirmed"`
}

type styleRequest struct {
	Paths    []vcedit.ElementPath `json:"paths"`
	Property string               `json:"property"`
	Value    string               `json:"value"`
}

type styleResponse struct {
	Applied int          `json:"applied"`
	State   vcedit.State `json:"state"`
}

type depthRequest struct {
	Paths []vcedit.ElementPath `json:"paths"`
	Depth vcedit.Depth         `json:"depth"`
}

type pathRequest struct {
	Path vcedit.ElementPath `json:"path"`
}

type confirmRequest struct {
	Confirmed bool `json:"confirmed"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) handleDocument(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Document())
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.session.Load(req.Name, req.Content)
	if req.Defer {
		writeJSON(w, http.StatusOK, s.session.State())
		return
	}
	s.command(w, s.session.SurfaceLoaded)
}

func (s *Server) handleSurfaceLoaded(w http.ResponseWriter, _ *http.Request) {
	s.command(w, s.session.SurfaceLoaded)
}

func (s *Server) handleDownload(w http.ResponseWriter, _ *http.Request) {
	out, err := s.session.Export()
	if err != nil {
		s.fail(w, err)
		return
	}
	name := s.session.State().Name
	if name == "" {
		name = "document.html"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, out)
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	values, err := s.session.InspectStyle(vcedit.ElementPath(r.URL.Query().Get("path")))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := vcedit.ParseMode(req.Mode)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.command(w, func() error { return s.session.SetMode(m) })
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var ev vcedit.ClickEvent
	if !s.decode(w, r, &ev) {
		return
	}
	s.command(w, func() error { return s.session.Click(ev) })
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req hoverRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Leave {
		s.command(w, func() error { return s.session.HoverEnd(req.Target) })
		return
	}
	s.command(w, func() error { return s.session.Hover(req.Target) })
}

func (s *Server) handleBlur(w http.ResponseWriter, _ *http.Request) {
	s.command(w, s.session.Blur)
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.command(w, func() error { return s.session.EditText(req.Text) })
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	var req styleRequest
	if !s.decode(w, r, &req) {
		return
	}
	paths := s.pathsOrSelection(req.Paths)
	applied, err := s.session.UpdateStyle(paths, req.Property, req.Value)
	if err != nil && !vcedit.Ignorable(err) {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, styleResponse{Applied: applied, State: s.session.State()})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req pathsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !req.Confirmed {
		s.fail(w, vcedit.ErrNotConfirmed)
		return
	}
	paths := s.pathsOrSelection(req.Paths)
	s.command(w, func() error { return s.session.DeleteElements(paths) })
}

func (s *Server) handleDuplicate(w http.ResponseWriter, r *http.Request) {
	var req pathsRequest
	if !s.decode(w, r, &req) {
		return
	}
	paths := s.pathsOrSelection(req.Paths)
	s.command(w, func() error { return s.session.DuplicateElement(paths...) })
}

func (s *Server) handleDepth(w http.ResponseWriter, r *http.Request) {
	var req depthRequest
	if !s.decode(w, r, &req) {
		return
	}
	paths := s.pathsOrSelection(req.Paths)
	s.command(w, func() error { return s.session.ReorderDepth(paths, req.Depth) })
}

func (s *Server) handleRelease(w http.ResponseWriter, _ *http.Request) {
	s.command(w, s.session.Release)
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.command(w, func() error { return s.session.PickCandidate(req.Path) })
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Path == "" {
		s.command(w, s.session.EndPreview)
		return
	}
	s.command(w, func() error { return s.session.PreviewCandidate(req.Path) })
}

func (s *Server) handleClosePicker(w http.ResponseWriter, _ *http.Request) {
	s.command(w, s.session.ClosePicker)
}

func (s *Server) handleUndo(w http.ResponseWriter, _ *http.Request) {
	s.command(w, s.session.Undo)
}

func (s *Server) handleRedo(w http.ResponseWriter, _ *http.Request) {
	s.command(w, s.session.Redo)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.command(w, func() error { return s.session.ResetToOriginal(req.Confirmed) })
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	index := s.session.State().History.Cursor
	if raw := r.URL.Query().Get("index"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("index: %w", err))
			return
		}
		index = n
	}
	changes := s.session.HistoryChanges(index)
	if changes == nil {
		changes = []vcedit.Change{}
	}
	writeJSON(w, http.StatusOK, changes)
}

func (s *Server) pathsOrSelection(paths []vcedit.ElementPath) []vcedit.ElementPath {
	if len(paths) > 0 {
		return paths
	}
	return s.session.State().SelectedPaths
}

// command runs fn and answers with the resulting state. Errors that mean
// "nothing happened" still answer 200, so the UI just re-renders.
func (s *Server) command(w http.ResponseWriter, fn func() error) {
	if err := fn(); err != nil {
		if !vcedit.Ignorable(err) {
			s.fail(w, err)
			return
		}
		s.log.Debug("command had no effect", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error("command failed", zap.Error(err))
	}
	writeError(w, code, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, vcedit.ErrInvalidSelection):
		return http.StatusConflict
	case errors.Is(err, vcedit.ErrNotConfirmed),
		errors.Is(err, vcedit.ErrUnknownMode),
		errors.Is(err, vcedit.ErrInvalidTarget):
		return http.StatusBadRequest
	case errors.Is(err, vcedit.ErrPathNotFound):
		return http.StatusNotFound
	case errors.Is(err, vcedit.ErrNotReady):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body into v. An empty body leaves v at its zero value.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	return false
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
