// Package server exposes mask-making sessions over HTTP.
//
// A client uploads a mesh to create a session, picks or edits the island
// selection, then downloads the mask, a preview or baked vertex colors.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"uv-mask-maker/internal/composite"
	"uv-mask-maker/internal/logger"
	"uv-mask-maker/internal/mesh"
	"uv-mask-maker/internal/raster"
	"uv-mask-maker/internal/session"
)

// Options configures a Server.
type Options struct {
	Settings     session.Settings
	Format       string // default image format, png or webp
	MaxSessions  int
	MaxBodyBytes int64
}

// Server is the HTTP front of the session store.
type Server struct {
	opts   Options
	store  *store
	router chi.Router
	log    *zap.Logger
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	if opts.Format == "" {
		opts.Format = "png"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 20
	}
	s := &Server{
		opts:  opts,
		store: newStore(opts.MaxSessions),
		log:   logger.Named("server"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.len()})
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/", s.handleInfo)
			r.Delete("/", s.handleDelete)
			r.Put("/settings", s.handleSettings)
			r.Post("/mode", s.handleMode)
			r.Post("/pick", s.handlePick)
			r.Post("/selection/{op}", s.handleSelection)
			r.Get("/islands", s.handleIslands)
			r.Get("/mask", s.handleMask)
			r.Post("/mask", s.handleMask)
			r.Get("/preview", s.handlePreview)
			r.Post("/preview", s.handlePreview)
			r.Post("/vertex-colors", s.handleVertexColors)
		})
	})
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

type ctxKey struct{}

func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid session id"))
			return
		}
		sess, err := s.store.get(id)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withValue(r, sess, id)))
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

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, mesh.ErrInvalidMesh),
		errors.Is(err, raster.ErrInvalidResolution),
		errors.Is(err, composite.ErrVertexCountMismatch),
		errors.Is(err, composite.ErrBaseSizeMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, composite.ErrStaleSelection):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoMesh):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
