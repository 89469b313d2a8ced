// Package server exposes form sessions over a JSON HTTP API.
package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/html"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/session"
	"github.com/goliatone/go-formengine/pkg/sink"
)

const defaultMaxUploadSize = 32 << 20

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("server: session not found")

// Server owns the live sessions. Each session has its own lock, so the
// server only guards the id map.
type Server struct {
	catalog        *schema.Catalog
	sink           sink.Sink
	renderer       render.Renderer
	sessionOptions []session.Option
	logger         *log.Logger
	maxUploadSize  int64

	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// Option configures a Server.
type Option func(*Server)

// WithSink stores successful submissions. Defaults to sink.Discard.
func WithSink(s sink.Sink) Option {
	return func(srv *Server) {
		if s != nil {
			srv.sink = s
		}
	}
}

// WithRenderer overrides the renderer behind the form endpoint. Defaults to
// the html renderer.
func WithRenderer(r render.Renderer) Option {
	return func(srv *Server) {
		if r != nil {
			srv.renderer = r
		}
	}
}

// WithSessionOptions is applied to every session the server creates.
func WithSessionOptions(options ...session.Option) Option {
	return func(srv *Server) {
		srv.sessionOptions = append(srv.sessionOptions, options...)
	}
}

// WithLogger receives request and error logs. Defaults to a discard logger.
func WithLogger(logger *log.Logger) Option {
	return func(srv *Server) {
		if logger != nil {
			srv.logger = logger
		}
	}
}

// WithMaxUploadSize caps multipart bodies on the file endpoint.
func WithMaxUploadSize(n int64) Option {
	return func(srv *Server) {
		if n > 0 {
			srv.maxUploadSize = n
		}
	}
}

// New constructs a Server over catalog.
func New(catalog *schema.Catalog, options ...Option) (*Server, error) {
	srv := &Server{
		catalog:       catalog,
		sink:          sink.Discard,
		logger:        log.New(io.Discard, "", 0),
		maxUploadSize: defaultMaxUploadSize,
		sessions:      make(map[string]*session.Session),
	}
	for _, opt := range options {
		if opt != nil {
			opt(srv)
		}
	}
	if srv.renderer == nil {
		renderer, err := html.New()
		if err != nil {
			return nil, err
		}
		srv.renderer = renderer
	}
	return srv, nil
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/schemas", s.listSchemas)
		r.Get("/schemas/{schemaID}", s.getSchema)

		r.Post("/sessions", s.createSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Put("/schema", s.selectSchema)
			r.Patch("/fields", s.changeField)
			r.Post("/files/{path}", s.uploadFile)
			r.Post("/submit", s.submit)
			r.Get("/form", s.renderForm)
		})

		r.Get("/submissions", s.listSubmissions)
		r.Get("/submissions/{recordID}", s.getSubmission)
	})

	return r
}

func (s *Server) newSession(schemaID string) (string, *session.Session, error) {
	sess := session.New(s.catalog, s.sessionOptions...)
	if err := sess.Select(schemaID); err != nil {
		return "", nil, err
	}
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return id, sess, nil
}

func (s *Server) session(id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Server) dropSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}
