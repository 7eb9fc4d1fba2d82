// Package devserver is an in-memory implementation of the library REST API
// for local development and end-to-end tests.
package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server serves the books and borrow endpoints from a Store.
type Server struct {
	router      chi.Router
	store       *Store
	logger      *zap.Logger
	latency     time.Duration
	failDeletes atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithLatency delays every response by d.
func WithLatency(d time.Duration) Option {
	return func(s *Server) { s.latency = d }
}

// WithFailingDeletes makes every delete answer 500 without deleting.
func WithFailingDeletes(fail bool) Option {
	return func(s *Server) { s.failDeletes.Store(fail) }
}

// New creates a Server backed by st.
func New(st *Store, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router: chi.NewRouter(),
		store:  st,
		logger: logger.With(zap.String("component", "devserver")),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// SetFailingDeletes toggles delete failures at runtime.
func (s *Server) SetFailingDeletes(fail bool) { s.failDeletes.Store(fail) }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	if s.latency > 0 {
		r.Use(latencyMiddleware(s.latency))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Post("/", s.handleCreateBook)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetBook)
				r.Put("/", s.handleUpdateBook)
				r.Delete("/", s.handleDeleteBook)
			})
		})
		r.Route("/borrow", func(r chi.Router) {
			r.Get("/", s.handleBorrowSummary)
			r.Post("/", s.handleBorrow)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Route not found", nil)
	})
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	books, pg := s.store.List(opts)
	respondList(w, "Books retrieved successfully", books, pg)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	respondOK(w, "Book retrieved successfully", b)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var in catalog.BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}
	b, err := s.store.Create(in)
	if err != nil {
		s.fail(w, err)
		return
	}
	respondCreated(w, "Book created successfully", b)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	var p catalog.BookPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}
	b, err := s.store.Update(chi.URLParam(r, "id"), p)
	if err != nil {
		s.fail(w, err)
		return
	}
	respondOK(w, "Book updated successfully", b)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	if s.failDeletes.Load() {
		respondError(w, http.StatusInternalServerError, "Delete is disabled on this server", nil)
		return
	}
	if err := s.store.Delete(chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	respondOK(w, "Book deleted successfully", nil)
}

func (s *Server) handleBorrowSummary(w http.ResponseWriter, r *http.Request) {
	respondOK(w, "Borrowed books summary retrieved successfully", s.store.Summary())
}

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req catalog.BorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}
	rec, err := s.store.Borrow(req)
	if err != nil {
		s.fail(w, err)
		return
	}
	respondCreated(w, "Book borrowed successfully", rec)
}

// fail maps a store error onto the response envelope.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var he *httpError
	if errors.As(err, &he) {
		respondError(w, he.status, he.message, he.fields)
		return
	}
	s.logger.Error("unexpected store error", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "Internal server error", nil)
}

func parseListOptions(r *http.Request) (ListOptions, error) {
	q := r.URL.Query()
	var opts ListOptions
	var err error
	if v := q.Get("page"); v != "" {
		if opts.Page, err = strconv.Atoi(v); err != nil || opts.Page < 1 {
			return opts, errors.New("page must be a positive integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if opts.Limit, err = strconv.Atoi(v); err != nil || opts.Limit < 1 {
			return opts, errors.New("limit must be a positive integer")
		}
	}
	if v := q.Get("sortBy"); v != "" {
		if !catalog.Sortable(v) {
			return opts, errors.New("sortBy must be one of " + strings.Join(catalog.SortFields, ", "))
		}
		opts.SortBy = v
	}
	opts.Desc = strings.EqualFold(q.Get("sort"), "desc")
	if v := q.Get("filter"); v != "" {
		opts.Genre = catalog.Genre(strings.ToUpper(v))
	}
	return opts, nil
}
