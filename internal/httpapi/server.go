package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/checkin/internal/checkin/service"
	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
)

type Dependencies struct {
	Logger zerolog.Logger
	Addr   string
	Desk   *service.Desk

	// Metrics is mounted on /metrics when set.
	Metrics http.Handler

	// Health reports storage reachability for /healthz.  Nil means always
	// healthy.
	Health func(ctx context.Context) error
}

type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
	desk       *service.Desk
	health     func(ctx context.Context) error
}

func NewServer(d Dependencies) *Server {
	s := &Server{
		logger: d.Logger,
		desk:   d.Desk,
		health: d.Health,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(d.Logger))

	r.Get("/healthz", s.handleHealth)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/employees", s.handleRegister)
		r.Get("/employees/{identifier}", s.handleLookup)
		r.Post("/scans", s.handleScan)
		r.Get("/events", s.handleEvents)
	})

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("health check failed")
			writeError(w, r, http.StatusServiceUnavailable, "unavailable", "storage unreachable")
			return
		}
	}
	writeResponse(w, r, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegistrationRequest
	if err := readRequest(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	resp, err := s.desk.SubmitRegistration(r.Context(), req.Identifier, req.Name, req.Role, req.AllowSynthetic)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		case errors.Is(err, service.ErrAlreadyRegistered):
			writeError(w, r, http.StatusConflict, "already_registered", err.Error())
		case errors.Is(err, service.ErrSyntheticIdentifier):
			writeError(w, r, http.StatusUnprocessableEntity, "synthetic_identifier", err.Error())
		default:
			s.logger.Error().Err(err).Msg("register")
			writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeResponse(w, r, http.StatusCreated, resp)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	// chi matches on the escaped path, so "aa%3Abb" arrives still encoded.
	raw, err := url.PathUnescape(chi.URLParam(r, "identifier"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "malformed identifier")
		return
	}

	rec, err := s.desk.Lookup(r.Context(), raw)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("lookup")
		writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeResponse(w, r, http.StatusOK, rec)
}

// handleScan always answers 200: the event type is the outcome.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req types.ScanRequest
	if err := readRequest(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	dir, ok := types.ParseDirection(req.Direction)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid_direction", "direction must be entry or exit")
		return
	}

	writeResponse(w, r, http.StatusOK, s.desk.SubmitScan(r.Context(), req.Identifier, dir))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q, err := eventQueryFromURL(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	events, err := s.desk.Events(r.Context(), q)
	if err != nil {
		s.logger.Error().Err(err).Msg("list events")
		writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeResponse(w, r, http.StatusOK, types.EventsResponse{Events: events})
}
