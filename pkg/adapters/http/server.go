package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/presentation/graph"
	"github.com/aretw0/rewind/internal/sanitize"
	"github.com/aretw0/rewind/internal/validator"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/session"
)

// Server serves the machine API over a session manager.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager
	Metrics  http.Handler
	Logger   *slog.Logger
}

// Option configures the handler built by NewHandler.
type Option func(*Server)

// WithStreams enables GET /machines/{id}/events. The caller must also wire
// sm.Hooks() into the session manager's machine options, otherwise subscribers
// never receive anything.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// NewHandler creates the HTTP handler for the machines held by sessions.
// The events route is mounted only when WithStreams is given.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		Logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(RawSpec())
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	r.Route("/machines", func(r chi.Router) {
		r.Get("/", s.ListMachines)
		r.Post("/", s.CreateMachine)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetMachine)
			r.Delete("/", s.DeleteMachine)
			r.Post("/trigger", s.Trigger)
			r.Post("/change", s.ChangeState)
			r.Post("/reset", s.Reset)
			r.Post("/undo", s.Undo)
			r.Post("/redo", s.Redo)
			r.Post("/clear", s.ClearHistory)
			r.Get("/states", s.ListStates)
			r.Get("/graph", s.GetGraph)
			if s.Streams != nil {
				r.Get("/events", s.SubscribeEvents)
			}
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := GetSpec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "rewind-http",
		"version":     strings.TrimSpace(rewind.Version),
		"api_version": apiVersion,
	})
}

// ListMachines handles GET /machines.
func (s *Server) ListMachines(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, MachineList{Machines: ids})
}

// CreateMachine handles POST /machines.
func (s *Server) CreateMachine(w http.ResponseWriter, r *http.Request) {
	var body CreateMachineRequest
	if !s.decode(w, r, &body) {
		return
	}

	var opts []rewind.Option
	if body.Strict {
		opts = append(opts, rewind.WithStrict())
	}

	id, err := s.Sessions.Create(r.Context(), body.ID, body.Config, opts...)
	if err != nil {
		s.writeError(w, err)
		return
	}

	snap, err := s.Sessions.Snapshot(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, machineFromSnapshot(id, snap))
}

// GetMachine handles GET /machines/{id}.
func (s *Server) GetMachine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.Sessions.Snapshot(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, machineFromSnapshot(id, snap))
}

// DeleteMachine handles DELETE /machines/{id}.
func (s *Server) DeleteMachine(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Trigger handles POST /machines/{id}/trigger.
func (s *Server) Trigger(w http.ResponseWriter, r *http.Request) {
	var body TriggerRequest
	if !s.decode(w, r, &body) || !s.cleanInput(w, &body.Event) {
		return
	}
	s.mutate(w, r, func(m *rewind.Machine) (*bool, error) {
		_, err := m.Trigger(body.Event)
		return nil, err
	})
}

// ChangeState handles POST /machines/{id}/change.
func (s *Server) ChangeState(w http.ResponseWriter, r *http.Request) {
	var body ChangeRequest
	if !s.decode(w, r, &body) || !s.cleanInput(w, &body.State) {
		return
	}
	s.mutate(w, r, func(m *rewind.Machine) (*bool, error) {
		_, err := m.ChangeState(body.State)
		return nil, err
	})
}

// Reset handles POST /machines/{id}/reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(m *rewind.Machine) (*bool, error) {
		m.Reset()
		return nil, nil
	})
}

// Undo handles POST /machines/{id}/undo.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(m *rewind.Machine) (*bool, error) {
		moved := m.Undo()
		return &moved, nil
	})
}

// Redo handles POST /machines/{id}/redo.
func (s *Server) Redo(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(m *rewind.Machine) (*bool, error) {
		moved := m.Redo()
		return &moved, nil
	})
}

// ClearHistory handles POST /machines/{id}/clear.
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(m *rewind.Machine) (*bool, error) {
		m.ClearHistory()
		return nil, nil
	})
}

// ListStates handles GET /machines/{id}/states?event=.
func (s *Server) ListStates(w http.ResponseWriter, r *http.Request) {
	var event string
	if err := runtime.BindQueryParameter("form", true, false, "event", r.URL.Query(), &event); err != nil {
		s.writeJSON(w, http.StatusBadRequest, Error{Error: fmt.Sprintf("invalid format for parameter event: %v", err)})
		return
	}

	var states []string
	err := s.Sessions.WithLock(r.Context(), chi.URLParam(r, "id"), func(_ context.Context, m *rewind.Machine) error {
		states = m.StatesOn(event)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StateList{States: states})
}

// GetGraph handles GET /machines/{id}/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var diagram string
	err := s.Sessions.WithLock(r.Context(), chi.URLParam(r, "id"), func(_ context.Context, m *rewind.Machine) error {
		overlay := graph.OverlayFrom(m.Snapshot())
		diagram = graph.GenerateMermaid(m.Config(), overlay)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(diagram))
}

// SubscribeEvents handles GET /machines/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Sessions.Get(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	s.Logger.Info("SSE: Subscribing to machine events", "machine", id)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "machine", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// mutate runs fn under the machine lock and replies with the resulting snapshot.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(*rewind.Machine) (*bool, error)) {
	id := chi.URLParam(r, "id")

	var resp Machine
	err := s.Sessions.WithLock(r.Context(), id, func(_ context.Context, m *rewind.Machine) error {
		moved, err := fn(m)
		if err != nil {
			return err
		}
		resp = machineFromSnapshot(id, m.Snapshot())
		resp.Moved = moved
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.Logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, Error{Error: "invalid request body"})
		return false
	}
	return true
}

// cleanInput cleans an identifier in place, replying 400 when it is rejected.
func (s *Server) cleanInput(w http.ResponseWriter, field *string) bool {
	clean, err := sanitize.Input(*field)
	if err != nil {
		s.Logger.Warn("Input rejected", "err", err, "size", len(*field))
		s.writeError(w, err)
		return false
	}
	*field = clean
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verr *validator.ValidationError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownState), errors.Is(err, domain.ErrNoTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConfigMissing), errors.As(err, &verr), sanitize.IsInvalid(err):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.Logger.Error("Request failed", "err", err)
	}
	s.writeJSON(w, status, Error{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "err", err)
	}
}
