// Package http exposes the assistant over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/jarvis/internal/logging"
	"github.com/aretw0/jarvis/internal/presentation/graph"
	"github.com/aretw0/jarvis/pkg/domain"
	jgraph "github.com/aretw0/jarvis/pkg/graph"
	"github.com/aretw0/jarvis/pkg/sanitize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodySize caps request bodies; text limits are enforced by the service.
const maxBodySize = 1 << 20

// Service is the part of the assistant the server needs. *jarvis.Assistant implements it.
type Service interface {
	Run(ctx context.Context, text string, history ...domain.Message) (*domain.Outcome, error)
	Resume(ctx context.Context, token, input string) (*domain.Outcome, error)
	Chat(ctx context.Context, conversationID, text string) (*domain.Outcome, error)
	Conversation(ctx context.Context, id string) (*domain.Conversation, error)
	Graph() *jgraph.Graph
}

// Server serves the assistant API.
type Server struct {
	Service Service
	Streams *StreamManager

	logger  *slog.Logger
	version string
	metrics http.Handler
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for svc.
func NewHandler(svc Service, opts ...Option) http.Handler {
	s := &Server{
		Service: svc,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/runs", s.StartRun)
		r.Post("/runs/resume", s.ResumeRun)
		r.Get("/graph", s.GetGraph)
		r.Route("/conversations/{id}", func(r chi.Router) {
			r.Get("/", s.GetConversation)
			r.Post("/messages", s.PostMessage)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RunRequest is the body of POST /v1/runs.
type RunRequest struct {
	Text    string           `json:"text"`
	History []domain.Message `json:"history,omitempty"`
}

// ResumeRequest is the body of POST /v1/runs/resume.
type ResumeRequest struct {
	Token string `json:"token"`
	Input string `json:"input"`
}

// MessageRequest is the body of POST /v1/conversations/{id}/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

// OutcomeResponse describes a completed or suspended run.
type OutcomeResponse struct {
	Status  domain.OutcomeKind    `json:"status"`
	RunID   string                `json:"run_id"`
	Reply   string                `json:"reply"`
	Token   string                `json:"token,omitempty"`
	Missing []string              `json:"missing,omitempty"`
	State   *domain.WorkflowState `json:"state,omitempty"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StartRun handles POST /v1/runs.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if !s.decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("text is required"))
		return
	}

	out, err := s.Service.Run(r.Context(), body.Text, body.History...)
	if err != nil {
		s.fail(w, r, "StartRun", err)
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(out))
}

// ResumeRun handles POST /v1/runs/resume.
func (s *Server) ResumeRun(w http.ResponseWriter, r *http.Request) {
	var body ResumeRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Token == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("token is required"))
		return
	}

	out, err := s.Service.Resume(r.Context(), body.Token, body.Input)
	if err != nil {
		s.fail(w, r, "ResumeRun", err)
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(out))
}

// PostMessage handles POST /v1/conversations/{id}/messages and notifies event subscribers.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body MessageRequest
	if !s.decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("text is required"))
		return
	}

	out, err := s.Service.Chat(r.Context(), id, body.Text)
	if err != nil {
		s.fail(w, r, "PostMessage", err)
		return
	}

	resp := toResponse(out)
	if data, err := json.Marshal(resp); err == nil {
		s.Streams.Broadcast(id, string(data))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetConversation handles GET /v1/conversations/{id}.
func (s *Server) GetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.Service.Conversation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "GetConversation", err)
		return
	}
	s.writeJSON(w, http.StatusOK, conv)
}

// GetGraph handles GET /v1/graph with a Mermaid flowchart of the workflow.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(s.Service.Graph(), nil))
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "jarvis-http",
		"version": strings.TrimSpace(s.version),
	})
}

// StatusFor maps a service error to an HTTP status.
func StatusFor(err error) int {
	var (
		handlerErr *domain.HandlerError
		routingErr *domain.RoutingError
	)
	switch {
	case errors.Is(err, domain.ErrInvalidResumeToken), errors.Is(err, domain.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, sanitize.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, sanitize.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.As(err, &handlerErr), errors.As(err, &routingErr), errors.Is(err, domain.ErrSuperstepLimit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := StatusFor(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, op+" failed",
		"request_id", middleware.GetReqID(r.Context()),
		"status", status,
		"err", err,
	)
	s.writeError(w, status, err)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func toResponse(out *domain.Outcome) OutcomeResponse {
	resp := OutcomeResponse{
		Status: out.Kind,
		RunID:  out.RunID,
		Reply:  out.Reply(),
		Token:  out.Token,
		State:  out.State,
	}
	if req, ok := out.Payload.(domain.InputRequest); ok {
		resp.Missing = req.Missing
	}
	return resp
}

// StreamManager fans conversation replies out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // conversation ID -> set of channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a buffered channel for id. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe(id string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[id]; !ok {
		sm.subscribers[id] = make(map[chan<- string]struct{})
	}
	sm.subscribers[id][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[id]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, id)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of id. Slow subscribers miss messages.
func (sm *StreamManager) Broadcast(id string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[id] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribers returns the number of subscribers of id.
func (sm *StreamManager) Subscribers(id string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[id])
}

// SubscribeEvents handles GET /v1/conversations/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}
	id := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()
	s.logger.Info("SSE: subscribed", "conversation_id", id)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "conversation_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reply\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
