// Package http exposes the courier engine as a JSON API.
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

	"github.com/aretw0/courier"
	"github.com/aretw0/courier/internal/logging"
	"github.com/aretw0/courier/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// DefaultMaxBodyBytes bounds the body of API requests.
const DefaultMaxBodyBytes int64 = 1 << 20

// Session identity.
const (
	SessionCookie = "courier_session"
	SessionHeader = "X-Session-ID"
)

// Engine is the part of *courier.Engine the API needs.
type Engine interface {
	Chat(ctx context.Context, sessionID, text string) (courier.Reply, error)
	History(ctx context.Context, sessionID string) ([]domain.Message, error)
	Clear(ctx context.Context, sessionID string) error
	CurrentTime(ctx context.Context) domain.ToolResult
}

// Server holds the API handlers.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	logger  *slog.Logger
	metrics http.Handler
	maxBody int64
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is returned by POST /api/chat.
type ChatResponse struct {
	Response string           `json:"response"`
	Intent   domain.Intent    `json:"intent,omitempty"`
	Messages []domain.Message `json:"messages"`
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		maxBody: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequestSize(s.maxBody))
		r.Post("/chat", s.PostChat)
		r.Get("/history", s.GetHistory)
		r.Post("/clear", s.PostClear)
		r.Get("/time", s.GetTime)
		r.Get("/events", s.SubscribeEvents)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+SessionHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionID reads the caller's session from the header or cookie and
// issues a new cookie when there is none.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// PostChat handles POST /api/chat.
func (s *Server) PostChat(w http.ResponseWriter, r *http.Request) {
	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			s.logger.Warn("chat: request body too large", "limit", tooLarge.Limit)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("chat: invalid request body", "err", err)
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		writeError(w, http.StatusBadRequest, "message cannot be empty")
		return
	}

	id := sessionID(w, r)
	reply, err := s.Engine.Chat(r.Context(), id, body.Message)
	if err != nil {
		if courier.IsInputError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			s.logger.Warn("chat: input rejected", "session_id", id, "err", err, "size", len(body.Message))
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("processing failed: %v", err))
		s.logger.Error("chat failed", "session_id", id, "err", err)
		return
	}

	if n := len(reply.History); n >= 2 {
		if b, err := json.Marshal(reply.History[n-2:]); err == nil {
			s.Streams.Broadcast(id, string(b))
		}
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response: reply.Text,
		Intent:   reply.Intent,
		Messages: domain.LastN(reply.History, courier.HistoryWindow),
	})
}

// GetHistory handles GET /api/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := sessionID(w, r)
	msgs, err := s.Engine.History(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		s.logger.Error("history failed", "session_id", id, "err", err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// PostClear handles POST /api/clear.
func (s *Server) PostClear(w http.ResponseWriter, r *http.Request) {
	id := sessionID(w, r)
	if err := s.Engine.Clear(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		s.logger.Error("clear failed", "session_id", id, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// GetTime handles GET /api/time. The time service's answer is passed through.
func (s *Server) GetTime(w http.ResponseWriter, r *http.Request) {
	res := s.Engine.CurrentTime(r.Context())
	if res.Err != nil {
		msg := res.Err.Error()
		var te *domain.ToolError
		if errors.As(res.Err, &te) {
			msg = te.Detail()
		}
		writeError(w, http.StatusBadGateway, msg)
		return
	}
	writeJSON(w, http.StatusOK, res.Payload)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "courier-http",
		"version": strings.TrimSpace(courier.Version),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// StreamManager fans chat updates out to SSE subscribers, per session.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel for sessionID. The returned
// function unregisters and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of sessionID. Slow clients drop messages.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("sse: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// SubscribeEvents handles GET /api/events, streaming each new exchange of
// the caller's session.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	id := r.URL.Query().Get("session_id")
	if id == "" {
		id = sessionID(w, r)
	}

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("sse: subscribed", "session_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("sse: client disconnected", "session_id", id)
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
