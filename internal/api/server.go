// Package api exposes the HTTP interface for the oEmbed resolver service.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dpi/media-entity-facebook/internal/embed"
	"github.com/dpi/media-entity-facebook/internal/metrics"
	"github.com/dpi/media-entity-facebook/internal/oembed"
)

// Resolver is the part of oembed.Resolver the server depends on.
type Resolver interface {
	Resolve(ctx context.Context, contentURL string) (*oembed.Record, error)
}

// Server wires HTTP handlers to the embed parser and the resolver.
type Server struct {
	router   chi.Router
	resolver Resolver
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(resolver Resolver, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	s := &Server{
		resolver: resolver,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(15 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", s.resolve)
		r.Get("/resolve/field", s.resolveField)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// The cache is in-memory and the provider is remote; nothing to probe.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type resolveRequest struct {
	Input string `json:"input"`
}

type resolveResponse struct {
	URL    string         `json:"url"`
	Oembed *oembed.Record `json:"oembed"`
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	contentURL, record, ok := s.parseAndResolve(r.Context(), w, req.Input)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{URL: contentURL, Oembed: record})
}

func (s *Server) resolveField(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("input")
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	_, record, ok := s.parseAndResolve(r.Context(), w, input)
	if !ok {
		return
	}
	value, err := record.Field(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "field not present")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "value": value})
}

// parseAndResolve runs the parse→resolve pipeline and writes the error
// response itself when either stage fails.
func (s *Server) parseAndResolve(ctx context.Context, w http.ResponseWriter, input string) (string, *oembed.Record, bool) {
	contentURL, err := embed.Parse(input)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "no facebook url found")
		return "", nil, false
	}
	record, err := s.resolver.Resolve(ctx, contentURL)
	switch {
	case errors.Is(err, oembed.ErrFetchFailed):
		writeError(w, http.StatusBadGateway, "oembed data unavailable")
		return "", nil, false
	case err != nil:
		writeError(w, http.StatusInternalServerError, "resolve failed")
		return "", nil, false
	}
	return contentURL, record, true
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		reqID, _ := r.Context().Value(requestIDKey{}).(string)
		s.logger.Info("request completed",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
