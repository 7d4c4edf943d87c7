// Package httpapi serves the extraction engine over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cognicore/softmention/pkg/softmention"
	"github.com/cognicore/softmention/pkg/softmention/internalerr"
	"github.com/cognicore/softmention/pkg/softmention/mention"
	"github.com/cognicore/softmention/pkg/softmention/metrics"
)

// maxRequestBodySize bounds POST bodies.
const maxRequestBodySize = 10 << 20 // 10 MB

// Server exposes an Engine.
type Server struct {
	engine       *softmention.Engine
	metrics      *metrics.Metrics
	logger       *slog.Logger
	disambiguate bool
}

// Options configures a Server. Disambiguate is the default used when a
// request does not say.
type Options struct {
	Engine       *softmention.Engine
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	Disambiguate bool
}

// New creates a Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:       opts.Engine,
		metrics:      opts.Metrics,
		logger:       logger,
		disambiguate: opts.Disambiguate,
	}
}

// RegisterHTTPHandlers registers the service routes:
//
//	GET  /isalive
//	POST /processSoftwareText
//	POST /processSoftwareDocument
//	GET  /metrics
func (s *Server) RegisterHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/isalive", s.handleIsAlive)
	mux.HandleFunc("/processSoftwareText", s.handleText)
	mux.HandleFunc("/processSoftwareDocument", s.handleDocument)
	mux.Handle("/metrics", s.metrics.Handler())
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterHTTPHandlers(mux)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// TextResponse is the body returned by /processSoftwareText.
type TextResponse struct {
	Mentions []mention.Record `json:"mentions"`
	Runtime  int64            `json:"runtime"` // milliseconds
}

// DocumentResponse is the body returned by /processSoftwareDocument.
type DocumentResponse struct {
	DocID    string           `json:"docId"`
	Mentions []mention.Record `json:"mentions"`
	Runtime  int64            `json:"runtime"` // milliseconds
}

// DocumentRequest is the body accepted by /processSoftwareDocument.
type DocumentRequest struct {
	softmention.Document
	Disambiguate *bool `json:"disambiguate,omitempty"`
}

func (s *Server) handleIsAlive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, true)
}

// handleText reads the form fields text and disambiguate.
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	if _, ok := r.PostForm["text"]; !ok {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	disambiguate := s.disambiguate
	if v := r.PostForm.Get("disambiguate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "disambiguate must be a boolean", http.StatusBadRequest)
			return
		}
		disambiguate = b
	}

	start := time.Now()
	entities, err := s.engine.ProcessText(r.Context(), r.PostForm.Get("text"), disambiguate)
	if err != nil {
		s.fail(w, "text processing failed", err)
		return
	}
	writeJSON(w, http.StatusOK, TextResponse{
		Mentions: mention.ToRecords(entities),
		Runtime:  time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	disambiguate := s.disambiguate
	if req.Disambiguate != nil {
		disambiguate = *req.Disambiguate
	}

	res, err := s.engine.ProcessDocument(r.Context(), req.Document, disambiguate)
	if err != nil {
		s.fail(w, "document processing failed", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponse{
		DocID:    res.DocID,
		Mentions: res.Records,
		Runtime:  res.Runtime.Milliseconds(),
	})
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, internalerr.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, internalerr.ErrLabeling), errors.Is(err, internalerr.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	s.logger.Error(msg, "status", status, "error", err)
	http.Error(w, msg, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
