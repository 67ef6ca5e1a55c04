// Package httpapi exposes the caption pipeline over HTTP.
package httpapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/forPelevin/capburn/internal/config"
	"github.com/forPelevin/capburn/internal/deps"
	"github.com/forPelevin/capburn/internal/logging"
	"github.com/forPelevin/capburn/internal/pipeline"
	"github.com/forPelevin/capburn/internal/types"
)

//go:embed index.html
var indexPage []byte

// Captioner is the pipeline surface the handlers depend on.
type Captioner interface {
	Requirements() []deps.Requirement
	Upload(name string, r io.Reader) (types.MediaAsset, error)
	UploadCaptions(name string, r io.Reader) (types.MediaAsset, error)
	Open(name string) (types.MediaAsset, error)
	Generate(ctx context.Context, videoName, lang string) (pipeline.Result, error)
	BurnCaptions(ctx context.Context, videoName, captionName, lang string) (pipeline.Result, error)
}

type Server struct {
	svc    Captioner
	cfg    config.Server
	logger *slog.Logger
	mux    *http.ServeMux
}

func New(svc Captioner, cfg config.Server, logger *slog.Logger) *Server {
	s := &Server{svc: svc, cfg: cfg, logger: logger, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /generate", s.handleGenerate)
	s.mux.HandleFunc("POST /generate-srt", s.handleGenerateSRT)
	s.mux.HandleFunc("POST /upload-with-srt", s.handleUploadWithSRT)
	s.mux.HandleFunc("GET /download/{filename}", s.handleDownload)
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Run listens on the configured bind address and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: seconds(s.cfg.ReadHeaderTimeout),
		IdleTimeout:       seconds(s.cfg.IdleTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.log().Info("api server listening", slog.String("address", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), seconds(s.cfg.ShutdownTimeout))
	defer cancel()
	s.log().Info("api server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(slog.String("component", "api-server"))
	}
	return logging.NewNop()
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += int64(n)
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		s.log().Log(r.Context(), level, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Int64("bytes", rec.bytes),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
