// Package server implements the local preview server.
//
// The server wraps the visualization pipeline behind a small chi router so
// the rendered railway page can be viewed and refreshed in a browser while
// working on a repository. It serves the HTML page, the raw SVG, and the
// layout document as JSON. It binds to localhost by default and performs no
// outbound network access of its own.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	railerrors "github.com/mlehnert/railgraph/pkg/errors"
	"github.com/mlehnert/railgraph/pkg/gitsource"
	"github.com/mlehnert/railgraph/pkg/observability"
	"github.com/mlehnert/railgraph/pkg/pipeline"
)

// shutdownTimeout bounds how long graceful shutdown may take.
const shutdownTimeout = 5 * time.Second

// Server serves rendered previews for a single repository.
type Server struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	logger *log.Logger
	mux    *chi.Mux
}

// New creates a preview server for the repository configured in opts.
// The options are validated once up front; per-request query parameters
// only toggle cache refresh.
func New(runner *pipeline.Runner, opts pipeline.Options, logger *log.Logger) (*Server, error) {
	if err := railerrors.ValidateRepoPath(opts.RepoPath); err != nil {
		return nil, err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		runner: runner,
		opts:   opts,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Get("/", s.handlePage)
	r.Get("/railway.svg", s.handleSVG)
	r.Get("/layout.json", s.handleJSON)
	r.Get("/healthz", s.handleHealth)
	s.mux = r

	return s, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until the context is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// =============================================================================
// Middleware
// =============================================================================

// observe tags each request with an ID and reports it to the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()[:8]
		w.Header().Set("X-Request-Id", reqID)

		observability.HTTP().OnRequest(req.Context(), req.Method, req.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		duration := time.Since(start)
		observability.HTTP().OnResponse(req.Context(), req.Method, req.URL.Path, ww.Status(), duration)
		s.logger.Debug("request",
			"id", reqID,
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"duration", duration.Round(time.Millisecond))
	})
}

// =============================================================================
// Handlers
// =============================================================================

// handlePage serves the self-contained railway HTML page.
func (s *Server) handlePage(w http.ResponseWriter, req *http.Request) {
	s.serveArtifact(w, req, pipeline.FormatHTML, "text/html; charset=utf-8")
}

// handleSVG serves the raw railway SVG.
func (s *Server) handleSVG(w http.ResponseWriter, req *http.Request) {
	s.serveArtifact(w, req, pipeline.FormatSVG, "image/svg+xml")
}

// handleJSON serves the layout document.
func (s *Server) handleJSON(w http.ResponseWriter, req *http.Request) {
	s.serveArtifact(w, req, pipeline.FormatJSON, "application/json")
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// serveArtifact runs the pipeline for a single format and writes the result.
// The document hash doubles as the ETag so unchanged repositories answer
// conditional requests with 304.
func (s *Server) serveArtifact(w http.ResponseWriter, req *http.Request, format, contentType string) {
	opts := s.opts
	opts.Formats = []string{format}
	opts.Refresh = req.URL.Query().Get("refresh") != ""

	result, err := s.runner.Execute(req.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	etag := `"` + result.DocumentHash + `"`
	if match := req.Header.Get("If-None-Match"); match == etag && !opts.Refresh {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, ok := result.Artifacts[format]
	if !ok {
		s.writeError(w, railerrors.New(railerrors.ErrCodeInternal, "no %s artifact produced", format))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

// writeError maps pipeline failures to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, gitsource.ErrNotARepository) {
		status = http.StatusNotFound
	}
	switch railerrors.GetCode(err) {
	case railerrors.ErrCodeInvalidRepo, railerrors.ErrCodeInvalidInput, railerrors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	case railerrors.ErrCodeRepoNotFound, railerrors.ErrCodeNotFound:
		status = http.StatusNotFound
	}

	s.logger.Error("request failed", "err", err)
	http.Error(w, railerrors.UserMessage(err), status)
}
