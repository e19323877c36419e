// Package httpapi serves resolver queries over HTTP.
//
// Three GET endpoints answer the resolver operations against one universe:
//
//	GET /resolve?subject=StringList&param=java.util.List.E
//	GET /field?subject=ClassWithMap&name=map[&param=Map.V]
//	GET /method?subject=Pair&name=getKey[&param=...]
//
// Successful responses are {"result": {...}}; failures are
// {"error": {"code", "message", "details"}} with the status derived from
// the error code.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gorilla/schema"

	"github.com/broady/typarg"
	"github.com/broady/typarg/internal/query"
	"github.com/broady/typarg/model"
)

var schemaDecoder = schema.NewDecoder()

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// Server routes query endpoints to the resolver.
type Server struct {
	universe           *model.Universe
	logger             *slog.Logger
	maskInternalErrors bool
	middlewares        []func(http.Handler) http.Handler
	shutdownTimeout    time.Duration
}

// New returns a server answering queries against u, which must be sealed.
func New(u *model.Universe) *Server {
	return &Server{
		universe:        u,
		shutdownTimeout: 5 * time.Second,
	}
}

// WithLogger sets the logger for request and resolver logging.
func (s *Server) WithLogger(logger *slog.Logger) *Server {
	s.logger = logger
	return s
}

// WithMaskInternalErrors replaces the message of internal errors with a
// generic one.
func (s *Server) WithMaskInternalErrors() *Server {
	s.maskInternalErrors = true
	return s
}

// WithMiddleware adds an HTTP middleware. The first middleware added is
// the outermost.
func (s *Server) WithMiddleware(mw func(http.Handler) http.Handler) *Server {
	s.middlewares = append(s.middlewares, mw)
	return s
}

func (s *Server) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

// Handler returns the server as an http.Handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	var h http.Handler = http.HandlerFunc(s.serveHTTP)
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		h = s.middlewares[i](h)
	}
	return h
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log().Info("listening", slog.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

var routes = map[string]query.Op{
	"resolve": query.OpResolve,
	"field":   query.OpField,
	"method":  query.OpMethod,
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log().Error("PANIC recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			s.handleError(w, typarg.Errorf(typarg.CodeInternal, "internal server error (panic): %v", rec))
		}
	}()

	path := strings.Trim(r.URL.Path, "/")
	if path == "healthz" {
		s.writeResult(w, map[string]int{"classes": s.universe.Len()})
		return
	}
	op, ok := routes[path]
	if !ok {
		s.handleError(w, typarg.NewError(typarg.CodeNotFound, "route not found").WithDetail("path", r.URL.Path))
		return
	}
	if r.Method != http.MethodGet {
		s.handleError(w, typarg.Errorf(typarg.CodeMethodNotAllowed, "method %s not allowed, expected GET", r.Method))
		return
	}

	var req query.Request
	if err := schemaDecoder.Decode(&req, r.URL.Query()); err != nil {
		s.handleError(w, typarg.Errorf(typarg.CodeInvalidArgument, "failed to decode query: %v", err))
		return
	}
	req.Op = op

	res, err := query.Run(s.universe, req, s.log())
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.writeResult(w, res)
}

func (s *Server) handleError(w http.ResponseWriter, err error) {
	e := typarg.FromError(err)
	if s.maskInternalErrors && e.Code == typarg.CodeInternal {
		e = typarg.NewError(typarg.CodeInternal, "internal server error")
	}
	writeError(w, e, s.log())
}

func (s *Server) writeResult(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	if err := encodeResponse(w, result); err != nil {
		// Response may be partially written.
		s.log().Error("failed to encode response", slog.Any("error", err))
	}
}
