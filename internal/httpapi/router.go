// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package httpapi

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/auramatch/auramatch/internal/observability"
)

// APIPrefix is the path prefix reserved for JSON endpoints.
const APIPrefix = "/api/"

type routerOptions struct {
	staticDir   string
	corsOrigins []string
}

// RouterOption customizes NewRouter.
type RouterOption func(*routerOptions)

// WithStaticDir serves the files in dir for every path outside /api/.
func WithStaticDir(dir string) RouterOption {
	return func(o *routerOptions) { o.staticDir = dir }
}

// WithCORSOrigins allows cross-origin API calls from origins. "*" allows any
// origin but then browsers will not send the session cookie.
func WithCORSOrigins(origins []string) RouterOption {
	return func(o *routerOptions) { o.corsOrigins = origins }
}

// NewRouter registers the API routes and middleware. metrics may be nil.
func NewRouter(h *Handler, logger *slog.Logger, metrics *observability.Metrics, opts ...RouterOption) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := mux.NewRouter()

	// Full paths on the root router: a subrouter turns method mismatches into 404s.
	r.HandleFunc("/api/register", h.Register).Methods(http.MethodPost).Name("register")
	r.HandleFunc("/api/login", h.Login).Methods(http.MethodPost).Name("login")
	r.HandleFunc("/api/logout", h.Logout).Methods(http.MethodPost).Name("logout")
	r.HandleFunc("/api/me", h.Me).Methods(http.MethodGet).Name("me")
	r.HandleFunc("/api/health", h.Health).Methods(http.MethodGet).Name("health")

	if o.staticDir != "" {
		// The matcher func runs before the path matcher so an /api/ method
		// mismatch survives to MethodNotAllowedHandler.
		r.MatcherFunc(isFrontendPath).
			PathPrefix("/").
			Handler(http.FileServer(http.Dir(o.staticDir))).
			Name("static")
	}

	mw := []mux.MiddlewareFunc{recoverPanic(logger), instrument(logger, metrics)}
	r.Use(mw...)

	// mux skips middleware for these handlers.
	r.NotFoundHandler = chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, logger, http.StatusNotFound, "not found")
	}), mw)
	r.MethodNotAllowedHandler = chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, logger, http.StatusMethodNotAllowed, "method not allowed")
	}), mw)

	if len(o.corsOrigins) == 0 {
		return r
	}
	return handlers.CORS(corsOptions(o.corsOrigins)...)(r)
}

func isFrontendPath(r *http.Request, _ *mux.RouteMatch) bool {
	return r.URL.Path != strings.TrimSuffix(APIPrefix, "/") && !strings.HasPrefix(r.URL.Path, APIPrefix)
}

func corsOptions(origins []string) []handlers.CORSOption {
	opts := []handlers.CORSOption{
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	}
	if !slices.Contains(origins, "*") {
		opts = append(opts, handlers.AllowCredentials())
	}
	return opts
}

func chain(h http.Handler, mw []mux.MiddlewareFunc) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func recoverPanic(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.ErrorContext(r.Context(), "panic serving request",
						"path", r.URL.Path,
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					writeError(w, logger, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// instrument logs each request and records route metrics. The route label is
// the matched path template, or "unmatched", so unbounded paths never become
// label values.
func instrument(logger *slog.Logger, metrics *observability.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := "unmatched"
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			elapsed := time.Since(start)

			if metrics != nil {
				metrics.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
				metrics.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
			}

			logger.DebugContext(r.Context(), "http request",
				"method", r.Method,
				"route", route,
				"status", rec.status,
				"duration", elapsed,
			)
		})
	}
}
