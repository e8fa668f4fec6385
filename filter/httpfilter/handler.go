package httpfilter

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/tkingovr/filtertools/filter"
)

// ErrorHandler handles an error returned by the filter pipeline.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures Handler and Middleware.
type Option func(*handler)

// WithLogger sets the logger used by the default error handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithErrorHandler replaces the default error handler, which logs the
// error and replies 500 unless the response was already started.
func WithErrorHandler(eh ErrorHandler) Option {
	return func(h *handler) {
		if eh != nil {
			h.onError = eh
		}
	}
}

type handler struct {
	filter  filter.Filter
	final   http.Handler
	logger  *slog.Logger
	onError ErrorHandler
}

// Handler returns an http.Handler that runs f for every request. The chain
// passed to f serves the request with final.
//
// Handler does not call Init or Destroy; the owner of f does.
func Handler(f filter.Filter, final http.Handler, opts ...Option) http.Handler {
	h := &handler{
		filter: f,
		final:  final,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.onError == nil {
		h.onError = h.defaultError
	}
	return h
}

// Middleware is Handler in the func(http.Handler) http.Handler form used
// by middleware chains.
func Middleware(f filter.Filter, opts ...Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return Handler(f, next, opts...)
	}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tw := &trackingWriter{ResponseWriter: w}
	if err := h.filter.DoFilter(r, tw, filter.ChainFunc(h.serveFinal)); err != nil {
		if tw.written {
			h.logger.Error("filter error after response started",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
			)
			return
		}
		h.onError(tw, r, err)
	}
}

func (h *handler) serveFinal(req filter.Request, resp filter.Response) error {
	w, r, err := Cast(req, resp)
	if err != nil {
		return err
	}
	h.final.ServeHTTP(w, r)
	return nil
}

func (h *handler) defaultError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("filter error",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
	)
	http.Error(w, "internal filter error", http.StatusInternalServerError)
}

// trackingWriter remembers whether the response was started.
type trackingWriter struct {
	http.ResponseWriter
	written bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.written = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *trackingWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		w.written = true
		f.Flush()
	}
}
