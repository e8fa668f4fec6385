package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/tkingovr/filtertools/filter"
	"github.com/tkingovr/filtertools/filter/httpfilter"
)

// Proxy is an HTTP reverse proxy that runs every request through a
// filter before forwarding it to the target.
type Proxy struct {
	target       *url.URL
	reverseProxy *httputil.ReverseProxy
	handler      http.Handler
	logger       *slog.Logger
}

// NewProxy creates a new proxy targeting the given URL. The proxy does not
// own f; the caller initializes and destroys it.
func NewProxy(target string, f filter.Filter, logger *slog.Logger) (*Proxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid target URL %q: scheme and host are required", target)
	}
	if f == nil {
		return nil, filter.ErrMissingFilter
	}

	p := &Proxy{
		target: u,
		logger: logger,
	}

	p.reverseProxy = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.errorHandler,
	}
	p.handler = httpfilter.Handler(f, p.reverseProxy, httpfilter.WithLogger(logger))

	return p, nil
}

// ServeHTTP handles incoming HTTP requests.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(p.target)
	pr.SetXForwarded()
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	if resp.Header.Get("Content-Type") == "text/event-stream" {
		// SSE responses are streamed, log at connection level
		p.logger.Debug("SSE response stream opened", "status", resp.StatusCode)
	}
	return nil
}

func (p *Proxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error("proxy error", "error", err, "url", r.URL.String())
	http.Error(w, "proxy error: "+err.Error(), http.StatusBadGateway)
}

// Handler returns an http.Handler for use with http.Server.
func (p *Proxy) Handler() http.Handler {
	return p
}

// ListenAndServe starts the proxy server. When ctx is done the server
// stops accepting requests and waits up to shutdownTimeout for the active
// ones.
func (p *Proxy) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: p,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			p.logger.Warn("proxy shutdown", "error", err)
			srv.Close()
		}
	}()

	p.logger.Info("starting HTTP proxy",
		"listen", addr,
		"target", p.target.String(),
	)

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
