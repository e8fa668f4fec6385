// Package httpfilter binds filters to net/http.
//
// Adapt and Func turn filters written against *http.Request and
// http.ResponseWriter into filter.Filter values; they reject any other
// request or response type with NotAnHTTPRequestError or
// NotAnHTTPResponseError. Handler and Middleware run a filter.Filter as an
// http.Handler in front of a downstream handler.
package httpfilter

import (
	"net/http"

	"github.com/tkingovr/filtertools/filter"
)

// HTTPFilter is a filter that works on net/http types only.
type HTTPFilter interface {
	filter.Lifecycle
	DoHTTPFilter(w http.ResponseWriter, r *http.Request, next filter.Chain) error
}

// Base has no-op Init and Destroy methods. Embed it in HTTP filters
// that have nothing to set up.
type Base struct{}

func (Base) Init(filter.Config) error { return nil }
func (Base) Destroy() error           { return nil }

// Adapt returns a filter.Filter that checks the request and response types
// and calls f.
func Adapt(f HTTPFilter) filter.Filter {
	if f == nil {
		return nil
	}
	return &adapter{f: f}
}

// Func returns a filter.Filter without lifecycle for fn.
func Func(fn func(w http.ResponseWriter, r *http.Request, next filter.Chain) error) filter.Filter {
	if fn == nil {
		return nil
	}
	return &adapter{f: funcFilter(fn)}
}

type funcFilter func(w http.ResponseWriter, r *http.Request, next filter.Chain) error

func (funcFilter) Init(filter.Config) error { return nil }
func (funcFilter) Destroy() error           { return nil }
func (fn funcFilter) DoHTTPFilter(w http.ResponseWriter, r *http.Request, next filter.Chain) error {
	return fn(w, r, next)
}

type adapter struct {
	f HTTPFilter
}

func (a *adapter) Init(cfg filter.Config) error { return a.f.Init(cfg) }
func (a *adapter) Destroy() error               { return a.f.Destroy() }

func (a *adapter) DoFilter(req filter.Request, resp filter.Response, next filter.Chain) error {
	w, r, err := Cast(req, resp)
	if err != nil {
		return err
	}
	return a.f.DoHTTPFilter(w, r, next)
}

// Cast converts an opaque request/response pair to net/http types.
func Cast(req filter.Request, resp filter.Response) (http.ResponseWriter, *http.Request, error) {
	r, ok := req.(*http.Request)
	if !ok || r == nil {
		return nil, nil, &NotAnHTTPRequestError{Request: req}
	}
	w, ok := resp.(http.ResponseWriter)
	if !ok || w == nil {
		return nil, nil, &NotAnHTTPResponseError{Response: resp}
	}
	return w, r, nil
}
