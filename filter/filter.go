// Package filter composes request filters.
//
// A Filter wraps a downstream Chain: it may act before or after calling
// next, or decide not to call it at all. The types in this package chain
// several filters into one (Encase), skip a filter unless a Predicate
// matches (NewOptional) and turn a filter plus a chain into a new chain
// (WithChain). Requests and responses are opaque here; the httpfilter
// package binds them to net/http.
package filter

// Request is the opaque request handed in by the host.
type Request = any

// Response is the opaque response handed in by the host.
type Response = any

// Chain continues processing of a request.
type Chain interface {
	DoFilter(req Request, resp Response) error
}

// ChainFunc adapts a function to a Chain.
type ChainFunc func(req Request, resp Response) error

func (f ChainFunc) DoFilter(req Request, resp Response) error { return f(req, resp) }

// Lifecycle is the part of the host contract shared by filters and actions.
// Init is called once before the first request, Destroy once at shutdown.
type Lifecycle interface {
	Init(cfg Config) error
	Destroy() error
}

// Filter is a single step in the request processing pipeline.
type Filter interface {
	Lifecycle

	// DoFilter processes the request. It continues the pipeline by
	// calling next; returning without calling next ends it. A returned
	// error propagates to the host.
	DoFilter(req Request, resp Response, next Chain) error
}
