// Package pipeline builds the composed request filter from the pipeline
// configuration.
package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tkingovr/filtertools/api"
	"github.com/tkingovr/filtertools/filter"
	"github.com/tkingovr/filtertools/internal/audit"
	"github.com/tkingovr/filtertools/internal/config"
	"github.com/tkingovr/filtertools/internal/predicate"
)

// Env carries the shared dependencies handed to filter factories.
type Env struct {
	Logger  *slog.Logger
	Audit   audit.Store
	Metrics *Metrics
}

// Factory creates an uninitialized filter of one kind. The filter reads
// its parameters from the Config passed to Init.
type Factory func(env Env) (filter.Filter, error)

// Option configures New.
type Option func(*options)

type options struct {
	env   Env
	kinds map[string]Factory
}

// WithLogger sets the logger for the pipeline and its filters.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.env.Logger = logger
		}
	}
}

// WithAuditStore sets the store used by audit filters.
func WithAuditStore(store audit.Store) Option {
	return func(o *options) { o.env.Audit = store }
}

// WithMetrics sets the collectors used by metrics filters.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.env.Metrics = m }
}

// WithKind registers an additional filter kind, or replaces a built-in one.
func WithKind(kind string, factory Factory) Option {
	return func(o *options) { o.kinds[kind] = factory }
}

// Pipeline is the composed filter of a pipeline definition.
type Pipeline struct {
	root    *filter.Encased
	entries []*entry
	logger  *slog.Logger
}

type entry struct {
	spec config.FilterSpec
	when filter.Predicate
}

// New builds and initializes the pipeline for specs. Every entry is
// initialized with its own name and params. Call Close to destroy it.
func New(specs []config.FilterSpec, opts ...Option) (*Pipeline, error) {
	o := &options{
		env:   Env{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))},
		kinds: builtinKinds(),
	}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.env.Logger

	p := &Pipeline{logger: logger}
	filters := make([]filter.Filter, 0, len(specs))
	for _, spec := range specs {
		f, e, err := buildEntry(spec, o)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", spec.Name, err)
		}
		filters = append(filters, f)
		p.entries = append(p.entries, e)
	}

	root, err := filter.NewEncased(logger.With("component", "pipeline"), filters...)
	if err != nil {
		return nil, err
	}
	if err := root.Init(filter.EmptyConfig); err != nil {
		return nil, err
	}
	p.root = root

	logger.Info("pipeline ready", "filters", root.Len())
	return p, nil
}

func buildEntry(spec config.FilterSpec, o *options) (filter.Filter, *entry, error) {
	factory, ok := o.kinds[spec.Kind]
	if !ok {
		return nil, nil, fmt.Errorf("unknown kind %q", spec.Kind)
	}
	env := o.env
	env.Logger = o.env.Logger.With("filter", spec.Name)

	f, err := factory(env)
	if err != nil {
		return nil, nil, err
	}

	e := &entry{spec: spec}
	if spec.When != nil {
		pred, err := predicate.FromMatch(spec.When, env.Logger)
		if err != nil {
			return nil, nil, fmt.Errorf("when: %w", err)
		}
		opt, err := filter.NewOptional(pred, f)
		if err != nil {
			return nil, nil, err
		}
		f, e.when = opt, pred
	}

	return &configured{
		Filter: f,
		cfg:    filter.NewMapConfig(spec.Name, spec.Params),
	}, e, nil
}

// configured initializes its filter with the entry's own config instead
// of the one handed down by the pipeline.
type configured struct {
	filter.Filter
	cfg filter.Config
}

func (c *configured) Init(filter.Config) error {
	if err := c.Filter.Init(c.cfg); err != nil {
		return fmt.Errorf("filter %q: %w", c.cfg.FilterName(), err)
	}
	return nil
}

// Filter returns the composed filter.
func (p *Pipeline) Filter() filter.Filter { return p.root }

// Len returns the number of pipeline entries.
func (p *Pipeline) Len() int { return len(p.entries) }

// Check reports, for each entry in order, whether it would run for r.
// Filters are not invoked.
func (p *Pipeline) Check(r *http.Request) []api.CheckResult {
	results := make([]api.CheckResult, 0, len(p.entries))
	for _, e := range p.entries {
		res := api.CheckResult{Filter: e.spec.Name, Kind: e.spec.Kind, Applies: true, Reason: "unconditional"}
		if e.when != nil {
			if e.when.Test(r) {
				res.Reason = "when matched"
			} else {
				res.Applies, res.Reason = false, "when not matched"
			}
		}
		results = append(results, res)
	}
	return results
}

// Close destroys every filter of the pipeline.
func (p *Pipeline) Close() error {
	if err := p.root.Destroy(); err != nil {
		p.logger.Warn("pipeline destroy failed", "error", err)
		return err
	}
	return nil
}

// NewCheckRequest builds the synthetic request for a dry run. Method
// defaults to GET, path to "/" and host to "localhost".
func NewCheckRequest(cr api.CheckRequest) (*http.Request, error) {
	method, path, host := cr.Method, cr.Path, cr.Host
	if method == "" {
		method = http.MethodGet
	}
	if path == "" {
		path = "/"
	}
	if host == "" {
		host = "localhost"
	}
	r, err := http.NewRequest(method, "http://"+host+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("building check request: %w", err)
	}
	for k, v := range cr.Headers {
		r.Header.Set(k, v)
	}
	r.RemoteAddr = "127.0.0.1:0"
	return r, nil
}
