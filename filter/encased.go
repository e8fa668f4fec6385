package filter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Encased runs a sequence of filters as a single filter.
//
// Each filter receives a chain that continues with the next filter of the
// sequence; the last one receives the chain Encased itself was called
// with.
type Encased struct {
	filters []Filter
	logger  *slog.Logger
}

// Encase composes filters into one filter. With no filters the result is
// NoOp and with one filter it is that filter.
func Encase(filters ...Filter) (Filter, error) {
	if err := checkFilters(filters); err != nil {
		return nil, err
	}
	switch len(filters) {
	case 0:
		return NoOp, nil
	case 1:
		return filters[0], nil
	}
	return newEncased(nil, filters), nil
}

// NewEncased composes filters into one filter that traces each step on
// logger at debug level. logger may be nil.
func NewEncased(logger *slog.Logger, filters ...Filter) (*Encased, error) {
	if err := checkFilters(filters); err != nil {
		return nil, err
	}
	return newEncased(logger, filters), nil
}

func newEncased(logger *slog.Logger, filters []Filter) *Encased {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Encased{
		filters: append([]Filter(nil), filters...),
		logger:  logger,
	}
}

func checkFilters(filters []Filter) error {
	for i, f := range filters {
		if f == nil {
			return fmt.Errorf("filter %d: %w", i, ErrMissingFilter)
		}
	}
	return nil
}

// Len returns the number of encased filters.
func (e *Encased) Len() int { return len(e.filters) }

// Init initializes the filters in order. When a filter fails, the ones
// already initialized are destroyed and its error is returned.
func (e *Encased) Init(cfg Config) error {
	for i, f := range e.filters {
		if err := f.Init(cfg); err != nil {
			e.logger.Debug("filter init failed, rolling back",
				"index", i,
				"filter", fmt.Sprintf("%T", f),
				"error", err,
			)
			e.destroy(e.filters[:i])
			return err
		}
	}
	return nil
}

func (e *Encased) DoFilter(req Request, resp Response, next Chain) error {
	if len(e.filters) == 0 {
		return next.DoFilter(req, resp)
	}
	chain := next
	for i := len(e.filters) - 1; i > 0; i-- {
		chain = e.step(i, chain)
	}
	return e.step(0, chain).DoFilter(req, resp)
}

// step is WithChain for a filter already known to be non-nil, with tracing.
func (e *Encased) step(i int, next Chain) Chain {
	f := e.filters[i]
	if !e.logger.Enabled(context.Background(), slog.LevelDebug) {
		return &filterWithChain{filter: f, next: next}
	}
	return ChainFunc(func(req Request, resp Response) error {
		err := f.DoFilter(req, resp, next)
		e.logger.Debug("filter executed",
			"index", i,
			"filter", fmt.Sprintf("%T", f),
			"error", err,
		)
		return err
	})
}

// Destroy destroys every filter, even after a failure, and returns the
// first error.
func (e *Encased) Destroy() error {
	return e.destroy(e.filters)
}

func (e *Encased) destroy(filters []Filter) error {
	return destroyEach(filters, func(i int, err error) {
		e.logger.Warn("filter destroy failed",
			"index", i,
			"filter", fmt.Sprintf("%T", filters[i]),
			"error", err,
		)
	})
}
