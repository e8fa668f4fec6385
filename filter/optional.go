package filter

// Optional wraps a filter that only runs for requests matching a predicate.
// Other requests go straight to the chain.
//
// Init and Destroy are always passed to the base filter.
type Optional struct {
	predicate Predicate
	base      Filter
}

// NewOptional creates an Optional that runs base when predicate matches.
func NewOptional(predicate Predicate, base Filter) (*Optional, error) {
	if predicate == nil {
		return nil, ErrMissingPredicate
	}
	if base == nil {
		return nil, ErrMissingBaseFilter
	}
	return &Optional{predicate: predicate, base: base}, nil
}

// NewOptionalMatching is NewOptional for a Matcher.
func NewOptionalMatching(m Matcher, base Filter) (*Optional, error) {
	return NewOptional(Matching(m), base)
}

func (o *Optional) Init(cfg Config) error { return o.base.Init(cfg) }

func (o *Optional) DoFilter(req Request, resp Response, next Chain) error {
	if o.predicate.Test(req) {
		return o.base.DoFilter(req, resp, next)
	}
	return next.DoFilter(req, resp)
}

func (o *Optional) Destroy() error { return o.base.Destroy() }
