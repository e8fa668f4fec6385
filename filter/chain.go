package filter

// WithChain merges a filter and a chain into a new chain. Calling
// DoFilter on the result is calling f.DoFilter with next as the chain.
func WithChain(f Filter, next Chain) (Chain, error) {
	if f == nil {
		return nil, ErrMissingFilter
	}
	if next == nil {
		return nil, ErrMissingChain
	}
	return &filterWithChain{filter: f, next: next}, nil
}

type filterWithChain struct {
	filter Filter
	next   Chain
}

func (c *filterWithChain) DoFilter(req Request, resp Response) error {
	return c.filter.DoFilter(req, resp, c.next)
}
