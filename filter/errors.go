package filter

import "errors"

// Errors returned by constructors when a required collaborator is nil.
var (
	ErrMissingFilter     = errors.New("the filter is missing")
	ErrMissingChain      = errors.New("the base filter chain is missing")
	ErrMissingPredicate  = errors.New("the predicate is missing")
	ErrMissingBaseFilter = errors.New("the base filter is missing")
)
