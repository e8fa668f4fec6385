package action

import (
	"net/http"

	"github.com/tkingovr/filtertools/filter"
	"github.com/tkingovr/filtertools/filter/httpfilter"
)

// Pre executes its actions before invoking the chain. An action error
// stops the request before it reaches the chain.
type Pre struct {
	*Actions
}

// NewPre creates a filter that executes actions, in the given order,
// before the chain.
func NewPre(actions ...Action) (filter.Filter, error) {
	list, err := NewActions(actions...)
	if err != nil {
		return nil, err
	}
	return httpfilter.Adapt(&Pre{Actions: list}), nil
}

func (p *Pre) DoHTTPFilter(w http.ResponseWriter, r *http.Request, next filter.Chain) error {
	if err := p.ExecuteAll(w, r); err != nil {
		return err
	}
	return next.DoFilter(r, w)
}

// Post executes its actions after the chain returned successfully.
type Post struct {
	*Actions
}

// NewPost creates a filter that executes actions, in the given order,
// after the chain.
func NewPost(actions ...Action) (filter.Filter, error) {
	list, err := NewActions(actions...)
	if err != nil {
		return nil, err
	}
	return httpfilter.Adapt(&Post{Actions: list}), nil
}

func (p *Post) DoHTTPFilter(w http.ResponseWriter, r *http.Request, next filter.Chain) error {
	if err := next.DoFilter(r, w); err != nil {
		return err
	}
	return p.ExecuteAll(w, r)
}
