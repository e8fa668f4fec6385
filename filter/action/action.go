// Package action runs side effects around the filter chain.
//
// An Action does something with the request and/or the response (set a
// header, assign a request id, record an audit entry) but, unlike a
// filter, has no say in whether the chain continues. NewPre runs actions
// before the chain and NewPost after it. Execute builds an action that
// picks one of two actions by a predicate.
package action

import (
	"errors"
	"net/http"

	"github.com/tkingovr/filtertools/filter"
)

// ErrMissingAction is returned when a required action is nil.
var ErrMissingAction = errors.New("the action is missing")

// Action is a side effect executed by a filter before or after the chain.
type Action interface {
	filter.Lifecycle
	Execute(w http.ResponseWriter, r *http.Request) error
}

// Func adapts a function to an Action without lifecycle.
type Func func(w http.ResponseWriter, r *http.Request) error

func (f Func) Init(filter.Config) error { return nil }
func (f Func) Destroy() error           { return nil }

func (f Func) Execute(w http.ResponseWriter, r *http.Request) error { return f(w, r) }
