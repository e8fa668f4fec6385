package action

import (
	"fmt"
	"net/http"

	"github.com/tkingovr/filtertools/filter"
)

// Actions is an ordered list of actions sharing one lifecycle. It is the
// base of the Pre and Post filters and can be embedded by other filters
// that execute actions.
type Actions struct {
	actions []Action
}

// NewActions creates an Actions list. A nil action is rejected.
func NewActions(actions ...Action) (*Actions, error) {
	for i, a := range actions {
		if a == nil {
			return nil, fmt.Errorf("action %d: %w", i, ErrMissingAction)
		}
	}
	return &Actions{actions: append([]Action(nil), actions...)}, nil
}

// Len returns the number of actions.
func (a *Actions) Len() int { return len(a.actions) }

// Init initializes the actions in order. If one fails, the actions
// initialized before it are destroyed and its error is returned.
func (a *Actions) Init(cfg filter.Config) error {
	return filter.InitAll(cfg, a.actions)
}

// ExecuteAll executes the actions in order and stops at the first error.
func (a *Actions) ExecuteAll(w http.ResponseWriter, r *http.Request) error {
	for _, act := range a.actions {
		if err := act.Execute(w, r); err != nil {
			return err
		}
	}
	return nil
}

// Destroy destroys every action, even after a failure, and returns the
// first error.
func (a *Actions) Destroy() error {
	return filter.DestroyAll(a.actions)
}
