package action

import (
	"fmt"
	"net/http"

	"github.com/tkingovr/filtertools/filter"
)

// Switch executes one of two actions depending on a predicate. Build it
// with Execute:
//
//	sw, err := action.Execute(doSomething).
//		When(isFrench).
//		OtherwiseExecute(doSomethingElse)
type Switch struct {
	onMatch   Action
	otherwise Action
	predicate filter.Predicate
}

// SwitchBuilder holds the action for matching requests.
type SwitchBuilder struct {
	onMatch Action
	err     error
}

// PredicateBuilder holds the action for matching requests and the predicate.
type PredicateBuilder struct {
	onMatch   Action
	predicate filter.Predicate
	err       error
}

// Execute starts a Switch with the action for requests that match. A nil
// action is recorded here and reported by OtherwiseExecute.
func Execute(a Action) *SwitchBuilder {
	b := &SwitchBuilder{onMatch: a}
	if a == nil {
		b.err = fmt.Errorf("execute: %w", ErrMissingAction)
	}
	return b
}

// When sets the predicate that picks the action. A nil predicate is
// recorded here and reported by OtherwiseExecute, unless an earlier stage
// already failed.
func (b *SwitchBuilder) When(p filter.Predicate) *PredicateBuilder {
	pb := &PredicateBuilder{onMatch: b.onMatch, predicate: p, err: b.err}
	if pb.err == nil && p == nil {
		pb.err = fmt.Errorf("when: %w", filter.ErrMissingPredicate)
	}
	return pb
}

// OtherwiseExecute sets the action for requests that do not match and
// creates the Switch. It reports the first missing argument of the chain
// of calls.
func (b *PredicateBuilder) OtherwiseExecute(a Action) (*Switch, error) {
	if b.err != nil {
		return nil, b.err
	}
	if a == nil {
		return nil, fmt.Errorf("otherwise execute: %w", ErrMissingAction)
	}
	return &Switch{onMatch: b.onMatch, otherwise: a, predicate: b.predicate}, nil
}

// Init initializes both actions, regardless of which one will run.
func (s *Switch) Init(cfg filter.Config) error {
	return filter.InitAll(cfg, []Action{s.onMatch, s.otherwise})
}

func (s *Switch) Execute(w http.ResponseWriter, r *http.Request) error {
	if s.predicate.Test(r) {
		return s.onMatch.Execute(w, r)
	}
	return s.otherwise.Execute(w, r)
}

// Destroy destroys both actions and returns the first error.
func (s *Switch) Destroy() error {
	return filter.DestroyAll([]Action{s.onMatch, s.otherwise})
}
