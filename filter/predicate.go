package filter

// Predicate decides whether a request matches a condition.
// Test must not have side effects.
type Predicate interface {
	Test(req Request) bool
}

// PredicateFunc adapts a function to a Predicate.
type PredicateFunc func(req Request) bool

func (f PredicateFunc) Test(req Request) bool { return f(req) }

// Matcher is a general purpose matcher, as found in assertion and
// routing libraries. Matching turns it into a Predicate.
type Matcher interface {
	Matches(actual any) bool
}

// Matching returns a Predicate that tests requests with m.
func Matching(m Matcher) Predicate {
	if m == nil {
		return nil
	}
	return matcherPredicate{m}
}

type matcherPredicate struct{ m Matcher }

func (p matcherPredicate) Test(req Request) bool { return p.m.Matches(req) }

// Not negates p. Not(nil) is nil.
func Not(p Predicate) Predicate {
	if p == nil {
		return nil
	}
	return PredicateFunc(func(req Request) bool { return !p.Test(req) })
}
