package pipeline

import (
	"context"
	"net/http"
	"sync"
)

type verdictKey struct{}

// verdict records which filter, if any, answered a request without
// calling the chain. Filters downstream of an audit or metrics filter
// share the holder through the request context.
type verdict struct {
	mu        sync.Mutex
	blockedBy string
}

func (v *verdict) block(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.blockedBy == "" {
		v.blockedBy = name
	}
}

func (v *verdict) blocker() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.blockedBy
}

// withVerdict returns r carrying a verdict holder, reusing the one an
// upstream filter installed.
func withVerdict(r *http.Request) (*http.Request, *verdict) {
	if v, ok := r.Context().Value(verdictKey{}).(*verdict); ok {
		return r, v
	}
	v := &verdict{}
	return r.WithContext(context.WithValue(r.Context(), verdictKey{}, v)), v
}

// markBlocked records that the named filter answered r itself.
func markBlocked(r *http.Request, name string) {
	if v, ok := r.Context().Value(verdictKey{}).(*verdict); ok {
		v.block(name)
	}
}
