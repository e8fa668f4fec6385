// Package predicate builds request predicates from pipeline configuration.
package predicate

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/tkingovr/filtertools/filter"
	"github.com/tkingovr/filtertools/internal/config"
)

// FromMatch compiles the conditions of m into a single predicate over
// *http.Request. Requests of any other type never match. An empty Match
// matches every HTTP request.
func FromMatch(m *config.Match, logger *slog.Logger) (filter.Predicate, error) {
	if m == nil {
		return nil, filter.ErrMissingPredicate
	}

	rm, err := compileRequestMatch(m)
	if err != nil {
		return nil, err
	}
	preds := []filter.Predicate{rm}

	if m.Secrets {
		preds = append(preds, NewSecretScanner())
	}

	switch {
	case m.Rego != "":
		rp, err := NewRego(m.Rego, logger)
		if err != nil {
			return nil, err
		}
		preds = append(preds, rp)
	case m.RegoFile != "":
		rp, err := NewRegoFile(m.RegoFile, logger)
		if err != nil {
			return nil, err
		}
		preds = append(preds, rp)
	}

	p := All(preds...)
	if m.Negate {
		p = filter.Not(p)
	}
	return p, nil
}

// requestMatch holds the declarative conditions of a Match.
type requestMatch struct {
	method     string
	path       string
	pathPrefix string
	pathRegex  *regexp.Regexp
	host       string
	headers    map[string]valueMatcher
	query      map[string]string
}

type valueMatcher struct {
	exact string
	regex *regexp.Regexp
}

func compileRequestMatch(m *config.Match) (*requestMatch, error) {
	rm := &requestMatch{
		method:     strings.ToUpper(m.Method),
		path:       m.Path,
		pathPrefix: m.PathPrefix,
		host:       m.Host,
		query:      m.Query,
	}
	if m.PathRegex != "" {
		re, err := regexp.Compile(m.PathRegex)
		if err != nil {
			return nil, fmt.Errorf("path_regex: %w", err)
		}
		rm.pathRegex = re
	}
	if len(m.Headers) > 0 {
		rm.headers = make(map[string]valueMatcher, len(m.Headers))
		for name, vm := range m.Headers {
			v := valueMatcher{exact: vm.Exact}
			if vm.Regex != "" {
				re, err := regexp.Compile(vm.Regex)
				if err != nil {
					return nil, fmt.Errorf("header %q: %w", name, err)
				}
				v.regex = re
			}
			rm.headers[http.CanonicalHeaderKey(name)] = v
		}
	}
	return rm, nil
}

func (m *requestMatch) Test(req filter.Request) bool {
	r, ok := req.(*http.Request)
	if !ok || r == nil {
		return false
	}

	if m.method != "" && r.Method != m.method {
		return false
	}
	if m.path != "" && r.URL.Path != m.path {
		return false
	}
	if m.pathPrefix != "" && !strings.HasPrefix(r.URL.Path, m.pathPrefix) {
		return false
	}
	if m.pathRegex != nil && !m.pathRegex.MatchString(r.URL.Path) {
		return false
	}
	if m.host != "" && !strings.EqualFold(hostOnly(r.Host), m.host) {
		return false
	}

	for name, vm := range m.headers {
		values, ok := r.Header[name]
		if !ok {
			return false
		}
		if !vm.matchAny(values) {
			return false
		}
	}

	if len(m.query) > 0 {
		q := r.URL.Query()
		for key, want := range m.query {
			if !q.Has(key) || q.Get(key) != want {
				return false
			}
		}
	}

	return true
}

func (v valueMatcher) matchAny(values []string) bool {
	for _, val := range values {
		if v.exact != "" {
			if val == v.exact {
				return true
			}
			continue
		}
		if v.regex != nil {
			if v.regex.MatchString(val) {
				return true
			}
			continue
		}
		// presence is enough
		return true
	}
	return false
}

// hostOnly strips the port and, for IPv6, the brackets from host.
func hostOnly(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
}

// All matches when every predicate matches. All() matches everything.
func All(preds ...filter.Predicate) filter.Predicate {
	if len(preds) == 1 {
		return preds[0]
	}
	return filter.PredicateFunc(func(req filter.Request) bool {
		for _, p := range preds {
			if !p.Test(req) {
				return false
			}
		}
		return true
	})
}

// Any matches when at least one predicate matches. Any() matches nothing.
func Any(preds ...filter.Predicate) filter.Predicate {
	return filter.PredicateFunc(func(req filter.Request) bool {
		for _, p := range preds {
			if p.Test(req) {
				return true
			}
		}
		return false
	})
}
