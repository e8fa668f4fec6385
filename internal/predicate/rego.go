package predicate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/storage/inmem"
	"github.com/open-policy-agent/opa/v1/topdown"

	"github.com/tkingovr/filtertools/filter"
)

// RegoQuery is the rule a Rego predicate evaluates.
const RegoQuery = "data.filtertools.match"

// Rego is a request predicate backed by an embedded OPA/Rego policy.
//
// The policy must be in package filtertools and define a boolean match:
//
//	package filtertools
//
//	match if {
//		input.method == "POST"
//		startswith(input.path, "/admin")
//	}
//
// Input available to the policy:
//
//	input.method: string
//	input.path: string
//	input.host: string
//	input.remote_addr: string
//	input.headers: object (lower-case name -> first value)
//	input.query: object (name -> first value)
//
// The request does not match when match is undefined, not true, or the
// evaluation fails.
type Rego struct {
	query  rego.PreparedEvalQuery
	logger *slog.Logger
}

// NewRego compiles a Rego predicate from source.
func NewRego(source string, logger *slog.Logger) (*Rego, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if _, err := ast.ParseModuleWithOpts("predicate.rego", source, ast.ParserOptions{RegoVersion: ast.RegoV1}); err != nil {
		return nil, fmt.Errorf("parsing Rego predicate: %w", err)
	}

	r := rego.New(
		rego.Query(RegoQuery),
		rego.Module("predicate.rego", source),
		rego.Store(inmem.New()),
	)

	query, err := r.PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("preparing Rego query: %w", err)
	}

	return &Rego{query: query, logger: logger}, nil
}

// NewRegoFile compiles a Rego predicate from a .rego file.
func NewRegoFile(path string, logger *slog.Logger) (*Rego, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading Rego predicate file: %w", err)
	}
	return NewRego(string(data), logger)
}

func (p *Rego) Test(req filter.Request) bool {
	r, ok := req.(*http.Request)
	if !ok || r == nil {
		return false
	}

	rs, err := p.query.Eval(r.Context(), rego.EvalInput(regoInput(r)))
	if err != nil {
		if topdown.IsError(err) {
			p.logger.Warn("Rego predicate evaluation error", "error", err, "path", r.URL.Path)
		} else {
			p.logger.Error("Rego predicate evaluation failed", "error", err, "path", r.URL.Path)
		}
		return false
	}

	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false
	}
	match, ok := rs[0].Expressions[0].Value.(bool)
	return ok && match
}

func regoInput(r *http.Request) map[string]any {
	headers := make(map[string]any, len(r.Header))
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[0]
		}
	}
	query := make(map[string]any)
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}
	return map[string]any{
		"method":      r.Method,
		"path":        r.URL.Path,
		"host":        r.Host,
		"remote_addr": r.RemoteAddr,
		"headers":     headers,
		"query":       query,
	}
}
