package predicate

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

const adminPolicy = `package filtertools

match if {
	input.method == "POST"
	startswith(input.path, "/admin")
}
`

func TestRego_Match(t *testing.T) {
	p, err := NewRego(adminPolicy, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !p.Test(newRequest(http.MethodPost, "/admin/users", nil)) {
		t.Error("expected POST /admin/users to match")
	}
	if p.Test(newRequest(http.MethodGet, "/admin/users", nil)) {
		t.Error("expected GET /admin/users not to match")
	}
	if p.Test(newRequest(http.MethodPost, "/public", nil)) {
		t.Error("expected POST /public not to match")
	}
}

func TestRego_HeadersAndQuery(t *testing.T) {
	policy := `package filtertools

match if {
	input.headers["x-tenant"] == "acme"
	input.query.debug == "1"
}
`
	p, err := NewRego(policy, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !p.Test(newRequest(http.MethodGet, "/?debug=1", map[string]string{"X-Tenant": "acme"})) {
		t.Error("expected match on lower-cased header and query")
	}
	if p.Test(newRequest(http.MethodGet, "/?debug=1", nil)) {
		t.Error("expected no match without header")
	}
}

func TestRego_UndefinedRuleDoesNotMatch(t *testing.T) {
	p, err := NewRego("package filtertools\n\nother if true\n", nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Test(newRequest(http.MethodGet, "/", nil)) {
		t.Error("expected undefined match rule not to match")
	}
}

func TestRego_NonHTTPRequest(t *testing.T) {
	p, err := NewRego(adminPolicy, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Test(42) {
		t.Error("expected a non-HTTP request not to match")
	}
}

func TestRego_InvalidSource(t *testing.T) {
	if _, err := NewRego("package filtertools\n\nmatch if {", nil); err == nil {
		t.Error("expected parse error")
	}
}

func TestNewRegoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "admin.rego")
	if err := os.WriteFile(path, []byte(adminPolicy), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := NewRegoFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Test(newRequest(http.MethodPost, "/admin", nil)) {
		t.Error("expected POST /admin to match")
	}

	if _, err := NewRegoFile(filepath.Join(dir, "missing.rego"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}
