package predicate

import (
	"bytes"
	"io"
	"math"
	"net/http"
	"regexp"
	"strings"

	"github.com/tkingovr/filtertools/filter"
)

// DefaultMaxBodyScan bounds how much of a request body the scanner reads.
const DefaultMaxBodyScan = 64 << 10

// SecretPattern defines a named regex pattern for detecting secrets.
type SecretPattern struct {
	Name  string
	Regex *regexp.Regexp
}

// DefaultSecretPatterns returns the built-in set of secret detection patterns.
func DefaultSecretPatterns() []SecretPattern {
	return []SecretPattern{
		{Name: "aws_access_key", Regex: regexp.MustCompile(`(?i)AKIA[0-9A-Z]{16}`)},
		{Name: "github_token", Regex: regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,255}`)},
		{Name: "github_pat_fine", Regex: regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,255}`)},
		{Name: "generic_api_key", Regex: regexp.MustCompile(`(?i)(?:api[_-]?key|apikey|api_secret)['":\s]*[=:]\s*['"]?([A-Za-z0-9\-_]{20,60})['"]?`)},
		{Name: "private_key", Regex: regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`)},
		{Name: "slack_token", Regex: regexp.MustCompile(`xox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*`)},
		{Name: "stripe_key", Regex: regexp.MustCompile(`(?:sk|pk)_(?:live|test)_[A-Za-z0-9]{20,100}`)},
		{Name: "google_api_key", Regex: regexp.MustCompile(`AIza[A-Za-z0-9\-_]{35}`)},
	}
}

// SecretScanner matches requests that carry something that looks like a
// secret in the query string, a header value or the body. It uses regex
// patterns and Shannon entropy of quoted tokens.
//
// Authorization and Cookie headers are skipped; they carry credentials
// by design.
type SecretScanner struct {
	patterns         []SecretPattern
	entropyThreshold float64
	minTokenLength   int
	maxBody          int64
}

// SecretScannerOption configures the SecretScanner.
type SecretScannerOption func(*SecretScanner)

// WithPatterns sets custom secret patterns (replaces defaults).
func WithPatterns(patterns []SecretPattern) SecretScannerOption {
	return func(s *SecretScanner) {
		s.patterns = patterns
	}
}

// WithEntropyThreshold sets the Shannon entropy threshold for high-entropy string detection.
// Default is 4.5 (a random 32-char hex string has ~4.0 entropy).
func WithEntropyThreshold(threshold float64) SecretScannerOption {
	return func(s *SecretScanner) {
		s.entropyThreshold = threshold
	}
}

// WithMaxBodyScan sets how many body bytes are scanned. Zero disables body scanning.
func WithMaxBodyScan(n int64) SecretScannerOption {
	return func(s *SecretScanner) {
		s.maxBody = n
	}
}

// NewSecretScanner creates a new secret scanner predicate.
func NewSecretScanner(opts ...SecretScannerOption) *SecretScanner {
	s := &SecretScanner{
		patterns:         DefaultSecretPatterns(),
		entropyThreshold: 4.5,
		minTokenLength:   20,
		maxBody:          DefaultMaxBodyScan,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SecretScanner) Test(req filter.Request) bool {
	r, ok := req.(*http.Request)
	if !ok || r == nil {
		return false
	}
	_, found := s.Scan(r)
	return found
}

// Scan returns the name of the first pattern found in r. High-entropy
// tokens are reported as "high_entropy". The body, if read, is restored.
func (s *SecretScanner) Scan(r *http.Request) (string, bool) {
	if name, ok := s.scanText(r.URL.RawQuery, false); ok {
		return name, true
	}
	for key, values := range r.Header {
		if key == "Authorization" || key == "Cookie" {
			continue
		}
		for _, v := range values {
			if name, ok := s.scanText(v, false); ok {
				return name, true
			}
		}
	}
	if body := s.peekBody(r); len(body) > 0 {
		if name, ok := s.scanText(string(body), true); ok {
			return name, true
		}
	}
	return "", false
}

func (s *SecretScanner) scanText(text string, tokens bool) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, p := range s.patterns {
		if p.Regex.MatchString(text) {
			return p.Name, true
		}
	}
	if tokens {
		if _, found := s.findHighEntropyToken(text); found {
			return "high_entropy", true
		}
	}
	return "", false
}

// peekBody reads up to maxBody bytes and puts them back in front of the
// rest of the body.
func (s *SecretScanner) peekBody(r *http.Request) []byte {
	if s.maxBody <= 0 || r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	buf, err := io.ReadAll(io.LimitReader(r.Body, s.maxBody))
	r.Body = readCloser{
		Reader: io.MultiReader(bytes.NewReader(buf), r.Body),
		Closer: r.Body,
	}
	if err != nil {
		return nil
	}
	return buf
}

type readCloser struct {
	io.Reader
	io.Closer
}

// findHighEntropyToken splits text into tokens and checks each for high entropy.
func (s *SecretScanner) findHighEntropyToken(text string) (string, bool) {
	for _, token := range extractStringTokens(text) {
		if len(token) >= s.minTokenLength && shannonEntropy(token) >= s.entropyThreshold {
			return token, true
		}
	}
	return "", false
}

// extractStringTokens extracts quoted string values from text.
func extractStringTokens(text string) []string {
	var tokens []string
	inQuote := false
	var current strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] == '"' {
			if inQuote {
				if t := current.String(); t != "" {
					tokens = append(tokens, t)
				}
				current.Reset()
			}
			inQuote = !inQuote
			continue
		}
		if text[i] == '\\' && i+1 < len(text) {
			i++ // skip escaped char
			if inQuote {
				current.WriteByte(text[i])
			}
			continue
		}
		if inQuote {
			current.WriteByte(text[i])
		}
	}
	return tokens
}

// shannonEntropy calculates Shannon entropy of a string in bits per character.
func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}

	freq := make(map[rune]float64)
	for _, c := range s {
		freq[c]++
	}

	length := float64(len([]rune(s)))
	entropy := 0.0
	for _, count := range freq {
		p := count / length
		if p > 0 {
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}
