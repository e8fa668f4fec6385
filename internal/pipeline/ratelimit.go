package pipeline

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tkingovr/filtertools/filter"
	"github.com/tkingovr/filtertools/filter/httpfilter"
)

// Rate limit keys.
const (
	RateKeyGlobal     = "global"
	RateKeyRemoteAddr = "remote_addr"
	RateKeyHeader     = "header:"
)

// slidingWindow tracks request timestamps for rate limiting. A dead
// window has been removed from the map and must not record requests.
type slidingWindow struct {
	mu         sync.Mutex
	timestamps []time.Time
	dead       bool
}

// rateLimitFilter enforces a request limit per key using a sliding window.
// Params: max (required), window (default 1m), key (global, remote_addr
// or header:<Name>; default global). Requests over the limit get 429.
type rateLimitFilter struct {
	httpfilter.Base
	name   string
	max    int
	window time.Duration
	keyFn  func(*http.Request) string
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	windows   map[string]*slidingWindow
	lastSweep time.Time
}

func newRateLimitFilter(env Env) (filter.Filter, error) {
	return httpfilter.Adapt(&rateLimitFilter{logger: env.Logger, now: time.Now}), nil
}

func (f *rateLimitFilter) Init(cfg filter.Config) error {
	f.name = cfg.FilterName()

	s, ok := cfg.Param("max")
	if !ok {
		return fmt.Errorf("missing param %q", "max")
	}
	limit, err := strconv.Atoi(s)
	if err != nil || limit < 1 {
		return fmt.Errorf("invalid max %q", s)
	}
	f.max = limit

	f.window = time.Minute
	if s, ok := cfg.Param("window"); ok {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid window %q", s)
		}
		f.window = d
	}

	key, _ := cfg.Param("key")
	switch {
	case key == "" || key == RateKeyGlobal:
		f.keyFn = func(*http.Request) string { return "_global" }
	case key == RateKeyRemoteAddr:
		f.keyFn = remoteHost
	case strings.HasPrefix(key, RateKeyHeader) && len(key) > len(RateKeyHeader):
		name := http.CanonicalHeaderKey(strings.TrimPrefix(key, RateKeyHeader))
		f.keyFn = func(r *http.Request) string { return r.Header.Get(name) }
	default:
		return fmt.Errorf("invalid key %q", key)
	}

	f.windows = make(map[string]*slidingWindow)
	return nil
}

func (f *rateLimitFilter) DoHTTPFilter(w http.ResponseWriter, r *http.Request, next filter.Chain) error {
	key := f.keyFn(r)
	if f.allow(key, f.now()) {
		return next.DoFilter(r, w)
	}

	markBlocked(r, f.name)
	f.logger.Warn("rate limit exceeded",
		"key", key,
		"max", f.max,
		"window", f.window,
		"path", r.URL.Path,
	)
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(f.window.Seconds()))))
	http.Error(w, fmt.Sprintf("rate limit exceeded: max %d per %s", f.max, f.window), http.StatusTooManyRequests)
	return nil
}

// allow checks if a request is allowed under the limit and records it.
func (f *rateLimitFilter) allow(key string, now time.Time) bool {
	for {
		w := f.lookup(key, now)
		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}
		ok := w.admit(now, f.window, f.max)
		w.mu.Unlock()
		return ok
	}
}

// lookup returns the window for key. Once per window length it also
// drops the windows of keys that have not been seen since.
func (f *rateLimitFilter) lookup(key string, now time.Time) *slidingWindow {
	f.mu.Lock()
	defer f.mu.Unlock()

	if now.Sub(f.lastSweep) >= f.window {
		f.sweep(now.Add(-f.window))
		f.lastSweep = now
	}
	w, ok := f.windows[key]
	if !ok {
		w = &slidingWindow{}
		f.windows[key] = w
	}
	return w
}

// sweep removes the windows without a request after cutoff. f.mu must be
// held.
func (f *rateLimitFilter) sweep(cutoff time.Time) {
	for key, w := range f.windows {
		w.mu.Lock()
		if n := len(w.timestamps); n == 0 || !w.timestamps[n-1].After(cutoff) {
			w.dead = true
			delete(f.windows, key)
		}
		w.mu.Unlock()
	}
}

// admit records a request at now unless limit requests already happened
// within the window. w.mu must be held.
func (w *slidingWindow) admit(now time.Time, window time.Duration, limit int) bool {
	cutoff := now.Add(-window)
	valid := 0
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			w.timestamps[valid] = ts
			valid++
		}
	}
	w.timestamps = w.timestamps[:valid]

	if len(w.timestamps) >= limit {
		return false
	}

	w.timestamps = append(w.timestamps, now)
	return true
}

func (f *rateLimitFilter) Destroy() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = make(map[string]*slidingWindow)
	f.lastSweep = time.Time{}
	return nil
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
