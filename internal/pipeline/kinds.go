package pipeline

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/tkingovr/filtertools/filter"
	"github.com/tkingovr/filtertools/filter/action"
	"github.com/tkingovr/filtertools/filter/httpfilter"
)

// Built-in filter kinds.
const (
	KindNoOp      = "noop"
	KindRequestID = "request_id"
	KindSetHeader = "set_header"
	KindBlock     = "block"
	KindRateLimit = "rate_limit"
	KindSwitch    = "switch"
	KindLog       = "log"
	KindMetrics   = "metrics"
	KindAudit     = "audit"
)

// DefaultRequestIDHeader is the header request_id filters set.
const DefaultRequestIDHeader = "X-Request-Id"

func builtinKinds() map[string]Factory {
	return map[string]Factory{
		KindNoOp:      func(Env) (filter.Filter, error) { return filter.NoOp, nil },
		KindRequestID: newRequestIDFilter,
		KindSetHeader: newSetHeaderFilter,
		KindBlock:     newBlockFilter,
		KindRateLimit: newRateLimitFilter,
		KindSwitch:    newSwitchFilter,
		KindLog:       newLogFilter,
		KindMetrics:   newMetricsFilter,
		KindAudit:     newAuditFilter,
	}
}

// Kinds returns the names of the built-in filter kinds.
func Kinds() []string {
	return []string{
		KindNoOp, KindRequestID, KindSetHeader, KindBlock, KindRateLimit,
		KindSwitch, KindLog, KindMetrics, KindAudit,
	}
}

// requestIDAction makes sure the request carries an ID and echoes it on
// the response. Param: header (default X-Request-Id).
type requestIDAction struct {
	header string
}

func newRequestIDFilter(Env) (filter.Filter, error) {
	return action.NewPre(&requestIDAction{})
}

func (a *requestIDAction) Init(cfg filter.Config) error {
	a.header = DefaultRequestIDHeader
	if h, ok := cfg.Param("header"); ok && h != "" {
		a.header = http.CanonicalHeaderKey(h)
	}
	return nil
}

func (a *requestIDAction) Execute(w http.ResponseWriter, r *http.Request) error {
	id := r.Header.Get(a.header)
	if id == "" {
		id = uuid.NewString()
		r.Header.Set(a.header, id)
	}
	w.Header().Set(a.header, id)
	return nil
}

func (a *requestIDAction) Destroy() error { return nil }

// headerAction sets request and response headers from the params
// <prefix>request.<Name> and <prefix>response.<Name>.
type headerAction struct {
	prefix   string
	request  map[string]string
	response map[string]string
}

func newHeaderAction(prefix string) *headerAction {
	return &headerAction{prefix: prefix}
}

func (a *headerAction) Init(cfg filter.Config) error {
	a.request = make(map[string]string)
	a.response = make(map[string]string)
	for _, name := range cfg.ParamNames() {
		rest, ok := strings.CutPrefix(name, a.prefix)
		if !ok {
			continue
		}
		value, _ := cfg.Param(name)
		switch {
		case strings.HasPrefix(rest, "request."):
			a.request[http.CanonicalHeaderKey(strings.TrimPrefix(rest, "request."))] = value
		case strings.HasPrefix(rest, "response."):
			a.response[http.CanonicalHeaderKey(strings.TrimPrefix(rest, "response."))] = value
		default:
			return fmt.Errorf("param %q: expected %srequest.<Name> or %sresponse.<Name>", name, a.prefix, a.prefix)
		}
	}
	return nil
}

func (a *headerAction) Execute(w http.ResponseWriter, r *http.Request) error {
	for k, v := range a.request {
		r.Header.Set(k, v)
	}
	for k, v := range a.response {
		w.Header().Set(k, v)
	}
	return nil
}

func (a *headerAction) Destroy() error { return nil }

func newSetHeaderFilter(Env) (filter.Filter, error) {
	return action.NewPre(newHeaderAction(""))
}

// blockFilter answers every request itself. Params: status (default
// 403), body (default the status text).
type blockFilter struct {
	httpfilter.Base
	name   string
	status int
	body   string
	logger *slog.Logger
}

func newBlockFilter(env Env) (filter.Filter, error) {
	return httpfilter.Adapt(&blockFilter{logger: env.Logger}), nil
}

func (f *blockFilter) Init(cfg filter.Config) error {
	f.name = cfg.FilterName()
	f.status = http.StatusForbidden
	if s, ok := cfg.Param("status"); ok {
		code, err := strconv.Atoi(s)
		if err != nil || code < 100 || code > 999 {
			return fmt.Errorf("invalid status %q", s)
		}
		f.status = code
	}
	f.body = http.StatusText(f.status)
	if b, ok := cfg.Param("body"); ok {
		f.body = b
	}
	return nil
}

func (f *blockFilter) DoHTTPFilter(w http.ResponseWriter, r *http.Request, _ filter.Chain) error {
	markBlocked(r, f.name)
	f.logger.Info("request blocked",
		"method", r.Method,
		"path", r.URL.Path,
		"status", f.status,
	)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(f.status)
	_, err := fmt.Fprintln(w, f.body)
	return err
}

// switchFilter picks between two header actions before calling the
// chain. Params: header, value (optional; without it the header only has
// to be present), then.request.<Name>, then.response.<Name>,
// otherwise.request.<Name>, otherwise.response.<Name>.
type switchFilter struct {
	filter.Filter
}

func newSwitchFilter(Env) (filter.Filter, error) {
	return &switchFilter{}, nil
}

func (f *switchFilter) Init(cfg filter.Config) error {
	header, ok := cfg.Param("header")
	if !ok || header == "" {
		return fmt.Errorf("missing param %q", "header")
	}
	want, hasValue := cfg.Param("value")
	pred := filter.PredicateFunc(func(req filter.Request) bool {
		r, ok := req.(*http.Request)
		if !ok {
			return false
		}
		values, present := r.Header[http.CanonicalHeaderKey(header)]
		if !present {
			return false
		}
		return !hasValue || (len(values) > 0 && values[0] == want)
	})

	sw, err := action.Execute(newHeaderAction("then.")).
		When(pred).
		OtherwiseExecute(newHeaderAction("otherwise."))
	if err != nil {
		return err
	}
	pre, err := action.NewPre(sw)
	if err != nil {
		return err
	}
	if err := pre.Init(cfg); err != nil {
		return err
	}
	f.Filter = pre
	return nil
}

func (f *switchFilter) Destroy() error {
	if f.Filter == nil {
		return nil
	}
	return f.Filter.Destroy()
}

// logAction logs every request the chain served without error.
type logAction struct {
	logger *slog.Logger
	level  slog.Level
}

func newLogFilter(env Env) (filter.Filter, error) {
	return action.NewPost(&logAction{logger: env.Logger})
}

func (a *logAction) Init(cfg filter.Config) error {
	a.level = slog.LevelInfo
	if l, ok := cfg.Param("level"); ok {
		if err := a.level.UnmarshalText([]byte(l)); err != nil {
			return fmt.Errorf("invalid level %q", l)
		}
	}
	return nil
}

func (a *logAction) Execute(w http.ResponseWriter, r *http.Request) error {
	a.logger.Log(r.Context(), a.level, "request served",
		"method", r.Method,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
	)
	return nil
}

func (a *logAction) Destroy() error { return nil }
