package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tkingovr/filtertools/api"
	"github.com/tkingovr/filtertools/filter"
	"github.com/tkingovr/filtertools/filter/httpfilter"
	"github.com/tkingovr/filtertools/internal/audit"
)

// auditFilter writes an audit record for every request once the rest of
// the chain has finished. Param: request_id_header (default X-Request-Id).
type auditFilter struct {
	httpfilter.Base
	store           audit.Store
	logger          *slog.Logger
	requestIDHeader string
}

var errNoAuditStore = errors.New("audit filter requires an audit store")

func newAuditFilter(env Env) (filter.Filter, error) {
	if env.Audit == nil {
		return nil, errNoAuditStore
	}
	return httpfilter.Adapt(&auditFilter{store: env.Audit, logger: env.Logger}), nil
}

func (f *auditFilter) Init(cfg filter.Config) error {
	f.requestIDHeader = DefaultRequestIDHeader
	if h, ok := cfg.Param("request_id_header"); ok && h != "" {
		f.requestIDHeader = http.CanonicalHeaderKey(h)
	}
	return nil
}

func (f *auditFilter) DoHTTPFilter(w http.ResponseWriter, r *http.Request, next filter.Chain) error {
	r, v := withVerdict(r)
	start := time.Now()
	res := captureChain(w, r, next)

	record := &api.AuditRecord{
		RequestID: r.Header.Get(f.requestIDHeader),
		Timestamp: start,
		Filter:    v.blocker(),
		Method:    r.Method,
		Path:      r.URL.Path,
		Host:      r.Host,
		Remote:    r.RemoteAddr,
		Status:    res.Code,
		Bytes:     res.Written,
		Outcome:   api.OutcomeForwarded,
		Duration:  res.Duration,
	}
	switch {
	case res.Err != nil:
		record.Outcome = api.OutcomeFailed
		record.Error = res.Err.Error()
	case record.Filter != "":
		record.Outcome = api.OutcomeBlocked
	}

	if werr := f.store.Write(context.WithoutCancel(r.Context()), record); werr != nil {
		f.logger.Error("failed to write audit record", "error", werr, "path", r.URL.Path)
	}
	return res.Err
}
