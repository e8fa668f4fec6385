package pipeline

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tkingovr/filtertools/filter"
	"github.com/tkingovr/filtertools/filter/httpfilter"
)

const (
	metricNamespace = "filtertools"
	metricSubsystem = "filter"
)

// Metrics holds the collectors shared by all metrics filters of a
// pipeline. Every series is labeled with the filter entry name.
type Metrics struct {
	requests *prometheus.CounterVec
	blocked  *prometheus.CounterVec
	written  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: metricSubsystem,
			Name:      "requests_total",
			Help:      "Total number of requests seen by this filter",
		}, []string{"filter", "method", "code"}),
		blocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: metricSubsystem,
			Name:      "blocked_total",
			Help:      "Total number of requests answered by a filter without reaching the downstream handler",
		}, []string{"filter", "blocked_by"}),
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: metricSubsystem,
			Name:      "response_bytes_total",
			Help:      "Total number of response body bytes written downstream of this filter",
		}, []string{"filter"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Subsystem: metricSubsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of the chain downstream of this filter",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, .75, 1, 1.25, 1.5, 2, 2.5, 5, 10},
		}, []string{"filter"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.blocked, m.written, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// metricsFilter measures the rest of the chain.
type metricsFilter struct {
	httpfilter.Base
	name    string
	metrics *Metrics
}

var errNoMetrics = errors.New("metrics filter requires metrics collectors")

func newMetricsFilter(env Env) (filter.Filter, error) {
	if env.Metrics == nil {
		return nil, errNoMetrics
	}
	return httpfilter.Adapt(&metricsFilter{metrics: env.Metrics}), nil
}

func (f *metricsFilter) Init(cfg filter.Config) error {
	f.name = cfg.FilterName()
	return nil
}

func (f *metricsFilter) DoHTTPFilter(w http.ResponseWriter, r *http.Request, next filter.Chain) error {
	r, v := withVerdict(r)
	res := captureChain(w, r, next)

	f.metrics.requests.WithLabelValues(f.name, r.Method, strconv.Itoa(res.Code)).Inc()
	f.metrics.written.WithLabelValues(f.name).Add(float64(res.Written))
	f.metrics.duration.WithLabelValues(f.name).Observe(res.Duration.Seconds())
	if by := v.blocker(); by != "" {
		f.metrics.blocked.WithLabelValues(f.name, by).Inc()
	}
	return res.Err
}
