package utils

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AngelCh415/wa-optimizer/internal/models"
)

// Metrics holds the service's operational collectors. It satisfies the
// pipeline's observer so decisions and upstream calls are counted too.
type Metrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	decisions *prometheus.CounterVec
	upstream  *prometheus.CounterVec
	narrative *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waopt_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "waopt_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waopt_decisions_total",
			Help: "Decisions emitted by action.",
		}, []string{"action"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waopt_upstream_requests_total",
			Help: "Graph API calls by outcome.",
		}, []string{"outcome"}),
		narrative: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waopt_narrative_total",
			Help: "Narrative attempts by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.requests, m.latency, m.decisions, m.upstream, m.narrative)
	return m
}

// Instrument labels by chi route pattern so ids in paths do not explode
// cardinality. Unmatched requests are labelled "unmatched".
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(statusOf(ww))).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) ObserveDecision(a models.Action) { m.decisions.WithLabelValues(string(a)).Inc() }
func (m *Metrics) ObserveNarrative(outcome string) { m.narrative.WithLabelValues(outcome).Inc() }
func (m *Metrics) ObserveUpstream(outcome string) { m.upstream.WithLabelValues(outcome).Inc() }
