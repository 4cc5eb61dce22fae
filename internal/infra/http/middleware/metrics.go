package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	leadsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_ingested_total",
			Help: "Total number of leads ingested, by tier and whether a new row was created",
		},
		[]string{"tier", "created"},
	)

	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_notifications_total",
			Help: "Total number of lead notification attempts",
		},
		[]string{"result"},
	)

	followUps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followups_total",
			Help: "Total number of follow-up emails, by stage and result",
		},
		[]string{"stage", "result"},
	)

	parseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "generator_parse_failures_total",
			Help: "Total number of generator replies that could not be parsed",
		},
	)

	effectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "side_effect_failures_total",
			Help: "Total number of failed best-effort side effects",
		},
		[]string{"effect"},
	)
)

// Metrics records request counts and latency. Paths are labelled with the matched chi
// route pattern so /api/leads/{id} stays one series.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func RecordLeadIngested(tier string, created bool) {
	leadsIngested.WithLabelValues(tier, strconv.FormatBool(created)).Inc()
}

func RecordNotification(ok bool) {
	notificationsSent.WithLabelValues(result(ok)).Inc()
}

// RecordFollowUp counts a follow-up at a stage: "scheduled" when published, "sent" when
// the email went out.
func RecordFollowUp(stage string, ok bool) {
	followUps.WithLabelValues(stage, result(ok)).Inc()
}

func RecordParseFailure() {
	parseFailures.Inc()
}

func RecordEffectFailure(effect string) {
	effectFailures.WithLabelValues(effect).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
