package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Unlabelled: assignment and team ids are unbounded and would blow up
	// the series count.
	MarksSubmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modmark_marks_submitted_total",
			Help: "Total number of marks submitted",
		},
	)

	InvitesResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modmark_invites_resolved_total",
			Help: "Total number of invites accepted or denied",
		},
		[]string{"outcome"},
	)

	EmailSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modmark_email_sends_total",
			Help: "Total number of outbound email attempts",
		},
		[]string{"kind", "result"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modmark_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware observes request duration labelled by the chi route pattern,
// so path parameters do not explode the label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		HTTPRequestDuration.WithLabelValues(
			path,
			r.Method,
			strconv.Itoa(rec.status),
		).Observe(time.Since(start).Seconds())
	})
}
