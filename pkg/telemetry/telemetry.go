package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoaportal",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hoaportal",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoaportal",
		Name:      "logins_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})

	TokenRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoaportal",
		Name:      "token_refreshes_total",
		Help:      "Token refresh attempts by outcome.",
	}, []string{"outcome"})

	MessagesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hoaportal",
		Name:      "messages_sent_total",
		Help:      "Messages accepted for delivery.",
	})

	PaymentsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hoaportal",
		Name:      "payments_recorded_total",
		Help:      "Payments recorded against accounts.",
	})

	SessionsPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hoaportal",
		Name:      "sessions_purged_total",
		Help:      "Sessions removed by the retention job.",
	})
)

// Handler serves the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per route. The route
// label uses the mux template, not the raw path, to keep cardinality
// bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(srw.status)).Inc()
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
