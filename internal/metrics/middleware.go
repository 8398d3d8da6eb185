package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests that matched no route, so unknown paths
// cannot grow the label set.
const unmatchedRoute = "unmatched"

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartsearch",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds by route and index",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "route", "index"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartsearch",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total API requests by route, index and status",
		},
		[]string{"method", "route", "index", "status"},
	)

	httpResponseBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartsearch",
			Subsystem: "http",
			Name:      "response_bytes_total",
			Help:      "Bytes written in API responses by route",
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpResponseBytes)
}

// Middleware records API requests by chi route pattern and index. Scrapes of
// /metrics are not recorded.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route, index := routeLabels(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			httpRequestDuration.WithLabelValues(r.Method, route, index).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, route, index, strconv.Itoa(status)).Inc()
			httpResponseBytes.WithLabelValues(route).Add(float64(ww.BytesWritten()))
		})
	}
}

// routeLabels reads the matched pattern and {index} once routing is done.
func routeLabels(r *http.Request) (route, index string) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute, ""
	}
	route = rctx.RoutePattern()
	if route == "" {
		route = unmatchedRoute
	}
	return route, rctx.URLParam("index")
}
