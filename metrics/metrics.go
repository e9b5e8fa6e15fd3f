package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freshharvest",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"path", "status"})

	RequestLatencyMS = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "freshharvest",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"path"})

	CheckoutOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freshharvest",
		Name:      "checkout_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(HTTPRequests, RequestLatencyMS, CheckoutOutcomes)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one finished HTTP request.
func ObserveRequest(path string, status int, durationMS float64) {
	HTTPRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
	RequestLatencyMS.WithLabelValues(path).Observe(durationMS)
}
