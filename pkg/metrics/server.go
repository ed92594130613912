package metrics

import (
	"strconv"
	"time"
)

// Server holds the metrics recorded for mock HTTP traffic.
type Server struct {
	// Requests counts answered requests. Labels: method, status.
	Requests  *Counter
	// Duration tracks request latency in seconds. Labels: method.
	Duration  *Histogram
	// Warnings counts mock-warning headers sent.
	Warnings  *Counter
	// Documents counts documents loaded at startup.
	Documents *Counter
}

// NewServer registers the server metrics in r.
func NewServer(r *Registry) *Server {
	return &Server{
		Requests: r.NewCounter(
			"oasmock_requests_total",
			"Total number of mock requests",
			"method", "status",
		),
		Duration: r.NewHistogram(
			"oasmock_request_duration_seconds",
			"Duration of mock requests in seconds",
			DefaultBuckets,
			"method",
		),
		Warnings: r.NewCounter(
			"oasmock_warnings_total",
			"Total number of mock-warning headers sent",
		),
		Documents: r.NewCounter(
			"oasmock_documents_loaded_total",
			"Number of OpenAPI documents loaded",
		),
	}
}

// Observe records one answered request. A nil Server records nothing.
func (s *Server) Observe(method string, status, warnings int, elapsed time.Duration) {
	if s == nil {
		return
	}
	_ = s.Requests.Inc(method, strconv.Itoa(status))
	_ = s.Duration.Observe(elapsed.Seconds(), method)
	if warnings > 0 {
		_ = s.Warnings.Add(float64(warnings))
	}
}
