package metrics

import (
	"net/http"
	"time"
)

// statusRecorder captures the response status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware returns an HTTP middleware that records metrics for each
// request. The operation label identifies the logical endpoint.
func Middleware(operation string, collector *Collector, exporter *PrometheusExporter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()

		collector.RecordRequest(operation)
		if exporter != nil {
			exporter.RecordRequest(operation)
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		duration := time.Since(start).Seconds()
		collector.RecordDuration(operation, duration)
		if exporter != nil {
			exporter.RecordDuration(operation, duration)
		}

		if rec.status >= http.StatusBadRequest {
			collector.RecordError(operation)
			if exporter != nil {
				exporter.RecordError(operation)
			}
		}
	})
}
