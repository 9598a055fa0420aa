package middleware

import (
	"net/http"
	"sync/atomic"
	"time"
)

// MetricsCollector counts requests by outcome.
type MetricsCollector struct {
	requests     atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
	inFlight     atomic.Int64
	totalNanos   atomic.Int64
}

type MetricsSnapshot struct {
	RequestCount     int64   `json:"request_count"`
	ClientErrorCount int64   `json:"client_error_count"`
	ServerErrorCount int64   `json:"server_error_count"`
	InFlight         int64   `json:"in_flight"`
	AvgLatencyMS     float64 `json:"avg_latency_ms"`
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.inFlight.Add(1)
		start := time.Now()

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		mc.inFlight.Add(-1)
		mc.requests.Add(1)
		mc.totalNanos.Add(int64(time.Since(start)))
		switch {
		case rw.statusCode >= 500:
			mc.serverErrors.Add(1)
		case rw.statusCode >= 400:
			mc.clientErrors.Add(1)
		}
	})
}

func (mc *MetricsCollector) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		RequestCount:     mc.requests.Load(),
		ClientErrorCount: mc.clientErrors.Load(),
		ServerErrorCount: mc.serverErrors.Load(),
		InFlight:         mc.inFlight.Load(),
	}
	if s.RequestCount > 0 {
		s.AvgLatencyMS = float64(mc.totalNanos.Load()) / float64(s.RequestCount) / float64(time.Millisecond)
	}
	return s
}
