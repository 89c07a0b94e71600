package echo

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

// requestMetrics holds performance counters for the gateway surface.
// Thread-safe via atomics and a mutex for the per-endpoint maps.
type requestMetrics struct {
	TotalRequests  int64            `json:"total_requests"`
	ActiveRequests int64            `json:"active_requests"`
	TotalErrors    int64            `json:"total_errors"`
	TotalLatencyMs int64            `json:"total_latency_ms"`
	MaxLatencyMs   int64            `json:"max_latency_ms"`
	StartTime      time.Time        `json:"start_time"`
	EndpointCounts map[string]int64 `json:"endpoint_counts"`
	StatusCodes    map[int]int64    `json:"status_codes"`
	mu             sync.Mutex
}

var metrics *requestMetrics
var metricsOnce sync.Once

func getMetrics() *requestMetrics {
	metricsOnce.Do(func() {
		metrics = &requestMetrics{
			StartTime:      time.Now(),
			EndpointCounts: make(map[string]int64),
			StatusCodes:    make(map[int]int64),
		}
	})
	return metrics
}

// metricsMiddleware tracks request count, latency, active connections, and
// error rates.
func metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m := getMetrics()

			atomic.AddInt64(&m.ActiveRequests, 1)
			start := time.Now()

			err := next(c)

			latencyMs := time.Since(start).Milliseconds()
			atomic.AddInt64(&m.ActiveRequests, -1)
			atomic.AddInt64(&m.TotalRequests, 1)
			atomic.AddInt64(&m.TotalLatencyMs, latencyMs)

			for {
				current := atomic.LoadInt64(&m.MaxLatencyMs)
				if latencyMs <= current {
					break
				}
				if atomic.CompareAndSwapInt64(&m.MaxLatencyMs, current, latencyMs) {
					break
				}
			}

			statusCode := c.Response().Status
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			endpoint := fmt.Sprintf("%s %s", c.Request().Method, path)

			m.mu.Lock()
			m.EndpointCounts[endpoint]++
			m.StatusCodes[statusCode]++
			if statusCode >= 400 {
				atomic.AddInt64(&m.TotalErrors, 1)
			}
			m.mu.Unlock()

			return err
		}
	}
}

func handleMetrics(c echo.Context) error {
	m := getMetrics()
	m.mu.Lock()
	defer m.mu.Unlock()
	return c.JSON(http.StatusOK, m)
}
