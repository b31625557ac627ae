package middleware

import (
	"context"
	"time"

	awspkg "storefront-service/pkg/aws"

	"github.com/gin-gonic/gin"
)

// HTTPMetrics is the part of the CloudWatch client the request middleware needs.
type HTTPMetrics interface {
	IsEnabled() bool
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error
}

// unmeteredPaths are health checks that would drown real traffic in the request counts.
var unmeteredPaths = map[string]bool{"/health": true}

// MetricsMiddleware records request count, latency and error counts per route template.
func MetricsMiddleware(metrics HTTPMetrics, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil || !metrics.IsEnabled() || unmeteredPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		// FullPath keeps dimension cardinality bounded (":order_id" rather than every id).
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		dims := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    route,
			"Status":  statusClass(status),
		}

		go recordRequest(metrics, dims, status, elapsed)
	}
}

func recordRequest(metrics HTTPMetrics, dims map[string]string, status int, elapsed time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = metrics.RecordCount(ctx, awspkg.MetricHTTPRequests, dims)
	_ = metrics.RecordLatency(ctx, awspkg.MetricHTTPLatency, elapsed, dims)
	if status < 400 {
		return
	}
	_ = metrics.RecordCount(ctx, awspkg.MetricHTTPErrors, dims)
	if status >= 500 {
		_ = metrics.RecordCount(ctx, awspkg.MetricHTTP5xx, dims)
	} else {
		_ = metrics.RecordCount(ctx, awspkg.MetricHTTP4xx, dims)
	}
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return string(rune('0'+status/100)) + "xx"
}
