package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// 未命中路由统一归到一个标签，防止扫描器把基数撑爆
const unmatchedRoute = "unmatched"

var (
	httpReqTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ecosol_http_requests_total", Help: "HTTP requests by route, method and status"},
		[]string{"route", "method", "status"},
	)
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecosol_http_request_duration_seconds",
			Help:    "HTTP latency by route and method",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route", "method"},
	)
	httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ecosol_http_inflight_requests", Help: "Requests currently being served",
	})
)

func init() { prometheus.MustRegister(httpReqTotal, httpLatency, httpInflight) }

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		httpReqTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
