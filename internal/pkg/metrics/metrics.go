package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 进程内的 Prometheus 指标
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	entitlements    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notemeet_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notemeet_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	entitlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notemeet_entitlement_resolutions_total",
		Help: "Entitlement resolutions by outcome.",
	}, []string{"outcome"})
	registry.MustRegister(requests, duration, entitlements)

	return &Metrics{
		registry:        registry,
		requestsTotal:   requests,
		requestDuration: duration,
		entitlements:    entitlements,
	}
}

// Handler /metrics 端点
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Middleware 按路由模板记录请求数和耗时
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// ObserveEntitlement 记录一次权益解析结果，outcome 取 ok / empty / error
func (m *Metrics) ObserveEntitlement(outcome string) {
	if m == nil {
		return
	}
	m.entitlements.WithLabelValues(outcome).Inc()
}
