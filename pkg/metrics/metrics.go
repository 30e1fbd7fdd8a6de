package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

const namespace = "control_tower"

var _ contractx.Recorder = (*Service)(nil)

// Service owns a private registry so tests and multiple instances never
// collide on the global one.
type Service struct {
	registry *prom.Registry

	orchestrations *prom.HistogramVec
	degraded       *prom.CounterVec
	httpRequests   *prom.CounterVec
	httpDuration   *prom.HistogramVec
}

func New() *Service {
	registry := prom.NewRegistry()

	s := &Service{
		registry: registry,
		orchestrations: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "orchestration_duration_seconds",
			Help:      "Duration of query orchestrations by terminal path.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"path"}),
		degraded: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_total",
			Help:      "Best-effort stages that fell back instead of failing the request.",
		}, []string{"stage"}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prom.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.orchestrations,
		s.degraded,
		s.httpRequests,
		s.httpDuration,
	)
	return s
}

func (s *Service) ObservePath(path contractx.Path, seconds float64) {
	s.orchestrations.WithLabelValues(string(path)).Observe(seconds)
}

func (s *Service) ObserveDegraded(stage string) {
	s.degraded.WithLabelValues(stage).Inc()
}

// GinMiddleware records request counts and latency per matched route.
func (s *Service) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		s.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
