package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	"github.com/tanpawarit/logistics-control-tower/pkg/warehouse"
)

type Orchestrator interface {
	Submit(ctx context.Context, req contractx.QueryRequest) (contractx.OrchestrationResult, error)
}

type Catalog interface {
	DescribeTables(ctx context.Context, tables []string, withSamples bool) (string, error)
	Sample(ctx context.Context, n int) (warehouse.SampleSet, error)
}

// Metrics is the optional instrumentation hook.
type Metrics interface {
	GinMiddleware() gin.HandlerFunc
	Handler() http.Handler
}

// ReadinessFunc reports per-dependency health; a nil error means healthy.
type ReadinessFunc func() map[string]error

type Server struct {
	cfg       Config
	orch      Orchestrator
	catalog   Catalog
	metrics   Metrics
	readiness ReadinessFunc
	engine    *gin.Engine
}

type Option func(*Server)

func WithMetrics(m Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func WithReadiness(fn ReadinessFunc) Option {
	return func(s *Server) { s.readiness = fn }
}

func New(cfg Config, orch Orchestrator, catalog Catalog, opts ...Option) (*Server, error) {
	if orch == nil {
		return nil, errors.New("orchestrator is required")
	}
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}

	s := &Server{cfg: cfg, orch: orch, catalog: catalog}
	for _, opt := range opts {
		opt(s)
	}

	engine, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), RequestContext(), AccessLog(), CORS(s.cfg.AllowedOrigins))
	if s.metrics != nil {
		r.Use(s.metrics.GinMiddleware())
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)

	api := r.Group("/")
	if s.cfg.RateLimit != "" {
		limit, err := RateLimit(s.cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("rate limit %q: %w", s.cfg.RateLimit, err)
		}
		api.Use(limit)
	}
	api.Use(Timeout(s.cfg.RequestTimeout))

	api.POST("/query", s.query)
	api.GET("/sample", s.sample)
	api.GET("/schema", s.schema)
	return r, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	grace := s.cfg.ShutdownGrace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	log.Info().Msg("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
