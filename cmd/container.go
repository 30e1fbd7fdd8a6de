package cmd

import (
	"context"

	"github.com/samber/do"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	"github.com/tanpawarit/logistics-control-tower/agent/agents/orchestrator"
	"github.com/tanpawarit/logistics-control-tower/agent/agents/specialist"
	llmx "github.com/tanpawarit/logistics-control-tower/agent/llm"
	configx "github.com/tanpawarit/logistics-control-tower/pkg/config"
	"github.com/tanpawarit/logistics-control-tower/pkg/metrics"
	openrouterx "github.com/tanpawarit/logistics-control-tower/pkg/openrouter"
	"github.com/tanpawarit/logistics-control-tower/pkg/warehouse"
	"github.com/tanpawarit/logistics-control-tower/transport/httpapi"
)

// newContainer registers every service lazily; nothing connects until invoked.
// Services implementing Shutdown/HealthCheck join the injector lifecycle.
func newContainer(ctx context.Context) *do.Injector {
	di := do.New()
	do.ProvideValue(di, ctx)

	do.Provide(di, configProvider[llmx.Config]("OPENROUTER"))
	do.Provide(di, configProvider[warehouse.Config]("DATABASE"))
	do.Provide(di, configProvider[specialist.Options]("AGENT"))
	do.Provide(di, configProvider[orchestrator.Config]("ORCHESTRATOR"))
	do.Provide(di, configProvider[httpapi.Config]("HTTP"))

	do.Provide(di, provideWarehouse)
	do.Provide(di, provideProbe)
	do.Provide(di, func(*do.Injector) (*metrics.Service, error) { return metrics.New(), nil })
	do.Provide(di, provideRegistry)
	do.Provide(di, provideOrchestrator)
	do.Provide(di, provideHTTPServer)
	return di
}

func configProvider[T any](prefix string) do.Provider[*T] {
	return func(*do.Injector) (*T, error) {
		return configx.New[T](prefix)
	}
}

func provideWarehouse(i *do.Injector) (*warehouse.Warehouse, error) {
	ctx := do.MustInvoke[context.Context](i)
	cfg := do.MustInvoke[*warehouse.Config](i)
	return warehouse.New(ctx, *cfg)
}

func provideProbe(i *do.Injector) (*openrouterx.Probe, error) {
	cfg, err := do.Invoke[*llmx.Config](i)
	if err != nil {
		return nil, err
	}
	return openrouterx.NewProbe(cfg.OpenRouterFor(contractx.AgentTypeRetrieval), cfg.Models()...)
}

func provideRegistry(i *do.Injector) (contractx.Registry, error) {
	ctx := do.MustInvoke[context.Context](i)
	cfg, err := do.Invoke[*llmx.Config](i)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := do.Invoke[*specialist.Options](i)
	if err != nil {
		return nil, err
	}
	wh, err := do.Invoke[*warehouse.Warehouse](i)
	if err != nil {
		return nil, err
	}
	return specialist.NewRegistry(ctx, *cfg, wh, *opts)
}

func provideOrchestrator(i *do.Injector) (*orchestrator.Orchestrator, error) {
	agents, err := do.Invoke[contractx.Registry](i)
	if err != nil {
		return nil, err
	}
	cfg, err := do.Invoke[*orchestrator.Config](i)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(agents, *cfg, orchestrator.WithRecorder(do.MustInvoke[*metrics.Service](i)))
}

func provideHTTPServer(i *do.Injector) (*httpapi.Server, error) {
	cfg, err := do.Invoke[*httpapi.Config](i)
	if err != nil {
		return nil, err
	}
	orch, err := do.Invoke[*orchestrator.Orchestrator](i)
	if err != nil {
		return nil, err
	}
	wh := do.MustInvoke[*warehouse.Warehouse](i)

	return httpapi.New(*cfg, orch, wh,
		httpapi.WithMetrics(do.MustInvoke[*metrics.Service](i)),
		httpapi.WithReadiness(func() map[string]error {
			return map[string]error{
				"warehouse":  do.HealthCheck[*warehouse.Warehouse](i),
				"openrouter": do.HealthCheck[*openrouterx.Probe](i),
			}
		}),
	)
}
