package specialist

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	"github.com/tanpawarit/logistics-control-tower/agent/conversation"
	llmx "github.com/tanpawarit/logistics-control-tower/agent/llm"
	promptx "github.com/tanpawarit/logistics-control-tower/agent/prompt"
)

// Options tunes the agents. Zero values fall back to defaults.
type Options struct {
	HistoryWindow int `envconfig:"HISTORY_WINDOW" split_words:"true" default:"5" validate:"gte=0"`
	MaxSteps      int `envconfig:"MAX_STEPS" split_words:"true" default:"8" validate:"gt=0"`
	TopK          int `envconfig:"TOP_K" split_words:"true" default:"10" validate:"gt=0"`
}

func (o Options) withDefaults() Options {
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = conversation.DefaultWindow
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = 8
	}
	if o.TopK <= 0 {
		o.TopK = 10
	}
	return o
}

// Models carries one chat model per agent.
type Models struct {
	Retrieval einomodel.ToolCallingChatModel
	Strategy  einomodel.ToolCallingChatModel
	Followup  einomodel.ToolCallingChatModel
}

type registryImpl struct {
	retriever    contractx.Retriever
	strategist   contractx.Strategist
	communicator contractx.Communicator
	followups    contractx.FollowupSuggester
}

func (r *registryImpl) Retriever() contractx.Retriever {
	return r.retriever
}

func (r *registryImpl) Strategist() contractx.Strategist {
	return r.strategist
}

func (r *registryImpl) Communicator() contractx.Communicator {
	return r.communicator
}

func (r *registryImpl) Followups() contractx.FollowupSuggester {
	return r.followups
}

// NewRegistry builds OpenRouter models from cfg and wires every agent.
func NewRegistry(ctx context.Context, cfg llmx.Config, source contractx.DataSource, opts Options) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var models Models
	for _, target := range []struct {
		agentType contractx.AgentType
		dst       *einomodel.ToolCallingChatModel
	}{
		{contractx.AgentTypeRetrieval, &models.Retrieval},
		{contractx.AgentTypeStrategy, &models.Strategy},
		{contractx.AgentTypeFollowup, &models.Followup},
	} {
		modelCfg := cfg.OpenRouterFor(target.agentType)
		m, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, target.agentType, err)
		}
		*target.dst = m
	}

	return NewRegistryWithModels(ctx, models, source, opts)
}

// NewRegistryWithModels wires the agents on top of already built models.
func NewRegistryWithModels(ctx context.Context, models Models, source contractx.DataSource, opts Options) (contractx.Registry, error) {
	if models.Retrieval == nil || models.Strategy == nil || models.Followup == nil {
		return nil, fmt.Errorf("%w: a model is required for every agent", contractx.ErrValidation)
	}

	prompts := promptx.LoadPromptSet()

	retriever, err := newRetriever(ctx, models.Retrieval, source, prompts.Retrieval, opts)
	if err != nil {
		return nil, err
	}
	strategist, err := newStrategist(ctx, models.Strategy, prompts.Strategy, opts)
	if err != nil {
		return nil, err
	}
	followups, err := newFollowupSuggester(ctx, models.Followup, prompts.Followup, opts)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		retriever:    retriever,
		strategist:   strategist,
		communicator: newCommunicator(),
		followups:    followups,
	}, nil
}
