package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	openrouterx "github.com/tanpawarit/logistics-control-tower/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1" validate:"url"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000" validate:"gt=0"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	RetrievalModel       string  `envconfig:"RETRIEVAL_MODEL" split_words:"true"`
	StrategyModel        string  `envconfig:"STRATEGY_MODEL" split_words:"true"`
	FollowupModel        string  `envconfig:"FOLLOWUP_MODEL" split_words:"true"`
	RetrievalTemperature float32 `envconfig:"RETRIEVAL_TEMPERATURE" split_words:"true" default:"-1"`
	StrategyTemperature  float32 `envconfig:"STRATEGY_TEMPERATURE" split_words:"true" default:"-1"`
	FollowupTemperature  float32 `envconfig:"FOLLOWUP_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// Models lists every distinct model name the agents will call.
func (c Config) Models() []string {
	seen := map[string]bool{}
	var out []string
	for _, agentType := range []contractx.AgentType{
		contractx.AgentTypeRetrieval,
		contractx.AgentTypeStrategy,
		contractx.AgentTypeFollowup,
	} {
		m := c.OpenRouterFor(agentType).Model
		if m != "" && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch agentType {
	case contractx.AgentTypeRetrieval:
		if v := strings.TrimSpace(c.RetrievalModel); v != "" {
			modelName = v
		}
		if c.RetrievalTemperature >= 0 {
			temp = c.RetrievalTemperature
		}
	case contractx.AgentTypeStrategy:
		if v := strings.TrimSpace(c.StrategyModel); v != "" {
			modelName = v
		}
		if c.StrategyTemperature >= 0 {
			temp = c.StrategyTemperature
		}
	case contractx.AgentTypeFollowup:
		if v := strings.TrimSpace(c.FollowupModel); v != "" {
			modelName = v
		}
		if c.FollowupTemperature >= 0 {
			temp = c.FollowupTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
