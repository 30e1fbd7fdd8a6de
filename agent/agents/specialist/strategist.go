package specialist

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	"github.com/tanpawarit/logistics-control-tower/agent/conversation"
)

type strategistImpl struct {
	runner        compose.Runnable[map[string]any, *schema.Message]
	historyWindow int
}

func newStrategist(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string, opts Options) (*strategistImpl, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: strategy", contractx.ErrPromptMissing)
	}
	runner, err := compileTextGraph(ctx, chatModel, systemPrompt, "strategy.advise")
	if err != nil {
		return nil, fmt.Errorf("%w: compile strategy graph: %v", contractx.ErrModelInvoke, err)
	}
	return &strategistImpl{runner: runner, historyWindow: opts.withDefaults().HistoryWindow}, nil
}

func (s *strategistImpl) Advise(ctx context.Context, req contractx.StrategyRequest) (string, error) {
	facts := strings.TrimSpace(req.Facts)
	if facts == "" {
		return "", fmt.Errorf("%w: %w: facts are required", contractx.ErrStrategy, contractx.ErrValidation)
	}

	var b strings.Builder
	b.WriteString("Facts:\n")
	b.WriteString(facts)
	if history := conversation.Window(req.History, s.historyWindow); len(history) > 0 {
		b.WriteString("\n\nConversation so far:\n")
		b.WriteString(conversation.Render(history))
	}

	msg, err := s.runner.Invoke(ctx, map[string]any{"input": b.String()})
	if err != nil {
		return "", fmt.Errorf("%w: %w: %v", contractx.ErrStrategy, contractx.ErrModelInvoke, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: %w: empty advice", contractx.ErrStrategy, contractx.ErrSchemaViolation)
	}
	return strings.TrimSpace(msg.Content), nil
}
