package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	"github.com/tanpawarit/logistics-control-tower/agent/conversation"
	"github.com/tanpawarit/logistics-control-tower/agent/policy"
	toolx "github.com/tanpawarit/logistics-control-tower/agent/tool"
)

// NoQueryTrace is the trace reported when the model answered without running SQL.
const NoQueryTrace = "-- no query executed --"

type retrieverImpl struct {
	source   contractx.DataSource
	template einoprompt.ChatTemplate
	runner   compose.Runnable[[]*schema.Message, *schema.Message]
	opts     Options
}

func newRetriever(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	source contractx.DataSource,
	systemPrompt string,
	opts Options,
) (*retrieverImpl, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: retrieval data source is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: retrieval", contractx.ErrPromptMissing)
	}

	infos, _ := toolx.BuildForAgent(contractx.AgentTypeRetrieval, source, contractx.RoleGuest)
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind retrieval tools: %v", contractx.ErrModelInvoke, err)
	}

	runner, err := compileConversationGraph(ctx, toolModel, "retrieval.tool_loop")
	if err != nil {
		return nil, fmt.Errorf("%w: compile retrieval graph: %v", contractx.ErrModelInvoke, err)
	}

	return &retrieverImpl{
		source:   source,
		template: newTemplate(systemPrompt),
		runner:   runner,
		opts:     opts.withDefaults(),
	}, nil
}

// Retrieve lets the model explore the schema and run read-only queries until
// it produces a factual digest or runs out of steps.
func (r *retrieverImpl) Retrieve(ctx context.Context, req contractx.RetrievalRequest) (contractx.RetrievalResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return contractx.RetrievalResult{}, fmt.Errorf("%w: %w", contractx.ErrRetrieval, contractx.ErrInvalidQuery)
	}

	history := conversation.Window(req.History, r.opts.HistoryWindow)
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	messages, err := r.template.Format(ctx, map[string]any{
		"dialect":      r.source.Dialect(),
		"top_k":        r.opts.TopK,
		"restrictions": restrictionsFor(req.Role),
		"today":        now.Format(time.DateOnly),
		"input":        conversation.Contextualize(query, history),
	})
	if err != nil {
		return contractx.RetrievalResult{}, fmt.Errorf("%w: format prompt: %v", contractx.ErrRetrieval, err)
	}

	_, execute := toolx.BuildForAgent(contractx.AgentTypeRetrieval, r.source, req.Role)
	logger := zerolog.Ctx(ctx)

	var (
		executed []string
		rowsSeen int
	)
	for step := 1; step <= r.opts.MaxSteps; step++ {
		msg, err := r.runner.Invoke(ctx, messages)
		if err != nil {
			return contractx.RetrievalResult{}, fmt.Errorf("%w: %w: %v", contractx.ErrRetrieval, contractx.ErrModelInvoke, err)
		}
		if msg == nil {
			return contractx.RetrievalResult{}, fmt.Errorf("%w: %w: empty model response", contractx.ErrRetrieval, contractx.ErrSchemaViolation)
		}

		if len(msg.ToolCalls) == 0 {
			facts := strings.TrimSpace(msg.Content)
			if facts == "" {
				return contractx.RetrievalResult{}, fmt.Errorf("%w: %w: model returned no answer", contractx.ErrRetrieval, contractx.ErrSchemaViolation)
			}
			if len(executed) > 0 && rowsSeen == 0 {
				return contractx.RetrievalResult{}, fmt.Errorf("%w: %w", contractx.ErrRetrieval, contractx.ErrEmptyResult)
			}
			return contractx.RetrievalResult{Facts: facts, Trace: renderTrace(executed)}, nil
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			result, err := r.callTool(ctx, execute, call)
			if err != nil {
				return contractx.RetrievalResult{}, fmt.Errorf("%w: %v", contractx.ErrRetrieval, err)
			}

			if out, ok := result.Result.(toolx.QueryOutput); ok {
				executed = append(executed, out.SQL)
				rowsSeen += out.RowCount
			}

			logger.Debug().
				Int("step", step).
				Str("tool", result.Tool).
				Str("tool_error", result.Error).
				Msg("retrieval tool call")

			payload, err := json.Marshal(result)
			if err != nil {
				return contractx.RetrievalResult{}, fmt.Errorf("%w: marshal tool result: %v", contractx.ErrRetrieval, err)
			}
			messages = append(messages, schema.ToolMessage(string(payload), call.ID))
		}
	}

	return contractx.RetrievalResult{}, fmt.Errorf("%w: no answer after %d steps", contractx.ErrRetrieval, r.opts.MaxSteps)
}

func (r *retrieverImpl) callTool(ctx context.Context, execute toolx.Executor, call schema.ToolCall) (contractx.ToolResult, error) {
	name := strings.TrimSpace(call.Function.Name)
	if name == "" {
		return contractx.ToolResult{Error: "tool call name is empty"}, nil
	}

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return contractx.ToolResult{Tool: name, Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
		}
	}

	return execute(ctx, name, args)
}

func restrictionsFor(role contractx.Role) string {
	if role.CanSeeFinancials() {
		return "The current user may read every column."
	}
	return fmt.Sprintf(
		"The current user may not read the columns %s. Never select or filter on them and never use SELECT * on the tables %s.",
		strings.Join(policy.FinancialColumns, ", "),
		strings.Join(policy.FinancialTables, ", "),
	)
}

func renderTrace(executed []string) string {
	if len(executed) == 0 {
		return NoQueryTrace
	}
	return strings.Join(executed, ";\n") + ";"
}
