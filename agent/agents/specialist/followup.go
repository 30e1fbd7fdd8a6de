package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/xeipuuv/gojsonschema"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	"github.com/tanpawarit/logistics-control-tower/agent/conversation"
)

const followupCount = 3

// FallbackFollowups is served whenever generation fails.
var FallbackFollowups = []string{
	"Which shipments are currently delayed?",
	"Which vehicles are due for maintenance?",
	"Which drivers are on duty right now?",
}

var (
	codeFencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

	followupSchema = gojsonschema.NewStringLoader(`{
		"type": "array",
		"minItems": 3,
		"items": {"type": "string", "minLength": 1}
	}`)
)

type followupImpl struct {
	runner        compose.Runnable[map[string]any, []string]
	historyWindow int
}

func newFollowupSuggester(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string, opts Options) (*followupImpl, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: followup", contractx.ErrPromptMissing)
	}

	compiled, err := gojsonschema.NewSchema(followupSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: followup schema: %v", contractx.ErrValidation, err)
	}

	parse := func(_ context.Context, msg *schema.Message) ([]string, error) {
		if msg == nil {
			return nil, fmt.Errorf("%w: empty followup response", contractx.ErrSchemaViolation)
		}
		return parseFollowups(compiled, msg.Content)
	}

	runner, err := compileParsedGraph(ctx, chatModel, systemPrompt, "followup.suggest", parse)
	if err != nil {
		return nil, fmt.Errorf("%w: compile followup graph: %v", contractx.ErrModelInvoke, err)
	}
	return &followupImpl{runner: runner, historyWindow: opts.withDefaults().HistoryWindow}, nil
}

// Suggest never fails; errors come back as the fallback variant.
func (f *followupImpl) Suggest(ctx context.Context, req contractx.FollowupRequest) contractx.Followups {
	var b strings.Builder
	b.WriteString("Assistant answer:\n")
	b.WriteString(strings.TrimSpace(req.ResponseText))
	if history := conversation.Window(req.History, f.historyWindow); len(history) > 0 {
		b.WriteString("\n\nConversation so far:\n")
		b.WriteString(conversation.Render(history))
	}

	questions, err := f.runner.Invoke(ctx, map[string]any{"input": b.String()})
	if err != nil {
		return FallbackFollowupsFor(err)
	}
	return contractx.Followups{Questions: questions, Source: contractx.FollowupsGenerated}
}

// FallbackFollowupsFor wraps cause as a FollowupError on the fallback triple.
func FallbackFollowupsFor(cause error) contractx.Followups {
	return contractx.Followups{
		Questions: slices.Clone(FallbackFollowups),
		Source:    contractx.FollowupsFallback,
		Err:       fmt.Errorf("%w: %v", contractx.ErrFollowup, cause),
	}
}

func parseFollowups(compiled *gojsonschema.Schema, content string) ([]string, error) {
	raw := stripCodeFence(content)
	if raw == "" {
		return nil, fmt.Errorf("%w: followup response is empty", contractx.ErrSchemaViolation)
	}

	result, err := compiled.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: followups are not JSON: %v", contractx.ErrSchemaViolation, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", contractx.ErrSchemaViolation, strings.Join(msgs, "; "))
	}

	var questions []string
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, fmt.Errorf("%w: decode followups: %v", contractx.ErrSchemaViolation, err)
	}

	out := make([]string, 0, followupCount)
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
		if len(out) == followupCount {
			break
		}
	}
	if len(out) < followupCount {
		return nil, fmt.Errorf("%w: expected %d non-blank followups", contractx.ErrSchemaViolation, followupCount)
	}
	return out, nil
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if m := codeFencePattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}
