package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

func FinalizeReply(ctx context.Context, in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	summary := strings.TrimSpace(in.Summary)
	if summary == "" {
		return GraphOutput{}, fmt.Errorf("%w: summary is empty", contractx.ErrValidation)
	}

	followups := in.Followups.Questions
	if followups == nil {
		followups = []string{}
	}

	audit(ctx, in, "done").Int("followups", len(followups)).Msg("orchestration transition")
	return GraphOutput{
		Summary:   summary,
		Trace:     in.Retrieval.Trace,
		Followups: followups,
		Path:      contractx.PathAnalytics,
		Intent:    contractx.IntentAnalytics,
	}, nil
}
