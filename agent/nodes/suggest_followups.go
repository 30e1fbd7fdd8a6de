package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

func SuggestFollowups(ctx context.Context, in *GraphState, suggester contractx.FollowupSuggester, recorder contractx.Recorder) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Followups = suggester.Suggest(ctx, contractx.FollowupRequest{
		ResponseText: in.Summary,
		History:      in.History,
	})
	if in.Followups.IsFallback() {
		recorder.ObserveDegraded("followup")
		audit(ctx, in, "followups_fallback").Err(in.Followups.Err).Msg("orchestration transition")
	}
	return in, nil
}
