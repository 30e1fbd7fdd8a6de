package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

// CommunicationTrace marks results that never touched the data source.
const CommunicationTrace = "-- communication agent (simulated) --"

func Communicate(ctx context.Context, in *GraphState, communicator contractx.Communicator) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	resp, err := communicator.Handle(ctx, in.Query)
	if err != nil {
		return GraphOutput{}, fmt.Errorf("communication agent: %w", err)
	}

	followups := resp.Followups
	if followups == nil {
		followups = []string{}
	}

	audit(ctx, in, "communication").Msg("orchestration transition")
	return GraphOutput{
		Summary:   resp.Summary,
		Trace:     CommunicationTrace,
		Followups: followups,
		Path:      contractx.PathCommunication,
		Intent:    contractx.IntentCommunication,
	}, nil
}
