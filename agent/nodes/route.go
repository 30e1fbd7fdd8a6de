package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	"github.com/tanpawarit/logistics-control-tower/agent/policy"
)

const (
	NodeCommunicate = "communicate"
	NodeRetrieve    = "retrieve"
)

func Route(ctx context.Context, in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.Intent = policy.Classify(in.Query)
	in.WantsStrategy = policy.WantsStrategy(in.Query)

	audit(ctx, in, "routed").
		Str("intent", string(in.Intent)).
		Bool("wants_strategy", in.WantsStrategy).
		Msg("orchestration transition")
	return in, nil
}

func RouteBranch(ctx context.Context, in *GraphState) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Intent == contractx.IntentCommunication {
		return NodeCommunicate, nil
	}
	return NodeRetrieve, nil
}
