package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

// Advise asks the strategist for recommendations. A failure leaves Advice
// empty so the summary degrades to facts only.
func Advise(ctx context.Context, in *GraphState, strategist contractx.Strategist, recorder contractx.Recorder) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	advice, err := strategist.Advise(ctx, contractx.StrategyRequest{
		Facts:   in.Retrieval.Facts,
		History: in.History,
	})
	if err != nil {
		recorder.ObserveDegraded("strategy")
		audit(ctx, in, "strategy_degraded").Err(err).Msg("orchestration transition")
		return in, nil
	}

	in.Advice = advice
	audit(ctx, in, "advised").Msg("orchestration transition")
	return in, nil
}
