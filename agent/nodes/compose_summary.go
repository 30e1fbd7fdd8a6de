package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

const (
	AnalystHeading    = "### Analyst"
	StrategistHeading = "### Strategist"
)

func ComposeSummary(ctx context.Context, in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	facts := strings.TrimSpace(in.Retrieval.Facts)
	if facts == "" {
		return nil, fmt.Errorf("%w: retrieval returned empty facts", contractx.ErrValidation)
	}

	advice := strings.TrimSpace(in.Advice)
	if advice == "" {
		in.Summary = facts
		return in, nil
	}

	in.Summary = AnalystHeading + "\n" + facts + "\n\n" + StrategistHeading + "\n" + advice
	return in, nil
}
