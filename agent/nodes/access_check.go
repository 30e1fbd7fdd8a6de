package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	"github.com/tanpawarit/logistics-control-tower/agent/policy"
)

const (
	NodeDeny  = "deny"
	NodeRoute = "route"
)

// AccessBranch picks the next node after the access gate.
func AccessBranch(ctx context.Context, in *GraphState) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if policy.Allowed(in.Role, in.Query) {
		return NodeRoute, nil
	}
	return NodeDeny, nil
}

func Deny(ctx context.Context, in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	audit(ctx, in, "access_denied").
		Strs("markers", policy.FinancialVocabulary.Hits(in.Query)).
		Msg("orchestration transition")

	return GraphOutput{
		Summary:   policy.AccessDeniedSummary,
		Trace:     "",
		Followups: []string{},
		Path:      contractx.PathDenied,
	}, nil
}
