package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

const (
	NodeRetrievalFailed = "retrieval_failed"
	NodeAdvise          = "advise"
	NodeCompose         = "compose"

	// RetrievalFailedTrace is the trace reported when retrieval errors out.
	RetrievalFailedTrace = "ERROR"
)

// Retrieve runs the data retrieval agent. A RetrievalError is kept on the
// state for the failure branch; any other error aborts the graph.
func Retrieve(ctx context.Context, in *GraphState, retriever contractx.Retriever) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	out, err := retriever.Retrieve(ctx, contractx.RetrievalRequest{
		Query:   in.Query,
		Role:    in.Role,
		History: in.History,
		Now:     in.Now,
	})
	if err != nil {
		if !errors.Is(err, contractx.ErrRetrieval) {
			err = fmt.Errorf("%w: %w", contractx.ErrRetrieval, err)
		}
		in.RetrievalErr = err
		audit(ctx, in, "retrieval_failed").Err(err).Msg("orchestration transition")
		return in, nil
	}

	in.Retrieval = out
	audit(ctx, in, "retrieved").Str("sql", out.Trace).Msg("orchestration transition")
	return in, nil
}

// RetrieveBranch implements the strategy check after a successful retrieval.
func RetrieveBranch(ctx context.Context, in *GraphState) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	switch {
	case in.RetrievalErr != nil:
		return NodeRetrievalFailed, nil
	case in.WantsStrategy:
		return NodeAdvise, nil
	default:
		return NodeCompose, nil
	}
}

func RetrievalFailed(ctx context.Context, in *GraphState) (GraphOutput, error) {
	if in == nil || in.RetrievalErr == nil {
		return GraphOutput{}, fmt.Errorf("%w: retrieval failure state is missing", contractx.ErrValidation)
	}

	msg := in.RetrievalErr.Error()
	return GraphOutput{
		Summary:   "Unable to retrieve logistics data: " + msg,
		Trace:     RetrievalFailedTrace,
		Error:     msg,
		Followups: []string{},
		Path:      contractx.PathRetrievalFailed,
		Intent:    contractx.IntentAnalytics,
	}, nil
}
