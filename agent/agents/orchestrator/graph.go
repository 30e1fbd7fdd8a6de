package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/tanpawarit/logistics-control-tower/agent/nodes"
)

func (o *Orchestrator) compileSubmitQueryGraph(
	ctx context.Context,
) (compose.Runnable[*nodex.GraphState, nodex.GraphOutput], error) {
	graph := compose.NewGraph[*nodex.GraphState, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("access_check",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node access_check: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeDeny,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.Deny(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node deny: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeRoute,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Route(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node route: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeCommunicate,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.Communicate(ctx, in, o.agents.Communicator())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node communicate: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeRetrieve,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Retrieve(ctx, in, o.agents.Retriever())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node retrieve: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeRetrievalFailed,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.RetrievalFailed(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node retrieval_failed: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeAdvise,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Advise(ctx, in, o.agents.Strategist(), o.recorder)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node advise: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeCompose,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ComposeSummary(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node compose: %w", err)
	}

	if err := graph.AddLambdaNode("suggest_followups",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SuggestFollowups(ctx, in, o.agents.Followups(), o.recorder)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node suggest_followups: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	branches := []struct {
		from   string
		cond   func(context.Context, *nodex.GraphState) (string, error)
		target []string
	}{
		{"access_check", nodex.AccessBranch, []string{nodex.NodeDeny, nodex.NodeRoute}},
		{nodex.NodeRoute, nodex.RouteBranch, []string{nodex.NodeCommunicate, nodex.NodeRetrieve}},
		{nodex.NodeRetrieve, nodex.RetrieveBranch, []string{nodex.NodeRetrievalFailed, nodex.NodeAdvise, nodex.NodeCompose}},
	}
	for _, b := range branches {
		ends := make(map[string]bool, len(b.target))
		for _, t := range b.target {
			ends[t] = true
		}
		if err := graph.AddBranch(b.from, compose.NewGraphBranch(b.cond, ends)); err != nil {
			return nil, fmt.Errorf("add branch after %s: %w", b.from, err)
		}
	}

	edges := [][2]string{
		{compose.START, "access_check"},
		{nodex.NodeDeny, compose.END},
		{nodex.NodeCommunicate, compose.END},
		{nodex.NodeRetrievalFailed, compose.END},
		{nodex.NodeAdvise, nodex.NodeCompose},
		{nodex.NodeCompose, "suggest_followups"},
		{"suggest_followups", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.submit_query"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
