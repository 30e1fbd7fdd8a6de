package orchestratornode

import (
	"time"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

// GraphState is the per-request state flowing through the orchestration graph.
type GraphState struct {
	RequestID string
	Query     string
	Role      contractx.Role
	History   []contractx.Turn
	Now       time.Time

	Intent        contractx.Intent
	Retrieval     contractx.RetrievalResult
	RetrievalErr  error
	WantsStrategy bool
	Advice        string
	Summary       string
	Followups     contractx.Followups
}

type GraphOutput = contractx.OrchestrationResult
