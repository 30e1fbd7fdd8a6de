package orchestratornode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

// ValidateRequest rejects malformed input before any orchestration step runs.
func ValidateRequest(requestID string, req contractx.QueryRequest, now time.Time) (*GraphState, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, contractx.ErrInvalidQuery
	}

	role, err := contractx.ParseRole(string(req.Role))
	if err != nil {
		return nil, err
	}

	for i, turn := range req.History {
		if turn.Speaker != contractx.SpeakerUser && turn.Speaker != contractx.SpeakerAssistant {
			return nil, fmt.Errorf("%w: history turn %d has unknown speaker %q", contractx.ErrValidation, i, turn.Speaker)
		}
	}

	return &GraphState{
		RequestID: requestID,
		Query:     query,
		Role:      role,
		History:   req.History,
		Now:       now,
	}, nil
}
