package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

type fakeOrchestrator struct {
	out  contractx.OrchestrationResult
	err  error
	last contractx.QueryRequest
}

func (f *fakeOrchestrator) Submit(_ context.Context, req contractx.QueryRequest) (contractx.OrchestrationResult, error) {
	f.last = req
	return f.out, f.err
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = ToolSubmitQuery
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestSubmitQueryReturnsResultJSON(t *testing.T) {
	orch := &fakeOrchestrator{out: contractx.OrchestrationResult{
		Summary:   "3 vehicles need service.",
		Trace:     "SELECT vehicle_id FROM vehicles;",
		Followups: []string{"A?", "B?", "C?"},
	}}
	s, err := New(orch, "test")
	require.NoError(t, err)

	res, err := s.handleSubmitQuery(context.Background(), callRequest(map[string]any{
		"query":   "Which vehicles need service?",
		"role":    "Fleet Operator",
		"history": "User: hi\nAssistant: hello",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &body))
	assert.Equal(t, "3 vehicles need service.", body["summary"])
	assert.Equal(t, "SELECT vehicle_id FROM vehicles;", body["sql"])
	assert.Nil(t, body["error"])
	assert.Len(t, body["followups"], 3)

	assert.Equal(t, contractx.RoleOperator, orch.last.Role)
	assert.Len(t, orch.last.History, 2)
}

func TestSubmitQueryDefaultsToGuest(t *testing.T) {
	orch := &fakeOrchestrator{out: contractx.OrchestrationResult{Summary: "denied", Trace: "-- no query executed --"}}
	s, err := New(orch, "test")
	require.NoError(t, err)

	res, err := s.handleSubmitQuery(context.Background(), callRequest(map[string]any{"query": "total revenue"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, contractx.RoleGuest, orch.last.Role)
	assert.JSONEq(t, `{"summary":"denied","sql":"-- no query executed --","error":null,"followups":[]}`, textOf(t, res))
}

func TestSubmitQueryRejectsBadArguments(t *testing.T) {
	orch := &fakeOrchestrator{}
	s, err := New(orch, "test")
	require.NoError(t, err)

	res, err := s.handleSubmitQuery(context.Background(), callRequest(map[string]any{"role": "Guest"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleSubmitQuery(context.Background(), callRequest(map[string]any{"query": "x", "role": "Admin"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Empty(t, orch.last.Query)
}

func TestSubmitQueryHidesInternalErrors(t *testing.T) {
	orch := &fakeOrchestrator{err: errors.New("connection reset by peer")}
	s, err := New(orch, "test")
	require.NoError(t, err)

	res, err := s.handleSubmitQuery(context.Background(), callRequest(map[string]any{"query": "list drivers"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "internal error", textOf(t, res))
}

func TestNewRequiresOrchestrator(t *testing.T) {
	_, err := New(nil, "test")
	require.Error(t, err)
}
