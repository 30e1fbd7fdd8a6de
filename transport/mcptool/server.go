// Package mcptool exposes the orchestrator as an MCP tool so assistants can
// ask the control tower questions over stdio.
package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	"github.com/tanpawarit/logistics-control-tower/agent/conversation"
)

const (
	ServerName      = "logistics-control-tower"
	ToolSubmitQuery = "submit_query"
)

type Orchestrator interface {
	Submit(ctx context.Context, req contractx.QueryRequest) (contractx.OrchestrationResult, error)
}

type Server struct {
	orch Orchestrator
	mcp  *server.MCPServer
}

func New(orch Orchestrator, version string) (*Server, error) {
	if orch == nil {
		return nil, errors.New("orchestrator is required")
	}

	s := &Server{orch: orch}
	s.mcp = server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.mcp.AddTool(submitQueryTool(), s.handleSubmitQuery)
	return s, nil
}

func submitQueryTool() mcp.Tool {
	return mcp.NewTool(ToolSubmitQuery,
		mcp.WithDescription("Ask the logistics control tower a question about shipments, vehicles or drivers. "+
			"Returns a summary, the SQL that was executed, an error (or null) and three follow-up questions."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural-language question"),
		),
		mcp.WithString("role",
			mcp.Enum(string(contractx.RoleManager), string(contractx.RoleOperator), string(contractx.RoleGuest)),
			mcp.Description("Caller role; defaults to Guest"),
		),
		mcp.WithString("history",
			mcp.Description(`Prior conversation as "User: ..." / "Assistant: ..." lines`),
		),
	)
}

func (s *Server) handleSubmitQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(contractx.ErrInvalidQuery.Error()), nil
	}
	role, err := contractx.ParseRole(req.GetString("role", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := s.orch.Submit(ctx, contractx.QueryRequest{
		Query:   query,
		Role:    role,
		History: conversation.Parse(req.GetString("history", "")),
	})
	if err != nil {
		if errors.Is(err, contractx.ErrInvalidQuery) || errors.Is(err, contractx.ErrValidation) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("mcp submit_query failed")
		return mcp.NewToolResultError("internal error"), nil
	}

	body, err := json.Marshal(out.Response())
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(body)), nil
}

// Serve speaks MCP over the given streams until ctx is cancelled or stdin closes.
func (s *Server) Serve(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	err := stdio.Listen(ctx, stdin, stdout)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)) {
		return nil
	}
	return err
}
