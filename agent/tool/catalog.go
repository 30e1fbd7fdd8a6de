package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

// BuildForAgent returns the tools an agent may call and an executor bound to
// the caller's role.
func BuildForAgent(agentType contractx.AgentType, source contractx.DataSource, role contractx.Role) ([]*schema.ToolInfo, Executor) {
	return infosForAgent(agentType), NewExecutor(agentType, source, role)
}

func NewExecutor(agentType contractx.AgentType, source contractx.DataSource, role contractx.Role) Executor {
	fallback := DefaultExecutor(agentType)
	if agentType != contractx.AgentTypeRetrieval || source == nil {
		return fallback
	}

	sql := &sqlTools{source: source, role: role}
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		switch tool {
		case ToolListTables:
			return sql.listTables(ctx, tool)
		case ToolDescribeTables:
			return sql.describeTables(ctx, tool, args)
		case ToolQuery:
			return sql.query(ctx, tool, args)
		default:
			return fallback(ctx, tool, args)
		}
	}
}

func DefaultExecutor(agentType contractx.AgentType) Executor {
	return func(ctx context.Context, tool string, _ map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("tool=%s is unavailable for agent=%s", tool, agentType),
		}, nil
	}
}

func infosForAgent(agentType contractx.AgentType) []*schema.ToolInfo {
	switch agentType {
	case contractx.AgentTypeRetrieval:
		return []*schema.ToolInfo{
			{
				Name:        ToolListTables,
				Desc:        "List the tables available in the logistics database.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
			},
			{
				Name: ToolDescribeTables,
				Desc: "Return the schema of the given tables, with sample rows when permitted.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"tables": {
						Type:     schema.Array,
						Desc:     "Table names to describe",
						ElemInfo: &schema.ParameterInfo{Type: schema.String},
						Required: true,
					},
				}),
			},
			{
				Name: ToolQuery,
				Desc: "Execute one read-only SQL SELECT statement and return the rows.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"query": {Type: schema.String, Desc: "A single SELECT statement", Required: true},
				}),
			},
		}
	default:
		return nil
	}
}
