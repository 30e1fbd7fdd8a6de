package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	"github.com/tanpawarit/logistics-control-tower/agent/policy"
)

const (
	ToolListTables     = "sql_list_tables"
	ToolDescribeTables = "sql_describe_tables"
	ToolQuery          = "sql_query"
)

type ListTablesOutput struct {
	Tables []string `json:"tables"`
}

type DescribeTablesOutput struct {
	Schema string `json:"schema"`
}

// QueryOutput is the result of an executed statement. SQL is the statement
// as it was run, for the audit trace.
type QueryOutput struct {
	SQL       string     `json:"sql"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	RowCount  int        `json:"row_count"`
	Truncated bool       `json:"truncated,omitempty"`
}

type sqlTools struct {
	source contractx.DataSource
	role   contractx.Role
}

func (s *sqlTools) listTables(ctx context.Context, tool string) (contractx.ToolResult, error) {
	tables, err := s.source.TableNames(ctx)
	if err != nil {
		return toolFailure(ctx, tool, err)
	}
	return contractx.ToolResult{Tool: tool, Result: ListTablesOutput{Tables: tables}}, nil
}

func (s *sqlTools) describeTables(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
	tables, err := stringSliceArg(args, "tables")
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}

	info, err := s.source.DescribeTables(ctx, tables, s.role.CanSeeFinancials())
	if err != nil {
		return toolFailure(ctx, tool, err)
	}
	return contractx.ToolResult{Tool: tool, Result: DescribeTablesOutput{Schema: info}}, nil
}

func (s *sqlTools) query(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
	raw, ok := args["query"]
	if !ok {
		return contractx.ToolResult{Tool: tool, Error: "query is required"}, nil
	}
	query, ok := raw.(string)
	if !ok {
		return contractx.ToolResult{Tool: tool, Error: "query must be a string"}, nil
	}
	query = strings.TrimSpace(query)

	if err := policy.CheckColumns(s.role, query); err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}

	res, err := s.source.Query(ctx, query)
	if err != nil {
		return toolFailure(ctx, tool, err)
	}
	if err := policy.CheckResultColumns(s.role, res.Columns); err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}

	return contractx.ToolResult{
		Tool: tool,
		Result: QueryOutput{
			SQL:       query,
			Columns:   res.Columns,
			Rows:      res.Rows,
			RowCount:  len(res.Rows),
			Truncated: res.Truncated,
		},
	}, nil
}

// toolFailure reports a data source error back to the model. Only a dead
// request context is returned as a Go error.
func toolFailure(ctx context.Context, tool string, err error) (contractx.ToolResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return contractx.ToolResult{}, fmt.Errorf("%s: %w", tool, err)
	}
	return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
}

func stringSliceArg(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case string:
		return strings.Split(v, ","), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be a list of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a list of strings", key)
	}
}
