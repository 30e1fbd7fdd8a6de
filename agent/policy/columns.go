package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/elliotchance/pie/v2"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

var (
	// FinancialColumns may only be read by roles that can see financials.
	FinancialColumns = []string{"cost", "revenue", "salary"}
	// FinancialTables carry at least one financial column.
	FinancialTables = []string{"shipments", "drivers"}

	sqlIdentPattern = regexp.MustCompile(`[a-z_][a-z0-9_]*`)
	sqlStarPattern  = regexp.MustCompile(`(?:select\s+(?:(?:all|distinct(?:\s+on\s*\([^)]*\))?)\s*)?|,\s*)(?:[a-z_][a-z0-9_]*\.)?\*`)
)

// CheckColumns rejects statements that would expose financial columns to a
// role that may not see them. SELECT * on a table carrying such columns counts.
func CheckColumns(role contractx.Role, query string) error {
	if role.CanSeeFinancials() {
		return nil
	}

	lowered := strings.ToLower(query)
	tokens := sqlIdentPattern.FindAllString(lowered, -1)

	if hits := pie.Filter(tokens, func(tok string) bool { return pie.Contains(FinancialColumns, tok) }); len(hits) > 0 {
		return fmt.Errorf("%w: role %s may not read column %s", contractx.ErrUnsafeQuery, role, hits[0])
	}

	if sqlStarPattern.MatchString(lowered) {
		if tables := pie.Filter(tokens, func(tok string) bool { return pie.Contains(FinancialTables, tok) }); len(tables) > 0 {
			return fmt.Errorf("%w: role %s must list columns explicitly when reading %s",
				contractx.ErrUnsafeQuery, role, tables[0])
		}
	}

	return nil
}

// CheckResultColumns rejects a result set whose column names include a
// financial column, however the statement was written.
func CheckResultColumns(role contractx.Role, columns []string) error {
	if role.CanSeeFinancials() {
		return nil
	}
	for _, col := range columns {
		name := strings.ToLower(strings.TrimSpace(col))
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		if pie.Contains(FinancialColumns, name) {
			return fmt.Errorf("%w: role %s may not read column %s", contractx.ErrUnsafeQuery, role, name)
		}
	}
	return nil
}
