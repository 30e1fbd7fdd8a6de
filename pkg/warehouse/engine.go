package warehouse

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/tools/sqldatabase"
	"github.com/uptrace/bun"
)

var _ sqldatabase.Engine = (*bunEngine)(nil)

// bunEngine exposes a bun connection through the langchaingo SQL toolkit.
type bunEngine struct {
	db      *bun.DB
	dialect string
}

func (e *bunEngine) Dialect() string { return e.dialect }

func (e *bunEngine) Query(ctx context.Context, query string, args ...any) ([]string, [][]string, error) {
	cols, rows, _, err := e.query(ctx, query, 0, args...)
	return cols, rows, err
}

// query reads at most limit rows when limit > 0 and reports whether more were available.
func (e *bunEngine) query(ctx context.Context, query string, limit int, args ...any) ([]string, [][]string, bool, error) {
	rows, err := e.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, false, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, false, err
	}

	var (
		out       [][]string
		truncated bool
	)
	for rows.Next() {
		if limit > 0 && len(out) == limit {
			truncated = true
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, false, err
		}
		record := make([]string, len(cols))
		for i, v := range values {
			record[i] = formatValue(v)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, false, err
	}
	return cols, out, truncated, nil
}

func (e *bunEngine) TableNames(ctx context.Context) ([]string, error) {
	var q string
	switch e.dialect {
	case DialectPostgres:
		q = `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name`
	default:
		q = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	}

	_, rows, err := e.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r[0])
	}
	return names, nil
}

func (e *bunEngine) TableInfo(ctx context.Context, table string) (string, error) {
	if e.dialect != DialectPostgres {
		_, rows, err := e.Query(ctx, `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
		if err != nil {
			return "", fmt.Errorf("describe %s: %w", table, err)
		}
		if len(rows) == 0 {
			return "", fmt.Errorf("describe %s: table not found", table)
		}
		return rows[0][0], nil
	}

	_, rows, err := e.Query(ctx, `SELECT column_name, data_type, is_nullable FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position`, table)
	if err != nil {
		return "", fmt.Errorf("describe %s: %w", table, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("describe %s: table not found", table)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", table)
	for i, r := range rows {
		fmt.Fprintf(&b, "\t%s %s", r[0], strings.ToUpper(r[1]))
		if r[2] == "NO" {
			b.WriteString(" NOT NULL")
		}
		if i < len(rows)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String(), nil
}

func (e *bunEngine) Close() error {
	return e.db.Close()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
