package warehouse

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

const (
	DialectPostgres = "postgresql"
	DialectSQLite   = "sqlite"
)

// Open connects to the database named by a postgres:// or sqlite:// URL.
func Open(cfg Config) (*bun.DB, string, error) {
	raw := strings.TrimSpace(cfg.URL)

	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(raw)))
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		return bun.NewDB(sqldb, pgdialect.New()), DialectPostgres, nil

	case strings.HasPrefix(raw, "sqlite://"):
		path := strings.TrimPrefix(raw, "sqlite://")
		if path == "" {
			return nil, "", fmt.Errorf("warehouse: sqlite url %q has no path", raw)
		}
		sqldb, err := sql.Open("sqlite", sqliteDSN(path))
		if err != nil {
			return nil, "", fmt.Errorf("warehouse: open sqlite: %w", err)
		}
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		return bun.NewDB(sqldb, sqlitedialect.New()), DialectSQLite, nil
	}

	return nil, "", fmt.Errorf("warehouse: unsupported database url %q", raw)
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?cache=shared"
	}
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)"
}
