package warehouse

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/tools/sqldatabase"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

const schemaCacheSize = 64

var (
	shipmentFinancials = []string{"cost", "revenue"}
	driverFinancials   = []string{"salary"}
)

var _ contractx.DataSource = (*Warehouse)(nil)

// Warehouse is the shared, read-mostly logistics data source.
type Warehouse struct {
	cfg     Config
	db      *bun.DB
	engine  *bunEngine
	full    *sqldatabase.SQLDatabase
	bare    *sqldatabase.SQLDatabase
	schemas *expirable.LRU[string, string]
}

// New opens the database named by cfg.URL.
func New(ctx context.Context, cfg Config) (*Warehouse, error) {
	db, dialect, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	w, err := NewFromDB(ctx, db, dialect, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

// NewFromDB wraps an open connection. Table names are read once here, so the
// tables must exist (or cfg.CreateTables be set) before the call.
func NewFromDB(ctx context.Context, db *bun.DB, dialect string, cfg Config) (*Warehouse, error) {
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 50
	}
	if cfg.SchemaCacheTTL <= 0 {
		cfg.SchemaCacheTTL = 5 * time.Minute
	}

	if cfg.CreateTables {
		if err := CreateTables(ctx, db); err != nil {
			return nil, err
		}
	}

	engine := &bunEngine{db: db, dialect: dialect}

	full, err := sqldatabase.NewSQLDatabase(engine, nil)
	if err != nil {
		return nil, fmt.Errorf("warehouse: introspect schema: %w", err)
	}
	full.SampleRowsNumber = cfg.SampleRows

	bare, err := sqldatabase.NewSQLDatabase(engine, nil)
	if err != nil {
		return nil, fmt.Errorf("warehouse: introspect schema: %w", err)
	}
	bare.SampleRowsNumber = 0

	return &Warehouse{
		cfg:     cfg,
		db:      db,
		engine:  engine,
		full:    full,
		bare:    bare,
		schemas: expirable.NewLRU[string, string](schemaCacheSize, nil, cfg.SchemaCacheTTL),
	}, nil
}

// CreateTables creates the shipments, vehicles and drivers tables if absent.
func CreateTables(ctx context.Context, db *bun.DB) error {
	for _, model := range models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("warehouse: create table: %w", err)
		}
	}
	return nil
}

func (w *Warehouse) Dialect() string { return w.engine.Dialect() }

func (w *Warehouse) TableNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := slices.Clone(w.full.TableNames())
	slices.Sort(names)
	return names, nil
}

// DescribeTables returns CREATE statements for the given tables (all tables
// when empty), followed by sample rows when withSamples is set.
func (w *Warehouse) DescribeTables(ctx context.Context, tables []string, withSamples bool) (string, error) {
	requested := make([]string, 0, len(tables))
	for _, t := range tables {
		if t = strings.TrimSpace(t); t != "" {
			requested = append(requested, t)
		}
	}
	slices.Sort(requested)
	requested = slices.Compact(requested)

	known := w.full.TableNames()
	for _, t := range requested {
		if !slices.Contains(known, t) {
			return "", fmt.Errorf("unknown table %q (available: %s)", t, strings.Join(known, ", "))
		}
	}

	key := fmt.Sprintf("%t|%s", withSamples, strings.Join(requested, ","))
	if cached, ok := w.schemas.Get(key); ok {
		return cached, nil
	}

	db := w.bare
	if withSamples {
		db = w.full
	}

	ctx, cancel := w.withTimeout(ctx)
	defer cancel()

	info, err := db.TableInfo(ctx, requested)
	if err != nil {
		return "", fmt.Errorf("describe tables: %w", err)
	}
	info = strings.TrimSpace(info)

	w.schemas.Add(key, info)
	return info, nil
}

// Query runs a single read-only statement and caps the returned rows.
func (w *Warehouse) Query(ctx context.Context, query string) (contractx.QueryResult, error) {
	q, err := Guard(query)
	if err != nil {
		return contractx.QueryResult{}, err
	}

	ctx, cancel := w.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	cols, rows, truncated, err := w.engine.query(ctx, q, w.cfg.MaxRows)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return contractx.QueryResult{}, fmt.Errorf("query timed out after %s", w.cfg.QueryTimeout)
		}
		return contractx.QueryResult{}, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("sql", q).
		Int("rows", len(rows)).
		Bool("truncated", truncated).
		Dur("took", time.Since(start)).
		Msg("warehouse query")

	return contractx.QueryResult{Columns: cols, Rows: rows, Truncated: truncated}, nil
}

// Sample loads up to n rows of every table concurrently.
func (w *Warehouse) Sample(ctx context.Context, n int) (SampleSet, error) {
	if n <= 0 {
		n = 5
	}

	var set SampleSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.db.NewSelect().Model(&set.Shipments).ExcludeColumn(shipmentFinancials...).OrderExpr("id ASC").Limit(n).Scan(gctx)
	})
	g.Go(func() error {
		return w.db.NewSelect().Model(&set.Vehicles).OrderExpr("vehicle_id ASC").Limit(n).Scan(gctx)
	})
	g.Go(func() error {
		return w.db.NewSelect().Model(&set.Drivers).ExcludeColumn(driverFinancials...).OrderExpr("id ASC").Limit(n).Scan(gctx)
	})
	if err := g.Wait(); err != nil {
		return SampleSet{}, fmt.Errorf("warehouse: sample: %w", err)
	}

	if set.Shipments == nil {
		set.Shipments = []Shipment{}
	}
	if set.Vehicles == nil {
		set.Vehicles = []Vehicle{}
	}
	if set.Drivers == nil {
		set.Drivers = []Driver{}
	}
	return set, nil
}

// HealthCheck pings the database for the readiness probe.
func (w *Warehouse) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return w.db.PingContext(ctx)
}

// Shutdown closes the connection pool.
func (w *Warehouse) Shutdown() error {
	w.schemas.Purge()
	return w.engine.Close()
}

func (w *Warehouse) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, w.cfg.QueryTimeout)
}
