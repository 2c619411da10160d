package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/filipexyz/compass/internal/monitor"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// ErrNoDatabase is returned for configs with database fields when no query
// database is configured.
var ErrNoDatabase = errors.New("config has database fields but no query database is configured")

const (
	// DefaultQueryTimeout bounds all queries of one fetch.
	DefaultQueryTimeout = 5 * time.Second

	maxParallelQueries = 4
)

// Querier runs a read query and returns its first row keyed by column name,
// or nil when the query returns no rows.
type Querier interface {
	FirstRow(ctx context.Context, query string, args ...any) (map[string]any, error)
}

// PostgresQuerier runs queries in read-only transactions.
type PostgresQuerier struct {
	pool *pgxpool.Pool
}

// NewPostgresQuerier creates a PostgresQuerier.
func NewPostgresQuerier(pool *pgxpool.Pool) *PostgresQuerier {
	return &PostgresQuerier{pool: pool}
}

// FirstRow implements Querier.
func (q *PostgresQuerier) FirstRow(ctx context.Context, query string, args ...any) (map[string]any, error) {
	tx, err := q.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return pgx.RowToMap(rows)
}

// Ping checks the query database.
func (q *PostgresQuerier) Ping(ctx context.Context) error {
	return q.pool.Ping(ctx)
}

// Query is one database field of a config: its query and where the result
// goes in the page data.
type Query struct {
	SQL      string
	ValueKey string
}

// DatabaseQueries lists the distinct database queries of cfg in field
// order. A query shared by several fields is listed once per value key.
func DatabaseQueries(cfg *monitor.MonitorConfig) []Query {
	var queries []Query
	seen := map[Query]bool{}
	add := func(f monitor.FieldSpec) {
		if f.DataSource != monitor.DataSourceDatabase || f.Expression == "" || f.ValueKey == "" {
			return
		}
		q := Query{SQL: f.Expression, ValueKey: f.ValueKey}
		if !seen[q] {
			seen[q] = true
			queries = append(queries, q)
		}
	}

	for _, f := range cfg.DescItems {
		add(f)
	}
	for _, f := range cfg.RemarkItems {
		add(f)
	}
	for _, t := range cfg.TableConfigs {
		for _, row := range t.Rows {
			add(row.Field())
		}
	}
	return queries
}

// Database obtains the values of database fields.
type Database struct {
	querier Querier
	timeout time.Duration
	logger  *slog.Logger
}

// NewDatabase creates a Database fetcher. A nil querier rejects configs with
// database fields; a zero timeout uses DefaultQueryTimeout.
func NewDatabase(querier Querier, timeout time.Duration) *Database {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &Database{
		querier: querier,
		timeout: timeout,
		logger:  slog.Default().With("component", "database"),
	}
}

// Fetch runs the database queries of cfg and returns their values keyed by
// value key. Named parameters (":region") are bound from params. A failing
// query is logged and leaves its value key unset.
func (d *Database) Fetch(ctx context.Context, cfg *monitor.MonitorConfig, params map[string]any) (any, error) {
	queries := DatabaseQueries(cfg)
	if len(queries) == 0 {
		return nil, nil
	}
	if d.querier == nil {
		return nil, ErrNoDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var mu sync.Mutex
	out := make(map[string]any, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelQueries)
	for _, q := range queries {
		g.Go(func() error {
			v, err := d.run(gctx, q, params)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return fmt.Errorf("query %s: %w", q.ValueKey, ctxErr)
				}
				d.logger.Warn("database query failed", "value_key", q.ValueKey, "error", err)
				return nil
			}
			mu.Lock()
			out[q.ValueKey] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Database) run(ctx context.Context, q Query, params map[string]any) (any, error) {
	sql, args, err := bindNamed(q.SQL, params)
	if err != nil {
		return nil, err
	}

	row, err := d.querier.FirstRow(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rowValue(row, q.ValueKey)
}

// rowValue picks the value of a result row: the column named valueKey, the
// only column, or the whole row. Values are normalized to JSON types.
func rowValue(row map[string]any, valueKey string) (any, error) {
	var v any
	switch {
	case row == nil:
		return nil, nil
	case row[valueKey] != nil:
		v = row[valueKey]
	case len(row) == 1:
		for _, only := range row {
			v = only
		}
	default:
		v = row
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	return out, nil
}

// bindNamed rewrites ":name" placeholders to positional parameters bound to
// the text of params[name]. Quoted literals and "::" casts are left alone.
func bindNamed(query string, params map[string]any) (string, []any, error) {
	var (
		b        strings.Builder
		args     []any
		position = map[string]int{}
		quoted   bool
	)

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
			continue
		case quoted || c != ':':
			b.WriteByte(c)
			continue
		case i+1 < len(query) && query[i+1] == ':':
			b.WriteString("::")
			i++
			continue
		}

		j := i + 1
		for j < len(query) && isIdentByte(query[j], j == i+1) {
			j++
		}
		if j == i+1 {
			b.WriteByte(c)
			continue
		}

		name := query[i+1 : j]
		n, ok := position[name]
		if !ok {
			v, found := params[name]
			if !found {
				return "", nil, fmt.Errorf("query parameter %q is not set", name)
			}
			args = append(args, paramText(v))
			n = len(args)
			position[name] = n
		}
		b.WriteString("$" + strconv.Itoa(n))
		i = j - 1
	}
	return b.String(), args, nil
}

func isIdentByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

// paramText sends parameters as text and lets the server cast them.
func paramText(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool, int, int64:
		return fmt.Sprint(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// Sources fetches from every fetcher concurrently. Results that are nil or
// empty objects are dropped; a single remaining result is returned as-is,
// several are merged in order with later keys winning and non-object
// results kept under "value".
type Sources []Fetcher

// Fetch implements Fetcher.
func (s Sources) Fetch(ctx context.Context, cfg *monitor.MonitorConfig, params map[string]any) (any, error) {
	results := make([]any, len(s))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range s {
		g.Go(func() error {
			v, err := f.Fetch(gctx, cfg, params)
			results[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var parts []any
	for _, r := range results {
		if m, ok := r.(map[string]any); r == nil || ok && len(m) == 0 {
			continue
		}
		parts = append(parts, r)
	}

	switch len(parts) {
	case 0:
		if len(results) > 0 {
			return results[0], nil
		}
		return nil, nil
	case 1:
		return parts[0], nil
	}

	out := map[string]any{}
	for _, p := range parts {
		if m, ok := p.(map[string]any); ok {
			for k, v := range m {
				out[k] = v
			}
			continue
		}
		out["value"] = p
	}
	return out, nil
}
