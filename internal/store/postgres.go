package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/filipexyz/compass/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the config table. Key uniqueness only applies to live rows.
const Schema = `
CREATE TABLE IF NOT EXISTS monitor_config (
	config_id   BIGSERIAL PRIMARY KEY,
	config_key  VARCHAR(100) NOT NULL,
	config_name VARCHAR(200) NOT NULL,
	config_json TEXT NOT NULL DEFAULT '',
	status      CHAR(1) NOT NULL DEFAULT '0',
	del_flag    CHAR(1) NOT NULL DEFAULT '0',
	remark      VARCHAR(500) NOT NULL DEFAULT '',
	create_by   VARCHAR(64) NOT NULL DEFAULT '',
	create_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	update_by   VARCHAR(64) NOT NULL DEFAULT '',
	update_time TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS monitor_config_live_key
	ON monitor_config (config_key) WHERE del_flag = '0';
`

const selectColumns = `config_id, config_key, config_name, config_json, status,
	remark, create_by, create_time, update_by, update_time`

const uniqueViolation = "23505"

// PostgresStore keeps records in a Postgres table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore on an existing pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate monitor_config: %w", err)
	}
	return nil
}

func scanConfig(row pgx.Row) (*domain.MonitorConfig, error) {
	var c domain.MonitorConfig
	err := row.Scan(
		&c.ID, &c.Key, &c.Name, &c.ConfigJSON, &c.Status,
		&c.Remark, &c.CreateBy, &c.CreateTime, &c.UpdateBy, &c.UpdateTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.CreateTime = c.CreateTime.UTC()
	c.UpdateTime = c.UpdateTime.UTC()
	return &c, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateKey
	}
	return err
}

// List returns the live records matching q ordered by ID.
func (s *PostgresStore) List(ctx context.Context, q domain.ConfigQuery) (*domain.ConfigList, error) {
	where := []string{"del_flag = '0'"}
	var args []any
	if q.Key != "" {
		args = append(args, q.Key)
		where = append(where, "config_key LIKE '%' || $"+strconv.Itoa(len(args))+" || '%'")
	}
	if q.Name != "" {
		args = append(args, q.Name)
		where = append(where, "config_name LIKE '%' || $"+strconv.Itoa(len(args))+" || '%'")
	}
	if q.Status != "" {
		args = append(args, q.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	list := &domain.ConfigList{Configs: []*domain.MonitorConfig{}}
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM monitor_config WHERE "+cond, args...).Scan(&list.Total); err != nil {
		return nil, fmt.Errorf("count configs: %w", err)
	}

	limit, offset := pageBounds(q)
	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT %s FROM monitor_config WHERE %s ORDER BY config_id LIMIT $%d OFFSET $%d",
		selectColumns, cond, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		list.Configs = append(list.Configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	return list, nil
}

// Get returns the live record with the given ID.
func (s *PostgresStore) Get(ctx context.Context, id int64) (*domain.MonitorConfig, error) {
	return scanConfig(s.db.QueryRow(ctx,
		"SELECT "+selectColumns+" FROM monitor_config WHERE config_id = $1 AND del_flag = '0'", id))
}

// GetByKey returns the live record with the given key.
func (s *PostgresStore) GetByKey(ctx context.Context, key string) (*domain.MonitorConfig, error) {
	return scanConfig(s.db.QueryRow(ctx,
		"SELECT "+selectColumns+" FROM monitor_config WHERE config_key = $1 AND del_flag = '0'", key))
}

// Create inserts cfg with a fresh ID.
func (s *PostgresStore) Create(ctx context.Context, cfg *domain.MonitorConfig) (*domain.MonitorConfig, error) {
	c, err := scanConfig(s.db.QueryRow(ctx, `
		INSERT INTO monitor_config (config_key, config_name, config_json, status, remark, create_by, update_by)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING `+selectColumns,
		cfg.Key, cfg.Name, cfg.ConfigJSON, cfg.Status, cfg.Remark, cfg.CreateBy,
	))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return c, nil
}

// Update replaces the mutable fields of the live record with cfg.ID.
func (s *PostgresStore) Update(ctx context.Context, cfg *domain.MonitorConfig) (*domain.MonitorConfig, error) {
	c, err := scanConfig(s.db.QueryRow(ctx, `
		UPDATE monitor_config
		SET config_key = $2, config_name = $3, config_json = $4, status = $5,
			remark = $6, update_by = $7, update_time = NOW()
		WHERE config_id = $1 AND del_flag = '0'
		RETURNING `+selectColumns,
		cfg.ID, cfg.Key, cfg.Name, cfg.ConfigJSON, cfg.Status, cfg.Remark, cfg.UpdateBy,
	))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return c, nil
}

// Delete flags the records as deleted.
func (s *PostgresStore) Delete(ctx context.Context, ids ...int64) ([]*domain.MonitorConfig, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		UPDATE monitor_config SET del_flag = '2', update_time = NOW()
		WHERE config_id = ANY($1) AND del_flag = '0'
		RETURNING `+selectColumns, ids)
	if err != nil {
		return nil, fmt.Errorf("delete configs: %w", err)
	}
	defer rows.Close()

	var deleted []*domain.MonitorConfig
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		deleted = append(deleted, c)
	}
	return deleted, rows.Err()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
