// Package postgres implements store.Store over a PostgreSQL table holding one
// JSONB document per record:
//
//	records(collection text, profile_id text, doc jsonb)
//
// The table is provisioned outside of this service.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/underdogdevs/mentormatch/internal/profile"
	"github.com/underdogdevs/mentormatch/internal/store"
)

const (
	queryGet         = `SELECT doc FROM records WHERE collection = $1 AND profile_id = $2`
	queryAll         = `SELECT doc FROM records WHERE collection = $1 AND doc @> $2::jsonb ORDER BY profile_id`
	queryCount       = `SELECT count(*) FROM records WHERE collection = $1 AND doc @> $2::jsonb`
	queryCollections = `SELECT collection, count(*) FROM records GROUP BY collection ORDER BY collection`
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Options tunes the connection pool.
type Options struct {
	MaxConns     int32
	MinConns     int32
	MaxLifetime  time.Duration
	QueryTimeout time.Duration
}

// Store reads records from PostgreSQL.
type Store struct {
	db           querier
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	logger       *zap.Logger
}

// Open connects a pool to dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string, opts Options, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.ConnConfig.RuntimeParams["application_name"] = "mentormatch"
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MinConns = opts.MinConns
	if opts.MaxLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, store.Unavailable("connect", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, store.Unavailable("ping", err)
	}

	logger.Info("connected to postgres",
		zap.String("host", cfg.ConnConfig.Host),
		zap.String("database", cfg.ConnConfig.Database),
		zap.Int32("max_conns", cfg.MaxConns),
	)

	s := newStore(pool, opts.QueryTimeout, logger)
	s.pool = pool
	return s, nil
}

func newStore(db querier, timeout time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, queryTimeout: timeout, logger: logger}
}

// Close releases the pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Get(ctx context.Context, collection, id string) (profile.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var raw []byte
	err := s.db.QueryRow(ctx, queryGet, collection, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	if err != nil {
		return nil, store.Unavailable("get", err)
	}

	return decode(raw)
}

func (s *Store) QueryAll(ctx context.Context, collection string, filter store.Filter) ([]profile.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	containment, err := filterJSON(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, queryAll, collection, containment)
	if err != nil {
		return nil, store.Unavailable("query", err)
	}
	defer rows.Close()

	var out []profile.Record
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("query", err)
	}

	s.logger.Debug("queried records",
		zap.String("collection", collection),
		zap.String("filter", containment),
		zap.Int("count", len(out)),
	)

	return out, nil
}

func (s *Store) Count(ctx context.Context, collection string, filter store.Filter) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	containment, err := filterJSON(filter)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRow(ctx, queryCount, collection, containment).Scan(&n); err != nil {
		return 0, store.Unavailable("count", err)
	}

	return int(n), nil
}

func (s *Store) Collections(ctx context.Context) ([]store.CollectionInfo, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx, queryCollections)
	if err != nil {
		return nil, store.Unavailable("collections", err)
	}
	defer rows.Close()

	var infos []store.CollectionInfo
	for rows.Next() {
		var (
			name string
			n    int64
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		infos = append(infos, store.CollectionInfo{Name: name, Count: int(n)})
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("collections", err)
	}

	return infos, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// filterJSON renders an exact-match filter as a JSONB containment document.
func filterJSON(filter store.Filter) (string, error) {
	if len(filter) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(filter)
	if err != nil {
		return "", fmt.Errorf("encode filter: %w", err)
	}
	return string(data), nil
}

func decode(raw []byte) (profile.Record, error) {
	var rec profile.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
