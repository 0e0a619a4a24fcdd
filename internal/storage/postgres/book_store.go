// Package postgres provides the Postgres-backed record sink.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookharvest/bookharvest/internal/crawler"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for book rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// BookStore upserts records into Postgres. The target table needs a unique
// constraint on (title, upc):
//
//	CREATE TABLE books (
//		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//		title TEXT NOT NULL,
//		category TEXT,
//		price DOUBLE PRECISION,
//		currency TEXT,
//		rating INTEGER,
//		availability INTEGER,
//		image_url TEXT,
//		description TEXT,
//		upc TEXT NOT NULL,
//		product_type TEXT,
//		number_of_reviews INTEGER,
//		UNIQUE (title, upc)
//	);
type BookStore struct {
	pool  execCloser
	table string
}

// NewBookStore creates a Postgres-backed BookStore from the provided config.
func NewBookStore(ctx context.Context, cfg Config) (*BookStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "books"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &BookStore{pool: pool, table: table}, nil
}

// NewBookStoreWithPool constructs a store from an existing pool (primarily
// for testing with pgxmock).
func NewBookStoreWithPool(pool execCloser, table string) (*BookStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "books"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &BookStore{pool: pool, table: table}, nil
}

// Upsert writes a record, overwriting any previously stored row with the
// same (title, upc) natural key. Re-running a crawl against an unchanged
// source therefore converges to the same stored state.
func (s *BookStore) Upsert(ctx context.Context, rec crawler.Record) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("book store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	title,
	category,
	price,
	currency,
	rating,
	availability,
	image_url,
	description,
	upc,
	product_type,
	number_of_reviews
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
ON CONFLICT (title, upc) DO UPDATE SET
	category = EXCLUDED.category,
	price = EXCLUDED.price,
	currency = EXCLUDED.currency,
	rating = EXCLUDED.rating,
	availability = EXCLUDED.availability,
	image_url = EXCLUDED.image_url,
	description = EXCLUDED.description,
	product_type = EXCLUDED.product_type,
	number_of_reviews = EXCLUDED.number_of_reviews`, s.table)

	var rating any
	if rec.Rating != crawler.RatingUnknown {
		rating = rec.Rating
	}
	args := []any{
		rec.Title,
		rec.Category,
		rec.Price,
		rec.Currency,
		rating,
		rec.Availability,
		rec.ImageURL,
		rec.Description,
		rec.UPC,
		rec.ProductType,
		rec.NumberOfReviews,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert book: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *BookStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
