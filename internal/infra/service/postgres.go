package service

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx via database/sql
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Postgres adapts a PostgreSQL database as the durable store tier. Values
// live in a single kv_entries table with optional per-row expiry.
type Postgres struct {
	id string
	db *sqlx.DB
}

// NewPostgres opens the pool, verifies connectivity and applies embedded
// migrations.
func NewPostgres(ctx context.Context, id string, cfg PostgresConfig) (*Postgres, error) {
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	minConns := cfg.MinConns
	if minConns <= 0 {
		minConns = 2
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(minConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Postgres{id: id, db: db}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

func (p *Postgres) ID() string { return p.id }

func (p *Postgres) Kind() Kind { return KindPostgres }

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close() error { return p.db.Close() }

type kvRow struct {
	Value     string       `db:"value"`
	ExpiresAt sql.NullTime `db:"expires_at"`
}

func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var row kvRow
	query := `SELECT value, expires_at FROM kv_entries WHERE key = $1`
	err := p.db.GetContext(ctx, &row, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select failed: %w", err)
	}
	if row.ExpiresAt.Valid && time.Now().After(row.ExpiresAt.Time) {
		_, _ = p.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key)
		return "", ErrNotFound
	}
	return row.Value, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(ttl), Valid: true}
	}

	query := `
		INSERT INTO kv_entries (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = NOW()
	`
	if _, err := p.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

// DB exposes the underlying sqlx pool for operations that need raw SQL.
func (p *Postgres) DB() *sqlx.DB { return p.db }
