package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type PostgresConfig struct {
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDatabase string
	PostgresSSLMode  string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

type Postgres struct {
	conn *sql.DB
}

func NewPostgres(cfg PostgresConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &Postgres{conn: db}, nil
}

// NewPostgresWithDB wraps an existing connection. Used by tests with sqlmock.
func NewPostgresWithDB(db *sql.DB) *Postgres {
	return &Postgres{conn: db}
}

func (p *Postgres) HealthCheck(ctx context.Context) error {
	return p.conn.PingContext(ctx)
}

func (p *Postgres) Close() error {
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *Postgres) GetClient() *sql.DB {
	return p.conn
}

// DSN returns the connection string built from the configuration.
func (cfg PostgresConfig) DSN() string {
	return buildDSN(cfg)
}

func buildDSN(cfg PostgresConfig) string {
	if cfg.PostgresSSLMode == "" {
		cfg.PostgresSSLMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.PostgresHost,
		cfg.PostgresPort,
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.PostgresDatabase,
		cfg.PostgresSSLMode,
	)
}
