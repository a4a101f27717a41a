package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB is the connection pool of the decision journal
type DB struct {
	*sql.DB
}

type Config struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	MaxConnections  int
	SSLMode         string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DSN renders the lib/pq key/value connection string
func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode,
	)
}

// New opens the journal connection pool and pings it
func New(cfg Config) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	cfg = cfg.withDefaults()
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(max(cfg.MaxConnections/2, 1))
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}

	return &DB{DB: db}, nil
}

func (c Config) withDefaults() Config {
	if c.MaxConnections <= 0 {
		c.MaxConnections = 10
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 30 * time.Minute
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = 10 * time.Second
	}
	return c
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// HealthCheck pings the journal; the readiness endpoint uses it
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("journal database unreachable: %w", err)
	}
	return nil
}
