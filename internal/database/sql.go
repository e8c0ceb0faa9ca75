package database

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"dealer-support-chat/internal/env"
)

const defaultSQLitePath = "file:support-chat.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"

// OpenSQL connects to the relational store selected by cfg.StoreDriver and
// creates the schema when it is missing.
func OpenSQL(ctx context.Context, cfg env.Config) (*sqlx.DB, error) {
	var driver, dsn string
	switch cfg.StoreDriver {
	case env.DriverPostgres:
		driver, dsn = "pgx", cfg.DatabaseURL
	case env.DriverSQLite:
		driver, dsn = "sqlite3", cfg.DatabaseURL
		if dsn == "" {
			dsn = defaultSQLitePath
		}
	default:
		return nil, fmt.Errorf("open sql: driver %q is not relational", cfg.StoreDriver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite3" && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the inquiry tables if they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	ts := "TIMESTAMP"
	if db.DriverName() == "pgx" {
		ts = "TIMESTAMPTZ"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS inquiries (
			id TEXT PRIMARY KEY,
			customer_key TEXT NOT NULL,
			session_token TEXT NOT NULL,
			customer_name TEXT NOT NULL DEFAULT '',
			customer_email TEXT NOT NULL DEFAULT '',
			customer_phone TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			assigned_to TEXT,
			priority TEXT NOT NULL,
			customer_message TEXT NOT NULL DEFAULT '',
			message_count INTEGER NOT NULL DEFAULT 0,
			last_message_at ` + ts + `,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_inquiries_customer_key ON inquiries(customer_key, created_at)`,
		`CREATE TABLE IF NOT EXISTS inquiry_messages (
			id TEXT PRIMARY KEY,
			inquiry_id TEXT NOT NULL REFERENCES inquiries(id) ON DELETE CASCADE,
			sender TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_inquiry_messages_inquiry ON inquiry_messages(inquiry_id, created_at, id)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
