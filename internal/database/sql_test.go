package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealer-support-chat/internal/env"
)

func TestOpenSQLMigratesSQLite(t *testing.T) {
	cfg := env.Config{
		StoreDriver:  env.DriverSQLite,
		DatabaseURL:  "file::memory:?_foreign_keys=on",
		StoreTimeout: time.Second,
	}

	db, err := OpenSQL(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	var tables []string
	err = db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	require.NoError(t, err)
	assert.Contains(t, tables, "inquiries")
	assert.Contains(t, tables, "inquiry_messages")

	require.NoError(t, Migrate(context.Background(), db), "migrate must be repeatable")
}

func TestOpenSQLRejectsNonRelationalDriver(t *testing.T) {
	_, err := OpenSQL(context.Background(), env.Config{StoreDriver: env.DriverDynamoDB})
	assert.Error(t, err)
}
