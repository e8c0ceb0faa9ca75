package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(StoreDriver, "")
	t.Setenv(APIPrefix, "")
	t.Setenv(StoreTimeout, "")
	t.Setenv(CORSOrigins, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/api/chat", cfg.APIPrefix)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadParsesLists(t *testing.T) {
	t.Setenv(StoreDriver, DriverMemory)
	t.Setenv(CORSOrigins, "https://dealer.example, ,https://admin.dealer.example")
	t.Setenv(QueueWorkers, "4")
	t.Setenv(APIPrefix, "/support/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://dealer.example", "https://admin.dealer.example"}, cfg.CORSOrigins)
	assert.Equal(t, 4, cfg.QueueWorkers)
	assert.Equal(t, "/support", cfg.APIPrefix)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory in development", Config{Env: "development", StoreDriver: DriverMemory}, false},
		{"memory in production", Config{Env: "production", StoreDriver: DriverMemory}, true},
		{"sqlite default path in development", Config{Env: "development", StoreDriver: DriverSQLite}, false},
		{"sqlite without url in production", Config{Env: "production", StoreDriver: DriverSQLite}, true},
		{"postgres without url", Config{StoreDriver: DriverPostgres}, true},
		{"postgres with url", Config{StoreDriver: DriverPostgres, DatabaseURL: "postgres://localhost/chat"}, false},
		{"dynamo without region", Config{StoreDriver: DriverDynamoDB}, true},
		{"unknown driver", Config{StoreDriver: "mongo"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	loc, err := Config{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	_, err = Config{BusinessTimezone: "Not/AZone"}.Location()
	assert.Error(t, err)
}
