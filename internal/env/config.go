package env

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
)

// Config holds everything the binaries need at startup.
type Config struct {
	Env          string
	HTTPAddr     string
	WSAddr       string
	APIPrefix    string
	LogLevel     string
	StoreDriver  string
	DatabaseURL  string
	StoreTimeout time.Duration

	AWSRegion        string
	AWSID            string
	AWSSecret        string
	AWSToken         string
	DynamoDBEndpoint string

	RedisURL  string
	RedisPass string

	AgentJWTSecret   string
	CORSOrigins      []string
	BusinessTimezone string

	QueueSize    int
	QueueWorkers int
}

// Load reads a .env file when present and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:              GetOrDefault(Environment, "development"),
		HTTPAddr:         GetOrDefault(HTTPAddr, ":8080"),
		WSAddr:           GetOrDefault(WSAddr, ":8083"),
		APIPrefix:        strings.TrimRight(GetOrDefault(APIPrefix, "/api/chat"), "/"),
		LogLevel:         GetOrDefault(LogLevel, "info"),
		StoreDriver:      strings.ToLower(GetOrDefault(StoreDriver, DriverSQLite)),
		DatabaseURL:      Get(DatabaseURL),
		StoreTimeout:     GetDuration(StoreTimeout, 5*time.Second),
		AWSRegion:        Get(AWSRegion),
		AWSID:            Get(AWSID),
		AWSSecret:        Get(AWSSecret),
		AWSToken:         Get(AWSToken),
		DynamoDBEndpoint: Get(DynamoDBEndpoint),
		RedisURL:         Get(ChatRedisURL),
		RedisPass:        Get(ChatRedisPass),
		AgentJWTSecret:   Get(AgentJWTSecret),
		CORSOrigins:      GetList(CORSOrigins),
		BusinessTimezone: Get(BusinessTimezone),
		QueueSize:        GetInt(QueueSize, 64),
		QueueWorkers:     GetInt(QueueWorkers, 16),
	}

	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:3000"}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("env: %s is required for the %s driver", DatabaseURL, c.StoreDriver)
		}
	case DriverDynamoDB:
		if c.AWSRegion == "" {
			return fmt.Errorf("env: %s is required for the %s driver", AWSRegion, c.StoreDriver)
		}
	default:
		return fmt.Errorf("env: unknown %s %q", StoreDriver, c.StoreDriver)
	}

	if c.IsProduction() && c.StoreDriver == DriverMemory {
		return fmt.Errorf("env: the %s driver is not allowed in production", DriverMemory)
	}
	if c.IsProduction() && c.StoreDriver == DriverSQLite && c.DatabaseURL == "" {
		return fmt.Errorf("env: %s is required for the %s driver in production", DatabaseURL, c.StoreDriver)
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves BUSINESS_TIMEZONE, defaulting to the server's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.BusinessTimezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("env: load %s: %w", BusinessTimezone, err)
	}
	return loc, nil
}
