package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	Environment      = "ENV"
	HTTPAddr         = "HTTP_ADDR"
	WSAddr           = "WS_ADDR"
	APIPrefix        = "API_PREFIX"
	StoreDriver      = "STORE_DRIVER"
	DatabaseURL      = "DATABASE_URL"
	StoreTimeout     = "STORE_TIMEOUT"
	AWSRegion        = "AWS_REGION"
	AWSID            = "AWS_ID"
	AWSSecret        = "AWS_SECRET"
	AWSToken         = "AWS_TOKEN"
	DynamoDBEndpoint = "DYNAMODB_ENDPOINT"
	ChatRedisURL     = "CHAT_REDIS_URL"
	ChatRedisPass    = "CHAT_REDIS_PASS"
	AgentJWTSecret   = "AGENT_JWT_SECRET"
	CORSOrigins      = "CORS_ORIGINS"
	BusinessTimezone = "BUSINESS_TIMEZONE"
	QueueSize        = "QUEUE_SIZE"
	QueueWorkers     = "QUEUE_WORKERS"
	LogLevel         = "LOG_LEVEL"
)

func Get(key string) string {
	return os.Getenv(key)
}

func GetOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("env: required environment variable not set: " + key)
	}
	return val
}

// GetInt falls back to defaultVal when the variable is unset or not a positive integer.
func GetInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

func GetDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// GetList splits a comma separated variable, dropping blank entries.
func GetList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
