// Package config loads runtime settings from an optional config file and the
// environment. Environment variables win over file values.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"kitabu/internal/core"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendS3     = "s3"
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendRedis, BackendS3}

type Config struct {
	// HTTP server
	Port               string
	RateLimitPerMinute int

	// Storage
	StorageBackend string
	StorageTimeout time.Duration
	DataDir        string // seeds the memory backend
	SQLiteDBPath   string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisPrefix    string
	S3Bucket       string
	S3Prefix       string
	AWSRegion      string
	AWSProfile     string

	// Ledger
	DefaultBudget string
	Currency      string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Worker
	ExportDir string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads the file named by KITABU_CONFIG, if any, then the environment.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("KITABU_CONFIG"))
}

// LoadFile is Load with an explicit config file path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	var fc fileConfig
	if path != "" {
		loaded, err := readFile(path)
		if err != nil {
			return nil, err
		}
		fc = *loaded
	}
	return fromEnv(fc), nil
}

func fromEnv(fc fileConfig) *Config {
	return &Config{
		Port:               getEnv("PORT", or(fc.Port, "8081")),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", orInt(fc.RateLimitPerMinute, 60)),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", or(fc.Storage.Backend, BackendSQLite))),
		StorageTimeout: getEnvDuration("STORAGE_TIMEOUT", orDuration(fc.Storage.Timeout, 5*time.Second)),
		DataDir:        getEnv("DATA_DIR", fc.Storage.DataDir),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", or(fc.Storage.SQLitePath, "./data/kitabu.db")),
		RedisAddr:      getEnv("REDIS_ADDR", or(fc.Storage.Redis.Addr, "localhost:6379")),
		RedisPassword:  getEnv("REDIS_PASSWORD", fc.Storage.Redis.Password),
		RedisDB:        getEnvInt("REDIS_DB", fc.Storage.Redis.DB),
		RedisPrefix:    getEnv("REDIS_PREFIX", or(fc.Storage.Redis.Prefix, "kitabu")),
		S3Bucket:       getEnv("S3_BUCKET", fc.Storage.S3.Bucket),
		S3Prefix:       getEnv("S3_PREFIX", fc.Storage.S3.Prefix),
		AWSRegion:      getEnv("AWS_REGION", fc.Storage.S3.Region),
		AWSProfile:     getEnv("AWS_PROFILE", fc.Storage.S3.Profile),

		DefaultBudget: getEnv("DEFAULT_BUDGET", or(fc.DefaultBudget, "10000")),
		Currency:      getEnv("CURRENCY", or(fc.Currency, "KSh")),

		AMQPURL:      getEnv("AMQP_URL", fc.AMQP.URL),
		AMQPExchange: getEnv("AMQP_EXCHANGE", or(fc.AMQP.Exchange, "kitabu")),
		AMQPQueue:    getEnv("AMQP_QUEUE", or(fc.AMQP.Queue, "export_expenses")),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", fc.Google.SpreadsheetID),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", or(fc.Google.SheetName, "Expenses")),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", or(fc.Google.ServiceAccountFile, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))),

		ExportDir: getEnv("EXPORT_DIR", or(fc.ExportDir, "./exports")),

		LogLevel:  getEnv("LOG_LEVEL", or(fc.Log.Level, "info")),
		LogFormat: getEnv("LOG_FORMAT", or(fc.Log.Format, "text")),
	}
}

// Budget parses DefaultBudget.
func (c *Config) Budget() (core.Money, error) {
	return core.ParseMoney(c.DefaultBudget)
}

// SheetsEnabled reports whether a spreadsheet has been configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.StorageBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid storage backend '%s': must be one of %v", c.StorageBackend, validBackends))
	}

	switch c.StorageBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			errors = append(errors, "REDIS_ADDR is required when using redis backend")
		}
		if c.RedisDB < 0 {
			errors = append(errors, fmt.Sprintf("invalid redis db %d: must not be negative", c.RedisDB))
		}
	case BackendS3:
		if c.S3Bucket == "" {
			errors = append(errors, "S3_BUCKET is required when using s3 backend")
		}
	}

	if c.StorageTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid storage timeout %v: must not be negative", c.StorageTimeout))
	}

	if _, err := c.Budget(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default budget '%s': %v", c.DefaultBudget, err))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet is configured")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for Google Sheets export")
		} else if c.GoogleServiceAccountFile != "" && c.GoogleServiceAccountJSON == "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func orDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}
