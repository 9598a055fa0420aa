package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by FACTSTORE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("FACTSTORE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DBDialect returns "sqlite" or "postgres". Defaults to sqlite.
func DBDialect() string {
	d := os.Getenv("DB_DIALECT")
	if d == "" {
		return "sqlite"
	}
	return d
}

// DatabaseURL is the PostgreSQL connection string.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// DBPath is the SQLite database file.
func DBPath() string {
	p := os.Getenv("DB_PATH")
	if p == "" {
		return "data/factstore.db"
	}
	return p
}

// DSN returns the connection string for the configured dialect.
func DSN() string {
	if DBDialect() == "postgres" {
		return DatabaseURL()
	}
	return DBPath()
}

// IndexPath is the on-disk search index directory. Empty means in-memory.
func IndexPath() string {
	p, ok := os.LookupEnv("INDEX_PATH")
	if !ok {
		return "data/factstore.bleve"
	}
	return p
}

// APIKey enables bearer authentication on /v1 when set.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// PolicyFile is the optional YAML maintenance policy.
func PolicyFile() string {
	return os.Getenv("POLICY_FILE")
}

// ExpireInterval returns how often expired working facts are swept.
// Defaults to 5m if not set.
func ExpireInterval() time.Duration {
	d, err := time.ParseDuration(os.Getenv("EXPIRE_INTERVAL"))
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
