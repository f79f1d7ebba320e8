package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string // empty disables the gRPC listener

	Env      string // "dev" | "prod"
	LogLevel string

	// Storage
	DBDriver    string // "sqlite" | "postgres" | "memory"
	DBPath      string // sqlite file, e.g. "./data/checkin.db"
	DatabaseURL string // postgres DSN

	// Ledger
	AppendTimeout time.Duration

	// Event notification; empty URL disables publishing.
	AMQPURL      string
	AMQPExchange string

	// Ledger archive; empty bucket disables the archiver.
	ArchiveEndpoint  string
	ArchiveAccessKey string
	ArchiveSecretKey string
	ArchiveBucket    string
	ArchiveRegion    string
	ArchiveUseSSL    bool
	ArchivePrefix    string
	ArchiveInterval  time.Duration
	ArchivePageSize  int

	// Seed the two demo employees on startup (dev only).
	SeedDev bool
}

// Load reads variables from the given .env files (default ".env") into the
// process environment, then calls FromEnv.  Variables already set win, and
// missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	return FromEnv(), nil
}

func FromEnv() Config {
	env := strings.ToLower(getenvDefault("CHECKIN_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	driver := strings.ToLower(getenvDefault("CHECKIN_DB_DRIVER", "sqlite"))
	switch driver {
	case "sqlite", "postgres", "memory":
	default:
		driver = "sqlite"
	}

	return Config{
		HTTPAddr: getenvDefault("CHECKIN_HTTP_ADDR", ":8080"),
		GRPCAddr: os.Getenv("CHECKIN_GRPC_ADDR"),
		Env:      env,
		LogLevel: getenvDefault("CHECKIN_LOG_LEVEL", "info"),

		DBDriver:    driver,
		DBPath:      getenvDefault("CHECKIN_DB_PATH", "./data/checkin.db"),
		DatabaseURL: os.Getenv("CHECKIN_DATABASE_URL"),

		AppendTimeout: getenvDuration("CHECKIN_APPEND_TIMEOUT", 2*time.Second),

		AMQPURL:      os.Getenv("CHECKIN_AMQP_URL"),
		AMQPExchange: getenvDefault("CHECKIN_AMQP_EXCHANGE", "checkin.events"),

		ArchiveEndpoint:  getenvDefault("CHECKIN_ARCHIVE_ENDPOINT", "localhost:9000"),
		ArchiveAccessKey: os.Getenv("CHECKIN_ARCHIVE_ACCESS_KEY"),
		ArchiveSecretKey: os.Getenv("CHECKIN_ARCHIVE_SECRET_KEY"),
		ArchiveBucket:    os.Getenv("CHECKIN_ARCHIVE_BUCKET"),
		ArchiveRegion:    os.Getenv("CHECKIN_ARCHIVE_REGION"),
		ArchiveUseSSL:    getenvBool("CHECKIN_ARCHIVE_USE_SSL"),
		ArchivePrefix:    getenvDefault("CHECKIN_ARCHIVE_PREFIX", "access-events"),
		ArchiveInterval:  getenvDuration("CHECKIN_ARCHIVE_INTERVAL", 15*time.Minute),
		ArchivePageSize:  getenvInt("CHECKIN_ARCHIVE_PAGE_SIZE", 500),

		SeedDev: env == "dev" && getenvBool("CHECKIN_SEED_DEV"),
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return strings.EqualFold(v, "true") || v == "1"
}

// getenvDuration accepts Go durations ("1500ms") or whole seconds ("2").
func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
