package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	MemoryLolBaseURL string
	WaybackCDXURL    string
	WaybackWebURL    string
	OEmbedURL        string

	HTTPTimeout     time.Duration
	MaxRetries      int
	MaxConcurrency  int
	RateLimitMs     int
	RecoverText     bool
	RenderSnapshots bool
	ChromeBin       string
	UserAgentsFile  string

	AppPassword string
	ListenAddr  string
	OutputDir   string

	StorageDriver    string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	SQLitePath       string

	LogLevel string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	return &Config{
		MemoryLolBaseURL: getEnv("MEMORYLOL_BASE_URL", "https://api.memory.lol"),
		WaybackCDXURL:    getEnv("WAYBACK_CDX_URL", "https://web.archive.org/cdx/search/cdx"),
		WaybackWebURL:    getEnv("WAYBACK_WEB_URL", "https://web.archive.org/web"),
		OEmbedURL:        getEnv("OEMBED_URL", "https://publish.twitter.com/oembed"),

		HTTPTimeout:     time.Duration(getEnvInt("HTTP_TIMEOUT_SEC", 30)) * time.Second,
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 1),
		RateLimitMs:     getEnvInt("RATE_LIMIT_MS", 500),
		RecoverText:     getEnvBool("RECOVER_TEXT", true),
		RenderSnapshots: getEnvBool("RENDER_SNAPSHOTS", false),
		ChromeBin:       getEnv("CHROME_BIN", ""),
		UserAgentsFile:  getEnv("USER_AGENTS_FILE", ""),

		AppPassword: getEnv("APP_PASSWORD", ""),
		ListenAddr:  getEnv("LISTEN_ADDR", ":8501"),
		OutputDir:   getEnv("OUTPUT_DIR", "./output"),

		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", "none")),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "analyzer"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "analyzer123"),
		PostgresDB:       getEnv("POSTGRES_DB", "archive_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		SQLitePath:       getEnv("SQLITE_PATH", "./output/archive.db"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
