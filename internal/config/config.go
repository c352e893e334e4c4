package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAllowedMimeTypes is the upload allow-list used when UPLOAD_ALLOWED_MIME_TYPES is unset:
// images, PDF, common office formats, plain text and CSV.
var DefaultAllowedMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/heic",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.oasis.opendocument.text",
	"application/vnd.oasis.opendocument.spreadsheet",
	"text/plain",
	"text/csv",
}

type Config struct {
	// Application
	AppEnv string
	AppURL string
	Port   string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret    string
	AuthRequired bool // Mutating routes reject requests without an actor

	// Observability (optional)
	SentryDSN     string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int

	// Storage
	StorageDriver string // "local" or "s3"
	StorageRoot   string // Local disk root
	StoragePrefix string // Purpose directory inside the root / bucket

	// Uploads
	UploadMaxSize          int64
	UploadAllowedMimeTypes []string
	UploadRateLimit        int // Uploads per client IP per window, 0 disables
	UploadRateWindow       time.Duration

	// Inline view
	CORSAllowedOrigin string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)

	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	appEnv := envString("APP_ENV", "development")

	cfg := &Config{
		// Application
		AppEnv: appEnv,
		AppURL: envString("APP_URL", "http://localhost:8090"),
		Port:   envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/attachments.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),

		// Security
		JWTSecret:    envString("JWT_SECRET", ""),
		AuthRequired: envBool("AUTH_REQUIRED", appEnv == "production"),

		// Observability
		SentryDSN:     envString("SENTRY_DSN", ""),
		LogFile:       envString("LOG_FILE", ""),
		LogMaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: envInt("LOG_MAX_BACKUPS", 5),

		// Storage
		StorageDriver: envString("STORAGE_DRIVER", "local"),
		StorageRoot:   envString("STORAGE_ROOT", "./data/uploads"),
		StoragePrefix: envString("STORAGE_PREFIX", "attachments"),

		// Uploads
		UploadMaxSize:          int64(envInt("UPLOAD_MAX_SIZE", 10<<20)), // 10 MB
		UploadAllowedMimeTypes: envList("UPLOAD_ALLOWED_MIME_TYPES", DefaultAllowedMimeTypes),
		UploadRateLimit:        envInt("UPLOAD_RATE_LIMIT", 60),
		UploadRateWindow:       envDuration("UPLOAD_RATE_WINDOW", time.Minute),

		CORSAllowedOrigin: envString("CORS_ALLOWED_ORIGIN", "*"),

		// S3 (only read by the s3 driver)
		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),

		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	if cfg.UploadMaxSize <= 0 {
		slog.Error("config UPLOAD_MAX_SIZE must be positive")
		os.Exit(1)
	}

	if cfg.StorageDriver == "s3" && cfg.S3Bucket == "" {
		slog.Error("config S3_BUCKET is required when STORAGE_DRIVER=s3")
		os.Exit(1)
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures an actor can actually be established when auth is enforced.
func validateProduction(cfg *Config) {
	if cfg.AuthRequired && cfg.JWTSecret == "" {
		slog.Error("production deployment with AUTH_REQUIRED requires JWT_SECRET",
			"hint", "set AUTH_REQUIRED=false to accept anonymous uploads")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping blanks.
func envList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
