package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ServerConfig defines the HTTP API listener.
type ServerConfig struct {
	Port            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxUploadMB     int64
}

// RedisConfig defines the analysis job store. An empty URL keeps jobs in
// process memory.
type RedisConfig struct {
	URL    string
	JobTTL time.Duration
}

// StorageConfig defines the S3 archive of sent messages.
type StorageConfig struct {
	Bucket      string
	Prefix      string
	ArchiveSent bool
}

// PathsConfig locates files on disk.
type PathsConfig struct {
	AppConfig     string
	UploadDir     string
	OutboxDir     string
	AttachmentDir string
}

// PreviewConfig bounds rendered page previews.
type PreviewConfig struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

// ScanConfig tunes page scanning.
type ScanConfig struct {
	Workers int
}

// MailConfig holds message defaults.
type MailConfig struct {
	From string
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Server  ServerConfig
	Redis   RedisConfig
	Storage StorageConfig
	Paths   PathsConfig
	Preview PreviewConfig
	Scan    ScanConfig
	Mail    MailConfig
}

// LoadDotEnv reads KEY=VALUE pairs from files into the environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	var existing []string
	for _, f := range files {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", filepath.Join("logs", "stopoverdispatch.log")),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "50"), 50),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "5"), 5),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_stopoverdispatch",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Server = ServerConfig{
		Port:            getEnv("PORT", "8080"),
		RequestTimeout:  parseDuration(getEnv("REQUEST_TIMEOUT", "60s"), 60*time.Second),
		ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		MaxUploadMB:     int64(parseInt(getEnv("MAX_UPLOAD_MB", "64"), 64)),
	}

	cfg.Redis = RedisConfig{
		URL:    getEnv("REDIS_URL", ""),
		JobTTL: parseDuration(getEnv("JOB_TTL", "24h"), 24*time.Hour),
	}

	cfg.Storage = StorageConfig{
		Bucket:      getEnv("AWS_S3_BUCKET", ""),
		Prefix:      strings.Trim(getEnv("AWS_S3_PREFIX", "stopover/sent"), "/"),
		ArchiveSent: parseBool(getEnv("ARCHIVE_SENT", "0")),
	}

	dataDir := getEnv("DATA_DIR", "data")
	cfg.Paths = PathsConfig{
		AppConfig:     getEnv("APP_CONFIG", filepath.Join(dataDir, "app_config.json")),
		UploadDir:     getEnv("UPLOAD_DIR", filepath.Join(dataDir, "uploads")),
		OutboxDir:     getEnv("OUTBOX_DIR", filepath.Join(dataDir, "outbox")),
		AttachmentDir: getEnv("ATTACHMENT_DIR", os.TempDir()),
	}

	cfg.Preview = PreviewConfig{
		MaxWidth:  parseInt(getEnv("PREVIEW_MAX_WIDTH", "1200"), 1200),
		MaxHeight: parseInt(getEnv("PREVIEW_MAX_HEIGHT", "800"), 800),
		Quality:   parseInt(getEnv("PREVIEW_JPEG_QUALITY", "85"), 85),
	}

	cfg.Scan = ScanConfig{
		Workers: parseInt(getEnv("SCAN_WORKERS", "1"), 1),
	}

	cfg.Mail = MailConfig{
		From: getEnv("MAIL_FROM", ""),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
