package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application-level configuration. It is built once at
// startup and passed by reference; no component reads the environment
// directly.
type Config struct {
	// Storage
	DatabasePath string // SQLite file, used when DatabaseURL is empty
	DatabaseURL  string // Postgres DSN, takes precedence when set

	// Filters
	MinPrice      int64
	MaxPrice      int64 // 0 = no ceiling
	ZipCodes      []string
	PropertyTypes []string // "all" disables the type filter
	Keywords      []string
	Counties      []string

	// Notifications
	DiscordWebhookURL string
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPassword      string
	NotifyEmail       string
	WebhookURL        string

	// Browser
	Headless        bool
	ScreenshotOnNew bool
	ScreenshotsDir  string
	NavTimeoutSec   int
	RateLimitDelay  int // milliseconds between page loads
}

// Load reads configuration from environment variables or falls back to
// defaults. A .env file in the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DatabasePath:      getEnv("DATABASE_PATH", filepath.Join("data", "properties.db")),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		MinPrice:          getEnvInt64("MIN_PRICE", 0),
		MaxPrice:          getEnvInt64("MAX_PRICE", 0),
		ZipCodes:          getEnvList("ZIP_CODES"),
		PropertyTypes:     getEnvListLower("PROPERTY_TYPES", "all"),
		Keywords:          getEnvListLower("KEYWORDS", ""),
		Counties:          getEnvListLower("COUNTIES", ""),
		DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnvInt("SMTP_PORT", 587),
		SMTPUser:          getEnv("SMTP_USER", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		NotifyEmail:       getEnv("NOTIFY_EMAIL", ""),
		WebhookURL:        getEnv("WEBHOOK_URL", ""),
		Headless:          getEnvBool("HEADLESS", true),
		ScreenshotOnNew:   getEnvBool("SCREENSHOT_ON_NEW", true),
		ScreenshotsDir:    getEnv("SCREENSHOTS_DIR", "screenshots"),
		NavTimeoutSec:     getEnvInt("NAV_TIMEOUT_SEC", 30),
		RateLimitDelay:    getEnvInt("RATE_LIMIT_DELAY_MS", 2000),
	}
}

// EnsureDirectories creates the data and screenshot directories.
func (c *Config) EnsureDirectories() error {
	if c.DatabaseURL == "" {
		if err := os.MkdirAll(filepath.Dir(c.DatabasePath), 0o755); err != nil {
			return err
		}
	}
	if c.ScreenshotOnNew {
		if err := os.MkdirAll(c.ScreenshotsDir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return strings.EqualFold(val, "true") || val == "1"
	}
	return defaultVal
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvListLower(key, defaultVal string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		raw = defaultVal
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
