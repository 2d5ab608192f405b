package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "CALMCHORES_"

// Config holds every runtime setting of the server and CLI.
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	VAPIDPublicKey  string
	VAPIDPrivateKey string

	S3               S3Config
	BackupPassphrase string
	BackupInterval   time.Duration
	BackupRetention  int

	SessionTTL     time.Duration
	SecureCookies  bool
	AllowedOrigins []string
}

// S3Config describes an S3-compatible bucket for backups.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Enabled reports whether enough is set to talk to the bucket.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Load reads configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Port:      getString("PORT", "8080"),
		DBPath:    getString("DB_PATH", "calmchores.db"),
		LogLevel:  getString("LOG_LEVEL", "info"),
		LogFormat: getString("LOG_FORMAT", "text"),

		VAPIDPublicKey:  getString("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getString("VAPID_PRIVATE_KEY", ""),

		S3: S3Config{
			Endpoint:  getString("S3_ENDPOINT", ""),
			Bucket:    getString("S3_BUCKET", ""),
			Region:    getString("S3_REGION", "us-east-1"),
			AccessKey: getString("S3_ACCESS_KEY", ""),
			SecretKey: getString("S3_SECRET_KEY", ""),
		},
		BackupPassphrase: getString("BACKUP_PASSPHRASE", ""),
		BackupInterval:   getDuration("BACKUP_INTERVAL", 24*time.Hour),
		BackupRetention:  getInt("BACKUP_RETENTION_DAYS", 30),

		SessionTTL:     getDuration("SESSION_TTL", 30*24*time.Hour),
		SecureCookies:  getBool("SECURE_COOKIES", false),
		AllowedOrigins: getList("ALLOWED_ORIGINS"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// PushEnabled reports whether a VAPID key pair is configured.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%sLOG_FORMAT must be text or json, got %q", envPrefix, c.LogFormat)
	}
	if (c.VAPIDPublicKey == "") != (c.VAPIDPrivateKey == "") {
		return fmt.Errorf("%sVAPID_PUBLIC_KEY and %sVAPID_PRIVATE_KEY must be set together", envPrefix, envPrefix)
	}
	if c.S3.Enabled() && c.BackupPassphrase == "" {
		return fmt.Errorf("%sBACKUP_PASSPHRASE is required when S3 backups are configured", envPrefix)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%sSESSION_TTL must be positive", envPrefix)
	}
	return nil
}

func getString(key, fallback string) string {
	if val := os.Getenv(envPrefix + key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(envPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(envPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(envPrefix + key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

// getList splits a comma-separated variable, dropping empty entries.
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(envPrefix+key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
