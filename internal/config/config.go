// Package config loads runtime settings from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	DBPath     string
	APIBaseURL string

	PharmacyName string

	LogLevel  string
	LogFormat string

	SessionTTL time.Duration

	BackupDir        string
	BackupPassphrase string
	BackupKeep       int
	BackupAt         string

	LoginRateInterval time.Duration
	LoginRateBurst    int64
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first if present; real environment
// variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:       envOr("MEDILABEL_PORT", "8080"),
		DBPath:     envOr("MEDILABEL_DB_PATH", "medilabel.db"),
		APIBaseURL: os.Getenv("MEDILABEL_API_BASE_URL"),

		PharmacyName: envOr("MEDILABEL_PHARMACY_NAME", "Hospital Pharmacy"),

		LogLevel:  envOr("MEDILABEL_LOG_LEVEL", "info"),
		LogFormat: envOr("MEDILABEL_LOG_FORMAT", "text"),

		BackupDir:        envOr("MEDILABEL_BACKUP_DIR", "backups"),
		BackupPassphrase: os.Getenv("MEDILABEL_BACKUP_PASSPHRASE"),
		BackupAt:         envOr("MEDILABEL_BACKUP_AT", "03:30"),
	}

	var err error
	if cfg.SessionTTL, err = durationOr("MEDILABEL_SESSION_TTL", 12*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BackupKeep, err = intOr("MEDILABEL_BACKUP_KEEP", 14); err != nil {
		return nil, err
	}
	if cfg.LoginRateInterval, err = durationOr("MEDILABEL_LOGIN_RATE_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}
	burst, err := intOr("MEDILABEL_LOGIN_RATE_BURST", 5)
	if err != nil {
		return nil, err
	}
	cfg.LoginRateBurst = int64(burst)

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("MEDILABEL_API_BASE_URL is required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
