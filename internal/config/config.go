package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the base server configuration.
type Config struct {
	Host         string
	Port         string
	SQLiteDBPath string
	AllowTestMode bool

	JWTSecret                string
	JWTAccessTokenExpirySec  int
	JWTRefreshTokenExpirySec int
	PairingCode              string

	// NaimTimeoutMs bounds every HTTP call to a device. A hung device must
	// never stall its poller past one tick.
	NaimTimeoutMs        int
	PollIntervalMs       int
	PollFailureThreshold int
	MaxDevices           int

	// SourceNamesPath optionally points to a YAML file overlaying the
	// built-in source-id to display-name table.
	SourceNamesPath string

	HistoryRetentionDays int
}

// Load reads configuration from environment variables with defaults.
func Load() (Config, error) {
	cfg := Config{
		Host:                     envString("HOST", "0.0.0.0"),
		Port:                     envString("PORT", "9000"),
		SQLiteDBPath:             envString("SQLITE_DB_PATH", "./data/naim-hub.db"),
		AllowTestMode:            envBool("ALLOW_TEST_MODE", false),
		JWTSecret:                envString("JWT_SECRET", ""),
		JWTAccessTokenExpirySec:  envInt("JWT_ACCESS_TOKEN_EXPIRY", 3600),
		JWTRefreshTokenExpirySec: envInt("JWT_REFRESH_TOKEN_EXPIRY", 2592000),
		PairingCode:              envString("PAIRING_CODE", ""),
		NaimTimeoutMs:            envInt("NAIM_TIMEOUT_MS", 3000),
		PollIntervalMs:           envInt("POLL_INTERVAL_MS", 5000),
		PollFailureThreshold:     envInt("POLL_FAILURE_THRESHOLD", 3),
		MaxDevices:               envInt("MAX_DEVICES", 10),
		SourceNamesPath:          envString("SOURCE_NAMES_PATH", ""),
		HistoryRetentionDays:     envInt("HISTORY_RETENTION_DAYS", 90),
	}

	if len(strings.TrimSpace(cfg.JWTSecret)) < 32 {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if cfg.PollIntervalMs <= 0 {
		return Config{}, fmt.Errorf("POLL_INTERVAL_MS must be positive")
	}
	if cfg.MaxDevices <= 0 {
		return Config{}, fmt.Errorf("MAX_DEVICES must be positive")
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.EqualFold(val, "true")
}
