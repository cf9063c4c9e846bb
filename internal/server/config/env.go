package config

import (
	"os"
	"time"
)

// parseEnv overlays settings from environment variables. Unset variables
// leave the current value untouched; TTLs use time.ParseDuration syntax.
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("ADDRESS"); ok {
		config.Address = v
	}
	if v, ok := os.LookupEnv("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("JWT_SECRET"); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv("APP_ENV"); ok {
		config.Environment = v
	}
	if v, ok := os.LookupEnv("ACCESS_TOKEN_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.AccessTokenTTL = d
		}
	}
	if v, ok := os.LookupEnv("REFRESH_TOKEN_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.RefreshTokenTTL = d
		}
	}
}
