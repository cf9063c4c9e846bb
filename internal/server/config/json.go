package config

import (
	"encoding/json"
	"os"

	"github.com/techroad/techroad/internal/flagx"
	"github.com/techroad/techroad/internal/timex"
)

// jsonConfig is the DTO used only for reading JSON configuration files. It
// uses timex.Duration so lifetimes can be written as "1h" or "720h". After
// unmarshalling, non-zero fields are copied onto the runtime Config.
type jsonConfig struct {
	Address         string         `json:"address"`
	DatabaseDSN     string         `json:"database_dsn"`
	SecretKey       string         `json:"secret_key"`
	AccessTokenTTL  timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL timex.Duration `json:"refresh_token_ttl"`
	Environment     string         `json:"environment"`
}

// parseJSON loads configuration from the JSON file named by the -c/-config
// flags. Missing flag means no file is loaded; an unreadable or invalid file
// panics, since the process cannot run with a half-applied config.
func parseJSON(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &jsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.Address != "" {
		config.Address = c.Address
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenTTL.Duration != 0 {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.RefreshTokenTTL.Duration != 0 {
		config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	}
	if c.Environment != "" {
		config.Environment = c.Environment
	}
}
