package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	sslModeDisable = "disable"
	sslModeRequire = "require"
)

type (
	Config struct {
		Host             string `mapstructure:"HOST"`
		Port             string `mapstructure:"PORT"`
		DBHost           string `mapstructure:"DB_HOST"`
		DBPort           string `mapstructure:"DB_PORT"`
		DBUser           string `mapstructure:"DB_USER"`
		DBPassword       string `mapstructure:"DB_PASSWORD"`
		DBName           string `mapstructure:"DB_NAME"`
		DBSSLMode        string `mapstructure:"DB_SSL_MODE"`
		ArchiveDir       string `mapstructure:"ARCHIVE_DIR"`
		FetchTimeoutSec  int    `mapstructure:"FETCH_TIMEOUT_SEC"`
		DefaultLinkLimit int    `mapstructure:"DEFAULT_LINK_LIMIT"`
	}
)

func NewConfig() (*Config, error) {
	viper.SetEnvPrefix("LINKVAULT")

	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", "1323")
	viper.SetDefault("DB_HOST", "0.0.0.0")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "db")
	viper.SetDefault("DB_SSL_MODE", sslModeDisable)
	viper.SetDefault("ARCHIVE_DIR", "data")
	viper.SetDefault("FETCH_TIMEOUT_SEC", 15)
	viper.SetDefault("DEFAULT_LINK_LIMIT", 0)

	envs := []string{
		"HOST", "PORT",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
		"ARCHIVE_DIR", "FETCH_TIMEOUT_SEC", "DEFAULT_LINK_LIMIT",
	}
	for _, key := range envs {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// FetchTimeout is the upper bound for a single outbound metadata fetch.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

func validate(cfg *Config) error {
	validSSLValues := []string{sslModeDisable, sslModeRequire}
	found := false
	for _, validValue := range validSSLValues {
		if cfg.DBSSLMode == validValue {
			found = true
			break
		}
	}
	if !found {
		return errors.New(fmt.Sprintf("DB SSL mode is invalid: %s", cfg.DBSSLMode))
	}
	if cfg.FetchTimeoutSec <= 0 {
		return errors.New(fmt.Sprintf("fetch timeout is invalid: %d", cfg.FetchTimeoutSec))
	}
	if cfg.DefaultLinkLimit < 0 {
		return errors.New(fmt.Sprintf("default link limit is invalid: %d", cfg.DefaultLinkLimit))
	}
	return nil
}
