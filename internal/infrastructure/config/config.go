package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/example/rental-broker/internal/domain/rental"
)

type Config struct {
	HTTPAddr string
	LogLevel string
	DevMode  bool

	FleetManifest string
	DatabaseURL   string // optional; needed only for postgres fleets

	CookieHashKey  []byte // base64, generated when empty
	CookieBlockKey []byte // base64, generated when empty

	Selection     string
	StatsSchedule string
	RemoteTimeout time.Duration
}

var defaults = map[string]any{
	"HTTP_ADDR":        ":8080",
	"LOG_LEVEL":        "info",
	"DEV_MODE":         false,
	"FLEET_MANIFEST":   "fleet.yaml",
	"DATABASE_URL":     "",
	"COOKIE_HASH_KEY":  "",
	"COOKIE_BLOCK_KEY": "",
	"SELECTION":        "random",
	"STATS_SCHEDULE":   "@every 1m",
	"REMOTE_TIMEOUT":   "10s",
}

// FromEnv reads configuration from the environment, falling back to an
// optional rentalbroker.yaml (in the working directory or
// /etc/rentalbroker), or to configFile when it is non-empty.
func FromEnv(configFile string) (Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("rentalbroker")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/rentalbroker")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		HTTPAddr:      strings.TrimSpace(v.GetString("HTTP_ADDR")),
		LogLevel:      strings.TrimSpace(v.GetString("LOG_LEVEL")),
		DevMode:       v.GetBool("DEV_MODE"),
		FleetManifest: strings.TrimSpace(v.GetString("FLEET_MANIFEST")),
		DatabaseURL:   strings.TrimSpace(v.GetString("DATABASE_URL")),
		Selection:     strings.ToLower(strings.TrimSpace(v.GetString("SELECTION"))),
		StatsSchedule: strings.TrimSpace(v.GetString("STATS_SCHEDULE")),
		RemoteTimeout: v.GetDuration("REMOTE_TIMEOUT"),
	}

	var err error
	cfg.CookieHashKey, err = optionalB64("COOKIE_HASH_KEY", v.GetString("COOKIE_HASH_KEY"))
	if err != nil {
		return cfg, err
	}
	cfg.CookieBlockKey, err = optionalB64("COOKIE_BLOCK_KEY", v.GetString("COOKIE_BLOCK_KEY"))
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if c.FleetManifest == "" {
		return fmt.Errorf("FLEET_MANIFEST is required")
	}
	if _, ok := rental.SelectorByName(c.Selection); !ok {
		return fmt.Errorf("SELECTION must be random or first (got %q)", c.Selection)
	}
	if c.StatsSchedule != "" {
		if _, err := cron.ParseStandard(c.StatsSchedule); err != nil {
			return fmt.Errorf("STATS_SCHEDULE %q: %w", c.StatsSchedule, err)
		}
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("REMOTE_TIMEOUT must be positive (got %s)", c.RemoteTimeout)
	}
	if n := len(c.CookieHashKey); n != 0 && n < 32 {
		return fmt.Errorf("COOKIE_HASH_KEY must decode to at least 32 bytes (got %d)", n)
	}
	switch len(c.CookieBlockKey) {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("COOKIE_BLOCK_KEY must decode to 16, 24 or 32 bytes (got %d)", len(c.CookieBlockKey))
	}
	return nil
}

func optionalB64(k, v string) ([]byte, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if b, err := base64.StdEncoding.DecodeString(v); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}
