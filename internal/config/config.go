package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server's runtime configuration, read from LOOTDRAW_* env vars.
type Config struct {
	Addr      string `env:"ADDR" envDefault:":8080"`
	ConfigDir string `env:"CONFIG_DIR" envDefault:"./config"`
	Game      string `env:"GAME" envDefault:"default"`
	Pool      string `env:"POOL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	StatsCapacity   int           `env:"STATS_CAPACITY" envDefault:"10000"`
	StatsTTL        time.Duration `env:"STATS_TTL" envDefault:"24h"`
	HistoryCapacity int           `env:"HISTORY_CAPACITY" envDefault:"10000"`
	HistoryTTL      time.Duration `env:"HISTORY_TTL" envDefault:"24h"`
	HistoryPerUser  int           `env:"HISTORY_PER_ACCOUNT" envDefault:"100"`

	WatchInterval time.Duration `env:"WATCH_INTERVAL" envDefault:"5s"`
	StartBalance  int64         `env:"START_BALANCE" envDefault:"2000"`
	Seed          uint64        `env:"SEED"` // 0 = crypto RNG
}

const envPrefix = "LOOTDRAW_"

// Parse loads Config from the process environment.
func Parse() (Config, error) {
	return parse(env.Options{Prefix: envPrefix})
}

// ParseFrom loads Config from the given variables instead of the process
// environment. Keys include the LOOTDRAW_ prefix.
func ParseFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: envPrefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.StartBalance < 0 {
		return fmt.Errorf("%sSTART_BALANCE must be >= 0", envPrefix)
	}
	if c.WatchInterval < 0 {
		return fmt.Errorf("%sWATCH_INTERVAL must be >= 0", envPrefix)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%sLOG_FORMAT must be text or json", envPrefix)
	}
	return nil
}
