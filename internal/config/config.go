// Package config loads mapty settings from .env, config.yaml and MAPTY_* variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Map      MapConfig      `mapstructure:"map"`
	Location LocationConfig `mapstructure:"location"`
	Events   EventsConfig   `mapstructure:"events"`
	Log      LogConfig      `mapstructure:"log"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type StorageConfig struct {
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
	ValkeyAddr string `mapstructure:"valkey_addr"`
	Key        string `mapstructure:"key"`
}

type MapConfig struct {
	Zoom        int           `mapstructure:"zoom"`
	TileURL     string        `mapstructure:"tile_url"`
	Attribution string        `mapstructure:"attribution"`
	PanDuration time.Duration `mapstructure:"pan_duration"`
}

// LocationConfig stands in for device geolocation outside the browser.
type LocationConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Lat     float64 `mapstructure:"lat"`
	Lng     float64 `mapstructure:"lng"`
}

type EventsConfig struct {
	NATSURL string `mapstructure:"nats_url"`
	Subject string `mapstructure:"subject"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration. Missing .env and config.yaml files are fine; a
// config.yaml that cannot be parsed is an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("http.addr", ":8222")
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.sqlite_path", "./mapty.db")
	v.SetDefault("storage.valkey_addr", "localhost:6379")
	v.SetDefault("storage.key", "workouts")
	v.SetDefault("map.zoom", 13)
	v.SetDefault("map.tile_url", "https://{s}.tile.openstreetmap.fr/hot/{z}/{x}/{y}.png")
	v.SetDefault("map.attribution", `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`)
	v.SetDefault("map.pan_duration", time.Second)
	v.SetDefault("location.enabled", false)
	v.SetDefault("location.lat", 0.0)
	v.SetDefault("location.lng", 0.0)
	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.subject", "mapty.workouts")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// MAPTY_STORAGE_BACKEND → storage.backend
	v.SetEnvPrefix("MAPTY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			errs = append(errs, "storage.sqlite_path is required for the sqlite backend")
		}
	case "valkey":
		if c.Storage.ValkeyAddr == "" {
			errs = append(errs, "storage.valkey_addr is required for the valkey backend")
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("storage.backend must be sqlite, valkey or memory, got %q", c.Storage.Backend))
	}
	if c.Storage.Key == "" {
		errs = append(errs, "storage.key is required")
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 19 {
		errs = append(errs, fmt.Sprintf("map.zoom must be 0-19, got %d", c.Map.Zoom))
	}
	if c.Map.PanDuration <= 0 {
		errs = append(errs, "map.pan_duration must be positive")
	}
	if c.Location.Enabled && (c.Location.Lat < -90 || c.Location.Lat > 90 || c.Location.Lng < -180 || c.Location.Lng > 180) {
		errs = append(errs, "location.lat/location.lng out of range")
	}
	if c.Events.NATSURL != "" && c.Events.Subject == "" {
		errs = append(errs, "events.subject is required when events.nats_url is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
