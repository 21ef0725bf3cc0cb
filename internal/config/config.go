// Package config loads service settings from defaults, an optional TOML
// file, a .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string
	LogJSON  bool
	Stats    StatsConfig
	GuessMin int
	GuessMax int
	Reveal   time.Duration
	Cleanup  time.Duration
	MaxAge   time.Duration
}

// StatsConfig selects where aggregate stats live.
type StatsConfig struct {
	Backend       string // "sqlite", "redis" or "memory"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Addr:     ":8080",
		DBPath:   "gamecenter.db",
		LogLevel: "info",
		Stats:    StatsConfig{Backend: "sqlite", RedisAddr: "localhost:6379"},
		GuessMin: 1,
		GuessMax: 100,
		Reveal:   1500 * time.Millisecond,
		Cleanup:  5 * time.Minute,
		MaxAge:   2 * time.Hour,
	}
}

// fileConfig represents the TOML configuration file. Unset keys keep
// their defaults.
type fileConfig struct {
	Server struct {
		Addr *string `toml:"addr"`
	} `toml:"server"`
	Storage struct {
		DBPath *string `toml:"db_path"`
	} `toml:"storage"`
	Log struct {
		Level *string `toml:"level"`
		JSON  *bool   `toml:"json"`
	} `toml:"log"`
	Stats struct {
		Backend       *string `toml:"backend"`
		RedisAddr     *string `toml:"redis_addr"`
		RedisPassword *string `toml:"redis_password"`
		RedisDB       *int    `toml:"redis_db"`
	} `toml:"stats"`
	NumberGuess struct {
		Min *int `toml:"min"`
		Max *int `toml:"max"`
	} `toml:"numberguess"`
	RPS struct {
		RevealDelay *string `toml:"reveal_delay"`
	} `toml:"rps"`
	Session struct {
		CleanupInterval *string `toml:"cleanup_interval"`
		MaxAge          *string `toml:"max_age"`
	} `toml:"session"`
}

// Load builds the configuration. path may be empty; a missing file is not
// an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat config: %w", err)
	}
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	setString(&c.Addr, fc.Server.Addr)
	setString(&c.DBPath, fc.Storage.DBPath)
	setString(&c.LogLevel, fc.Log.Level)
	if fc.Log.JSON != nil {
		c.LogJSON = *fc.Log.JSON
	}
	setString(&c.Stats.Backend, fc.Stats.Backend)
	setString(&c.Stats.RedisAddr, fc.Stats.RedisAddr)
	setString(&c.Stats.RedisPassword, fc.Stats.RedisPassword)
	if fc.Stats.RedisDB != nil {
		c.Stats.RedisDB = *fc.Stats.RedisDB
	}
	if fc.NumberGuess.Min != nil {
		c.GuessMin = *fc.NumberGuess.Min
	}
	if fc.NumberGuess.Max != nil {
		c.GuessMax = *fc.NumberGuess.Max
	}
	for _, d := range []struct {
		key string
		src *string
		dst *time.Duration
	}{
		{"rps.reveal_delay", fc.RPS.RevealDelay, &c.Reveal},
		{"session.cleanup_interval", fc.Session.CleanupInterval, &c.Cleanup},
		{"session.max_age", fc.Session.MaxAge, &c.MaxAge},
	} {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Addr = ":" + v
	}
	if v := os.Getenv("GAMECENTER_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("GAMECENTER_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("GAMECENTER_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GAMECENTER_LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GAMECENTER_LOG_JSON: %w", err)
		}
		c.LogJSON = b
	}
	if v := os.Getenv("GAMECENTER_STATS_BACKEND"); v != "" {
		c.Stats.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Stats.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Stats.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Stats.RedisDB = n
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.GuessMin > c.GuessMax {
		errs = append(errs, fmt.Errorf("numberguess: min %d is greater than max %d", c.GuessMin, c.GuessMax))
	}
	switch c.Stats.Backend {
	case "sqlite", "redis", "memory":
	default:
		errs = append(errs, fmt.Errorf("stats: unknown backend %q", c.Stats.Backend))
	}
	if c.Reveal <= 0 {
		errs = append(errs, errors.New("rps: reveal_delay must be positive"))
	}
	if c.Cleanup <= 0 {
		errs = append(errs, errors.New("session: cleanup_interval must be positive"))
	}
	if c.MaxAge <= 0 {
		errs = append(errs, errors.New("session: max_age must be positive"))
	}
	return errors.Join(errs...)
}
