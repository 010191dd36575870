// internal/config/config.go
//
// Server configuration.
//
// Values come from, in increasing priority:
//  1. Defaults (Default()).
//  2. An optional YAML file named by CONFIG_FILE.
//  3. Environment variables (a .env file is loaded by main via godotenv).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/hanoi/internal/hanoi"
)

type Config struct {
	Port         string      `yaml:"port"`
	LogLevel     string      `yaml:"log_level"`
	DBPath       string      `yaml:"db_path"`
	Env          string      `yaml:"env"` // "production" enables secure cookies
	Auth         AuthConfig  `yaml:"auth"`
	Game         GameConfig  `yaml:"game"`
	Daily        DailyConfig `yaml:"daily"`
	ClientOrigin string      `yaml:"client_origin"`
}

type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret"`
	JWTExpiresDays int    `yaml:"jwt_expires_days"`
	CookieName     string `yaml:"cookie_name"`
}

type GameConfig struct {
	Pegs         int           `yaml:"pegs"`
	DefaultDisks int           `yaml:"default_disks"`
	MaxDisks     int           `yaml:"max_disks"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	RewardReload time.Duration `yaml:"reward_reload"`
	RewardRetry  time.Duration `yaml:"reward_retry"`
}

type DailyConfig struct {
	Salt string `yaml:"salt"`
}

// Default returns development defaults.
func Default() Config {
	return Config{
		Port:     "5175",
		LogLevel: "info",
		DBPath:   "./data/hanoi.db",
		Env:      "development",
		Auth: AuthConfig{
			JWTSecret:      "dev_secret_change_me",
			JWTExpiresDays: 14,
			CookieName:     "hanoi_token",
		},
		Game: GameConfig{
			Pegs:         3,
			DefaultDisks: 3,
			MaxDisks:     10,
			SessionTTL:   24 * time.Hour,
			RewardReload: 10 * time.Second,
			RewardRetry:  5 * time.Second,
		},
		Daily:        DailyConfig{Salt: "local_dev_salt"},
		ClientOrigin: "http://localhost:5173",
	}
}

// Load builds the config from defaults, CONFIG_FILE, and the environment.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)
	str("DB_PATH", &c.DBPath)
	str("NODE_ENV", &c.Env)
	str("CLIENT_ORIGIN", &c.ClientOrigin)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	num("JWT_EXPIRES_DAYS", &c.Auth.JWTExpiresDays)
	str("COOKIE_NAME", &c.Auth.CookieName)
	num("PEG_COUNT", &c.Game.Pegs)
	num("DEFAULT_DISKS", &c.Game.DefaultDisks)
	num("MAX_DISKS", &c.Game.MaxDisks)
	dur("SESSION_TTL", &c.Game.SessionTTL)
	dur("REWARD_RELOAD", &c.Game.RewardReload)
	dur("REWARD_RETRY", &c.Game.RewardRetry)
	str("DAILY_SALT", &c.Daily.Salt)
	return errors.Join(errs...)
}

// Validate rejects configs the game cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Port == "":
		return errors.New("config: port is empty")
	case c.Game.Pegs < 3:
		return fmt.Errorf("config: pegs must be >= 3, got %d", c.Game.Pegs)
	case c.Game.MaxDisks < 1 || c.Game.MaxDisks > hanoi.MaxDisks:
		return fmt.Errorf("config: max_disks must be 1–%d, got %d", hanoi.MaxDisks, c.Game.MaxDisks)
	case c.Game.DefaultDisks < 1 || c.Game.DefaultDisks > c.Game.MaxDisks:
		return fmt.Errorf("config: default_disks must be 1–%d, got %d", c.Game.MaxDisks, c.Game.DefaultDisks)
	case c.Auth.JWTSecret == "":
		return errors.New("config: jwt secret is empty")
	}
	return nil
}

// Production reports whether cookies must be Secure/SameSite=None.
func (c Config) Production() bool { return c.Env == "production" }
