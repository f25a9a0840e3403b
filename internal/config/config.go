// Package config loads server configuration from YAML and FAIRY_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/fairyforge/fairy-server-go/internal/game"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
	"github.com/spf13/viper"
)

// Config is the complete server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Replay  ReplayConfig  `mapstructure:"replay"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// Layout is used when a client does not name one.
	Layout string `mapstructure:"layout"`
	// TickInterval drives game clocks; zero disables server-side ticking.
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type EngineConfig struct {
	CollisionPolicy   string        `mapstructure:"collision_policy"`
	ParallelRecompute bool          `mapstructure:"parallel_recompute"`
	FullRecompute     bool          `mapstructure:"full_recompute"`
	CastlingSafePath  bool          `mapstructure:"castling_safe_path"`
	DefaultClock      time.Duration `mapstructure:"default_clock"`
	Increment         time.Duration `mapstructure:"increment"`
}

type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.layout", "classical")
	v.SetDefault("server.tick_interval", 100*time.Millisecond)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("engine.collision_policy", "last-wins")
	v.SetDefault("engine.parallel_recompute", true)
	v.SetDefault("engine.full_recompute", false)
	v.SetDefault("engine.castling_safe_path", false)
	v.SetDefault("engine.default_clock", 0)
	v.SetDefault("engine.increment", 0)
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.directory", "data/archive")
	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.directory", "data/replays")
}

// Load reads path (optional; a missing file falls back to defaults) and
// applies FAIRY_ environment overrides such as FAIRY_SERVER_ADDRESS.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FAIRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if _, err := rules.ParseCollisionPolicy(c.Engine.CollisionPolicy); err != nil {
		return fmt.Errorf("engine.collision_policy: %w", err)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	if c.Engine.DefaultClock < 0 || c.Engine.Increment < 0 {
		return fmt.Errorf("engine clock durations must not be negative")
	}
	return nil
}

// EngineOptions converts the engine section into game options.
func (c *Config) EngineOptions() game.Options {
	policy, _ := rules.ParseCollisionPolicy(c.Engine.CollisionPolicy)
	return game.Options{
		Collision:         policy,
		CastlingSafePath:  c.Engine.CastlingSafePath,
		ParallelRecompute: c.Engine.ParallelRecompute,
		FullRecompute:     c.Engine.FullRecompute,
	}
}

// DefaultClock returns the clock for new games, or nil for untimed play.
func (c *Config) DefaultClock() *game.ClockConfig {
	if c.Engine.DefaultClock <= 0 {
		return nil
	}
	return &game.ClockConfig{Duration: c.Engine.DefaultClock, Increment: c.Engine.Increment}
}
