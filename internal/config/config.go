// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dpi/media-entity-facebook/internal/oembed"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Oembed  OembedConfig  `mapstructure:"oembed"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// OembedConfig governs endpoint selection and the outbound fetch.
type OembedConfig struct {
	PostEndpoint   string `mapstructure:"post_endpoint"`
	VideoEndpoint  string `mapstructure:"video_endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FBOEMBED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("oembed.post_endpoint", oembed.DefaultPostEndpoint)
	v.SetDefault("oembed.video_endpoint", oembed.DefaultVideoEndpoint)
	v.SetDefault("oembed.timeout_seconds", 5)
	v.SetDefault("oembed.user_agent", "fboembed/1.0")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Oembed.TimeoutSeconds <= 0 {
		return fmt.Errorf("oembed.timeout_seconds must be > 0")
	}
	if c.Oembed.PostEndpoint == "" {
		return fmt.Errorf("oembed.post_endpoint must be set")
	}
	if c.Oembed.VideoEndpoint == "" {
		return fmt.Errorf("oembed.video_endpoint must be set")
	}
	return nil
}

// FetchTimeout converts the configured timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Oembed.TimeoutSeconds) * time.Second
}

// Endpoints builds the resolver endpoint pair from the config.
func (c Config) Endpoints() oembed.Endpoints {
	return oembed.Endpoints{Post: c.Oembed.PostEndpoint, Video: c.Oembed.VideoEndpoint}
}
