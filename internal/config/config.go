package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ErrInvalid is returned by Validate for unusable configuration.
var ErrInvalid = errors.New("invalid config")

// Config holds client configuration values.
type Config struct {
	ServerURL       string        `mapstructure:"server_url" yaml:"server_url"`
	Token           string        `mapstructure:"token" yaml:"token"`
	Room            string        `mapstructure:"room" yaml:"room"`
	Protocol        int           `mapstructure:"protocol" yaml:"protocol"`
	CommandPrefix   string        `mapstructure:"command_prefix" yaml:"command_prefix"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	RegisterTimeout time.Duration `mapstructure:"register_timeout" yaml:"register_timeout"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile         string        `mapstructure:"log_file" yaml:"log_file"`
	TranscriptPath  string        `mapstructure:"transcript_path" yaml:"transcript_path"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:       "ws://localhost:8080/ws",
		Room:            "general",
		Protocol:        1,
		CommandPrefix:   ".",
		DialTimeout:     10 * time.Second,
		RegisterTimeout: 500 * time.Millisecond,
		LogLevel:        "warn",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.Token != "" {
		c.Token = other.Token
	}
	if other.Room != "" {
		c.Room = other.Room
	}
	if other.Protocol != 0 {
		c.Protocol = other.Protocol
	}
	if other.CommandPrefix != "" {
		c.CommandPrefix = other.CommandPrefix
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
	if other.RegisterTimeout != 0 {
		c.RegisterTimeout = other.RegisterTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.TranscriptPath != "" {
		c.TranscriptPath = other.TranscriptPath
	}
}

// Validate reports the first problem that would stop the client from starting.
func (c Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("%w: server_url: %v", ErrInvalid, err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("%w: server_url scheme %q", ErrInvalid, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: server_url has no host", ErrInvalid)
	}
	if len([]rune(c.CommandPrefix)) != 1 {
		return fmt.Errorf("%w: command_prefix must be a single character", ErrInvalid)
	}
	if c.Room == "" {
		return fmt.Errorf("%w: room is required", ErrInvalid)
	}
	if c.DialTimeout < 0 || c.RegisterTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalid)
	}
	return nil
}
