package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix         = "WIRECHAT"
	envConfigDir      = "WIRECHAT_CONFIG_DIR"
	defaultConfigName = "wirechat.yaml"
)

// Load resolves the client configuration and the file it came from.
// Values are layered as defaults, then the YAML file, then WIRECHAT_* env
// vars; command-line flags are applied afterwards by the caller through
// UpdateFrom. A missing file is created with the defaults so users have
// something to edit.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaultsByKey(cfg) {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := configPath(explicitPath)
	v.SetConfigFile(path)

	err := v.ReadInConfig()
	switch {
	case err == nil:
	case isMissing(err):
		if writeErr := writeDefaultConfig(path, cfg); writeErr != nil {
			// The client still runs on defaults and env.
			logger.Warn().Err(writeErr).Str("path", path).Msg("could not create config file")
		} else {
			logger.Info().Str("path", path).Msg("created default config")
		}
	default:
		return cfg, path, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, path, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, path, nil
}

func defaultsByKey(cfg Config) map[string]any {
	return map[string]any{
		"server_url":       cfg.ServerURL,
		"token":            cfg.Token,
		"room":             cfg.Room,
		"protocol":         cfg.Protocol,
		"command_prefix":   cfg.CommandPrefix,
		"dial_timeout":     cfg.DialTimeout,
		"register_timeout": cfg.RegisterTimeout,
		"log_level":        cfg.LogLevel,
		"log_file":         cfg.LogFile,
		"transcript_path":  cfg.TranscriptPath,
	}
}

func isMissing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// configPath picks --config, then $WIRECHAT_CONFIG_DIR, then the user config
// dir (~/.config/wirechat on Linux), then the working directory.
func configPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}
	if dir := os.Getenv(envConfigDir); dir != "" {
		return filepath.Join(dir, defaultConfigName)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "wirechat", defaultConfigName)
	}
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, defaultConfigName)
	}
	return defaultConfigName
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
