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

const defaultConfigName = "config.yaml"

// Load builds configuration from defaults, an optional config file, and
// env vars, returning the resolved config path.
// Precedence: defaults < config file < env vars.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("port", cfg.Port)
	v.SetDefault("listenhost", cfg.ListenHost)
	v.SetDefault("hostname", cfg.Hostname)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("bsky_identifier", cfg.BskyIdentifier)
	v.SetDefault("bsky_password", cfg.BskyPassword)
	v.SetDefault("pds_host", cfg.PDSHost)
	v.SetDefault("plc_host", cfg.PlcHost)
	v.SetDefault("session_path", cfg.SessionPath)
	v.SetDefault("storage_driver", cfg.StorageDriver)
	v.SetDefault("sqlite_path", cfg.SQLitePath)
	v.SetDefault("mysql_host", cfg.MysqlHost)
	v.SetDefault("mysql_port", cfg.MysqlPort)
	v.SetDefault("mysql_database", cfg.MysqlDatabase)
	v.SetDefault("mysql_user", cfg.MysqlUser)
	v.SetDefault("mysql_password", cfg.MysqlPassword)

	v.SetEnvPrefix("SERVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}
	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
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
