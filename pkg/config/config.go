// Package config loads vaultd's startup configuration from a YAML file,
// lets VAULTD_* environment variables override the keys that file sets,
// and fills whatever is left unset from defaults, following the teacher's
// layered viper setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vaultd/vaultd/internal/bytesize"
)

// Config is vaultd's top-level startup configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Admin   AdminConfig   `mapstructure:"admin" yaml:"admin"`
}

// LoggingConfig controls internal/logger's handler selection.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ServerConfig configures the dispatch core (pkg/server.Config).
type ServerConfig struct {
	Addr                string            `mapstructure:"addr" validate:"required" yaml:"addr"`
	HandlerPoolSize     int               `mapstructure:"handler_pool_size" validate:"required,gt=0" yaml:"handler_pool_size"`
	WorkerPoolSize      int               `mapstructure:"worker_pool_size" validate:"required,gt=0" yaml:"worker_pool_size"`
	SocketQueueCapacity int               `mapstructure:"socket_queue_capacity" validate:"required,gt=0" yaml:"socket_queue_capacity"`
	TaskQueueCapacity   int               `mapstructure:"task_queue_capacity" validate:"required,gt=0" yaml:"task_queue_capacity"`
	LockTableCapacity   int               `mapstructure:"lock_table_capacity" validate:"required,gt=0" yaml:"lock_table_capacity"`
	MaxBody             bytesize.ByteSize `mapstructure:"max_body" yaml:"max_body"`
	MaxClients          int               `mapstructure:"max_clients" validate:"required,gt=0" yaml:"max_clients"`
	ShutdownTimeout     time.Duration     `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// StorageConfig selects and configures the storage.Store backend.
type StorageConfig struct {
	// Backend is one of "fs", "mem", or "badger" (badger wraps fs).
	Backend string `mapstructure:"backend" validate:"required,oneof=fs mem badger" yaml:"backend"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// AdminConfig controls first-run admin bootstrap (pkg/identity.EnsureAdmin).
type AdminConfig struct {
	Username string `mapstructure:"username" yaml:"username"`
}

// GetDefaultConfig returns vaultd's documented defaults (spec.md §6's
// Limits table, plus the ambient-stack expansion's defaults).
func GetDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "INFO", Format: "text", Output: "stdout"},
		Server: ServerConfig{
			Addr:                ":8080",
			HandlerPoolSize:     10,
			WorkerPoolSize:      5,
			SocketQueueCapacity: 50,
			TaskQueueCapacity:   50,
			LockTableCapacity:   20,
			MaxBody:             10 * bytesize.MiB,
			MaxClients:          100,
			ShutdownTimeout:     30 * time.Second,
		},
		Storage: StorageConfig{Backend: "fs", Path: "/var/lib/vaultd/data"},
		Metrics: MetricsConfig{Enabled: true, Addr: ":9090"},
		Admin:   AdminConfig{Username: "admin"},
	}
}

// ApplyDefaults fills zero-valued fields in cfg from GetDefaultConfig. Used
// after unmarshaling a partial config file so unset sections still validate.
func ApplyDefaults(cfg *Config) {
	d := GetDefaultConfig()

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = d.Logging.Format
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = d.Logging.Output
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = d.Server.Addr
	}
	if cfg.Server.HandlerPoolSize == 0 {
		cfg.Server.HandlerPoolSize = d.Server.HandlerPoolSize
	}
	if cfg.Server.WorkerPoolSize == 0 {
		cfg.Server.WorkerPoolSize = d.Server.WorkerPoolSize
	}
	if cfg.Server.SocketQueueCapacity == 0 {
		cfg.Server.SocketQueueCapacity = d.Server.SocketQueueCapacity
	}
	if cfg.Server.TaskQueueCapacity == 0 {
		cfg.Server.TaskQueueCapacity = d.Server.TaskQueueCapacity
	}
	if cfg.Server.LockTableCapacity == 0 {
		cfg.Server.LockTableCapacity = d.Server.LockTableCapacity
	}
	if cfg.Server.MaxBody == 0 {
		cfg.Server.MaxBody = d.Server.MaxBody
	}
	if cfg.Server.MaxClients == 0 {
		cfg.Server.MaxClients = d.Server.MaxClients
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = d.Storage.Backend
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = d.Storage.Path
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = d.Metrics.Addr
	}

	if cfg.Admin.Username == "" {
		cfg.Admin.Username = d.Admin.Username
	}
}

var validate = validator.New()

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load reads the YAML file at configPath (or config.yaml in the default
// config directory when configPath is empty), lets VAULTD_* environment
// variables override keys present in that file, fills zero-valued fields
// from GetDefaultConfig, then validates the result. When no config file is
// found it returns GetDefaultConfig() as is; environment variables are not
// consulted in that case, nor for keys the file does not set.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(byteSizeDecodeHook(), durationDecodeHook())
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes cfg to path as YAML with owner-only permissions.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("VAULTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read file: %w", err)
	}
	return true, nil
}

// byteSizeDecodeHook lets config files express Server.MaxBody as a
// human-readable size ("10MB", "1Gi") instead of a raw byte count.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook lets config files express durations as strings like
// "30s" instead of raw nanosecond counts.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vaultd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vaultd"
	}
	return filepath.Join(home, ".config", "vaultd")
}

// GetDefaultConfigPath returns the default config file location.
func GetDefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
