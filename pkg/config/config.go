// Package config loads the remctl CLI's configuration from a YAML file,
// REMCTL_* environment variables, and built-in defaults, following the
// same viper/mapstructure precedence rules as the rest of this codebase's
// ambient stack.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config holds the remctl CLI's connection defaults.
type Config struct {
	Host      string        `mapstructure:"host" yaml:"host"`
	Port      int           `mapstructure:"port" yaml:"port"`
	Principal string        `mapstructure:"principal" yaml:"principal,omitempty"`
	SourceIP  string        `mapstructure:"source_ip" yaml:"source_ip,omitempty"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`

	Keytab KeytabConfig `mapstructure:"keytab" yaml:"keytab,omitempty"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// KeytabConfig names the keytab-backed initiator credential to use, if any.
// When Path is empty the client uses the default credential (e.g. a ticket
// cache) instead of loading a keytab.
type KeytabConfig struct {
	Path         string `mapstructure:"path" yaml:"path,omitempty"`
	Principal    string `mapstructure:"principal" yaml:"principal,omitempty"`
	Krb5ConfPath string `mapstructure:"krb5_conf" yaml:"krb5_conf,omitempty"`
}

// LogConfig configures the ambient structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// DefaultConfig returns the configuration used when no file, flags, or
// environment variables override it.
func DefaultConfig() *Config {
	return &Config{
		Host: "localhost",
		Port: 4373,
		Log: LogConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load loads configuration from file, environment, and defaults, in
// descending order of precedence:
//
//  1. Environment variables (REMCTL_*)
//  2. Configuration file
//  3. Default values
//
// configPath may be empty, in which case the default location is searched
// and a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	cfg := DefaultConfig()
	setViperDefaults(v, cfg)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal unconditionally: AutomaticEnv only overrides keys viper
	// already knows about, which setViperDefaults registered above, so
	// REMCTL_* env vars take effect whether or not a config file exists.
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// setViperDefaults registers cfg's zero-state values as viper defaults so
// AutomaticEnv can resolve REMCTL_* overrides even when no config file
// exists (viper only binds env vars to keys it already knows about).
func setViperDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("principal", cfg.Principal)
	v.SetDefault("source_ip", cfg.SourceIP)
	v.SetDefault("timeout", cfg.Timeout)
	v.SetDefault("keytab.path", cfg.Keytab.Path)
	v.SetDefault("keytab.principal", cfg.Keytab.Principal)
	v.SetDefault("keytab.krb5_conf", cfg.Keytab.Krb5ConfPath)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)
}

// Validate checks invariants Load cannot express through mapstructure tags
// alone (§7 validation errors are caller mistakes, not fatal to a Session,
// but a malformed config file is a startup-time failure for the CLI).
func Validate(cfg *Config) error {
	if cfg.Host == "" {
		return fmt.Errorf("host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port %d out of range", cfg.Port)
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0")
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("REMCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.AddConfigPath(configDir())
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
		return false, fmt.Errorf("config: read config file: %w", err)
	}
	return true, nil
}

// configDir returns the directory searched for config.yaml when no
// explicit path is given.
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "remctl")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "remctl")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}
