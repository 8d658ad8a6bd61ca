// Package config loads the daemon configuration with precedence:
// defaults, then YAML file, then PUSHUP_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Remote   RemoteConfig   `yaml:"remote"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Sync     SyncConfig     `yaml:"sync"`
	Reminder ReminderConfig `yaml:"reminder"`
	Widget   WidgetConfig   `yaml:"widget"`
	Log      LogConfig      `yaml:"log"`
}

// RemoteConfig points at the push-up API server.
type RemoteConfig struct {
	URL string `yaml:"url"`
}

// APIConfig contains the local presentation-facade HTTP settings.
type APIConfig struct {
	ListenAddr      string   `yaml:"listen_addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains local cache settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig contains credential storage settings.
type AuthConfig struct {
	CredentialPath string `yaml:"credential_path"`
}

// SyncConfig contains background sync settings.
type SyncConfig struct {
	Interval Duration `yaml:"interval"`
}

// ReminderConfig contains reminder check settings. Command is an optional
// hook executed when a reminder fires; QuietBefore suppresses reminders
// before that local hour.
type ReminderConfig struct {
	Interval    Duration `yaml:"interval"`
	QuietBefore int      `yaml:"quiet_before"`
	Command     string   `yaml:"command"`
}

// WidgetConfig contains widget snapshot publishing settings. An empty
// path disables publishing.
type WidgetConfig struct {
	Path string `yaml:"path"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("PUSHUP_CONFIG_PATH", "config/pushupd.yaml")

	// Missing file is not an error; defaults plus env cover it.
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Remote: RemoteConfig{
			URL: "https://chetana.dev",
		},
		API: APIConfig{
			ListenAddr:      "127.0.0.1:7493",
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/dailypushup.db",
		},
		Auth: AuthConfig{
			CredentialPath: "data/credential.json",
		},
		Sync: SyncConfig{
			Interval: Duration(30 * time.Minute),
		},
		Reminder: ReminderConfig{
			Interval:    Duration(1 * time.Hour),
			QuietBefore: 6,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PUSHUP_SERVER_URL"); v != "" {
		cfg.Remote.URL = v
	}

	if v := os.Getenv("PUSHUP_LISTEN_ADDR"); v != "" {
		cfg.API.ListenAddr = v
	}
	if v := os.Getenv("PUSHUP_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("PUSHUP_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("PUSHUP_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.ShutdownTimeout = Duration(d)
		}
	}

	if v := os.Getenv("PUSHUP_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PUSHUP_CREDENTIAL_PATH"); v != "" {
		cfg.Auth.CredentialPath = v
	}

	if v := os.Getenv("PUSHUP_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sync.Interval = Duration(d)
		}
	}

	if v := os.Getenv("PUSHUP_REMINDER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Reminder.Interval = Duration(d)
		}
	}
	if v := os.Getenv("PUSHUP_REMINDER_QUIET_BEFORE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Reminder.QuietBefore = n
		}
	}
	if v := os.Getenv("PUSHUP_REMINDER_COMMAND"); v != "" {
		cfg.Reminder.Command = v
	}

	if v := os.Getenv("PUSHUP_WIDGET_PATH"); v != "" {
		cfg.Widget.Path = v
	}

	if v := os.Getenv("PUSHUP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PUSHUP_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// validate checks that required configuration values are set.
func (c *Config) validate() error {
	if c.Remote.URL == "" {
		return fmt.Errorf("remote.url is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if time.Duration(c.Sync.Interval) <= 0 {
		return fmt.Errorf("sync.interval must be positive")
	}
	if time.Duration(c.Reminder.Interval) <= 0 {
		return fmt.Errorf("reminder.interval must be positive")
	}
	if c.Reminder.QuietBefore < 0 || c.Reminder.QuietBefore > 23 {
		return fmt.Errorf("reminder.quiet_before must be an hour between 0 and 23")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
