package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultBaseURL is the API root the admin client talks to when nothing
// else is configured.
const DefaultBaseURL = "https://growfun-backend.onrender.com/api"

// envPrefix namespaces environment overrides, e.g. NOTIFYADMIN_API_BASE_URL.
const envPrefix = "NOTIFYADMIN"

// APIConfig holds the connection settings for the notification backend.
type APIConfig struct {
	// BaseURL is the API root; endpoint paths are appended to it.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP round trip.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// StoreConfig holds local persistence settings.
type StoreConfig struct {
	// Path is the SQLite file holding the cached list and activity log.
	Path string `mapstructure:"path" yaml:"path"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`

	// RefreshIntervalSec re-fetches the list periodically in the TUI.
	// Zero disables background refresh.
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
}

// OutputConfig controls one-shot command output.
type OutputConfig struct {
	// Format is "table", "json" or empty for terminal detection.
	Format string `mapstructure:"format" yaml:"format"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
}

// ConfigDir returns ~/.config/notifyadmin.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "notifyadmin")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/notifyadmin/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultStorePath returns the default SQLite cache location.
func DefaultStorePath() string {
	return filepath.Join(ConfigDir(), "notifyadmin.db")
}

// DefaultLogPath returns the file TUI sessions log to.
func DefaultLogPath() string {
	return filepath.Join(ConfigDir(), "notifyadmin.log")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    DefaultBaseURL,
			TimeoutSec: 30,
		},
		Store: StoreConfig{
			Path: DefaultStorePath(),
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A .env file in the working directory and NOTIFYADMIN_* environment
// variables override the file; flags in fs override both. If the file does
// not exist, defaults are used.
func LoadConfig(path string, flags *pflag.FlagSet) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	def := defaultAppConfig()
	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.timeout_sec", def.API.TimeoutSec)
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("display.refresh_interval_sec", 0)
	v.SetDefault("output.format", "")

	if flags != nil {
		bindFlag(v, "api.base_url", flags.Lookup("base-url"))
		bindFlag(v, "store.path", flags.Lookup("db"))
		bindFlag(v, "output.format", flags.Lookup("format"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *fs.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = 30
	}
	if cfg.Display.RefreshIntervalSec < 0 {
		cfg.Display.RefreshIntervalSec = 0
	}

	return cfg, nil
}

// bindFlag binds a flag only when it exists in the set.
func bindFlag(v *viper.Viper, key string, f *pflag.Flag) {
	if f == nil {
		return
	}
	_ = v.BindPFlag(key, f)
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("store", cfg.Store)
	v.Set("display", cfg.Display)
	v.Set("output", cfg.Output)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
