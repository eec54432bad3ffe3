package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/adrg/xdg"
	"github.com/agentx-labs/skilldocs/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Config keys.
const (
	KeyRegistryURL     = "registry_url"
	KeyRegistryTimeout = "registry_timeout"
	KeyFetchTimeout    = "fetch_timeout"
	KeyCacheTTL        = "cache_ttl"
	KeySplitThreshold  = "split_threshold"
	KeyMaxContentBytes = "max_content_bytes"
	KeyLinkMode        = "link_mode"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyTelemetry       = "telemetry"
	KeyTelemetryURL    = "telemetry_url"
	KeyTracing         = "tracing"
)

// Defaults for keys that are not set in the file or environment.
const (
	DefaultRegistryTimeout = 5 * time.Second
	DefaultFetchTimeout    = 30 * time.Second
	DefaultCacheTTL        = 24 * time.Hour
	DefaultSplitThreshold  = 500
	DefaultMaxContentBytes = 20 << 20
	DefaultLinkMode        = "auto"
	DefaultLogLevel        = "warn"
	DefaultLogFormat       = "text"
)

// Settings is the resolved configuration for one command invocation.
type Settings struct {
	RegistryURL     string
	RegistryTimeout time.Duration
	FetchTimeout    time.Duration
	CacheTTL        time.Duration
	SplitThreshold  int
	MaxContentBytes int64
	LinkMode        string
	LogLevel        string
	LogFormat       string
	Telemetry       bool
	TelemetryURL    string
	Tracing         bool
}

// Dir returns the path to the config directory (~/.skilldocs/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.skilldocs/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// CacheDir returns the per-user cache directory for registry snapshots,
// following the XDG base directory convention.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, branding.CLIName())
}

// RegistryCachePath returns the location of the cached registry snapshot.
func RegistryCachePath() string {
	return filepath.Join(CacheDir(), "registry.json")
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault(KeyRegistryURL, branding.RegistryURL())
	viper.SetDefault(KeyRegistryTimeout, DefaultRegistryTimeout)
	viper.SetDefault(KeyFetchTimeout, DefaultFetchTimeout)
	viper.SetDefault(KeyCacheTTL, DefaultCacheTTL)
	viper.SetDefault(KeySplitThreshold, DefaultSplitThreshold)
	viper.SetDefault(KeyMaxContentBytes, DefaultMaxContentBytes)
	viper.SetDefault(KeyLinkMode, DefaultLinkMode)
	viper.SetDefault(KeyLogLevel, DefaultLogLevel)
	viper.SetDefault(KeyLogFormat, DefaultLogFormat)
	viper.SetDefault(KeyTelemetry, true)
	viper.SetDefault(KeyTelemetryURL, branding.TelemetryURL())
	viper.SetDefault(KeyTracing, false)
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	setDefaults()
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Keys returns every known key, sorted.
func Keys() []string {
	keys := viper.AllKeys()
	sort.Strings(keys)
	return keys
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Resolve returns the typed settings. Load must have been called first.
// DO_NOT_TRACK disables telemetry regardless of the configured value.
func Resolve() Settings {
	s := Settings{
		RegistryURL:     viper.GetString(KeyRegistryURL),
		RegistryTimeout: positiveDuration(viper.GetDuration(KeyRegistryTimeout), DefaultRegistryTimeout),
		FetchTimeout:    positiveDuration(viper.GetDuration(KeyFetchTimeout), DefaultFetchTimeout),
		CacheTTL:        positiveDuration(viper.GetDuration(KeyCacheTTL), DefaultCacheTTL),
		SplitThreshold:  viper.GetInt(KeySplitThreshold),
		MaxContentBytes: viper.GetInt64(KeyMaxContentBytes),
		LinkMode:        viper.GetString(KeyLinkMode),
		LogLevel:        viper.GetString(KeyLogLevel),
		LogFormat:       viper.GetString(KeyLogFormat),
		Telemetry:       viper.GetBool(KeyTelemetry),
		TelemetryURL:    viper.GetString(KeyTelemetryURL),
		Tracing:         viper.GetBool(KeyTracing),
	}
	if s.SplitThreshold <= 0 {
		s.SplitThreshold = DefaultSplitThreshold
	}
	if s.MaxContentBytes <= 0 {
		s.MaxContentBytes = DefaultMaxContentBytes
	}
	if v := os.Getenv("DO_NOT_TRACK"); v == "1" || v == "true" {
		s.Telemetry = false
	}
	return s
}

func positiveDuration(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
