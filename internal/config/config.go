package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/junk-cleaner/internal/cleaner"
	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/internal/logging"
	"github.com/fenilsonani/junk-cleaner/internal/scanner"
	"github.com/fenilsonani/junk-cleaner/internal/uninstall"
)

// AppName names the configuration and state directories.
const AppName = "junk-cleaner"

// Config represents the application configuration
type Config struct {
	SelectedTypes     []string        `yaml:"selected_types"`
	MinimumFileSizeMB float64         `yaml:"minimum_file_size_mb"`
	Thresholds        Thresholds      `yaml:"thresholds"`
	Retention         Retention       `yaml:"retention"`
	Scan              ScanConfig      `yaml:"scan"`
	Clean             CleanConfig     `yaml:"clean"`
	Uninstall         UninstallConfig `yaml:"uninstall"`
	Log               LogConfig       `yaml:"log"`
	ProtectedPaths    []string        `yaml:"protected_paths"`
	SudoersDir        string          `yaml:"sudoers_dir"`
}

// Thresholds are the age limits below which entries are left alone.
type Thresholds struct {
	LogAgeHours      int `yaml:"log_age_hours"`
	TempAgeHours     int `yaml:"temp_age_hours"`
	DownloadsAgeDays int `yaml:"downloads_age_days"`
}

// Retention is how many of the newest entries each rotating probe keeps.
type Retention struct {
	XcodeArchives int `yaml:"xcode_archives"`
	DeviceSupport int `yaml:"device_support"`
	IOSBackups    int `yaml:"ios_backups"`
}

// ScanConfig tunes the scanner.
type ScanConfig struct {
	Concurrency            int  `yaml:"concurrency"`
	IncludeSystemLocations bool `yaml:"include_system_locations"`
}

// CleanConfig tunes the cleaner.
type CleanConfig struct {
	ServiceSettleMS int  `yaml:"service_settle_ms"`
	Permanent       bool `yaml:"permanent"`
	Notify          bool `yaml:"notify"`
}

// UninstallConfig tunes the uninstaller.
type UninstallConfig struct {
	TerminateWaitMS int  `yaml:"terminate_wait_ms"`
	UseContentIndex bool `yaml:"use_content_index"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration from a file
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Fields missing from the file keep their defaults
	config := GetDefault()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for _, key := range c.SelectedTypes {
		if _, ok := junk.ParseType(key); !ok {
			return fmt.Errorf("unknown junk type %q", key)
		}
	}

	if c.MinimumFileSizeMB < 0 {
		return fmt.Errorf("minimum file size must be >= 0")
	}

	if c.Thresholds.LogAgeHours < 0 {
		return fmt.Errorf("log age threshold must be >= 0")
	}
	if c.Thresholds.TempAgeHours < 0 {
		return fmt.Errorf("temp age threshold must be >= 0")
	}
	if c.Thresholds.DownloadsAgeDays < 0 {
		return fmt.Errorf("downloads age threshold must be >= 0")
	}

	if c.Retention.XcodeArchives < 0 || c.Retention.DeviceSupport < 0 || c.Retention.IOSBackups < 0 {
		return fmt.Errorf("retention counts must be >= 0")
	}

	if c.Scan.Concurrency < 0 {
		return fmt.Errorf("scan concurrency must be >= 0")
	}
	if c.Clean.ServiceSettleMS < 0 {
		return fmt.Errorf("service settle delay must be >= 0")
	}
	if c.Uninstall.TerminateWaitMS < 0 {
		return fmt.Errorf("terminate wait must be >= 0")
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	// Validate protected paths are absolute
	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	if c.SudoersDir != "" && !filepath.IsAbs(c.SudoersDir) {
		return fmt.Errorf("sudoers directory must be absolute: %s", c.SudoersDir)
	}

	return nil
}

// =============================================================================
// Component Options
// =============================================================================

// ScannerOptions converts the configuration into scanner options.
func (c *Config) ScannerOptions() scanner.Options {
	opts := scanner.DefaultOptions()
	opts.SelectedTypes = nil
	for _, key := range c.SelectedTypes {
		if t, ok := junk.ParseType(key); ok {
			opts.SelectedTypes = append(opts.SelectedTypes, t)
		}
	}
	opts.MinimumFileSizeMB = c.MinimumFileSizeMB
	opts.LogAge = time.Duration(c.Thresholds.LogAgeHours) * time.Hour
	opts.TempAge = time.Duration(c.Thresholds.TempAgeHours) * time.Hour
	opts.DownloadsAge = time.Duration(c.Thresholds.DownloadsAgeDays) * 24 * time.Hour
	opts.KeepArchives = c.Retention.XcodeArchives
	opts.KeepDeviceSupport = c.Retention.DeviceSupport
	opts.KeepBackups = c.Retention.IOSBackups
	if c.Scan.Concurrency > 0 {
		opts.Concurrency = c.Scan.Concurrency
	}
	opts.IncludeSystemLocations = c.Scan.IncludeSystemLocations
	return opts
}

// CleanerOptions converts the configuration into cleaner options.
func (c *Config) CleanerOptions() cleaner.Options {
	return cleaner.Options{
		ServiceSettle: time.Duration(c.Clean.ServiceSettleMS) * time.Millisecond,
		Permanent:     c.Clean.Permanent,
	}
}

// UninstallOptions converts the configuration into uninstaller options.
func (c *Config) UninstallOptions() uninstall.Options {
	return uninstall.Options{
		TerminateWait:   time.Duration(c.Uninstall.TerminateWaitMS) * time.Millisecond,
		UseContentIndex: c.Uninstall.UseContentIndex,
	}
}

// =============================================================================
// Paths
// =============================================================================

// GetConfigPath returns the default config path
func GetConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// ManifestDir returns where deletion manifests are kept.
func ManifestDir() string {
	return filepath.Join(xdg.StateHome, AppName, "manifests")
}

// ManifestPath returns a fresh manifest file name for a clean started at t.
func ManifestPath(t time.Time) string {
	return filepath.Join(ManifestDir(), "clean-"+t.Format("20060102-150405")+".log")
}

// EnsureConfigExists creates a default config file at configPath if it
// doesn't exist. An empty configPath uses GetConfigPath.
func EnsureConfigExists(configPath string) (string, error) {
	if configPath == "" {
		configPath = GetConfigPath()
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(GetDefault(), configPath); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	return configPath, nil
}
