package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerURL             string `yaml:"server_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`

	// UI Settings
	DefaultTab           string `yaml:"default_tab"`
	ColorTheme           string `yaml:"color_theme"`
	StatusMessageSeconds int    `yaml:"status_message_seconds"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Barcode scanner
	Scan ScanConfig `yaml:"scan"`

	// Export
	ExportDir string `yaml:"export_dir"`
}

// ScanConfig tunes how keystroke bursts are recognised as scans
type ScanConfig struct {
	BurstGapMS int    `yaml:"burst_gap_ms"`
	IDPattern  string `yaml:"id_pattern"`
}

// Defaults
const (
	DefaultServerURL      = "http://localhost:5000"
	DefaultTimeoutSeconds = 15
	DefaultTab            = "details"
	DefaultLogLevel       = "info"
	DefaultBurstGapMS     = 700
	DefaultIDPattern      = `^[0-9a-fA-F]{24}$`
	DefaultStatusSeconds  = 3
)

var (
	validTabs      = []string{"details", "transfer", "disposal"}
	validThemes    = []string{"auto", "dark", "light", "none"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// Keys lists the settable keys in display order
var Keys = []string{
	"server_url",
	"request_timeout_seconds",
	"default_tab",
	"color_theme",
	"status_message_seconds",
	"log_level",
	"log_file",
	"scan.burst_gap_ms",
	"scan.id_pattern",
	"export_dir",
}

// DefaultConfig returns a Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:             DefaultServerURL,
		RequestTimeoutSeconds: DefaultTimeoutSeconds,
		DefaultTab:            DefaultTab,
		ColorTheme:            "auto",
		StatusMessageSeconds:  DefaultStatusSeconds,
		LogLevel:              DefaultLogLevel,
		LogFile:               "",
		Scan: ScanConfig{
			BurstGapMS: DefaultBurstGapMS,
			IDPattern:  DefaultIDPattern,
		},
		ExportDir: "",
	}
}

// Load reads configuration from the specified file path
func Load(path string) (*Config, error) {
	// Start with default config
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config (not an error)
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize replaces missing or invalid values with defaults
func (c *Config) normalize() {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = DefaultTimeoutSeconds
	}
	if !slices.Contains(validTabs, c.DefaultTab) {
		c.DefaultTab = DefaultTab
	}
	if !slices.Contains(validThemes, c.ColorTheme) {
		c.ColorTheme = "auto"
	}
	if c.StatusMessageSeconds <= 0 {
		c.StatusMessageSeconds = DefaultStatusSeconds
	}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		c.LogLevel = DefaultLogLevel
	}
	if c.Scan.BurstGapMS <= 0 {
		c.Scan.BurstGapMS = DefaultBurstGapMS
	}
	if c.Scan.IDPattern == "" {
		c.Scan.IDPattern = DefaultIDPattern
	}
}

// Save persists the current configuration to the specified file path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// RequestTimeout returns the HTTP timeout as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ScanGap returns the scanner burst gap as a duration
func (c *Config) ScanGap() time.Duration {
	return time.Duration(c.Scan.BurstGapMS) * time.Millisecond
}

// StatusDuration returns how long console status messages stay visible
func (c *Config) StatusDuration() time.Duration {
	return time.Duration(c.StatusMessageSeconds) * time.Second
}

// Get returns the string form of a key
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "server_url":
		return c.ServerURL, nil
	case "request_timeout_seconds":
		return strconv.Itoa(c.RequestTimeoutSeconds), nil
	case "default_tab":
		return c.DefaultTab, nil
	case "color_theme":
		return c.ColorTheme, nil
	case "status_message_seconds":
		return strconv.Itoa(c.StatusMessageSeconds), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_file":
		return c.LogFile, nil
	case "scan.burst_gap_ms":
		return strconv.Itoa(c.Scan.BurstGapMS), nil
	case "scan.id_pattern":
		return c.Scan.IDPattern, nil
	case "export_dir":
		return c.ExportDir, nil
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

// Set validates and assigns one key from its string form
func (c *Config) Set(key, value string) error {
	switch key {
	case "server_url":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("server_url must start with http:// or https://")
		}
		c.ServerURL = strings.TrimRight(value, "/")
	case "request_timeout_seconds":
		n, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		c.RequestTimeoutSeconds = n
	case "default_tab":
		if !slices.Contains(validTabs, value) {
			return fmt.Errorf("default_tab must be one of %v", validTabs)
		}
		c.DefaultTab = value
	case "color_theme":
		if !slices.Contains(validThemes, value) {
			return fmt.Errorf("color_theme must be one of %v", validThemes)
		}
		c.ColorTheme = value
	case "status_message_seconds":
		n, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		c.StatusMessageSeconds = n
	case "log_level":
		if !slices.Contains(validLogLevels, value) {
			return fmt.Errorf("log_level must be one of %v", validLogLevels)
		}
		c.LogLevel = value
	case "log_file":
		c.LogFile = value
	case "scan.burst_gap_ms":
		n, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		c.Scan.BurstGapMS = n
	case "scan.id_pattern":
		if _, err := regexp.Compile(value); err != nil {
			return fmt.Errorf("scan.id_pattern is not a valid regular expression: %w", err)
		}
		c.Scan.IDPattern = value
	case "export_dir":
		c.ExportDir = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func positiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}
