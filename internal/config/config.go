// Package config provides configuration management for the Cutroom Agent.
// Values are layered: built-in defaults, then an optional YAML file in the
// data directory, then environment variables. A .env file in the working
// directory is folded into the environment before anything is read.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort     = 8712
	DefaultLogLevel = "info"
	DefaultDataDir  = ".cutroom"

	// Environment variable names
	EnvPort       = "CUTROOM_PORT"
	EnvLogLevel   = "CUTROOM_LOG_LEVEL"
	EnvDataDir    = "CUTROOM_DATA_DIR"
	EnvMediaDir   = "CUTROOM_MEDIA_DIR"
	EnvConfigFile = "CUTROOM_CONFIG"
	EnvHeadless   = "CUTROOM_HEADLESS"

	// Cloud environment variable names
	EnvCloudURL   = "CUTROOM_CLOUD_URL"
	EnvCloudToken = "CUTROOM_CLOUD_TOKEN"
	EnvCloudOrg   = "CUTROOM_CLOUD_ORG"

	// Database filename
	DBFilename = "cutroom.db"

	// Config filename inside the data directory
	ConfigFilename = "config.yaml"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	CacheDir() string
	MediaDir() string
	Headless() bool
	CloudEnabled() bool
	CloudBaseURL() string
	CloudToken() string
	CloudOrgSlug() string
}

// fileConfig mirrors the YAML layout of config.yaml.
type fileConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	MediaDir string `yaml:"media_dir"`
	Headless bool   `yaml:"headless"`
	Cloud    struct {
		URL   string `yaml:"url"`
		Token string `yaml:"token"`
		Org   string `yaml:"org"`
	} `yaml:"cloud"`
}

// EnvConfig reads configuration from the config file and environment
// variables, with the environment taking precedence.
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	mediaDir string
	headless bool

	cloudURL   string
	cloudToken string
	cloudOrg   string
}

// New creates a new EnvConfig with defaults, file values, and environment
// variable overrides, applied in that order.
func New() (*EnvConfig, error) {
	// Fold .env into the environment first; variables already set win.
	_ = godotenv.Load()

	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
	}

	// The data directory has to settle before the config file can be
	// found, so its override is applied ahead of the file pass.
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}
	cfg.mediaDir = filepath.Join(cfg.dataDir, "media")

	if err := cfg.loadFile(); err != nil {
		return nil, err
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if md := os.Getenv(EnvMediaDir); md != "" {
		cfg.mediaDir = md
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	if u := os.Getenv(EnvCloudURL); u != "" {
		cfg.cloudURL = u
	}
	if tk := os.Getenv(EnvCloudToken); tk != "" {
		cfg.cloudToken = tk
	}
	if org := os.Getenv(EnvCloudOrg); org != "" {
		cfg.cloudOrg = org
	}

	return cfg, nil
}

// loadFile merges config.yaml from the data directory, if present.
// CUTROOM_CONFIG points at an alternate file; a missing explicit file is
// an error, a missing default one is not.
func (c *EnvConfig) loadFile() error {
	path := filepath.Join(c.dataDir, ConfigFilename)
	explicit := false
	if p := os.Getenv(EnvConfigFile); p != "" {
		path = p
		explicit = true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.Port != 0 {
		if fc.Port < 1 || fc.Port > 65535 {
			return fmt.Errorf("parse %s: port must be between 1 and 65535", path)
		}
		c.port = fc.Port
	}
	if fc.LogLevel != "" {
		c.logLevel = fc.LogLevel
	}
	if fc.MediaDir != "" {
		c.mediaDir = fc.MediaDir
	}
	if fc.Headless {
		c.headless = true
	}
	if fc.Cloud.URL != "" {
		c.cloudURL = fc.Cloud.URL
	}
	if fc.Cloud.Token != "" {
		c.cloudToken = fc.Cloud.Token
	}
	if fc.Cloud.Org != "" {
		c.cloudOrg = fc.Cloud.Org
	}

	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// CacheDir returns the directory prefetched assets are materialized into
func (c *EnvConfig) CacheDir() string {
	return filepath.Join(c.dataDir, "cache")
}

// MediaDir returns the directory relative content refs resolve against
func (c *EnvConfig) MediaDir() string {
	return c.mediaDir
}

// Headless reports whether the system tray should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// CloudEnabled reports whether document sync has a usable backend
func (c *EnvConfig) CloudEnabled() bool {
	return c.cloudURL != "" && c.cloudToken != ""
}

func (c *EnvConfig) CloudBaseURL() string {
	return c.cloudURL
}

func (c *EnvConfig) CloudToken() string {
	return c.cloudToken
}

func (c *EnvConfig) CloudOrgSlug() string {
	return c.cloudOrg
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
