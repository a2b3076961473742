// Package config handles the XDG configuration directory, settings and logging.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "taskctl"

	// EnvPrefix prefixes environment overrides (TASKCTL_BASE_URL, TASKCTL_STORAGE_DRIVER, ...).
	EnvPrefix = "TASKCTL"

	// DefaultBaseURL is the API root used when none is configured.
	DefaultBaseURL = "http://localhost:8080/api"

	// SessionFile is the session store filename for the file driver.
	SessionFile = "session.json"

	// SessionDB is the session store filename for the sqlite driver.
	SessionDB = "session.db"
)

// StorageConfig selects and configures the durable session store.
type StorageConfig struct {
	// Driver is one of file, sqlite, redis, memory.
	Driver string

	// Path overrides the store file for the file and sqlite drivers.
	Path string

	RedisURL    string
	RedisPrefix string
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// BaseURL is the API root, e.g. http://localhost:8080/api.
	BaseURL string

	Storage StorageConfig

	// AutoLogoutOnAuthFailure ends the session when the server answers 401.
	AutoLogoutOnAuthFailure bool
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskctl or $HOME/.config/taskctl.
// Settings come from an optional config.{yaml,json,toml} in that directory,
// then TASKCTL_* environment variables.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("debug", false)
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.redis_url", "")
	v.SetDefault("storage.redis_prefix", "taskctl:")
	v.SetDefault("auto_logout_on_auth_failure", false)

	v.SetConfigName("config")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("invalid config file: %w", err)
		}
	}

	return &Config{
		Dir:     dir,
		Debug:   v.GetBool("debug"),
		BaseURL: strings.TrimRight(v.GetString("base_url"), "/"),
		Storage: StorageConfig{
			Driver:      v.GetString("storage.driver"),
			Path:        v.GetString("storage.path"),
			RedisURL:    v.GetString("storage.redis_url"),
			RedisPrefix: v.GetString("storage.redis_prefix"),
		},
		AutoLogoutOnAuthFailure: v.GetBool("auto_logout_on_auth_failure"),
	}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SessionFilePath returns the path of the file-driver session store.
func (c *Config) SessionFilePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(c.Dir, SessionFile)
}

// SessionDBPath returns the path of the sqlite-driver session store.
func (c *Config) SessionDBPath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(c.Dir, SessionDB)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// Logger returns a logger writing to w: warnings by default, everything with Debug.
func (c *Config) Logger(w io.Writer) *log.Logger {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetFormatter(&log.TextFormatter{DisableTimestamp: !c.Debug})
	logger.SetLevel(log.WarnLevel)
	if c.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}
