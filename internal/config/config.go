// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Supported locales for attribute labels and help text
const (
	LocaleEnglish    = "en"
	LocalePortuguese = "pt-BR"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	Locale      string   `mapstructure:"locale"`

	// File paths
	DatabasePath          string `mapstructure:"storagepath"`
	DatabaseName          string `mapstructure:"-"` // Derived from other settings
	PublicDirectory       string `mapstructure:"publicdir"`
	PublicAssetsUrlPrefix string `mapstructure:"publicassetsurlprefix"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseMaxOpenConns int `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int `mapstructure:"dbmaxidleconns"`

	// Write-behind delay applied before a burst of edits is persisted
	PersistDelayMs int `mapstructure:"persistdelayms"`

	// Background jobs; zero disables a job
	CleanupIntervalHours      int `mapstructure:"cleanupintervalhours"`
	CheckpointIntervalMinutes int `mapstructure:"checkpointintervalminutes"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		v.SetDefault("appname", "charsheet")
		v.SetDefault("appport", "4173")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelInfo))
		v.SetDefault("locale", LocaleEnglish)
		v.SetDefault("storagepath", "storage")
		v.SetDefault("publicdir", "web/assets")
		v.SetDefault("publicassetsurlprefix", "/assets")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 5)
		v.SetDefault("logsmaxbackups", 3)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("persistdelayms", 250)
		v.SetDefault("cleanupintervalhours", 24)
		v.SetDefault("checkpointintervalminutes", 10)

		v.BindEnv("appname", "CHARSHEET_APP_NAME")
		v.BindEnv("appport", "CHARSHEET_APP_PORT")
		v.BindEnv("environment", "CHARSHEET_ENV")
		v.BindEnv("loglevel", "CHARSHEET_LOG_LEVEL")
		v.BindEnv("locale", "CHARSHEET_LOCALE")
		v.BindEnv("storagepath", "CHARSHEET_STORAGE_PATH")
		v.BindEnv("publicdir", "CHARSHEET_PUBLIC_DIR")
		v.BindEnv("publicassetsurlprefix", "CHARSHEET_PUBLIC_ASSETS_URL_PREFIX")
		v.BindEnv("logsdir", "CHARSHEET_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "CHARSHEET_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "CHARSHEET_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "CHARSHEET_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbmaxopenconns", "CHARSHEET_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "CHARSHEET_DB_MAX_IDLE_CONNS")
		v.BindEnv("persistdelayms", "CHARSHEET_PERSIST_DELAY_MS")
		v.BindEnv("cleanupintervalhours", "CHARSHEET_CLEANUP_INTERVAL_HOURS")
		v.BindEnv("checkpointintervalminutes", "CHARSHEET_CHECKPOINT_INTERVAL_MINUTES")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		// Set derived values
		cfg.DatabaseName = cfg.GetDatabasePath()
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validLocales := map[string]bool{
		LocaleEnglish:    true,
		LocalePortuguese: true,
	}
	if !validLocales[c.Locale] {
		return fmt.Errorf("invalid locale: %s", c.Locale)
	}

	if c.PersistDelayMs < 0 {
		return fmt.Errorf("invalid persist delay: %dms", c.PersistDelayMs)
	}

	if c.CleanupIntervalHours < 0 || c.CheckpointIntervalMinutes < 0 {
		return fmt.Errorf("invalid job interval")
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetPublicDirectory returns the path to item images (implements cartridge.Config interface).
func (c *Config) GetPublicDirectory() string {
	return c.PublicDirectory
}

// GetAssetsPrefix returns the URL prefix for item images (implements cartridge.Config interface).
func (c *Config) GetAssetsPrefix() string {
	return c.PublicAssetsUrlPrefix
}

// GetAppName returns the application name (implements cartridge.LogConfigProvider).
func (c *Config) GetAppName() string {
	return c.AppName
}

// PersistDelay returns the write-behind delay as a duration.
func (c *Config) PersistDelay() time.Duration {
	return time.Duration(c.PersistDelayMs) * time.Millisecond
}

// CleanupInterval returns how often orphaned sheets are pruned.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalHours) * time.Hour
}

// CheckpointInterval returns how often the WAL is checkpointed.
func (c *Config) CheckpointInterval() time.Duration {
	return time.Duration(c.CheckpointIntervalMinutes) * time.Minute
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1
// - Development/Production: 4 (one writer, a few readers for the UI)
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 4
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 2
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
