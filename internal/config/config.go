package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/amitools/amiclone/pkg/awsec2"
	"github.com/amitools/amiclone/pkg/clone"
)

// Config holds all application configuration
type Config struct {
	// Clone operation
	SourceImageID      string   `mapstructure:"source-image-id"`
	SourceRegion       string   `mapstructure:"source-region"`
	DestinationRegions []string `mapstructure:"destination-regions"`

	// Poll cadence for copy progress checks, in seconds
	ProgressCheckInterval int `mapstructure:"progress-check-interval"`

	// EC2 client retry policy
	RetryAttempts int `mapstructure:"retry-attempts"`
	RetryDelay    int `mapstructure:"retry-delay"`

	// Database paths
	SQLitePath string `mapstructure:"sqlite-path"`
	FSMDBPath  string `mapstructure:"fsm-db-path"`
}

// Load reads configuration from environment, config file, and defaults
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("progress-check-interval", 30)
	viper.SetDefault("retry-attempts", 3)
	viper.SetDefault("retry-delay", 2)
	viper.SetDefault("sqlite-path", ".artifacts/amiclone.db")
	viper.SetDefault("fsm-db-path", ".artifacts/fsm")

	// Environment variables (will be AMICLONE_SOURCE_IMAGE_ID, etc.)
	viper.SetEnvPrefix("AMICLONE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Config file (optional)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.amiclone")

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()

	// Unmarshal into config struct
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the ambient configuration for errors. The clone request
// fields are validated separately by the orchestrator.
func (c *Config) Validate() error {
	if c.SQLitePath == "" {
		return fmt.Errorf("sqlite-path cannot be empty")
	}
	if c.FSMDBPath == "" {
		return fmt.Errorf("fsm-db-path cannot be empty")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("retry-attempts must be positive")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry-delay must be non-negative")
	}
	return nil
}

// CloneConfig converts the loaded values into the cloning engine's configuration
func (c *Config) CloneConfig() clone.Config {
	return clone.Config{
		SourceImageID:         c.SourceImageID,
		SourceRegion:          c.SourceRegion,
		DestinationRegions:    c.DestinationRegions,
		ProgressCheckInterval: time.Duration(c.ProgressCheckInterval) * time.Second,
	}
}

// ClientOptions converts the loaded values into the EC2 client's retry options
func (c *Config) ClientOptions() awsec2.Options {
	return awsec2.Options{
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    time.Duration(c.RetryDelay) * time.Second,
	}
}
