// Package config resolves run settings from flags, SONAR_* environment
// variables, an optional YAML config file and a .env file.
//
// Precedence, highest first:
//  1. command-line flags
//  2. environment (SONAR_BASE_URL, SONAR_USERNAME, SONAR_LOG_LEVEL, ...)
//  3. the --config file
//  4. the .env file (never overrides variables already set)
//  5. defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/database"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/inventory"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/sonar"
)

// EnvPrefix prefixes every environment variable read through viper.
const EnvPrefix = "SONAR"

// Config holds everything one export run needs.
type Config struct {
	BaseURL  string `mapstructure:"base_url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	ManufacturerID        string        `mapstructure:"manufacturer_id"`
	ExcludedAssigneeTypes []string      `mapstructure:"excluded_assignee_types"`
	Strict                bool          `mapstructure:"strict"`
	Parallel              bool          `mapstructure:"parallel"`
	HTTPTimeout           time.Duration `mapstructure:"http_timeout"`

	Output    string `mapstructure:"output"`
	Shapefile string `mapstructure:"shapefile"`
	Oracle    bool   `mapstructure:"oracle"`

	Log LogConfig `mapstructure:"log"`

	// Database is read from the DB_* variables, as the Oracle tooling
	// elsewhere expects.
	Database database.DBConfig `mapstructure:"-"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", sonar.DefaultBaseURL)
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("manufacturer_id", string(inventory.UbiquitiManufacturerID))
	v.SetDefault("excluded_assignee_types", inventory.DefaultExcludedAssigneeTypes)
	v.SetDefault("strict", false)
	v.SetDefault("parallel", false)
	v.SetDefault("http_timeout", time.Duration(0))
	v.SetDefault("output", "aircontrol_locations.kml")
	v.SetDefault("shapefile", "")
	v.SetDefault("oracle", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String("env-file", ".env", "path to a .env file")
	fs.String("base-url", sonar.DefaultBaseURL, "Sonar API base URL")
	fs.String("username", "", "Sonar username (prompted when empty)")
	fs.String("manufacturer-id", string(inventory.UbiquitiManufacturerID), "inventory manufacturer id to export")
	fs.StringSlice("excluded-assignee-types", inventory.DefaultExcludedAssigneeTypes, "assignee types to skip in addition to vehicles, inventory locations and generic assignees")
	fs.Bool("strict", false, "fail when a device's assignee has no coordinates instead of skipping it")
	fs.Bool("parallel", false, "fetch independent collections concurrently")
	fs.Duration("http-timeout", 0, "per-request timeout (0 disables)")
	fs.StringP("output", "o", "aircontrol_locations.kml", "KML output path")
	fs.String("shapefile", "", "also write a point shapefile to this path")
	fs.Bool("oracle", false, "also replace the Oracle locations table (DB_* variables)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text, json)")
	return fs
}

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"base-url":                "base_url",
	"manufacturer-id":         "manufacturer_id",
	"excluded-assignee-types": "excluded_assignee_types",
	"http-timeout":            "http_timeout",
	"log-level":               "log.level",
	"log-format":              "log.format",
}

// Load parses args (without the program name) and resolves the config.
// It returns pflag.ErrHelp when -h or --help was given.
func Load(name string, args []string) (*Config, error) {
	fs := newFlagSet(name)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envFile, _ := fs.GetString("env-file")
	if err := LoadEnvFile(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "env-file" {
			return
		}
		key := f.Name
		if k, ok := flagKeys[f.Name]; ok {
			key = k
		}
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return nil, fmt.Errorf("bind flags: %w", bindErr)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Database = loadDatabaseConfig()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("config: base_url is empty")
	}
	if strings.TrimSpace(c.Output) == "" {
		return errors.New("config: output is empty")
	}
	if strings.TrimSpace(c.ManufacturerID) == "" {
		return errors.New("config: manufacturer_id is empty")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("config: negative http_timeout %s", c.HTTPTimeout)
	}
	if c.Oracle && c.Database.Username == "" {
		return errors.New("config: oracle sink enabled but DB_USERNAME is not set")
	}
	return nil
}

// loadDatabaseConfig reads the Oracle connection from DB_* variables.
func loadDatabaseConfig() database.DBConfig {
	return database.DBConfig{
		Host:           getEnvOrDefault("DB_HOST", "localhost"),
		Port:           getEnvOrDefault("DB_PORT", "1521"),
		Service:        getEnvOrDefault("DB_SERVICE", "XE"),
		Username:       getEnvOrDefault("DB_USERNAME", ""),
		Password:       getEnvOrDefault("DB_PASSWORD", ""),
		WalletLocation: getEnvOrDefault("DB_WALLET_LOCATION", ""),
		Table:          getEnvOrDefault("DB_TABLE", database.DefaultTable),
	}
}
