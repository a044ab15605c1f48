// Package config provides configuration management for Weave using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files and environment variable
// overrides with the WEAVE_ prefix. It manages server settings, assembly
// engine tunables, layout area assignments, and the rule tuning file.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Assembly AssemblyConfig `yaml:"assembly"`
	Layout   LayoutConfig   `yaml:"layout"`
	Rules    RulesConfig    `yaml:"rules"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Environment    string   `yaml:"environment"`
}

type AssemblyConfig struct {
	StaggerUnit       float64 `yaml:"stagger_unit"`
	AnimationDeadline string  `yaml:"animation_deadline"`
	DefaultLayout     string  `yaml:"default_layout"`
}

type LayoutConfig struct {
	SidebarTypes []string `yaml:"sidebar_types"`
}

type RulesConfig struct {
	TuningFile string `yaml:"tuning_file"`
	Watch      bool   `yaml:"watch"`
}

// Deadline parses the configured animation deadline.
func (a AssemblyConfig) Deadline() (time.Duration, error) {
	if a.AnimationDeadline == "" {
		return 0, nil
	}
	return time.ParseDuration(a.AnimationDeadline)
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle underscore keys set via viper (workaround for viper key mapping)
	if viper.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}
	if viper.IsSet("assembly.stagger_unit") {
		config.Assembly.StaggerUnit = viper.GetFloat64("assembly.stagger_unit")
	}
	if viper.IsSet("assembly.animation_deadline") {
		config.Assembly.AnimationDeadline = viper.GetString("assembly.animation_deadline")
	}
	if viper.IsSet("assembly.default_layout") {
		config.Assembly.DefaultLayout = viper.GetString("assembly.default_layout")
	}
	if viper.IsSet("layout.sidebar_types") && len(config.Layout.SidebarTypes) == 0 {
		config.Layout.SidebarTypes = viper.GetStringSlice("layout.sidebar_types")
	}
	if viper.IsSet("rules.tuning_file") {
		config.Rules.TuningFile = viper.GetString("rules.tuning_file")
	}
	if viper.IsSet("rules.watch") {
		config.Rules.Watch = viper.GetBool("rules.watch")
	}

	// Apply defaults for values not set anywhere
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Assembly.StaggerUnit == 0 {
		config.Assembly.StaggerUnit = 0.1
	}
	if config.Assembly.AnimationDeadline == "" {
		config.Assembly.AnimationDeadline = "10s"
	}
	if config.Assembly.DefaultLayout == "" {
		config.Assembly.DefaultLayout = "default"
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateAssemblyConfig(&config.Assembly); err != nil {
		return fmt.Errorf("assembly config: %w", err)
	}
	if err := validateRulesConfig(&config.Rules); err != nil {
		return fmt.Errorf("rules config: %w", err)
	}
	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}

// validateAssemblyConfig validates assembly engine tunables
func validateAssemblyConfig(config *AssemblyConfig) error {
	if config.StaggerUnit < 0 {
		return fmt.Errorf("stagger_unit must not be negative: %v", config.StaggerUnit)
	}

	deadline, err := config.Deadline()
	if err != nil {
		return fmt.Errorf("animation_deadline is not a duration: %w", err)
	}
	if deadline < 0 {
		return fmt.Errorf("animation_deadline must not be negative: %s", config.AnimationDeadline)
	}

	return nil
}

// validateRulesConfig validates the rule tuning file path
func validateRulesConfig(config *RulesConfig) error {
	if config.TuningFile == "" {
		return nil
	}

	cleanPath := filepath.Clean(config.TuningFile)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("tuning_file contains path traversal: %s", config.TuningFile)
	}

	return nil
}
