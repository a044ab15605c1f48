// Package cmd provides the command-line interface for Weave with
// configuration management supporting multiple configuration sources.
//
// Configuration precedence (highest to lowest):
//  1. Command-line flags (--config, --port, etc.)
//  2. WEAVE_CONFIG_FILE environment variable - custom config file path
//  3. Individual environment variables (WEAVE_SERVER_PORT, etc.)
//  4. Configuration file (.weave.yml)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "weave",
	Short: "Conversational UI assembly engine",
	Long: `Weave turns a stream of conversational intents into a live, animated
user interface by progressively mounting, updating, and unmounting typed
UI components.

Quick Start:
  weave serve                    Start the assembly server
  weave rules                    Show the configured rule order
  weave version                  Print version information`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .weave.yml, can also use WEAVE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	bindFlag("log-level", rootCmd.PersistentFlags())
	bindFlag("log-format", rootCmd.PersistentFlags())
}

// bindFlag binds a named flag into viper, panicking on programmer error so
// misbound flags fail at startup rather than silently.
func bindFlag(name string, flags *pflag.FlagSet) {
	if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}

// initConfig initializes the configuration system.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("WEAVE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".weave")
	}

	// Enable automatic environment variable binding with WEAVE_ prefix
	// Examples: WEAVE_SERVER_PORT, WEAVE_ASSEMBLY_STAGGER_UNIT
	viper.SetEnvPrefix("WEAVE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// If the file doesn't exist or has errors, viper uses defaults without
	// failing, so a missing config file never blocks startup
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
