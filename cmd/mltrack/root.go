package main

import (
	"github.com/spf13/cobra"

	"github.com/randalmurphal/mltrack/config"
	"github.com/randalmurphal/mltrack/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "mltrack",
	Short:         "Experiment tracking server with safe artifact storage",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(gcCmd)
}

// loadConfig reads the configuration and initializes logging from it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	return cfg, nil
}
