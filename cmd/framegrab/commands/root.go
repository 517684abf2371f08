package commands

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/framegrab/internal/config"
	"github.com/bryanchriswhite/framegrab/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	v       = viper.New()
	rootCmd = &cobra.Command{
		Use:   "framegrab",
		Short: "framegrab - record camera frames to timestamped session directories",
		Long: `framegrab connects to a camera, saves every frame as a PNG file in a
new timestamped session directory and reports the throughput when you stop it.

Each run creates BASE_PATH/<YYYYMMDDTHHMMSS>/ and records that directory in
BASE_PATH/run_info, so the latest session is always one file read away.

Features:
  • V4L2 cameras, GStreamer pipelines, X11 screen grabs and a test pattern
  • Live MJPEG preview in the browser
  • Frame events over WebSocket
  • YAML config with FRAMEGRAB_* environment overrides`,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(v.GetString("log_level"), true)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/framegrab/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// loadConfig reads the config file, environment and bound flags, then applies
// the configured log settings
func loadConfig() (*config.Manager, error) {
	configMgr, err := config.NewManagerWithViper(GetConfigFile(), v)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	logger.WithComponent("config").Debug().
		Str("path", configMgr.GetConfigPath()).
		Msg("Configuration loaded")
	return configMgr, nil
}
