package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bryanchriswhite/framegrab/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage framegrab configuration",
	Long:  `View and create the framegrab configuration file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after merging defaults, the config file and
FRAMEGRAB_* environment variables.`,
	Example: `  # Show configuration as YAML (default)
  framegrab config show

  # Show configuration as JSON
  framegrab config show --format json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Long: `Write the built-in defaults to the configuration file so they can be edited.
An existing file is left alone unless --force is given.`,
	Example: `  framegrab config init
  framegrab config init --config ./framegrab.yaml --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var (
	formatFlag string
	forceFlag  bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)

	configShowCmd.Flags().StringVarP(&formatFlag, "format", "f", "yaml", "output format (yaml or json)")
	configInitCmd.Flags().BoolVar(&forceFlag, "force", false, "overwrite an existing config file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}

	cfg := configMgr.Get()

	switch formatFlag {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	case "yaml":
		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(cfg)
	default:
		return fmt.Errorf("unsupported format: %s (use 'yaml' or 'json')", formatFlag)
	}
}

func configPath() (string, error) {
	if p := GetConfigFile(); p != "" {
		return p, nil
	}
	return config.DefaultPath()
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	p, err := configPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), p)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	p, err := configPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(p); err == nil && !forceFlag {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", p)
	}

	if err := config.WriteFile(p, config.Defaults()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", p)
	return nil
}
