package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultd/vaultd/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write a starter vaultd configuration file populated with documented
defaults.

By default the file is created at $XDG_CONFIG_HOME/vaultd/config.yaml. Use
--config to choose a different path.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("Edit it to customize storage, pool sizes, and metrics, then run:")
	fmt.Printf("  vaultd start --config %s\n", path)
	return nil
}
