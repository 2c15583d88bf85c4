package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/assetctl/pkg/config"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change assetctl settings",
	RunE:  runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every setting",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting and save the config file.

Examples:
  assetctl config set server_url https://assets.example.com
  assetctl config set scan.burst_gap_ms 400
  assetctl config set default_tab transfer`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(configPath)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	fmt.Println(ui.FormatTitle("Configuration"))
	fmt.Println(ui.FormatMuted(configPath))
	fmt.Println()
	for _, key := range config.Keys {
		value, err := appConfig.Get(key)
		if err != nil {
			return err
		}
		if value == "" {
			value = ui.FormatMuted("(default)")
		}
		fmt.Println(ui.RenderKeyValue(key, value))
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	// Reload so a --server override is not written back
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Set(args[0], args[1]); err != nil {
		fmt.Println(ui.FormatError(err.Error()))
		return err
	}
	if err := cfg.Save(configPath); err != nil {
		fmt.Println(ui.FormatError("Failed to save config"))
		return err
	}
	value, _ := cfg.Get(args[0])
	fmt.Println(ui.FormatSuccess(fmt.Sprintf("%s = %s", args[0], value)))
	return nil
}
