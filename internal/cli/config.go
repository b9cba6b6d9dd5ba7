package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwulff/sentiscribe/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the sentiscribe config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file populated with defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath()
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "path",
	Short: "Print which config file would be loaded",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, used, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if used == "" {
			used = "(defaults)"
		}
		fmt.Fprintln(cmd.OutOrStdout(), used)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
