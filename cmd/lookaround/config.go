package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lookaround/lookaround/internal/config"
	"github.com/lookaround/lookaround/internal/ui"
)

var (
	forceInit bool
	assumeYes bool
)

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")
	configInitCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask before overwriting")

	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetNickCmd)
	configCmd.AddCommand(configUnsetNickCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the lookaround config file",
	Long: `Manage the YAML config file holding local nickname overrides and the
defaults for the server and client commands.

Running 'lookaround config' without a subcommand prints the config path.`,
	Args: cobra.NoArgs,
	RunE: runConfigPath,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}

		_, statErr := os.Stat(path)
		exists := statErr == nil
		if exists {
			if !forceInit {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
			}
			if !assumeYes && !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Overwrite configuration",
				[]string{"All nickname overrides in " + path + " will be lost"}) {
				return nil
			}
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to remove old config: %w", err)
			}
		}

		if _, err := config.CreateDefaultConfig(path); err != nil {
			return err
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Config file written", ui.Param{Key: "Path", Value: path})
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", reg.Path())
		data, err := yaml.Marshal(reg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = out.Write(data)
		return err
	},
}

var configSetNickCmd = &cobra.Command{
	Use:   "set-nick <mac> <nickname>",
	Short: "Set a local nickname for a MAC address",
	Long: `Record a local nickname for a peer's MAC address. The override is shown
for peers that do not announce a nickname of their own.`,
	Example: `  lookaround config set-nick 02:00:5e:10:20:30 printer`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if err := reg.SetNickname(args[0], args[1]); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}

		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Nickname saved",
			ui.Param{Key: "MAC", Value: args[0]},
			ui.Param{Key: "Nickname", Value: args[1]},
		)
		return nil
	},
}

var configUnsetNickCmd = &cobra.Command{
	Use:   "unset-nick <mac>",
	Short: "Remove the local nickname for a MAC address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		removed, err := reg.RemoveNickname(args[0])
		if err != nil {
			return err
		}

		printer := ui.NewPrinter(cmd.OutOrStdout())
		if !removed {
			printer.PrintWarning("No nickname set", ui.Param{Key: "MAC", Value: args[0]})
			return nil
		}
		if err := reg.Save(); err != nil {
			return err
		}
		printer.PrintSuccess("Nickname removed", ui.Param{Key: "MAC", Value: args[0]})
		return nil
	},
}

